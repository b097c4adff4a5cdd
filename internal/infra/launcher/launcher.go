// Package launcher runs the application server in the foreground.
package launcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/infra/execx"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

// Launcher starts the server with inherited stdio and forwards
// SIGINT/SIGTERM to it.
type Launcher struct {
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	stopDelay  time.Duration
	log        *slog.Logger
	forwardSig bool
}

type Option func(*Launcher)

func WithStdio(in io.Reader, out, errOut io.Writer) Option {
	return func(l *Launcher) {
		l.stdin = in
		l.stdout = out
		l.stderr = errOut
	}
}

// WithStopDelay bounds how long the server gets to exit after it is signalled.
func WithStopDelay(d time.Duration) Option {
	return func(l *Launcher) { l.stopDelay = d }
}

// WithSignalForwarding toggles relaying the parent's SIGINT/SIGTERM.
func WithSignalForwarding(enabled bool) Option {
	return func(l *Launcher) { l.forwardSig = enabled }
}

func WithLogger(lg *slog.Logger) Option {
	return func(l *Launcher) {
		if lg != nil {
			l.log = lg
		}
	}
}

func New(opts ...Option) *Launcher {
	l := &Launcher{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		stopDelay:  10 * time.Second,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		forwardSig: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ ports.ServerLauncher = (*Launcher)(nil)

// Launch blocks until the server exits. Cancelling ctx sends SIGTERM.
func (l *Launcher) Launch(ctx context.Context, spec domain.LaunchSpec) error {
	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = l.stopDelay

	desc := execx.Describe(spec.Command, spec.Args)
	l.log.Info("launch.start", "cmd", desc, "dir", spec.Dir)

	if err := cmd.Start(); err != nil {
		kind := domain.KindExecution
		if errors.Is(err, exec.ErrNotFound) {
			kind = domain.KindMissingRuntime
		}
		return &domain.OpError{Op: "launch.start", Kind: kind, Path: spec.Command, Err: err}
	}

	if l.forwardSig {
		stop := l.forward(cmd.Process)
		defer stop()
	}

	err := cmd.Wait()
	if ctx.Err() != nil {
		l.log.Info("launch.stopped", "cmd", desc)
		return nil
	}
	if err != nil {
		return &domain.OpError{Op: "launch.wait", Kind: domain.KindExecution, Path: spec.Command, Err: err}
	}
	l.log.Info("launch.exited", "cmd", desc)
	return nil
}

func (l *Launcher) forward(p *os.Process) func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case s := <-sigs:
				l.log.Info("launch.signal", "signal", s.String(), "pid", p.Pid)
				_ = p.Signal(s)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
