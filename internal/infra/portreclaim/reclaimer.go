// Package portreclaim frees a TCP port by killing the processes listening on it.
package portreclaim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/c9s/goprocinfo/linux"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

// Finder lists the pids listening on a TCP port.
type Finder interface {
	Listeners(ctx context.Context, port int) ([]int, error)
}

type Reclaimer struct {
	finder Finder
	kill   func(pid int) error
	name   func(pid int) string
	sleep  func(ctx context.Context, d time.Duration) error
	self   int
	grace  time.Duration
	log    *slog.Logger
}

type Option func(*Reclaimer)

func WithFinder(f Finder) Option {
	return func(r *Reclaimer) { r.finder = f }
}

func WithKill(kill func(pid int) error) Option {
	return func(r *Reclaimer) { r.kill = kill }
}

func WithProcessName(name func(pid int) string) Option {
	return func(r *Reclaimer) { r.name = name }
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Reclaimer) { r.sleep = sleep }
}

// WithSelf overrides the pid that is never killed (defaults to os.Getpid()).
func WithSelf(pid int) Option {
	return func(r *Reclaimer) { r.self = pid }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Reclaimer) {
		if l != nil {
			r.log = l
		}
	}
}

// New returns a Reclaimer that waits grace after killing before returning.
func New(grace time.Duration, opts ...Option) *Reclaimer {
	r := &Reclaimer{
		finder: defaultFinder(),
		kill:   killProcess,
		name:   processName,
		sleep:  sleepContext,
		self:   os.Getpid(),
		grace:  grace,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.PortReclaimer = (*Reclaimer)(nil)

// Reclaim kills every process listening on port, unconditionally.
func (r *Reclaimer) Reclaim(ctx context.Context, port int) (domain.PortReclaim, error) {
	out := domain.PortReclaim{Port: port}
	if port <= 0 || port > 65535 {
		return out, &domain.OpError{
			Op:   "portreclaim.port",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("%w: port %d out of range", domain.ErrInvalidConfig, port),
		}
	}

	pids, err := r.finder.Listeners(ctx, port)
	if err != nil {
		return out, &domain.OpError{Op: "portreclaim.find", Kind: domain.KindExecution, Path: strconv.Itoa(port), Err: err}
	}

	for _, pid := range pids {
		ref := domain.ProcessRef{PID: pid, Name: r.name(pid)}
		if pid == r.self {
			out.Skipped = append(out.Skipped, ref)
			continue
		}
		r.log.Info("portreclaim.kill", "port", port, "pid", pid, "name", ref.Name)
		if err := r.kill(pid); err != nil {
			return out, &domain.OpError{Op: "portreclaim.kill", Kind: domain.KindExecution, Path: strconv.Itoa(pid), Err: err}
		}
		out.Killed = append(out.Killed, ref)
	}

	if len(out.Killed) > 0 && r.grace > 0 {
		if err := r.sleep(ctx, r.grace); err != nil {
			return out, &domain.OpError{Op: "portreclaim.wait", Kind: domain.KindExecution, Err: err}
		}
	}
	return out, nil
}

func defaultFinder() Finder {
	if runtime.GOOS == "linux" {
		return NewProcFinder()
	}
	return NewLsofFinder(nil)
}

func killProcess(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func processName(pid int) string {
	if runtime.GOOS != "linux" {
		return ""
	}
	st, err := linux.ReadProcessStat(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil || st == nil {
		return ""
	}
	return strings.Trim(st.Comm, "()")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
