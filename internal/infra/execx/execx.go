// Package execx runs external tools (interpreters, package managers) for the bootstrap steps.
package execx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner runs a command to completion, streaming its output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// LookPathFunc resolves an executable name.
type LookPathFunc func(file string) (string, error)

// OSRunner runs commands with os/exec. Stdout and Stderr default to the process's own.
type OSRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	Env    []string
	Dir    string
}

func NewOSRunner() *OSRunner {
	return &OSRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

var _ Runner = (*OSRunner)(nil)

func (r *OSRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := r.command(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", Describe(name, args), err)
	}
	return nil
}

// Output returns combined stdout and stderr.
func (r *OSRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	var buf bytes.Buffer
	cmd := r.command(ctx, name, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return buf.Bytes(), fmt.Errorf("%s: %w", Describe(name, args), err)
	}
	return buf.Bytes(), nil
}

func (r *OSRunner) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	return cmd
}

// Describe renders a command line for logs and error messages.
func Describe(name string, args []string) string {
	parts := append([]string{name}, args...)
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\"'*") {
			parts[i] = fmt.Sprintf("%q", p)
		}
	}
	return strings.Join(parts, " ")
}
