package domain

import (
	"fmt"
	"time"
)

// Mode selects which half of the bootstrap sequence runs.
type Mode string

const (
	ModeSetup Mode = "setup" // runtime check, installs, downloads
	ModeRun   Mode = "run"   // port cleanup and launch
	ModeFull  Mode = "full"  // both
)

// ParseMode validates a mode string; empty means full.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeFull, nil
	case ModeSetup, ModeRun, ModeFull:
		return Mode(s), nil
	}
	return "", &OpError{
		Op:   "bootstrap.mode",
		Kind: KindInvalidConfig,
		Err:  fmt.Errorf("%w: unknown mode %q (expected setup|run|full)", ErrInvalidConfig, s),
	}
}

func (m Mode) Setup() bool { return m == ModeSetup || m == ModeFull }
func (m Mode) Run() bool   { return m == ModeRun || m == ModeFull }

// StepStatus is the outcome of a bootstrap step.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// StepResult records one step of the sequence.
type StepResult struct {
	Name     string
	Status   StepStatus
	Message  string
	Duration time.Duration
}

// RuntimeInfo describes the verified interpreter.
type RuntimeInfo struct {
	Name    string
	Path    string
	Version string
}

// FetchResult lists what a single source wrote into the pipelines directory.
type FetchResult struct {
	Source Source
	Files  []string
	Bytes  int64
}

// InstallResult records a package-manager invocation.
type InstallResult struct {
	// File is the requirements file or the pipeline file whose frontmatter declared Packages.
	File     string
	Packages []string
}

// PortReclaim records the processes terminated to free a port.
type PortReclaim struct {
	Port    int
	Killed  []ProcessRef
	Skipped []ProcessRef
}

// ProcessRef identifies a process owning a socket.
type ProcessRef struct {
	PID  int
	Name string
}

// LaunchSpec is the fully rendered server command.
type LaunchSpec struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
}

// HealthResult is the outcome of a readiness probe.
type HealthResult struct {
	URL        string
	StatusCode int
	Healthy    bool
	Message    string
	LatencyMS  int64
}

// Report is the record of one bootstrap invocation.
type Report struct {
	ID        string
	Mode      Mode
	StartedAt time.Time
	EndedAt   time.Time

	Runtime   *RuntimeInfo
	Steps     []StepResult
	Fetched   []FetchResult
	Installed []InstallResult
	Reclaimed *PortReclaim
	Launch    *LaunchSpec
}

// Failed reports whether any step failed.
func (r Report) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			return true
		}
	}
	return false
}
