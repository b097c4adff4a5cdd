package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/infra/logger"
)

func validateFormat(format string) error {
	switch format {
	case "pretty", "json", "":
		return nil
	}
	return &domain.OpError{
		Op:   "cli.format",
		Kind: domain.KindInvalidConfig,
		Err:  fmt.Errorf("%w: unsupported format %q (expected pretty|json)", domain.ErrInvalidConfig, format),
	}
}

func printReport(w io.Writer, report domain.Report, reportID string, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		payload := map[string]any{
			"report_id": reportID,
			"report":    report,
		}
		return enc.Encode(payload)
	case "pretty", "":
		printPrettyReport(w, report, reportID)
		return nil
	default:
		return validateFormat(format)
	}
}

func printPrettyReport(w io.Writer, report domain.Report, reportID string) {
	total := report.EndedAt.Sub(report.StartedAt)
	if report.StartedAt.IsZero() || report.EndedAt.IsZero() {
		total = 0
	}

	fmt.Fprintln(w, styles.title.Render("lightpipe "+string(report.Mode)))
	fmt.Fprintf(w, "Started:    %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Duration:   %s\n", total.Round(time.Millisecond))
	if report.Runtime != nil {
		fmt.Fprintf(w, "Runtime:    %s %s (%s)\n", report.Runtime.Name, report.Runtime.Version, report.Runtime.Path)
	}
	if reportID != "" {
		fmt.Fprintf(w, "Report ID:  %s\n", reportID)
	}
	if p := logger.Path(); p != "" {
		fmt.Fprintf(w, "Log file:   %s\n", p)
	}
	fmt.Fprintln(w)

	for _, s := range report.Steps {
		fmt.Fprintf(w, "%s %-12s %s %s\n", stepMark(s.Status), s.Name, s.Message,
			styles.faint.Render(s.Duration.Round(time.Millisecond).String()))
	}

	if len(report.Fetched) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "fetched:")
		for _, f := range report.Fetched {
			fmt.Fprintf(w, "  - [%s] %s (%d file(s), %d bytes)\n", f.Source.Kind, f.Source.Raw, len(f.Files), f.Bytes)
		}
	}

	if len(report.Installed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "installed:")
		for _, in := range report.Installed {
			if len(in.Packages) == 0 {
				fmt.Fprintf(w, "  - -r %s\n", in.File)
				continue
			}
			fmt.Fprintf(w, "  - %s (%s)\n", strings.Join(in.Packages, " "), in.File)
		}
	}

	if report.Reclaimed != nil && len(report.Reclaimed.Killed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "port %d reclaimed from:\n", report.Reclaimed.Port)
		for _, p := range report.Reclaimed.Killed {
			fmt.Fprintf(w, "  - %s\n", processLabel(p.PID, p.Name))
		}
	}
}

func stepMark(s domain.StepStatus) string {
	switch s {
	case domain.StepOK:
		return styles.ok.Render(markOK)
	case domain.StepFailed:
		return styles.fail.Render(markFail)
	default:
		return styles.skip.Render(markSkip)
	}
}
