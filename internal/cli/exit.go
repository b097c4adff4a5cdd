package cli

import (
	"errors"
	"os/exec"
)

// exitCode propagates the server's own exit status when it is the cause.
func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.ExitCode() > 0 {
		return ee.ExitCode()
	}
	return 1
}
