package transcode

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner abstracts process execution for testability. It returns whatever
// the process wrote to stderr along with the exit error.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandRunner struct{}

func (commandRunner) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}
