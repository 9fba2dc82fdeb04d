//go:build !windows

package runner

import (
	"context"
	"os/exec"
)

func shellCommand(ctx context.Context, args []string) *exec.Cmd {
	return exec.CommandContext(ctx, "/bin/sh", "-c", shellJoin(args))
}
