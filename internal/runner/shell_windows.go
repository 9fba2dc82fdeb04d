//go:build windows

package runner

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// shellCommand hands cmd.exe a prebuilt command line. With /S, cmd strips
// only the outer pair of quotes, so each argument keeps its own quoting.
func shellCommand(ctx context.Context, args []string) *exec.Cmd {
	comspec := os.Getenv("COMSPEC")
	if comspec == "" {
		comspec = "cmd.exe"
	}
	cmd := exec.CommandContext(ctx, comspec)
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: cmdLine(comspec, args)}
	return cmd
}

func cmdLine(comspec string, args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = syscall.EscapeArg(a)
	}
	return syscall.EscapeArg(comspec) + ` /S /C "` + strings.Join(quoted, " ") + `"`
}
