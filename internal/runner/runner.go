package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Runner executes commands. A Runner holds no per-call state and can be reused.
type Runner struct {
	Mode       Mode
	MaxOutput  int  // capture cap in bytes, <= 0 for none
	AlsoStderr bool // capture stderr along with stdout
	Stdout     io.Writer
	Stderr     io.Writer
	Strategy   Strategy // nil selects DetectStrategy()
}

// NewStreamRunner streams child output to the process's stdout and stderr.
func NewStreamRunner() *Runner {
	return &Runner{Mode: ModeStream}
}

// NewCaptureRunner captures child stdout up to maxOutput bytes.
func NewCaptureRunner(maxOutput int) *Runner {
	return &Runner{Mode: ModeCapture, MaxOutput: maxOutput}
}

// AndStderr makes a capture runner collect stderr as well.
func (r *Runner) AndStderr() *Runner {
	r.AlsoStderr = true
	return r
}

// Run executes spec and waits for it. A non-zero exit is not an error here;
// see RunChecked. When captured output passes the cap the child is killed and
// the Result comes back with Truncated set.
func (r *Runner) Run(ctx context.Context, spec CommandSpec) (*Result, error) {
	if len(spec.Args) == 0 {
		return nil, ErrEmptyCommand
	}
	strategy := r.Strategy
	if strategy == nil {
		strategy = DetectStrategy()
	}
	cmd, err := buildCommand(ctx, spec, strategy.Shell())
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:    uuid.New().String(),
		Args:     slices.Clone(spec.Args),
		Strategy: strategy.Name(),
	}
	var h Handler
	var capture *captureHandler
	if r.Mode == ModeCapture {
		capture = &captureHandler{limit: r.MaxOutput, alsoStderr: r.AlsoStderr}
		h = capture
	} else {
		sh := newStreamHandler(r.stdout(), r.stderr(), ConsoleEncoding())
		defer sh.Close()
		h = sh
	}

	log.Debug().Str("op", "runner/runner").Str("run", res.RunID).Str("strategy", res.Strategy).Msgf("executing %q", spec.Args)
	start := time.Now()
	execErr := strategy.Execute(cmd, &tracker{next: h, res: res})
	res.Duration = time.Since(start)
	if capture != nil {
		res.Output = capture.Bytes()
		res.Truncated = capture.exceeded
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if execErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(execErr, &exitErr) {
			if cmd.ProcessState == nil {
				return nil, fmt.Errorf("executing %s: %w", spec.Args[0], execErr)
			}
			return res, execErr
		}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	log.Debug().Str("op", "runner/runner").Str("run", res.RunID).Msgf("exit code %d after %s", res.ExitCode, res.Duration.Round(time.Millisecond))
	return res, nil
}

// RunChecked runs spec and turns a non-zero exit into an *ExitError.
func (r *Runner) RunChecked(ctx context.Context, spec CommandSpec) (*Result, error) {
	res, err := r.Run(ctx, spec)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, &ExitError{Args: res.Args, Code: res.ExitCode}
	}
	return res, nil
}

// Output captures the command's output and returns it decoded as UTF-8.
// It fails with *OutputCapError past MaxOutput and *ExitError on a non-zero
// exit, the latter carrying the output.
func (r *Runner) Output(ctx context.Context, spec CommandSpec) (string, error) {
	capture := *r
	capture.Mode = ModeCapture
	res, err := capture.Run(ctx, spec)
	if err != nil {
		return "", err
	}
	if res.Truncated {
		return "", &OutputCapError{Args: res.Args, Limit: r.MaxOutput}
	}
	out := decodeOutput(res.Output)
	if res.ExitCode != 0 {
		return out, &ExitError{Args: res.Args, Code: res.ExitCode, Output: out}
	}
	return out, nil
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}

func buildCommand(ctx context.Context, spec CommandSpec, viaShell bool) (*exec.Cmd, error) {
	var cmd *exec.Cmd
	if viaShell {
		cmd = shellCommand(ctx, spec.Args)
	} else {
		bin, err := lookPath(spec.Args[0], spec.Env)
		if err != nil {
			return nil, fmt.Errorf("executing %s: %w", spec.Args[0], err)
		}
		cmd = exec.CommandContext(ctx, bin, spec.Args[1:]...)
		cmd.Args[0] = spec.Args[0]
	}
	cmd.Env = mergeEnv(os.Environ(), spec.Env)
	cmd.Dir = spec.Dir
	return cmd, nil
}
