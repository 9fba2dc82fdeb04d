package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/volcano-authors/vbuild/internal/runner"
	"github.com/volcano-authors/vbuild/internal/utils"
)

func newRunCmd() *cobra.Command {
	var (
		capture      bool
		maxOutput    int
		withStderr   bool
		envPairs     []string
		pathOverride string
		buffered     bool
		dir          string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- COMMAND [ARGS...]",
		Short: "Run a tool with its stdout and stderr merged live",
		Long: "Run a tool with its stdout and stderr merged in arrival order. A non-zero exit fails the command.\n" +
			"With --capture the output is collected up to --max-output bytes and printed after exit;\n" +
			"a tool that writes more is killed.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := utils.ParseEnvArgs(envPairs)
			if err != nil {
				return err
			}
			if pathOverride != "" {
				env["PATH"] = pathOverride
			}
			spec := runner.CommandSpec{Args: args, Env: env, Dir: dir}

			r := runner.NewStreamRunner()
			if capture {
				r = runner.NewCaptureRunner(maxOutput)
				if withStderr {
					r.AndStderr()
				}
			}
			r.Stdout = cmd.OutOrStdout()
			r.Stderr = cmd.ErrOrStderr()
			if buffered {
				r.Strategy = runner.BufferedStrategy()
			}

			if capture {
				out, err := r.Output(cmd.Context(), spec)
				fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			_, err = r.RunChecked(cmd.Context(), spec)
			return err
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVarP(&capture, "capture", "c", false, "Capture output instead of streaming it")
	cmd.Flags().IntVar(&maxOutput, "max-output", utils.DefaultCaptureLimit, "Kill the tool once captured output passes this many bytes")
	cmd.Flags().BoolVar(&withStderr, "stderr", false, "Capture stderr along with stdout")
	cmd.Flags().StringArrayVarP(&envPairs, "env", "e", []string{}, "Environment override KEY=VALUE; can be specified multiple times")
	cmd.Flags().StringVar(&pathOverride, "path", "", "PATH used to find the tool and passed to it")
	cmd.Flags().BoolVar(&buffered, "buffered", false, "Run through the shell with buffered output instead of pseudo-terminals")
	cmd.Flags().StringVarP(&dir, "dir", "C", "", "Working directory for the tool")
	return cmd
}
