package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/volcano-authors/vbuild/internal/runner"
	"github.com/volcano-authors/vbuild/internal/utils"
)

func newTextureCmd() *cobra.Command {
	var tool string

	cmd := &cobra.Command{
		Use:   "texture [flags] INPUT OUTPUT [EXTRA]",
		Short: "Convert an image into a texture with the sample conversion tool",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(filepath.Dir(args[1]), 0o755); err != nil {
				return fmt.Errorf("error creating output directory: %w", err)
			}
			if tool == "" {
				tool = textureTool(runtime.GOOS)
			}
			r := runner.NewStreamRunner()
			r.Stdout = cmd.OutOrStdout()
			r.Stderr = cmd.ErrOrStderr()
			_, err := r.RunChecked(cmd.Context(), runner.CommandSpec{
				Args: append([]string{tool}, args...),
				Env:  utils.TextureEnv,
			})
			return err
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&tool, "tool", "", "Path to the conversion binary (default ./"+utils.TextureTool+")")
	return cmd
}

func textureTool(goos string) string {
	if goos == "windows" {
		return utils.TextureTool
	}
	return "./" + utils.TextureTool
}
