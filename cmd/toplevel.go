package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/volcano-authors/vbuild/internal/workspace"
)

func newToplevelCmd() *cobra.Command {
	var (
		showPrefix  bool
		showInstall bool
	)

	cmd := &cobra.Command{
		Use:   "toplevel [DIR]",
		Short: "Print the git checkout toplevel, prefix or toolchain install directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			} else if wd, err := os.Getwd(); err == nil {
				dir = wd
			}
			w, err := workspace.Open(dir)
			if err != nil {
				return err
			}
			switch {
			case showPrefix:
				fmt.Fprintln(cmd.OutOrStdout(), w.Prefix)
			case showInstall:
				fmt.Fprintln(cmd.OutOrStdout(), w.InstallDir())
			default:
				fmt.Fprintln(cmd.OutOrStdout(), w.Root)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPrefix, "prefix", false, "Print the current directory relative to the toplevel")
	cmd.Flags().BoolVar(&showInstall, "install-dir", false, "Print the directory toolchains install into")
	cmd.MarkFlagsMutuallyExclusive("prefix", "install-dir")
	return cmd
}
