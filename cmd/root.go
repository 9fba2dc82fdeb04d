package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/volcano-authors/vbuild/internal/fetch"
	"github.com/volcano-authors/vbuild/internal/output"
	"github.com/volcano-authors/vbuild/internal/utils"
)

var (
	debug     bool
	fileLog   bool
	logCloser io.Closer
)

var VBuildVersion = "dev"

var rootCmd = &cobra.Command{
	Use:           "vbuild",
	Short:         "vbuild provisions toolchains and drives native build tools",
	Version:       VBuildVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		closer, err := utils.InitLogger(debug, fileLog)
		if err != nil {
			return err
		}
		logCloser = closer
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		exitWithError(err)
	}
}

// exitWithError is the only place the process exits with a failure status.
func exitWithError(err error) {
	log.Debug().Str("op", "cmd/root").Err(err).Msg("command failed")
	output.PrintError(err.Error())
	if errors.Is(err, fetch.ErrDeclined) {
		output.PrintWarning("Delete the file or fix the manifest digests and run fetch again")
	}
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&fileLog, "log-file", false, "Also write logs to "+utils.LogFile)
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newTextureCmd())
	rootCmd.AddCommand(newToplevelCmd())
}
