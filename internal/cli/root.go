package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	svclog "github.com/artpar/svcclient/internal/log"
)

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "svcclient",
		Short:         "svcclient - call web services with persistent cookies",
		Long:          "svcclient calls third-party web services through a modern or legacy HTTP backend and keeps their cookies between runs.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	cmd.AddCommand(NewRequestCommand(version))
	cmd.AddCommand(NewCookiesCommand())

	return cmd
}

// newLogger builds the command logger from the environment, writing to w.
func newLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	cfg := svclog.FromEnv()
	cfg.Output = w
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Level = "debug"
	}
	return svclog.New(cfg)
}
