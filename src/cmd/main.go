package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfg "photozone/src/configuration"
)

const version = "0.3.0"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photozone",
		Short: "Apartment photo gallery with side-by-side comparison",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCmd(), newSeedCmd())
	return cmd
}

func setupLogging(config *cfg.Properties) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.Level()})
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
