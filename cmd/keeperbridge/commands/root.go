package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"keeperbridge/internal/app"
	"keeperbridge/internal/sink"
)

var appCtx *app.App

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The channel is closed on every exit path, including command errors.
	defer closeApp()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "keeperbridge",
		Short:        "Encrypted relay bridge between a browser wallet and local hardware signers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}
			// Stdout carries only inbound messages as JSON lines.
			a, err := app.New(cfg, sink.NewJSONLines(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			appCtx = a
			return a.Start(cmd.Context())
		},
	}

	app.BindFlags(root.PersistentFlags())

	root.AddCommand(pairCmd(), joinCmd(), devicesCmd())
	return root
}

func closeApp() {
	if appCtx != nil {
		appCtx.Close()
		appCtx = nil
	}
}
