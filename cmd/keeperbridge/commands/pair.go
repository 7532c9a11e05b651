package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keeperbridge/internal/domain"
)

// pair: connect, generate a fresh pairing key and run a session on it.
func pairCmd() *cobra.Command {
	var (
		network    string
		exportPath string
		passphrase string
		noQR       bool
	)
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Generate a pairing key and start an encrypted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportPath != "" && passphrase == "" {
				return fmt.Errorf("passphrase required to export (-p)")
			}
			ctx := cmd.Context()
			ch := appCtx.Channel
			if err := ch.Connect(ctx); err != nil {
				return err
			}
			key, err := ch.GenerateKey()
			if err != nil {
				return err
			}

			out := cmd.ErrOrStderr()
			fmt.Fprintf(out, "Pairing key: %s\nRoom: %s\n", key, ch.Room())
			if !noQR {
				if err := showQR(out, key); err != nil {
					return err
				}
			}
			if exportPath != "" {
				if err := appCtx.Pairing.ExportPairingKey(exportPath, passphrase, key); err != nil {
					return err
				}
				fmt.Fprintf(out, "Sealed pairing key written to %s\n", exportPath)
			}

			appCtx.Log.Info("session started", zap.String("room", ch.Room().String()))
			return runSession(ctx, ch, cmd.InOrStdin(), domain.Network(network), appCtx.Log)
		},
	}
	cmd.Flags().StringVar(&network, "network", "", "network tag attached to outgoing messages")
	cmd.Flags().StringVar(&exportPath, "export", "", "also write the key to this passphrase-sealed file")
	cmd.Flags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase for --export")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "do not print the key as a QR code")
	return cmd
}
