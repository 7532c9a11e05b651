package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"keeperbridge/internal/domain"
)

func devicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Work with hardware wallets through HWI",
	}
	cmd.AddCommand(devicesListCmd(), devicesSelectCmd(), devicesXpubsCmd())
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func devicesListCmd() *cobra.Command {
	var network string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List connected hardware wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := appCtx.Devices.Enumerate(cmd.Context(), domain.Network(network))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), devices)
		},
	}
	cmd.Flags().StringVar(&network, "network", "mainnet", "mainnet or testnet")
	return cmd
}

func devicesSelectCmd() *cobra.Command {
	var network string
	cmd := &cobra.Command{
		Use:   "select <fingerprint>",
		Short: "Remember the hardware wallet used for xpub requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := appCtx.Devices.Enumerate(cmd.Context(), domain.Network(network))
			if err != nil {
				return err
			}
			for _, d := range devices {
				if !strings.EqualFold(d.Fingerprint, args[0]) {
					continue
				}
				profile := domain.DeviceProfile{
					Fingerprint: d.Fingerprint,
					DeviceType:  d.Type,
					Network:     domain.Network(network),
				}
				if err := appCtx.Profiles.SaveDeviceProfile(profile); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Selected %s (%s) on %s\n", d.Fingerprint, d.Model, network)
				return nil
			}
			return fmt.Errorf("no connected device with fingerprint %s", args[0])
		},
	}
	cmd.Flags().StringVar(&network, "network", "mainnet", "mainnet or testnet")
	return cmd
}

func devicesXpubsCmd() *cobra.Command {
	var (
		account    uint32
		action     string
		emit       bool
		importPath string
		qrImage    string
		passphrase string
	)
	cmd := &cobra.Command{
		Use:   "xpubs",
		Short: "Read account xpubs of the selected device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			action = strings.ToUpper(action)
			if action != domain.ActionAddDevice && action != domain.ActionHealthCheck {
				return fmt.Errorf("--action must be %s or %s", domain.ActionAddDevice, domain.ActionHealthCheck)
			}
			profile, ok, err := appCtx.Profiles.LoadDeviceProfile()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no device selected; run devices select first")
			}

			ctx := cmd.Context()
			xpubs, err := appCtx.Devices.Xpubs(ctx, profile, account)
			if err != nil {
				return err
			}
			resp, err := appCtx.Devices.Response(action, xpubs)
			if err != nil {
				return err
			}
			if !emit {
				return printJSON(cmd.OutOrStdout(), resp)
			}

			var pairing domain.SecretKey
			if importPath == "" && qrImage == "" {
				pairing, err = promptKey(cmd.InOrStdin(), cmd.ErrOrStderr())
			} else {
				pairing, err = resolveKey(nil, importPath, qrImage, passphrase)
			}
			if err != nil {
				return err
			}
			ch := appCtx.Channel
			if err := ch.Connect(ctx); err != nil {
				return err
			}
			if err := ch.UseKey(pairing); err != nil {
				return err
			}
			if err := ch.Emit(domain.EventChannelMessage, resp, false, profile.Network); err != nil {
				return err
			}
			room := ch.Room()
			// Queued frames are flushed before the socket closes.
			if err := ch.Disconnect(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Sent %s to room %s\n", action, room)
			return nil
		},
	}
	cmd.Flags().Uint32Var(&account, "account", 0, "BIP44 account index")
	cmd.Flags().StringVar(&action, "action", domain.ActionAddDevice, "ADD_DEVICE or HEALTH_CHECK")
	cmd.Flags().BoolVar(&emit, "emit", false, "send the response over the channel instead of printing it")
	cmd.Flags().StringVar(&importPath, "import", "", "with --emit, read the pairing key from a passphrase-sealed file")
	cmd.Flags().StringVar(&qrImage, "qr-image", "", "with --emit, read the pairing key from a QR code image")
	cmd.Flags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase for --import")
	cmd.MarkFlagsMutuallyExclusive("import", "qr-image")
	return cmd
}
