package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"keeperbridge/internal/crypto"
	"keeperbridge/internal/domain"
)

// join [key]: connect with a key shared by the other side.
func joinCmd() *cobra.Command {
	var (
		network    string
		importPath string
		qrImage    string
		passphrase string
	)
	cmd := &cobra.Command{
		Use:   "join [key]",
		Short: "Join an existing pairing and start an encrypted session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveKey(args, importPath, qrImage, passphrase)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ch := appCtx.Channel
			if err := ch.Connect(ctx); err != nil {
				return err
			}
			if err := ch.UseKey(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Joined room %s\n", ch.Room())
			appCtx.Log.Info("session started", zap.String("room", ch.Room().String()))
			return runSession(ctx, ch, cmd.InOrStdin(), domain.Network(network), appCtx.Log)
		},
	}
	cmd.Flags().StringVar(&network, "network", "", "network tag attached to outgoing messages")
	cmd.Flags().StringVar(&importPath, "import", "", "read the key from a passphrase-sealed file")
	cmd.Flags().StringVar(&qrImage, "qr-image", "", "read the key from a QR code image (PNG or JPEG)")
	cmd.Flags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase for --import")
	cmd.MarkFlagsMutuallyExclusive("import", "qr-image")
	return cmd
}

// resolveKey picks the key from exactly one of: the argument, a sealed file,
// a QR image.
func resolveKey(args []string, importPath, qrImage, passphrase string) (domain.SecretKey, error) {
	sources := 0
	if len(args) == 1 {
		sources++
	}
	if importPath != "" {
		sources++
	}
	if qrImage != "" {
		sources++
	}
	switch {
	case sources == 0:
		return "", errors.New("pairing key required: pass it as an argument, --import or --qr-image")
	case sources > 1:
		return "", errors.New("give the pairing key only once")
	}

	switch {
	case importPath != "":
		if passphrase == "" {
			return "", fmt.Errorf("passphrase required to import (-p)")
		}
		return appCtx.Pairing.ImportPairingKey(importPath, passphrase)
	case qrImage != "":
		return scanQR(qrImage)
	default:
		return crypto.ParseSecretKey(args[0])
	}
}

// promptKey reads the pairing key as one line from in. The key never
// appears in the process arguments.
func promptKey(in io.Reader, out io.Writer) (domain.SecretKey, error) {
	fmt.Fprint(out, "Pairing key: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return crypto.ParseSecretKey(strings.TrimSpace(line))
}
