package commands

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	qrcodeTerminal "github.com/Baozisoftware/qrcode-terminal-go"
	"github.com/liyue201/goqr"

	"keeperbridge/internal/crypto"
	"keeperbridge/internal/domain"
)

// showQR writes key to w as a terminal QR code for the wallet to scan. The
// library's own Print always targets stdout, which carries session output.
func showQR(w io.Writer, key domain.SecretKey) error {
	qr := qrcodeTerminal.New().Get(key.String())
	if qr == nil {
		return errors.New("failed to render QR code")
	}
	_, err := fmt.Fprint(w, string(*qr))
	return err
}

// scanQR reads a pairing key from a QR code in a PNG or JPEG image.
func scanQR(path string) (domain.SecretKey, error) {
	imgdata, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(imgdata))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	codes, err := goqr.Recognize(img)
	if err != nil {
		return "", fmt.Errorf("failed to recognize QR code: %w", err)
	}
	for _, code := range codes {
		if key, err := crypto.ParseSecretKey(strings.TrimSpace(string(code.Payload))); err == nil {
			return key, nil
		}
	}
	return "", errors.New("no pairing key found in QR codes")
}
