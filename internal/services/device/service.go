package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"keeperbridge/internal/domain"
)

var (
	ErrDevice             = errors.New("device command failed")
	ErrNoDevice           = errors.New("no device selected")
	ErrUnsupportedNetwork = errors.New("unsupported network")
)

// chain is the HWI --chain value and BIP44 coin type of a network.
type chain struct {
	name string
	coin uint32
}

func chainFor(network domain.Network) (chain, error) {
	switch strings.ToLower(network.String()) {
	case "", "mainnet", "bitcoin", "main":
		return chain{name: "main", coin: 0}, nil
	case "testnet", "test", "signet", "regtest":
		return chain{name: "test", coin: 1}, nil
	}
	return chain{}, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, network)
}

// SingleSigPath is the BIP84 account path for native segwit single-sig.
func SingleSigPath(network domain.Network, account uint32) (string, error) {
	c, err := chainFor(network)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("m/84'/%d'/%d'", c.coin, account), nil
}

// MultiSigPath is the BIP48 account path for native segwit multisig
// (script type 2).
func MultiSigPath(network domain.Network, account uint32) (string, error) {
	c, err := chainFor(network)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("m/48'/%d'/%d'/2'", c.coin, account), nil
}

// Service talks to hardware wallets through a DeviceExecutor and shapes the
// results into payloads for the wallet. It knows nothing about the channel.
type Service struct {
	exec domain.DeviceExecutor
	log  *zap.Logger
}

// New returns a Service running commands through exec.
func New(exec domain.DeviceExecutor, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{exec: exec, log: log.Named("device")}
}

var _ domain.DeviceService = (*Service)(nil)

// hwiError is the JSON error object HWI prints with a zero exit status.
type hwiError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (s *Service) run(ctx context.Context, out any, args ...string) error {
	stdout, err := s.exec.Execute(ctx, args...)
	if err != nil {
		return err
	}
	var he hwiError
	if json.Unmarshal(stdout, &he) == nil && he.Error != "" {
		return fmt.Errorf("%w: %s (code %d)", ErrDevice, he.Error, he.Code)
	}
	if err := json.Unmarshal(stdout, out); err != nil {
		return fmt.Errorf("%w: unexpected output: %v", ErrDevice, err)
	}
	return nil
}

// Enumerate lists the connected hardware wallets.
func (s *Service) Enumerate(ctx context.Context, network domain.Network) ([]domain.Device, error) {
	c, err := chainFor(network)
	if err != nil {
		return nil, err
	}
	var devices []domain.Device
	if err := s.run(ctx, &devices, "--chain", c.name, "enumerate"); err != nil {
		return nil, err
	}
	s.log.Info("enumerated devices", zap.Int("count", len(devices)))
	return devices, nil
}

// Xpubs reads the single-sig and multisig account xpubs of the profile's
// device.
func (s *Service) Xpubs(ctx context.Context, profile domain.DeviceProfile, account uint32) (domain.Xpubs, error) {
	if profile.Fingerprint == "" {
		return domain.Xpubs{}, ErrNoDevice
	}
	c, err := chainFor(profile.Network)
	if err != nil {
		return domain.Xpubs{}, err
	}
	ssPath, _ := SingleSigPath(profile.Network, account)
	msPath, _ := MultiSigPath(profile.Network, account)

	ss, err := s.xpub(ctx, profile.Fingerprint, c, ssPath)
	if err != nil {
		return domain.Xpubs{}, err
	}
	ms, err := s.xpub(ctx, profile.Fingerprint, c, msPath)
	if err != nil {
		return domain.Xpubs{}, err
	}
	return domain.Xpubs{
		SingleSigPath: ssPath,
		SingleSigXpub: ss,
		MultiSigPath:  msPath,
		MultiSigXpub:  ms,
		MFP:           strings.ToLower(profile.Fingerprint),
	}, nil
}

func (s *Service) xpub(ctx context.Context, fingerprint string, c chain, path string) (string, error) {
	var out struct {
		Xpub string `json:"xpub"`
	}
	if err := s.run(ctx, &out, "--fingerprint", fingerprint, "--chain", c.name, "getxpub", path); err != nil {
		return "", err
	}
	if out.Xpub == "" {
		return "", fmt.Errorf("%w: empty xpub for %s", ErrDevice, path)
	}
	return out.Xpub, nil
}

// Response wraps data as {responseData: {action, data}}.
func (s *Service) Response(action string, data any) (domain.DeviceResponse, error) {
	if action == "" {
		return domain.DeviceResponse{}, errors.New("response action required")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return domain.DeviceResponse{}, fmt.Errorf("encode %s response: %w", action, err)
	}
	return domain.DeviceResponse{ResponseData: domain.ResponseData{Action: action, Data: raw}}, nil
}
