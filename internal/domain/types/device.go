package types

import "encoding/json"

// Device actions understood by the wallet.
const (
	ActionAddDevice   = "ADD_DEVICE"
	ActionHealthCheck = "HEALTH_CHECK"
)

// Device is one entry of the hardware wallet enumeration.
type Device struct {
	Type                string `json:"type"`
	Model               string `json:"model"`
	Path                string `json:"path"`
	Fingerprint         string `json:"fingerprint,omitempty"`
	NeedsPinSent        bool   `json:"needs_pin_sent"`
	NeedsPassphraseSent bool   `json:"needs_passphrase_sent"`
	Error               string `json:"error,omitempty"`
}

// DeviceProfile is the device selected for signing, remembered across runs.
type DeviceProfile struct {
	Fingerprint string  `json:"fingerprint"`
	DeviceType  string  `json:"device_type"`
	Network     Network `json:"network"`
}

// Xpubs holds the account-level extended public keys shared with the wallet.
type Xpubs struct {
	SingleSigPath string `json:"singleSigPath"`
	SingleSigXpub string `json:"singleSigXpub"`
	MultiSigPath  string `json:"multiSigPath"`
	MultiSigXpub  string `json:"multiSigXpub"`
	MFP           string `json:"mfp"`
}

// DeviceResponse is the payload handed to the channel in reply to a wallet
// request.
type DeviceResponse struct {
	ResponseData ResponseData `json:"responseData"`
}

// ResponseData names the action a DeviceResponse answers.
type ResponseData struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}
