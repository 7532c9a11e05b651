package types

// Envelope is the AES-256-GCM output exchanged over the relay. Every field is
// lowercase hex.
type Envelope struct {
	IV            string `json:"iv"`
	EncryptedData string `json:"encryptedData"`
	AuthTag       string `json:"authTag"`
}
