package seal_test

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"keeperbridge/internal/crypto"
	"keeperbridge/internal/domain"
	"keeperbridge/internal/protocol/envelope"
	"keeperbridge/internal/protocol/seal"
)

func newKey(t *testing.T) []byte {
	t.Helper()
	k, err := crypto.GenerateSecretKey()
	require.NoError(t, err)
	b, err := crypto.DecodeSecretKey(k)
	require.NoError(t, err)
	return b
}

func TestRoundTrip(t *testing.T) {
	key := newKey(t)
	payloads := []any{
		map[string]any{"amount": 1},
		"plain string",
		[]int{1, 2, 3},
		nil,
		true,
		json.RawMessage(`{"nested":{"psbt":"cHNidP8BAH0CAAAAAc"}}`),
	}
	for _, p := range payloads {
		env, err := seal.Encrypt(key, p)
		require.NoError(t, err)

		got, err := seal.Decrypt(key, env)
		require.NoError(t, err)

		want, err := json.Marshal(p)
		require.NoError(t, err)
		require.JSONEq(t, string(want), string(got))
	}
}

func TestEnvelopeSizes(t *testing.T) {
	env, err := seal.Encrypt(newKey(t), map[string]int{"amount": 1})
	require.NoError(t, err)
	require.Len(t, env.IV, 2*envelope.NonceSize)
	require.Len(t, env.AuthTag, 2*envelope.TagSize)
	require.Len(t, env.EncryptedData, 2*len(`{"amount":1}`))
}

func TestFreshNoncePerCall(t *testing.T) {
	key := newKey(t)
	a, err := seal.Encrypt(key, "same")
	require.NoError(t, err)
	b, err := seal.Encrypt(key, "same")
	require.NoError(t, err)

	require.NotEqual(t, a.IV, b.IV)
	require.NotEqual(t, a.EncryptedData, b.EncryptedData)
}

func flipBit(t *testing.T, h string, byteIdx int) string {
	t.Helper()
	b, err := hex.DecodeString(h)
	require.NoError(t, err)
	b[byteIdx] ^= 0x01
	return hex.EncodeToString(b)
}

func TestTamperingFails(t *testing.T) {
	key := newKey(t)
	env, err := seal.Encrypt(key, map[string]int{"amount": 1})
	require.NoError(t, err)

	ctLen := len(env.EncryptedData) / 2
	for i := 0; i < ctLen; i++ {
		bad := env
		bad.EncryptedData = flipBit(t, env.EncryptedData, i)
		out, err := seal.Decrypt(key, bad)
		require.ErrorIs(t, err, domain.ErrDecryption, "ciphertext byte %d", i)
		require.Nil(t, out)
	}
	for i := 0; i < envelope.TagSize; i++ {
		bad := env
		bad.AuthTag = flipBit(t, env.AuthTag, i)
		out, err := seal.Decrypt(key, bad)
		require.ErrorIs(t, err, domain.ErrDecryption, "tag byte %d", i)
		require.Nil(t, out)
	}
}

func TestWrongKeyFails(t *testing.T) {
	env, err := seal.Encrypt(newKey(t), "secret")
	require.NoError(t, err)
	_, err = seal.Decrypt(newKey(t), env)
	require.ErrorIs(t, err, domain.ErrDecryption)
}

func TestMissingKey(t *testing.T) {
	_, err := seal.Encrypt(nil, "x")
	require.ErrorIs(t, err, domain.ErrNoEncryptionKey)

	_, err = seal.Decrypt(nil, domain.Envelope{})
	require.ErrorIs(t, err, domain.ErrNoEncryptionKey)

	_, err = seal.EncryptWithKey("", "x")
	require.ErrorIs(t, err, domain.ErrNoEncryptionKey)

	_, err = seal.DecryptWithKey("", domain.Envelope{})
	require.ErrorIs(t, err, domain.ErrNoEncryptionKey)
}

func TestMalformedEnvelope(t *testing.T) {
	key := newKey(t)
	env, err := seal.Encrypt(key, "x")
	require.NoError(t, err)

	bad := env
	bad.IV = "nothex"
	_, err = seal.Decrypt(key, bad)
	require.ErrorIs(t, err, domain.ErrInvalidIV)

	bad = env
	bad.EncryptedData = ""
	_, err = seal.Decrypt(key, bad)
	require.ErrorIs(t, err, domain.ErrInvalidEncryptedData)
}

func TestWithKeyHelpers(t *testing.T) {
	k, err := crypto.GenerateSecretKey()
	require.NoError(t, err)

	env, err := seal.EncryptWithKey(k, map[string]int{"amount": 1})
	require.NoError(t, err)
	got, err := seal.DecryptWithKey(k, env)
	require.NoError(t, err)
	require.JSONEq(t, `{"amount":1}`, string(got))
}
