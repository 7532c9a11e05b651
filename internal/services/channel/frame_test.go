package channel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"keeperbridge/internal/crypto"
	"keeperbridge/internal/domain"
	"keeperbridge/internal/protocol/envelope"
	"keeperbridge/internal/protocol/seal"
)

func TestFrameData_SkipEncryptionStringifies(t *testing.T) {
	data, err := frameData("", map[string]int{"amount": 1}, true)
	require.NoError(t, err)

	var text string
	require.NoError(t, json.Unmarshal(data, &text))
	require.JSONEq(t, `{"amount":1}`, text)
}

func TestFrameData_RequiresKey(t *testing.T) {
	_, err := frameData("", map[string]int{"amount": 1}, false)
	require.ErrorIs(t, err, domain.ErrNoEncryptionKey)
}

func TestFrameData_Seals(t *testing.T) {
	key, err := crypto.GenerateSecretKey()
	require.NoError(t, err)

	data, err := frameData(key, map[string]int{"amount": 1}, false)
	require.NoError(t, err)
	require.True(t, envelope.IsSealed(data))

	env, err := envelope.Parse(data)
	require.NoError(t, err)
	plain, err := seal.DecryptWithKey(key, env)
	require.NoError(t, err)
	require.JSONEq(t, `{"amount":1}`, string(plain))
}
