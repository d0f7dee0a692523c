package config

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresKey(t *testing.T) {
	t.Setenv("CHAT_AES_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDecodesKeyAndDefaults(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 32)
	t.Setenv("CHAT_AES_KEY", base64.StdEncoding.EncodeToString(key))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, key, cfg.MessageKey)
	assert.Equal(t, ":8083", cfg.ListenAddr)
	assert.Equal(t, "conversation_events", cfg.AMQPExchange)
	assert.Equal(t, "dev", cfg.Environment)
}

func TestDecodeMessageKeyRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"not base64":   "!!!not-base64!!!",
		"wrong length": base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x11}, 20)),
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeMessageKey(value)
			require.Error(t, err)
		})
	}
}

func TestDecodeMessageKeyAcceptsAllAESLengths(t *testing.T) {
	for _, size := range []int{16, 24, 32} {
		key, err := decodeMessageKey(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x11}, size)))
		require.NoError(t, err)
		assert.Len(t, key, size)
	}
}
