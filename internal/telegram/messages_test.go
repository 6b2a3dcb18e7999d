package telegram

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel-backend/internal/models"
)

// plainDecrypter treats the ciphertext column as the plaintext.
type plainDecrypter struct{}

func (plainDecrypter) DecryptField(field *models.EncryptedField) (string, error) {
	return field.Ciphertext, nil
}

func testConfig(name string) ConfigMessage {
	return ConfigMessage{
		Username:  name,
		Protocol:  models.ProtocolAmneziaWG,
		ExpiresAt: "1767225600",
		VPNKey:    models.EncryptedField{Ciphertext: "vpn://" + name},
	}
}

func TestFormatExpiry(t *testing.T) {
	assert.Equal(t, "Not set", formatExpiry(""))
	assert.Equal(t, "Not set", formatExpiry("0"))
	assert.Equal(t, "Not set", formatExpiry("soon"))
	assert.Equal(t, "01/01/2026", formatExpiry("1767225600"))
}

func TestDisplayUsername(t *testing.T) {
	assert.Equal(t, "laptop", displayUsername("alice-laptop", "alice"))
	assert.Equal(t, "bob-phone", displayUsername("bob-phone", "alice"))
	assert.Equal(t, "alice", displayUsername("alice", "alice"))
}

func TestChunkConfigs(t *testing.T) {
	configs := make([]ConfigMessage, 7)
	groups := chunkConfigs(configs, 3)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 3)
	assert.Len(t, groups[1], 3)
	assert.Len(t, groups[2], 1)

	assert.Nil(t, chunkConfigs(nil, 3))
}

func TestSendSingleGroup(t *testing.T) {
	b := newBotServer(t)
	sender := NewConfigSender(newTestNotifier(t, b), NewMessageBuilder(plainDecrypter{}, "Test VPN"))

	configs := []ConfigMessage{testConfig("alice-laptop"), testConfig("alice-phone")}
	err := sender.Send(context.Background(), "alice", "42", configs)
	require.NoError(t, err)
	require.Len(t, b.texts, 1)

	msg := b.texts[0]
	assert.Contains(t, msg, "🔐 <b>VPN configurations from Test VPN</b>")
	assert.Contains(t, msg, "Configuration for <b>laptop</b>")
	assert.Contains(t, msg, "Configuration for <b>phone</b>")
	assert.Contains(t, msg, "<code>vpn://alice-laptop</code>")
	assert.Contains(t, msg, recordSeparator)
	assert.Contains(t, msg, "📦 Total configurations: 2")
	// A single group carries no part marker.
	assert.NotContains(t, msg, "Part 1 of")
}

func TestSendMultipleGroups(t *testing.T) {
	b := newBotServer(t)
	sender := NewConfigSender(newTestNotifier(t, b), NewMessageBuilder(plainDecrypter{}, "Test VPN"))

	configs := make([]ConfigMessage, 5)
	for i := range configs {
		configs[i] = testConfig("alice-dev" + string(rune('a'+i)))
	}
	err := sender.Send(context.Background(), "alice", "42", configs)
	require.NoError(t, err)
	require.Len(t, b.texts, 2)

	first, last := b.texts[0], b.texts[1]
	assert.Contains(t, first, "🔐 <b>VPN configurations from Test VPN</b>")
	assert.Contains(t, first, "📦 Part 1 of 2")
	assert.NotContains(t, first, "Total configurations")

	assert.NotContains(t, last, "🔐")
	assert.Contains(t, last, "📦 Part 2 of 2")
	assert.Contains(t, last, "📦 Total configurations: 5")
}

func TestSendFallsBackToIndividualMessages(t *testing.T) {
	b := newBotServer(t)
	b.respond = func(call int, text string) string {
		// Reject any multi-record message the way Telegram rejects an
		// oversized one.
		if strings.Contains(text, recordSeparator) {
			return `{"ok":false,"error_code":400,"description":"Bad Request: message is too long"}`
		}
		return ""
	}
	sender := NewConfigSender(newTestNotifier(t, b), NewMessageBuilder(plainDecrypter{}, "Test VPN"))

	configs := []ConfigMessage{testConfig("alice-laptop"), testConfig("alice-phone")}
	err := sender.Send(context.Background(), "alice", "42", configs)
	require.NoError(t, err)
	// One rejected group message followed by one message per config.
	require.Len(t, b.texts, 3)

	assert.Contains(t, b.texts[1], "🔐 <b>VPN configurations from Test VPN</b>")
	assert.NotContains(t, b.texts[1], "Total configurations")
	assert.NotContains(t, b.texts[2], "🔐")
	assert.Contains(t, b.texts[2], "📦 Total configurations: 2")
}

func TestSendPropagatesHardFailures(t *testing.T) {
	b := newBotServer(t)
	b.respond = func(call int, text string) string {
		return `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`
	}
	sender := NewConfigSender(newTestNotifier(t, b), NewMessageBuilder(plainDecrypter{}, "Test VPN"))

	err := sender.Send(context.Background(), "alice", "42", []ConfigMessage{testConfig("alice-laptop")})
	require.Error(t, err)
	assert.Len(t, b.texts, 1)
}
