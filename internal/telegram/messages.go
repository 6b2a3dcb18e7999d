package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"panel-backend/internal/models"
)

// maxConfigsPerMessage bounds how many configs are rendered into one
// message so a group's text plausibly fits the platform limit.
const maxConfigsPerMessage = 3

const recordSeparator = "\n─────────────────────\n"

// Decrypter opens stored VPN key fields for rendering.
type Decrypter interface {
	DecryptField(field *models.EncryptedField) (string, error)
}

// ConfigMessage is one config record to be rendered into a notification.
type ConfigMessage struct {
	Username  string
	Protocol  models.Protocol
	ExpiresAt string
	VPNKey    models.EncryptedField
}

// MessageBuilder renders config records into self-contained, size-bounded
// message blocks.
type MessageBuilder struct {
	crypto  Decrypter
	vpnName string
}

func NewMessageBuilder(crypto Decrypter, vpnName string) *MessageBuilder {
	return &MessageBuilder{crypto: crypto, vpnName: vpnName}
}

type groupOptions struct {
	showHeader   bool
	showFooter   bool
	currentGroup int
	totalGroups  int
	totalConfigs int
}

// formatGroup renders one group. The global header appears only when
// showHeader is set (first group), the aggregate footer only when showFooter
// is set (last group), and a part marker only when there is more than one
// group. Body and footer are returned separately so the long-message slicer
// can keep the footer on the final slice.
func (b *MessageBuilder) formatGroup(configs []ConfigMessage, clientName string, opt groupOptions) (string, string, error) {
	var sb strings.Builder

	if opt.showHeader {
		fmt.Fprintf(&sb, "🔐 <b>VPN configurations from %s</b>\n\n", b.vpnName)
	}
	if opt.totalGroups > 1 {
		fmt.Fprintf(&sb, "📦 Part %d of %d\n\n", opt.currentGroup, opt.totalGroups)
	}

	for i, config := range configs {
		key, err := b.crypto.DecryptField(&config.VPNKey)
		if err != nil {
			return "", "", fmt.Errorf("decrypting key for %s: %w", config.Username, err)
		}

		fmt.Fprintf(&sb, "Configuration for <b>%s</b>\nProtocol: <b>%s</b>\nExpiration date: <b>%s</b>\n<code>%s</code>",
			displayUsername(config.Username, clientName),
			config.Protocol.DisplayName(),
			formatExpiry(config.ExpiresAt),
			key,
		)
		if i < len(configs)-1 {
			sb.WriteString(recordSeparator)
		}
	}

	footer := ""
	if opt.showFooter {
		footer = fmt.Sprintf("\n\n📦 Total configurations: %d", opt.totalConfigs)
	}
	return sb.String(), footer, nil
}

// displayUsername strips the owning client's name prefix from a config
// username for readability: "alice-laptop" shows as "laptop" for alice.
func displayUsername(username, clientName string) string {
	if !strings.HasPrefix(username, clientName) {
		return username
	}
	parts := strings.Split(username, "-")
	if len(parts) > 1 && parts[1] != "" {
		return parts[1]
	}
	return username
}

// formatExpiry renders an epoch-seconds string as MM/DD/YYYY.
func formatExpiry(expiresAt string) string {
	if expiresAt == "" {
		return "Not set"
	}
	secs, err := strconv.ParseInt(expiresAt, 10, 64)
	if err != nil || secs == 0 {
		return "Not set"
	}
	return time.Unix(secs, 0).UTC().Format("01/02/2006")
}

// ConfigSender fans a client's configs out to their Telegram chat,
// splitting the logical content into message groups before formatting.
type ConfigSender struct {
	notifier *Notifier
	builder  *MessageBuilder
}

func NewConfigSender(notifier *Notifier, builder *MessageBuilder) *ConfigSender {
	return &ConfigSender{notifier: notifier, builder: builder}
}

// Send delivers all configs to chatID in groups of at most
// maxConfigsPerMessage. A group whose rendered block still exceeds the
// platform limit goes through the character-budget slicer; a group Telegram
// rejects as too long or unparsable is retried one config per message.
// Any other failure aborts the remaining groups and propagates.
func (s *ConfigSender) Send(ctx context.Context, clientName, chatID string, configs []ConfigMessage) error {
	groups := chunkConfigs(configs, maxConfigsPerMessage)

	for i, group := range groups {
		opt := groupOptions{
			showHeader:   i == 0,
			showFooter:   i == len(groups)-1,
			currentGroup: i + 1,
			totalGroups:  len(groups),
			totalConfigs: len(configs),
		}

		body, footer, err := s.builder.formatGroup(group, clientName, opt)
		if err != nil {
			return err
		}

		if err := s.sendBlock(ctx, chatID, body, footer); err != nil {
			if !isOversizeError(err) {
				return err
			}
			if err := s.sendIndividually(ctx, group, clientName, chatID, opt); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ConfigSender) sendBlock(ctx context.Context, chatID, body, footer string) error {
	if len([]rune(body))+len([]rune(footer)) > MaxMessageLength {
		return s.notifier.SendLongMessage(ctx, chatID, body, footer)
	}
	_, err := s.notifier.SendMessage(ctx, SendMessageParams{
		ChatID: chatID,
		Text:   body + footer,
	})
	return err
}

// sendIndividually degrades a rejected group to one config per message,
// keeping the header on the very first message and the footer on the very
// last one.
func (s *ConfigSender) sendIndividually(ctx context.Context, group []ConfigMessage, clientName, chatID string, opt groupOptions) error {
	for i, config := range group {
		single := groupOptions{
			showHeader:   opt.showHeader && i == 0,
			showFooter:   opt.showFooter && i == len(group)-1,
			currentGroup: opt.currentGroup,
			totalGroups:  opt.totalGroups,
			totalConfigs: opt.totalConfigs,
		}
		body, footer, err := s.builder.formatGroup([]ConfigMessage{config}, clientName, single)
		if err != nil {
			return err
		}
		if err := s.sendBlock(ctx, chatID, body, footer); err != nil {
			return err
		}
	}
	return nil
}

func chunkConfigs(configs []ConfigMessage, size int) [][]ConfigMessage {
	var groups [][]ConfigMessage
	for start := 0; start < len(configs); start += size {
		end := start + size
		if end > len(configs) {
			end = len(configs)
		}
		groups = append(groups, configs[start:end])
	}
	return groups
}

func isOversizeError(err error) bool {
	message := err.Error()
	return strings.Contains(message, "message is too long") ||
		strings.Contains(message, "parse error")
}
