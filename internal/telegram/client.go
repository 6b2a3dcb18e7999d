// Package telegram is the Bot API notifier. It shares the retry core of
// pkg/httpclient but classifies responses by Telegram's embedded ok flag,
// and owns the chunking used to fan out notifications larger than the
// platform's message-size limit.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"panel-backend/internal/models"
	"panel-backend/pkg/httpclient"
	"panel-backend/pkg/logger"
	"panel-backend/pkg/metrics"

	"github.com/rs/zerolog"
)

const (
	// MaxMessageLength is Telegram's hard per-message limit.
	MaxMessageLength = 4096
	// newlineBacktrack bounds how far a slice cut may move back to the
	// previous newline so records are not split mid-line.
	newlineBacktrack = 100
	// interSliceDelay spaces out consecutive slices of one long message.
	interSliceDelay = 500 * time.Millisecond
)

// AuditLog records notifier failures for the panel's log view.
type AuditLog interface {
	Record(ctx context.Context, category models.LogCategory, level models.LogLevel, message string)
}

type Notifier struct {
	http    *httpclient.Client
	audit   AuditLog
	enabled bool
	sleep   func(ctx context.Context, d time.Duration) error
	log     zerolog.Logger
}

// Options tunes the underlying request executor. The zero value is fine
// outside of tests.
type Options struct {
	HTTPClient *http.Client
	Sleep      func(ctx context.Context, d time.Duration) error
	// BaseURL overrides the Bot API address, for tests against a local server.
	BaseURL string
}

func NewNotifier(botToken string, enabled bool, audit AuditLog, lg *logger.Logger) *Notifier {
	return NewNotifierWithOptions(botToken, enabled, audit, lg, Options{})
}

func NewNotifierWithOptions(botToken string, enabled bool, audit AuditLog, lg *logger.Logger, opts Options) *Notifier {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.telegram.org/bot" + botToken
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		}
	}
	return &Notifier{
		http: httpclient.New(baseURL, httpclient.Options{
			Name: "telegram",
			Headers: map[string]string{
				"User-Agent": "TelegramBotClient/1.0",
			},
			Classifier: okClassifier{},
			HTTPClient: opts.HTTPClient,
			Sleep:      opts.Sleep,
		}),
		audit:   audit,
		enabled: enabled,
		sleep:   sleep,
		log:     lg.GetLogger("telegram"),
	}
}

// SendMessageParams mirrors the Bot API sendMessage fields the panel uses.
type SendMessageParams struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
	DisableNotification   bool   `json:"disable_notification,omitempty"`
	ReplyToMessageID      int    `json:"reply_to_message_id,omitempty"`
}

// SendDocumentParams mirrors the Bot API sendDocument fields the panel uses.
type SendDocumentParams struct {
	ChatID              string `json:"chat_id"`
	Document            string `json:"document"`
	Caption             string `json:"caption,omitempty"`
	ParseMode           string `json:"parse_mode,omitempty"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
	ReplyToMessageID    int    `json:"reply_to_message_id,omitempty"`
}

// Message is the sent-message acknowledgement.
type Message struct {
	MessageID int    `json:"message_id"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
}

// BotInfo describes the bot account behind the configured token.
type BotInfo struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

func (n *Notifier) SendMessage(ctx context.Context, params SendMessageParams) (*Message, error) {
	if !n.enabled {
		return nil, httpclient.NewError(httpclient.KindInvalidRequest, "telegram notifications are disabled")
	}
	if params.ParseMode == "" {
		params.ParseMode = "HTML"
	}

	payload, err := n.http.Request(ctx, http.MethodPost, "sendMessage", params, nil)
	if err != nil {
		metrics.TelegramMessagesTotal.WithLabelValues("error").Inc()
		return nil, n.fail(ctx, fmt.Sprintf("Failed to send Telegram message: %v", err), err)
	}
	metrics.TelegramMessagesTotal.WithLabelValues("ok").Inc()

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("decoding sendMessage response: %w", err)
	}
	return &msg, nil
}

func (n *Notifier) SendDocument(ctx context.Context, params SendDocumentParams) error {
	if !n.enabled {
		return httpclient.NewError(httpclient.KindInvalidRequest, "telegram notifications are disabled")
	}

	if _, err := n.http.Request(ctx, http.MethodPost, "sendDocument", params, nil); err != nil {
		return n.fail(ctx, fmt.Sprintf("Failed to send document: %v", err), err)
	}
	return nil
}

func (n *Notifier) GetMe(ctx context.Context) (*BotInfo, error) {
	if !n.enabled {
		return nil, httpclient.NewError(httpclient.KindInvalidRequest, "telegram notifications are disabled")
	}

	payload, err := n.http.Request(ctx, http.MethodGet, "getMe", nil, nil)
	if err != nil {
		return nil, n.fail(ctx, fmt.Sprintf("Failed to get bot info: %v", err), err)
	}

	var info BotInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return nil, fmt.Errorf("decoding getMe response: %w", err)
	}
	return &info, nil
}

// SendLongMessage splits text into provider-compliant slices and sends them
// in order. Each slice after the first carries a part marker; a cut point
// backtracks to the previous newline when one is close enough, so a record
// line is never split. The footer rides on the final slice only, and a short
// delay separates consecutive slices (none after the last). The first send
// failure aborts the remainder and propagates.
func (n *Notifier) SendLongMessage(ctx context.Context, chatID, text, footer string) error {
	remaining := []rune(text)
	footerRunes := []rune(footer)
	part := 1

	for len(remaining) > 0 {
		marker := partMarker(part)
		budget := MaxMessageLength - len([]rune(marker))

		if len(remaining)+len(footerRunes) <= budget {
			_, err := n.SendMessage(ctx, SendMessageParams{
				ChatID: chatID,
				Text:   marker + string(remaining) + footer,
			})
			return err
		}

		cut := budget
		if cut > len(remaining) {
			cut = len(remaining)
		} else if nl := lastNewline(remaining[:cut]); nl > 0 && nl > cut-newlineBacktrack {
			cut = nl
		}

		if _, err := n.SendMessage(ctx, SendMessageParams{
			ChatID: chatID,
			Text:   marker + string(remaining[:cut]),
		}); err != nil {
			return err
		}

		remaining = remaining[cut:]
		part++
		if err := n.sleep(ctx, interSliceDelay); err != nil {
			return err
		}
	}

	// Content ran out before the footer could ride along; the footer becomes
	// the final slice on its own.
	if len(footerRunes) > 0 {
		_, err := n.SendMessage(ctx, SendMessageParams{
			ChatID: chatID,
			Text:   partMarker(part) + footer,
		})
		return err
	}
	return nil
}

func partMarker(part int) string {
	if part == 1 {
		return ""
	}
	return fmt.Sprintf("📄 Part %d\n\n", part)
}

func lastNewline(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return -1
}

func (n *Notifier) fail(ctx context.Context, message string, err error) error {
	n.log.Error().Err(err).Msg("Telegram API call failed")
	if n.audit != nil {
		n.audit.Record(ctx, models.LogCategoryTelegram, models.LogLevelError, message)
	}
	return err
}
