package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel-backend/pkg/httpclient"
	"panel-backend/pkg/logger"
)

// botServer fakes the Bot API: it records every sendMessage text and lets
// the test decide the response per call.
type botServer struct {
	srv   *httptest.Server
	texts []string
	// respond overrides the default ok response when set.
	respond func(call int, text string) string
}

func newBotServer(t *testing.T) *botServer {
	t.Helper()
	b := &botServer{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params SendMessageParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		call := len(b.texts)
		b.texts = append(b.texts, params.Text)

		if b.respond != nil {
			if body := b.respond(call, params.Text); body != "" {
				w.Write([]byte(body))
				return
			}
		}
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1700000000}}`))
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func newTestNotifier(t *testing.T, b *botServer) *Notifier {
	t.Helper()
	noSleep := func(ctx context.Context, d time.Duration) error { return nil }
	return NewNotifierWithOptions("token", true, nil, logger.New(false), Options{
		BaseURL: b.srv.URL,
		Sleep:   noSleep,
	})
}

func TestClassifyBotResponses(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		kind    httpclient.Kind
		message string
	}{
		{
			name:    "blocked by user",
			body:    `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`,
			kind:    httpclient.KindForbidden,
			message: "Bot was blocked by client",
		},
		{
			name:    "chat not found",
			body:    `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`,
			kind:    httpclient.KindNotFound,
			message: "Client not started a bot",
		},
		{
			name:    "peer id invalid",
			body:    `{"ok":false,"error_code":400,"description":"Bad Request: PEER_ID_INVALID"}`,
			kind:    httpclient.KindNotFound,
			message: "Client not started a bot",
		},
		{
			name: "rate limited",
			body: `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 30","parameters":{"retry_after":30}}`,
			kind: httpclient.KindRateLimited,
		},
		{
			name:    "other bad request",
			body:    `{"ok":false,"error_code":400,"description":"Bad Request: message is too long"}`,
			kind:    httpclient.KindInvalidRequest,
			message: "Telegram API returned error: Bad Request: message is too long",
		},
		{
			name: "server error",
			body: `{"ok":false,"error_code":500,"description":"Internal Server Error"}`,
			kind: httpclient.KindInternal,
		},
		{
			name: "unreadable",
			body: `<html>gateway timeout</html>`,
			kind: httpclient.KindInternal,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := okClassifier{}.Classify(http.StatusOK, nil, []byte(tc.body))
			require.NotNil(t, err)
			assert.Equal(t, tc.kind, err.Kind)
			if tc.message != "" {
				assert.Equal(t, tc.message, err.Message)
			}
		})
	}

	t.Run("ok envelope", func(t *testing.T) {
		result, err := okClassifier{}.Classify(http.StatusOK, nil, []byte(`{"ok":true,"result":{"message_id":7}}`))
		require.Nil(t, err)
		assert.JSONEq(t, `{"message_id":7}`, string(result))
	})

	t.Run("rate limit delay", func(t *testing.T) {
		_, err := okClassifier{}.Classify(http.StatusOK, nil,
			[]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":30}}`))
		require.NotNil(t, err)
		assert.Equal(t, 30*time.Second, err.RetryAfter)
	})
}

func TestSendMessageDisabled(t *testing.T) {
	b := newBotServer(t)
	notifier := NewNotifierWithOptions("token", false, nil, logger.New(false), Options{BaseURL: b.srv.URL})

	_, err := notifier.SendMessage(context.Background(), SendMessageParams{ChatID: "1", Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, httpclient.KindInvalidRequest, httpclient.KindOf(err))
	assert.Empty(t, b.texts)
}

func TestSendMessageDefaultsToHTML(t *testing.T) {
	var gotMode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var params SendMessageParams
		json.NewDecoder(r.Body).Decode(&params)
		gotMode = params.ParseMode
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	notifier := NewNotifierWithOptions("token", true, nil, logger.New(false), Options{BaseURL: srv.URL})
	msg, err := notifier.SendMessage(context.Background(), SendMessageParams{ChatID: "1", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, msg.MessageID)
	assert.Equal(t, "HTML", gotMode)
}

func TestSendLongMessageSingleSlice(t *testing.T) {
	b := newBotServer(t)
	notifier := newTestNotifier(t, b)

	err := notifier.SendLongMessage(context.Background(), "1", "short body", "\n\nfooter")
	require.NoError(t, err)
	require.Len(t, b.texts, 1)
	assert.Equal(t, "short body\n\nfooter", b.texts[0])
}

func TestSendLongMessageSlicing(t *testing.T) {
	line := strings.Repeat("a", 79) + "\n"
	text := strings.TrimSuffix(strings.Repeat(line, 60), "\n")
	footer := "\n\n📦 Total configurations: 9"

	b := newBotServer(t)
	notifier := newTestNotifier(t, b)

	err := notifier.SendLongMessage(context.Background(), "1", text, footer)
	require.NoError(t, err)
	require.Greater(t, len(b.texts), 1)

	var rebuilt strings.Builder
	for i, sent := range b.texts {
		runes := []rune(sent)
		assert.NotEmpty(t, runes)
		assert.LessOrEqual(t, len(runes), MaxMessageLength)

		if i > 0 {
			marker := partMarker(i + 1)
			require.True(t, strings.HasPrefix(sent, marker))
			sent = strings.TrimPrefix(sent, marker)
			// The cut landed on a newline, so each continuation starts at
			// the line boundary.
			assert.True(t, strings.HasPrefix(sent, "\n"))
		}
		rebuilt.WriteString(sent)
	}

	// No content is lost or duplicated across slices.
	assert.Equal(t, text+footer, rebuilt.String())
	// The footer rides on the final slice only.
	for _, sent := range b.texts[:len(b.texts)-1] {
		assert.NotContains(t, sent, "Total configurations")
	}
	assert.True(t, strings.HasSuffix(b.texts[len(b.texts)-1], footer))
}

func TestSendLongMessageAbortsOnFailure(t *testing.T) {
	b := newBotServer(t)
	b.respond = func(call int, text string) string {
		if call == 1 {
			return `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`
		}
		return ""
	}
	notifier := newTestNotifier(t, b)

	text := strings.Repeat("b", 3*MaxMessageLength)
	err := notifier.SendLongMessage(context.Background(), "1", text, "")
	require.Error(t, err)
	assert.Equal(t, httpclient.KindForbidden, httpclient.KindOf(err))
	// The second slice failed; nothing after it was attempted.
	assert.Len(t, b.texts, 2)
}
