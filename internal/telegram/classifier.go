package telegram

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"panel-backend/pkg/httpclient"
)

// apiEnvelope is the fixed response shape of the Bot API: HTTP 200 with an
// embedded ok flag and provider-specific numeric error codes.
type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// okClassifier classifies Bot API responses by the embedded ok flag rather
// than the HTTP status, which Telegram keeps at 200.
type okClassifier struct{}

func (okClassifier) Classify(status int, header http.Header, body []byte) ([]byte, *httpclient.Error) {
	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &httpclient.Error{
			Kind:    httpclient.KindInternal,
			Status:  status,
			Message: "Telegram API error: unreadable response",
		}
	}
	if env.OK {
		return env.Result, nil
	}

	errorCode := env.ErrorCode
	if errorCode == 0 {
		errorCode = 500
	}
	description := env.Description
	if description == "" {
		description = "Unknown Telegram error"
	}

	switch {
	case errorCode == 403:
		return nil, &httpclient.Error{
			Kind:    httpclient.KindForbidden,
			Status:  errorCode,
			Message: "Bot was blocked by client",
		}
	case errorCode == 400 && isChatMissing(description):
		return nil, &httpclient.Error{
			Kind:    httpclient.KindNotFound,
			Status:  errorCode,
			Message: "Client not started a bot",
		}
	case errorCode == 429 || strings.Contains(description, "Too Many Requests"):
		var retryAfter time.Duration
		if env.Parameters != nil && env.Parameters.RetryAfter > 0 {
			retryAfter = time.Duration(env.Parameters.RetryAfter) * time.Second
		}
		return nil, &httpclient.Error{
			Kind:       httpclient.KindRateLimited,
			Status:     errorCode,
			Message:    "Telegram API returned error: " + description,
			RetryAfter: retryAfter,
		}
	case errorCode == 400:
		return nil, &httpclient.Error{
			Kind:    httpclient.KindInvalidRequest,
			Status:  errorCode,
			Message: "Telegram API returned error: " + description,
		}
	}

	return nil, &httpclient.Error{
		Kind:    httpclient.KindInternal,
		Status:  errorCode,
		Message: "Telegram API returned error: " + description,
	}
}

func isChatMissing(description string) bool {
	return strings.Contains(description, "chat not found") ||
		strings.Contains(description, "user not found") ||
		strings.Contains(description, "PEER_ID_INVALID")
}
