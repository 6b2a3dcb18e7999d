package httpclient

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusClassifier classifies plain REST responses by HTTP status code.
// Successful responses may wrap the payload in a {"result": ...} envelope;
// both the enveloped and the bare shape are tolerated.
type StatusClassifier struct {
	// Prefix is prepended to error messages, e.g. "Amnezia API error".
	Prefix string
}

func (s StatusClassifier) Classify(status int, header http.Header, body []byte) ([]byte, *Error) {
	if status >= 200 && status < 300 {
		return UnwrapResult(body), nil
	}

	switch status {
	case http.StatusBadRequest:
		return nil, &Error{Kind: KindInvalidRequest, Status: status, Message: s.message("invalid request")}
	case http.StatusUnauthorized:
		return nil, &Error{Kind: KindAuthFailed, Status: status, Message: s.message("authentication failed")}
	case http.StatusForbidden:
		return nil, &Error{Kind: KindForbidden, Status: status, Message: s.message("forbidden")}
	case http.StatusNotFound:
		return nil, &Error{Kind: KindNotFound, Status: status, Message: s.message("not found")}
	case http.StatusConflict:
		return nil, &Error{Kind: KindConflict, Status: status, Message: s.message("conflict")}
	case http.StatusTooManyRequests:
		return nil, &Error{
			Kind:       KindRateLimited,
			Status:     status,
			Message:    s.message("rate limited"),
			RetryAfter: RetryAfterDelay(header),
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		text = http.StatusText(status)
	}
	return nil, &Error{Kind: KindInternal, Status: status, Message: s.message(text)}
}

func (s StatusClassifier) message(text string) string {
	if s.Prefix == "" {
		return text
	}
	return s.Prefix + ": " + text
}

// UnwrapResult extracts the payload from a {"result": ...} envelope, or
// returns the body unchanged when there is no envelope.
func UnwrapResult(body []byte) []byte {
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Result) > 0 {
		return envelope.Result
	}
	return body
}

// RetryAfterDelay parses the Retry-After header, in seconds. Zero means the
// provider gave no usable hint.
func RetryAfterDelay(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
