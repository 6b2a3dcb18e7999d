// Package amnezia is the client for the external VPN provisioning REST API.
// All operations share the retry/backoff/error-mapping behavior of
// pkg/httpclient with plain HTTP-status classification, and record their
// failures in the audit log tagged by operation before propagating.
package amnezia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"panel-backend/internal/models"
	"panel-backend/pkg/httpclient"
	"panel-backend/pkg/logger"

	"github.com/rs/zerolog"
)

// pageSize is how many users one listing request asks for.
const pageSize = 500

// AuditLog records operation failures for the panel's log view.
type AuditLog interface {
	Record(ctx context.Context, category models.LogCategory, level models.LogLevel, message string)
}

type Client struct {
	http  *httpclient.Client
	audit AuditLog
	log   zerolog.Logger
}

// Options tunes the underlying request executor. The zero value is fine
// outside of tests.
type Options struct {
	HTTPClient *http.Client
	Sleep      func(ctx context.Context, d time.Duration) error
}

func NewClient(baseURL, apiKey string, audit AuditLog, lg *logger.Logger) *Client {
	return NewClientWithOptions(baseURL, apiKey, audit, lg, Options{})
}

func NewClientWithOptions(baseURL, apiKey string, audit AuditLog, lg *logger.Logger, opts Options) *Client {
	return &Client{
		http: httpclient.New(baseURL, httpclient.Options{
			Name: "amnezia",
			Headers: map[string]string{
				"x-api-key": apiKey,
			},
			Classifier: httpclient.StatusClassifier{Prefix: "Amnezia API error"},
			HTTPClient: opts.HTTPClient,
			Sleep:      opts.Sleep,
		}),
		audit: audit,
		log:   lg.GetLogger("amnezia"),
	}
}

// ListDevices fetches one page of the remote device listing.
func (c *Client) ListDevices(ctx context.Context, skip, limit int) (*DeviceList, error) {
	query := url.Values{}
	query.Set("skip", strconv.Itoa(skip))
	query.Set("limit", strconv.Itoa(limit))

	payload, err := c.http.Request(ctx, http.MethodGet, "users", nil, query)
	if err != nil {
		return nil, c.fail(ctx, "get devices", err)
	}

	var list DeviceList
	if err := json.Unmarshal(payload, &list); err != nil {
		return nil, c.fail(ctx, "get devices", fmt.Errorf("decoding device listing: %w", err))
	}
	return &list, nil
}

// ListAllDevices pages through the listing until it is exhausted.
func (c *Client) ListAllDevices(ctx context.Context) ([]User, error) {
	var users []User
	skip := 0
	for {
		page, err := c.ListDevices(ctx, skip, pageSize)
		if err != nil {
			return nil, err
		}
		users = append(users, page.Items...)
		skip += len(page.Items)
		if len(page.Items) == 0 || skip >= page.Total {
			return users, nil
		}
	}
}

// CreateDevice provisions a new device remotely. The returned ID becomes the
// persisted config's identifier; the returned raw config must be encrypted
// before it is stored.
func (c *Client) CreateDevice(ctx context.Context, username string, protocol models.Protocol, expiresAt int64) (*CreatedClient, error) {
	body := map[string]any{
		"clientName": username,
		"protocol":   protocol.APIName(),
		"expiresAt":  expiresAt,
	}

	payload, err := c.http.Request(ctx, http.MethodPost, "users", body, nil)
	if err != nil {
		return nil, c.fail(ctx, "create device", err)
	}

	var resp createResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, c.fail(ctx, "create device", fmt.Errorf("decoding create response: %w", err))
	}
	return &resp.Client, nil
}

// DeleteDevice de-provisions a device remotely. Callers must not drop their
// persisted record until this has succeeded.
func (c *Client) DeleteDevice(ctx context.Context, id string, protocol models.Protocol) error {
	body := map[string]any{
		"clientId": id,
		"protocol": protocol.APIName(),
	}

	if _, err := c.http.Request(ctx, http.MethodDelete, "users", body, nil); err != nil {
		return c.fail(ctx, "delete device", err)
	}
	return nil
}

func (c *Client) GetServer(ctx context.Context) (*ServerInfo, error) {
	payload, err := c.http.Request(ctx, http.MethodGet, "server", nil, nil)
	if err != nil {
		return nil, c.fail(ctx, "get server", err)
	}

	var info ServerInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return nil, c.fail(ctx, "get server", fmt.Errorf("decoding server info: %w", err))
	}
	return &info, nil
}

func (c *Client) GetBackup(ctx context.Context) (*ServerBackup, error) {
	payload, err := c.http.Request(ctx, http.MethodGet, "server/backup", nil, nil)
	if err != nil {
		return nil, c.fail(ctx, "get server backup", err)
	}

	var backup ServerBackup
	if err := json.Unmarshal(payload, &backup); err != nil {
		return nil, c.fail(ctx, "get server backup", fmt.Errorf("decoding backup: %w", err))
	}
	return &backup, nil
}

// ImportBackup validates the blob shape and, only when it is well-formed,
// ships it upstream. Malformed payloads never reach the network.
func (c *Client) ImportBackup(ctx context.Context, raw []byte) error {
	backup, err := ValidateBackup(raw)
	if err != nil {
		return c.fail(ctx, "import server backup", err)
	}

	if _, err := c.http.Request(ctx, http.MethodPost, "server/backup", backup, nil); err != nil {
		return c.fail(ctx, "import server backup", err)
	}
	return nil
}

func (c *Client) Reboot(ctx context.Context) error {
	if _, err := c.http.Request(ctx, http.MethodPost, "server/reboot", nil, nil); err != nil {
		return c.fail(ctx, "reboot server", err)
	}
	return nil
}

// fail records the failure tagged by operation and hands the original error
// back unchanged. Audit logging is best-effort and never replaces err.
func (c *Client) fail(ctx context.Context, op string, err error) error {
	c.log.Error().Err(err).Str("operation", op).Msg("Provisioning API call failed")
	if c.audit != nil {
		c.audit.Record(ctx, models.LogCategoryServer, models.LogLevelError,
			fmt.Sprintf("Failed to %s: %v", op, err))
	}
	return err
}
