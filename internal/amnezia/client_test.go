package amnezia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel-backend/internal/models"
	"panel-backend/pkg/httpclient"
	"panel-backend/pkg/logger"
)

// recordingAudit captures audit records without a store.
type recordingAudit struct {
	messages []string
}

func (a *recordingAudit) Record(ctx context.Context, category models.LogCategory, level models.LogLevel, message string) {
	a.messages = append(a.messages, message)
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *recordingAudit) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	audit := &recordingAudit{}
	client := NewClientWithOptions(srv.URL, "secret", audit, logger.New(false), Options{
		Sleep: func(ctx context.Context, d time.Duration) error { return nil },
	})
	return client, audit
}

func TestListAllDevicesPaginates(t *testing.T) {
	const total = 1200
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))

		skip := 0
		fmt.Sscanf(r.URL.Query().Get("skip"), "%d", &skip)
		limit := 0
		fmt.Sscanf(r.URL.Query().Get("limit"), "%d", &limit)

		var items []User
		for i := skip; i < skip+limit && i < total; i++ {
			items = append(items, User{
				Username: fmt.Sprintf("user-%d", i),
				Devices:  []Device{{ID: fmt.Sprintf("device-%d", i)}},
			})
		}
		json.NewEncoder(w).Encode(DeviceList{Total: total, Items: items})
	}))

	users, err := client.ListAllDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, users, total)
	assert.Equal(t, "user-0", users[0].Username)
	assert.Equal(t, "user-1199", users[total-1].Username)
}

func TestCreateDevice(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"result":{"message":"created","client":{"id":"abc-123","config":"vpn://payload","protocol":"amneziawg"}}}`))
	}))

	created, err := client.CreateDevice(context.Background(), "alice-laptop", models.ProtocolAmneziaWG, 1767225600)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", created.ID)
	assert.Equal(t, "vpn://payload", created.Config)

	assert.Equal(t, "alice-laptop", gotBody["clientName"])
	assert.Equal(t, "amneziawg", gotBody["protocol"])
	assert.Equal(t, float64(1767225600), gotBody["expiresAt"])
}

func TestDeleteDeviceFailureIsAudited(t *testing.T) {
	client, audit := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := client.DeleteDevice(context.Background(), "ghost", models.ProtocolXray)
	require.Error(t, err)
	assert.Equal(t, httpclient.KindNotFound, httpclient.KindOf(err))
	require.Len(t, audit.messages, 1)
	assert.Contains(t, audit.messages[0], "Failed to delete device")
}

func TestImportBackupRejectsMalformedPayloadOffline(t *testing.T) {
	var calls atomic.Int32
	client, audit := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{}`))
	}))

	raw := []byte(`{
		"generatedAt": "2026-01-01T00:00:00Z",
		"serverId": "srv-1",
		"protocols": ["AMNEZIAWG", "XRAY"],
		"amnezia": {
			"wgConfig": "[Interface]...",
			"presharedKey": "psk",
			"serverPublicKey": "pub",
			"clients": []
		}
	}`)

	err := client.ImportBackup(context.Background(), raw)
	require.Error(t, err)
	assert.Equal(t, httpclient.KindValidation, httpclient.KindOf(err))
	assert.Contains(t, err.Error(), "xray block is missing")
	// Malformed payloads never reach the upstream.
	assert.Equal(t, int32(0), calls.Load())
	require.Len(t, audit.messages, 1)
}

func TestImportBackupShipsValidPayload(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/server/backup", r.URL.Path)
		w.Write([]byte(`{}`))
	}))

	raw := []byte(`{
		"generatedAt": "2026-01-01T00:00:00Z",
		"serverId": "srv-1",
		"protocols": ["AMNEZIAWG", "XRAY"],
		"amnezia": {
			"wgConfig": "[Interface]...",
			"presharedKey": "psk",
			"serverPublicKey": "pub",
			"clients": [
				{"clientId": "c1", "publicKey": "pk", "userData": {"clientName": "alice", "creationDate": "2025-01-01"}}
			]
		},
		"xray": {
			"serverConfig": "{}",
			"uuid": "u",
			"publicKey": "pub",
			"privateKey": "priv",
			"shortId": "s"
		}
	}`)

	require.NoError(t, client.ImportBackup(context.Background(), raw))
	assert.Equal(t, int32(1), calls.Load())
}

func TestValidateBackup(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		detail string
	}{
		{"not json", "nope", "not valid JSON"},
		{"missing generatedAt", `{"serverId":"s","protocols":["XRAY"]}`, "generatedAt is missing"},
		{"missing serverId", `{"generatedAt":"t","protocols":["XRAY"]}`, "serverId is missing"},
		{"empty protocols", `{"generatedAt":"t","serverId":"s","protocols":[]}`, "protocols list is empty"},
		{"missing amnezia", `{"generatedAt":"t","serverId":"s","protocols":["XRAY"]}`, "amnezia block is missing"},
		{
			"client without name",
			`{"generatedAt":"t","serverId":"s","protocols":["XRAY"],
			  "amnezia":{"wgConfig":"c","presharedKey":"p","serverPublicKey":"k",
			  "clients":[{"clientId":"c1","userData":{"creationDate":"d"}}]}}`,
			"amnezia.clients[0].userData.clientName is missing",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateBackup([]byte(tc.raw))
			require.Error(t, err)
			assert.Equal(t, httpclient.KindValidation, httpclient.KindOf(err))
			assert.Contains(t, err.Error(), tc.detail)
		})
	}
}
