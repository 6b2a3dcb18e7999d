package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"panel-backend/internal/amnezia"
	"panel-backend/internal/models"
	"panel-backend/internal/store/types"
	"panel-backend/internal/telegram"
	"panel-backend/pkg/httpclient"
	"panel-backend/pkg/logger"

	"github.com/rs/zerolog"
)

// ClientService owns clients and the reconciled client/config view that
// merges persisted records with live device state from the provisioning API.
type ClientService struct {
	store    types.Store
	vpn      Provisioner
	configs  *ConfigService
	notifier ConfigNotifier
	audit    AuditLog
	log      zerolog.Logger
}

func NewClientService(store types.Store, vpn Provisioner, configs *ConfigService, notifier ConfigNotifier, audit AuditLog, lg *logger.Logger) *ClientService {
	return &ClientService{
		store:    store,
		vpn:      vpn,
		configs:  configs,
		notifier: notifier,
		audit:    audit,
		log:      lg.GetLogger("client-service"),
	}
}

// ListOptions narrows the reconciled view. Search is a case-insensitive
// substring match on username; ProtocolFilter is an exact protocol match
// with models.ProtocolFilterAll (or empty) meaning no filter. Both apply to
// the merged set, so remote-only entries are filtered like persisted ones.
type ListOptions struct {
	Search         string
	ProtocolFilter string
}

// ClientsWithConfigs is the reconciled view: clients with their merged
// configs, plus configs owned by no client (persisted without an owner, or
// present only on the remote).
type ClientsWithConfigs struct {
	Clients       []models.ClientWithConfigs `json:"clients"`
	OrphanConfigs []models.MergedConfig      `json:"orphanConfigs"`
}

// ListClientsWithConfigs merges the persisted records with the live device
// listing. The store reads and the remote listing run concurrently; their
// results are combined only after both complete. A persisted config without
// a live device falls back to offline defaults; a live device without a
// persisted config becomes a synthetic orphan entry. Source-of-truth
// conflicts are reconciled, never rejected.
func (s *ClientService) ListClientsWithConfigs(ctx context.Context, opts ListOptions) (*ClientsWithConfigs, error) {
	type remoteResult struct {
		users []amnezia.User
		err   error
	}
	remoteCh := make(chan remoteResult, 1)
	go func() {
		users, err := s.vpn.ListAllDevices(ctx)
		remoteCh <- remoteResult{users: users, err: err}
	}()

	configs, err := s.store.ListConfigs(ctx)
	if err != nil {
		return nil, err
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	remote := <-remoteCh
	if remote.err != nil {
		return nil, remote.err
	}

	// Device lookup by id. Duplicate ids across users should not happen
	// upstream; when they do, last write wins.
	devices := make(map[string]amnezia.Device)
	for _, user := range remote.users {
		for _, device := range user.Devices {
			devices[device.ID] = device
		}
	}

	persistedIDs := make(map[string]bool, len(configs))
	merged := make([]models.MergedConfig, 0, len(configs))
	for _, record := range configs {
		persistedIDs[record.ID] = true
		merged = append(merged, overlayDevice(record, devices))
	}

	// Remote devices the panel has no record of become orphan entries with a
	// fresh creation stamp: the remote does not track creation time.
	for _, user := range remote.users {
		for _, device := range user.Devices {
			if !persistedIDs[device.ID] {
				merged = append(merged, orphanFromDevice(user.Username, device))
			}
		}
	}

	var filtered []models.MergedConfig
	for _, config := range merged {
		if matchesFilters(config, opts) {
			filtered = append(filtered, config)
		}
	}

	byClient := make(map[int][]models.MergedConfig)
	var orphans []models.MergedConfig
	for _, config := range filtered {
		if config.ClientID == nil {
			orphans = append(orphans, config)
			continue
		}
		byClient[*config.ClientID] = append(byClient[*config.ClientID], config)
	}

	result := &ClientsWithConfigs{
		Clients:       make([]models.ClientWithConfigs, 0, len(clients)),
		OrphanConfigs: orphans,
	}
	for _, client := range clients {
		clientConfigs := byClient[client.ID]
		result.Clients = append(result.Clients, models.ClientWithConfigs{
			Client:       *client,
			Configs:      clientConfigs,
			ConfigsCount: len(clientConfigs),
		})
	}
	return result, nil
}

// overlayDevice merges live device state onto a persisted record. Device
// expiry wins over the stored one when the remote reports it.
func overlayDevice(record *models.Config, devices map[string]amnezia.Device) models.MergedConfig {
	merged := models.MergedConfig{
		ID:         record.ID,
		Username:   record.Username,
		Protocol:   record.Protocol,
		ExpiresAt:  record.ExpiresAt,
		ClientID:   record.ClientID,
		CreatedAt:  record.CreatedAt,
		AllowedIPs: []string{},
	}

	device, ok := devices[record.ID]
	if !ok {
		return merged
	}

	merged.Online = device.Online
	merged.LastHandshake = device.LastHandshake
	merged.Traffic = models.Traffic{Received: device.Traffic.Received, Sent: device.Traffic.Sent}
	if device.AllowedIPs != nil {
		merged.AllowedIPs = device.AllowedIPs
	}
	merged.Endpoint = device.Endpoint
	if device.ExpiresAt != 0 {
		merged.ExpiresAt = strconv.FormatInt(device.ExpiresAt, 10)
	}
	if protocol, known := models.ProtocolFromAPIName(device.Protocol); known {
		merged.Protocol = protocol
	}
	return merged
}

func orphanFromDevice(username string, device amnezia.Device) models.MergedConfig {
	merged := models.MergedConfig{
		ID:            device.ID,
		Username:      username,
		CreatedAt:     time.Now(),
		Online:        device.Online,
		LastHandshake: device.LastHandshake,
		Traffic:       models.Traffic{Received: device.Traffic.Received, Sent: device.Traffic.Sent},
		AllowedIPs:    []string{},
		Endpoint:      device.Endpoint,
	}
	if device.AllowedIPs != nil {
		merged.AllowedIPs = device.AllowedIPs
	}
	if device.ExpiresAt != 0 {
		merged.ExpiresAt = strconv.FormatInt(device.ExpiresAt, 10)
	}
	if protocol, known := models.ProtocolFromAPIName(device.Protocol); known {
		merged.Protocol = protocol
	}
	return merged
}

func matchesFilters(config models.MergedConfig, opts ListOptions) bool {
	if opts.Search != "" &&
		!strings.Contains(strings.ToLower(config.Username), strings.ToLower(opts.Search)) {
		return false
	}
	if opts.ProtocolFilter != "" && opts.ProtocolFilter != models.ProtocolFilterAll &&
		string(config.Protocol) != opts.ProtocolFilter {
		return false
	}
	return true
}

// GetClients lists clients without their configs, for pickers.
func (s *ClientService) GetClients(ctx context.Context) ([]*models.Client, error) {
	return s.store.ListClients(ctx)
}

type CreateClientInput struct {
	Name       string              `json:"name"`
	TelegramID string              `json:"telegramId"`
	Configs    []CreateConfigInput `json:"configs"`
}

// CreateClient creates the client record, then provisions each requested
// config through the config service.
func (s *ClientService) CreateClient(ctx context.Context, input CreateClientInput) (*models.Client, error) {
	if input.Name == "" || len(input.Name) > 30 {
		return nil, httpclient.NewError(httpclient.KindInvalidRequest, "client name must be 1-30 characters")
	}

	client := &models.Client{
		Name:       input.Name,
		TelegramID: input.TelegramID,
		CreatedAt:  time.Now(),
	}
	if err := s.store.CreateClient(ctx, client); err != nil {
		return nil, err
	}

	for _, configInput := range input.Configs {
		configInput.ClientID = &client.ID
		if _, err := s.configs.CreateConfig(ctx, configInput); err != nil {
			return nil, err
		}
	}

	s.audit.Record(ctx, models.LogCategoryClient, models.LogLevelInfo,
		fmt.Sprintf("Client %s created", client.Name))
	return client, nil
}

type UpdateClientInput struct {
	Name       string `json:"name"`
	TelegramID string `json:"telegramId"`
}

func (s *ClientService) UpdateClient(ctx context.Context, id int, input UpdateClientInput) error {
	if input.Name == "" || len(input.Name) > 30 {
		return httpclient.NewError(httpclient.KindInvalidRequest, "client name must be 1-30 characters")
	}

	client, err := s.store.GetClient(ctx, id)
	if err != nil {
		return s.mapStoreErr(err)
	}

	client.Name = input.Name
	client.TelegramID = input.TelegramID
	if err := s.store.UpdateClient(ctx, client); err != nil {
		return err
	}

	s.audit.Record(ctx, models.LogCategoryClient, models.LogLevelInfo,
		fmt.Sprintf("Client %s updated", client.Name))
	return nil
}

// DeleteClient de-provisions every config of the client remotely before any
// row is dropped. A remote failure aborts the whole deletion so no live
// device loses its record.
func (s *ClientService) DeleteClient(ctx context.Context, id int) error {
	client, err := s.store.GetClient(ctx, id)
	if err != nil {
		return s.mapStoreErr(err)
	}

	configs, err := s.store.ListConfigsByClient(ctx, id)
	if err != nil {
		return err
	}
	for _, config := range configs {
		if err := s.vpn.DeleteDevice(ctx, config.ID, config.Protocol); err != nil {
			return err
		}
	}

	if err := s.store.DeleteConfigsByClient(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteClient(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, models.LogCategoryClient, models.LogLevelWarning,
		fmt.Sprintf("Client %s deleted", client.Name))
	return nil
}

// SendConfigsToTelegram delivers all of a client's configs to their chat.
func (s *ClientService) SendConfigsToTelegram(ctx context.Context, clientID int) error {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return s.mapStoreErr(err)
	}
	if client.TelegramID == "" {
		return httpclient.NewError(httpclient.KindInvalidRequest, "client has no telegram chat configured")
	}

	configs, err := s.store.ListConfigsByClient(ctx, clientID)
	if err != nil {
		return err
	}
	if len(configs) == 0 {
		return httpclient.NewError(httpclient.KindInvalidRequest, "client has no configs")
	}

	messages := make([]telegram.ConfigMessage, 0, len(configs))
	for _, config := range configs {
		messages = append(messages, telegram.ConfigMessage{
			Username:  config.Username,
			Protocol:  config.Protocol,
			ExpiresAt: config.ExpiresAt,
			VPNKey:    config.VPNKey,
		})
	}

	return s.notifier.Send(ctx, client.Name, client.TelegramID, messages)
}

func (s *ClientService) mapStoreErr(err error) error {
	if errors.Is(err, types.ErrNotFound) {
		return httpclient.NewError(httpclient.KindNotFound, "client not found")
	}
	return err
}
