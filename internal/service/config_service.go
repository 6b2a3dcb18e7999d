package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"panel-backend/internal/models"
	"panel-backend/internal/store/types"
	"panel-backend/pkg/httpclient"
	"panel-backend/pkg/logger"

	"github.com/rs/zerolog"
)

// ConfigService owns the lifecycle of individual VPN configs: remote
// provisioning, encrypted persistence and de-provisioning.
type ConfigService struct {
	store  types.Store
	vpn    Provisioner
	crypto Encryptor
	audit  AuditLog
	log    zerolog.Logger
}

func NewConfigService(store types.Store, vpn Provisioner, crypto Encryptor, audit AuditLog, lg *logger.Logger) *ConfigService {
	return &ConfigService{
		store:  store,
		vpn:    vpn,
		crypto: crypto,
		audit:  audit,
		log:    lg.GetLogger("config-service"),
	}
}

type CreateConfigInput struct {
	ClientID  *int            `json:"clientId"`
	Username  string          `json:"username"`
	Protocol  models.Protocol `json:"protocol"`
	ExpiresAt string          `json:"expiresAt"`
}

func (in *CreateConfigInput) validate() error {
	if in.Username == "" {
		return httpclient.NewError(httpclient.KindInvalidRequest, "username is required")
	}
	if len(in.Username) > 50 {
		return httpclient.NewError(httpclient.KindInvalidRequest, "username is too long")
	}
	if !in.Protocol.Valid() {
		return httpclient.NewError(httpclient.KindInvalidRequest, "unknown protocol: %s", in.Protocol)
	}
	if in.ExpiresAt != "" {
		if _, err := strconv.ParseInt(in.ExpiresAt, 10, 64); err != nil {
			return httpclient.NewError(httpclient.KindInvalidRequest, "expiresAt must be epoch seconds")
		}
	}
	return nil
}

// CreateConfig provisions a device remotely and persists its record under
// the remote-assigned identifier. The raw connection config is encrypted
// before it touches the store.
func (s *ConfigService) CreateConfig(ctx context.Context, input CreateConfigInput) (*models.Config, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	expires, _ := strconv.ParseInt(input.ExpiresAt, 10, 64)
	created, err := s.vpn.CreateDevice(ctx, input.Username, input.Protocol, expires)
	if err != nil {
		return nil, err
	}

	encrypted, err := s.crypto.Encrypt(created.Config)
	if err != nil {
		return nil, fmt.Errorf("encrypting vpn key: %w", err)
	}

	config := &models.Config{
		ID:        created.ID,
		Username:  input.Username,
		Protocol:  input.Protocol,
		VPNKey:    encrypted,
		ExpiresAt: input.ExpiresAt,
		ClientID:  input.ClientID,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateConfig(ctx, config); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.LogCategoryClient, models.LogLevelInfo,
		fmt.Sprintf("Config %s created", input.Username))
	return config, nil
}

// UpdateClientConfig reassigns a config to another client.
func (s *ConfigService) UpdateClientConfig(ctx context.Context, id string, clientID int) error {
	config, err := s.store.GetConfig(ctx, id)
	if err != nil {
		return s.mapStoreErr(err, "config")
	}

	config.ClientID = &clientID
	if err := s.store.UpdateConfig(ctx, config); err != nil {
		return err
	}

	s.audit.Record(ctx, models.LogCategoryClient, models.LogLevelInfo,
		fmt.Sprintf("Config %s updated", config.Username))
	return nil
}

// DeleteConfig de-provisions the device remotely before dropping the
// persisted record. If remote deletion fails the record stays, so a live
// device is never orphaned.
func (s *ConfigService) DeleteConfig(ctx context.Context, id string) error {
	config, err := s.store.GetConfig(ctx, id)
	if err != nil {
		return s.mapStoreErr(err, "config")
	}

	if err := s.vpn.DeleteDevice(ctx, id, config.Protocol); err != nil {
		return err
	}

	if err := s.store.DeleteConfig(ctx, id); err != nil {
		return err
	}

	s.audit.Record(ctx, models.LogCategoryClient, models.LogLevelWarning,
		fmt.Sprintf("Config %s deleted", config.Username))
	return nil
}

// GetVPNKey decrypts a stored connection config for display.
func (s *ConfigService) GetVPNKey(ctx context.Context, id string) (string, error) {
	config, err := s.store.GetConfig(ctx, id)
	if err != nil {
		return "", s.mapStoreErr(err, "config")
	}
	return s.crypto.Decrypt(config.VPNKey)
}

func (s *ConfigService) mapStoreErr(err error, what string) error {
	if errors.Is(err, types.ErrNotFound) {
		return httpclient.NewError(httpclient.KindNotFound, "%s not found", what)
	}
	return err
}
