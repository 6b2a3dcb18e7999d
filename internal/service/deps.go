package service

import (
	"context"

	"panel-backend/internal/amnezia"
	"panel-backend/internal/models"
	"panel-backend/internal/telegram"
)

// Provisioner is the slice of the VPN provisioning client the services use.
type Provisioner interface {
	ListAllDevices(ctx context.Context) ([]amnezia.User, error)
	CreateDevice(ctx context.Context, username string, protocol models.Protocol, expiresAt int64) (*amnezia.CreatedClient, error)
	DeleteDevice(ctx context.Context, id string, protocol models.Protocol) error
}

// Encryptor seals and opens VPN key payloads.
type Encryptor interface {
	Encrypt(plaintext string) (models.EncryptedField, error)
	Decrypt(field models.EncryptedField) (string, error)
}

// ConfigNotifier delivers a client's configs to their Telegram chat.
type ConfigNotifier interface {
	Send(ctx context.Context, clientName, chatID string, configs []telegram.ConfigMessage) error
}

// AuditLog records service-level events for the panel's log view.
type AuditLog interface {
	Record(ctx context.Context, category models.LogCategory, level models.LogLevel, message string)
}
