package models

import "time"

// EncryptedField holds an authenticated-encryption envelope for a single
// sensitive value. All parts are hex encoded.
type EncryptedField struct {
	Ciphertext string `gorm:"column:ciphertext" json:"encrypted"`
	IV         string `gorm:"column:iv" json:"iv"`
	Tag        string `gorm:"column:tag" json:"tag"`
}

// Config is the panel's persisted record of a provisioned VPN configuration.
// Its ID equals the device id assigned by the provisioning API, which is the
// join key to live device state.
type Config struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"size:50;not null" json:"username"`
	Protocol  Protocol       `gorm:"size:20;not null" json:"protocol"`
	VPNKey    EncryptedField `gorm:"embedded;embeddedPrefix:vpn_key_" json:"-"`
	ExpiresAt string         `json:"expiresAt"`
	ClientID  *int           `gorm:"index" json:"clientId"`
	CreatedAt time.Time      `json:"createdAt"`
}
