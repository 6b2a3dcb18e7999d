package models

import "time"

// Client is a person or organization owning zero or more configs.
type Client struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:30;not null" json:"name"`
	TelegramID string    `json:"telegramId"`
	CreatedAt  time.Time `json:"createdAt"`
}
