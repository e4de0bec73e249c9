// Package realtime listens on the scoring service socket for notifications
// pushed to the signed in user.
package realtime

import (
	"strings"
	"time"
)

// Notification is a server pushed message addressed to the user.
type Notification struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Content    string    `json:"content"` // JSON encoded object
	Code       int       `json:"code"`
	SenderID   string    `json:"sender_id,omitempty"`
	CreateTime time.Time `json:"create_time"`
	Persistent bool      `json:"persistent"`
}

// IsReward reports whether the notification announces a granted reward.
func (n Notification) IsReward() bool {
	return strings.Contains(strings.ToLower(n.Subject), "reward")
}

// envelope is the socket frame; only notification batches are decoded.
type envelope struct {
	Cid           string `json:"cid,omitempty"`
	Notifications *struct {
		Notifications []Notification `json:"notifications"`
	} `json:"notifications,omitempty"`
}

// Handler is called from the read loop for every notification received.
type Handler func(Notification)

type Config struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
}

func DefaultConfig() Config {
	return Config{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 64 * 1024,
	}
}
