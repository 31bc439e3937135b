// Package events announces session lifecycle changes to other services.
package events

import (
	"context"
	"time"
)

// Topic is the stream session events are published on.
const Topic = "zklogin.session"

type EventType string

const (
	SessionCreated EventType = "session.created"
	SessionCleared EventType = "session.cleared"
	PhoneVerified  EventType = "phone.verified"
)

// SessionEvent never carries key material, salts or identity tokens.
type SessionEvent struct {
	Type      EventType `json:"type"`
	ProfileID string    `json:"profile_id"`
	Provider  string    `json:"provider,omitempty"`
	Address   string    `json:"address,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	IsNewUser bool      `json:"is_new_user"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event SessionEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, SessionEvent) error {
	return nil
}
