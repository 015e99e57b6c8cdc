// Package notifier defines the port for reviewer alerts sent to chat
// channels.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier has no destination.
var ErrNotConfigured = errors.New("notifier: not configured")

// Level sets the visual weight of an alert.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Field is a labelled value rendered beneath the message.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Notification is the payload sent through a Notifier.
type Notification struct {
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Level   Level   `json:"level"`
	Fields  []Field `json:"fields,omitempty"`
	// Link points at the case in the reviewer dashboard, if one is known.
	Link string `json:"link,omitempty"`
	// Source is the case event that triggered the alert.
	Source string `json:"source"`
}

// Notifier delivers alerts to one channel.
type Notifier interface {
	// Name returns the provider identifier ("slack", "discord").
	Name() string

	// Send delivers a notification.
	Send(ctx context.Context, n Notification) error
}
