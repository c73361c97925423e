package storage

import (
	"context"
	"time"

	"pinsaver/internal/domain"
)

// SettingsStore persists one Settings record per installation.
type SettingsStore interface {
	// EnsureSettings creates the record with defaults if none exists yet.
	// It reports whether a record was created.
	EnsureSettings(ctx context.Context, userID int64, defaults domain.Settings) (bool, error)

	// GetSettings returns the stored snapshot, or empty Settings if there is none.
	GetSettings(ctx context.Context, userID int64) (domain.Settings, error)

	// SaveSettings overwrites the stored record.
	SaveSettings(ctx context.Context, userID int64, settings domain.Settings) error
}

// TabStore remembers the page a user is currently on.
type TabStore interface {
	SetCurrentTab(ctx context.Context, userID int64, tab domain.Tab) error

	// GetCurrentTab reports false when no page has been set.
	GetCurrentTab(ctx context.Context, userID int64) (domain.Tab, bool, error)
}

// PinHistory keeps a local record of pins that were accepted by Pinry.
type PinHistory interface {
	// RecordPin stores a pin; the combination of UserID and ImageURL is unique.
	RecordPin(ctx context.Context, pin domain.PinRecord) error

	// GetPinsByUser returns a user's pins, newest first.
	GetPinsByUser(ctx context.Context, userID int64) ([]domain.PinRecord, error)

	// DeletePin removes a pin from the history. Deleting a missing pin is not an error.
	DeletePin(ctx context.Context, userID int64, imageURL string) error
}

// Repository is the full storage surface used by the application.
type Repository interface {
	SettingsStore
	TabStore
	PinHistory

	// RunGC reclaims space in the background until ctx is cancelled.
	RunGC(ctx context.Context, interval time.Duration)

	// Close gracefully shuts down the repository connection.
	Close() error
}
