package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"pinsaver/internal/domain"
)

// BadgerRepository implements Repository using BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log logrus.FieldLogger
}

var _ Repository = (*BadgerRepository)(nil)

// NewBadgerRepository opens the database at dbPath.
func NewBadgerRepository(dbPath string, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.Info("BadgerDB opened successfully at path: ", dbPath)

	return &BadgerRepository{
		db:  db,
		log: logger.WithField("component", "repository"),
	}, nil
}

// Close closes the BadgerDB database connection.
func (r *BadgerRepository) Close() error {
	r.log.Info("Closing BadgerDB...")
	if err := r.db.Close(); err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	r.log.Info("BadgerDB closed.")
	return nil
}

// Key layout:
//
//	user:{userID}:settings
//	user:{userID}:tab
//	user:{userID}:pin:{imageURL}
func settingsKey(userID int64) []byte {
	return []byte(fmt.Sprintf("user:%d:settings", userID))
}

func tabKey(userID int64) []byte {
	return []byte(fmt.Sprintf("user:%d:tab", userID))
}

func pinKey(userID int64, imageURL string) []byte {
	return []byte(fmt.Sprintf("user:%d:pin:%s", userID, imageURL))
}

func pinPrefix(userID int64) []byte {
	return []byte(fmt.Sprintf("user:%d:pin:", userID))
}

// getJSON decodes the value at key into v. It reports false if the key is missing.
func getJSON(txn *badger.Txn, key []byte, v any) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
	if err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", string(key), err)
	}
	return true, nil
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", string(key), err)
	}
	return txn.SetEntry(badger.NewEntry(key, b))
}

// EnsureSettings writes defaults only when the user has no settings record yet.
func (r *BadgerRepository) EnsureSettings(ctx context.Context, userID int64, defaults domain.Settings) (bool, error) {
	log := r.log.WithField("user_id", userID)

	created := false
	err := r.db.Update(func(txn *badger.Txn) error {
		var existing domain.Settings
		found, err := getJSON(txn, settingsKey(userID), &existing)
		if err != nil || found {
			return err
		}
		created = true
		return setJSON(txn, settingsKey(userID), defaults)
	})
	if err != nil {
		log.WithError(err).Error("Failed to initialize settings")
		return false, fmt.Errorf("failed to initialize settings for user %d: %w", userID, err)
	}

	if created {
		log.Info("Default settings created")
	}
	return created, nil
}

// GetSettings returns the stored settings, or empty Settings when none were saved.
func (r *BadgerRepository) GetSettings(ctx context.Context, userID int64) (domain.Settings, error) {
	var settings domain.Settings
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := getJSON(txn, settingsKey(userID), &settings)
		return err
	})
	if err != nil {
		r.log.WithError(err).WithField("user_id", userID).Error("Failed to read settings")
		return domain.Settings{}, fmt.Errorf("failed to get settings for user %d: %w", userID, err)
	}
	return settings, nil
}

// SaveSettings overwrites the user's settings.
func (r *BadgerRepository) SaveSettings(ctx context.Context, userID int64, settings domain.Settings) error {
	log := r.log.WithField("user_id", userID)

	err := r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, settingsKey(userID), settings)
	})
	if err != nil {
		log.WithError(err).Error("Failed to save settings")
		return fmt.Errorf("failed to save settings for user %d: %w", userID, err)
	}

	log.Info("Settings saved")
	return nil
}

// SetCurrentTab records the page the user is looking at.
func (r *BadgerRepository) SetCurrentTab(ctx context.Context, userID int64, tab domain.Tab) error {
	if tab.UpdatedAt.IsZero() {
		tab.UpdatedAt = time.Now()
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, tabKey(userID), tab)
	})
	if err != nil {
		r.log.WithError(err).WithField("user_id", userID).Error("Failed to save current tab")
		return fmt.Errorf("failed to set current tab for user %d: %w", userID, err)
	}
	return nil
}

// GetCurrentTab returns the last page set for the user.
func (r *BadgerRepository) GetCurrentTab(ctx context.Context, userID int64) (domain.Tab, bool, error) {
	var (
		tab   domain.Tab
		found bool
	)
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, tabKey(userID), &tab)
		return err
	})
	if err != nil {
		return domain.Tab{}, false, fmt.Errorf("failed to get current tab for user %d: %w", userID, err)
	}
	return tab, found, nil
}

// RecordPin stores or updates a pin in the history.
func (r *BadgerRepository) RecordPin(ctx context.Context, pin domain.PinRecord) error {
	log := r.log.WithFields(logrus.Fields{
		"user_id":   pin.UserID,
		"image_url": pin.ImageURL,
	})

	if pin.Timestamp.IsZero() {
		pin.Timestamp = time.Now()
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, pinKey(pin.UserID, pin.ImageURL), pin)
	})
	if err != nil {
		log.WithError(err).Error("Failed to record pin")
		return fmt.Errorf("failed to record pin: %w", err)
	}

	log.Debug("Pin recorded")
	return nil
}

// GetPinsByUser retrieves all recorded pins for a user, newest first.
func (r *BadgerRepository) GetPinsByUser(ctx context.Context, userID int64) ([]domain.PinRecord, error) {
	log := r.log.WithField("user_id", userID)

	var pins []domain.PinRecord
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := pinPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var pin domain.PinRecord
				if err := json.Unmarshal(val, &pin); err != nil {
					return fmt.Errorf("failed to unmarshal pin data for key %s: %w", string(item.Key()), err)
				}
				pins = append(pins, pin)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to retrieve pins from BadgerDB")
		return nil, fmt.Errorf("failed to get pins for user %d: %w", userID, err)
	}

	sort.Slice(pins, func(i, j int) bool {
		return pins[i].Timestamp.After(pins[j].Timestamp)
	})

	log.WithField("pin_count", len(pins)).Debug("Pins retrieved")
	return pins, nil
}

// DeletePin removes a pin from the user's history.
func (r *BadgerRepository) DeletePin(ctx context.Context, userID int64, imageURL string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(pinKey(userID, imageURL))
	})
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"user_id":   userID,
			"image_url": imageURL,
		}).Error("Failed to delete pin")
		return fmt.Errorf("failed to delete pin %s for user %d: %w", imageURL, userID, err)
	}
	return nil
}

// RunGC periodically reclaims value log space until ctx is cancelled.
func (r *BadgerRepository) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := r.db.RunValueLogGC(0.7)
			switch {
			case err == nil:
				r.log.Info("BadgerDB GC completed successfully")
			case errors.Is(err, badger.ErrNoRewrite):
				r.log.Debug("BadgerDB GC: No rewrite needed")
			default:
				r.log.WithError(err).Error("BadgerDB GC failed")
			}
		case <-ctx.Done():
			r.log.Info("Stopping BadgerDB GC routine")
			return
		}
	}
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Infof(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
