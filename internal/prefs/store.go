// Package prefs persists reader preferences in an embedded Badger database.
//
// Two fixed keys are stored: "showTranslation" holds a JSON boolean and
// "selectedQari" holds a plain reciter id. Both are read once at startup and
// written on every change.
package prefs

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/tilawahapp/tilawah-server/internal/domain"
)

// Keys under which preferences are stored.
const (
	KeyShowTranslation = "showTranslation"
	KeyReciter         = "selectedQari"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens the preference database at path. An empty path keeps everything in memory.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	logger.Info("preference store opened", "path", path, "in_memory", path == "")
	return &Store{db: db, logger: logger}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads both preferences. Absent or unparseable values fall back to
// domain.DefaultPreferences; only storage failures are returned as errors.
func (s *Store) Load() (domain.Preferences, error) {
	prefs := domain.DefaultPreferences()

	raw, err := s.get(KeyShowTranslation)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return prefs, fmt.Errorf("read %s: %w", KeyShowTranslation, err)
	default:
		var show bool
		if err := json.Unmarshal(raw, &show); err != nil {
			s.logger.Warn("ignoring unparseable preference", "key", KeyShowTranslation, "value", string(raw))
		} else {
			prefs.ShowTranslation = show
		}
	}

	raw, err = s.get(KeyReciter)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return prefs, fmt.Errorf("read %s: %w", KeyReciter, err)
	default:
		if id := strings.TrimSpace(string(raw)); id != "" {
			prefs.Reciter = id
		}
	}

	return prefs, nil
}

// SaveShowTranslation stores the translation flag as a JSON boolean.
func (s *Store) SaveShowTranslation(show bool) error {
	data, err := json.Marshal(show)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", KeyShowTranslation, err)
	}
	return s.set(KeyShowTranslation, data)
}

// SaveReciter stores the reciter id as a plain string.
func (s *Store) SaveReciter(id string) error {
	return s.set(KeyReciter, []byte(id))
}

func (s *Store) get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

func (s *Store) set(key string, value []byte) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	}); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
