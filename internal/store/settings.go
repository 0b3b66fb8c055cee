package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Setting keys.
const (
	SettingSeed = "layout_seed"
)

// SettingsRepository stores key/value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key, or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set inserts or replaces the value under key.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// Delete removes key. Missing keys return ErrNotFound.
func (r *SettingsRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Uint64 reads key as an unsigned integer.
func (r *SettingsRepository) Uint64(key string) (uint64, error) {
	value, err := r.Get(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %s: %w", key, err)
	}
	return n, nil
}

// SetUint64 stores n under key.
func (r *SettingsRepository) SetUint64(key string, n uint64) error {
	return r.Set(key, strconv.FormatUint(n, 10))
}

// LoadOrInitUint64 returns the value under key, storing init() first when the
// key is missing.
func (r *SettingsRepository) LoadOrInitUint64(key string, init func() uint64) (uint64, error) {
	n, err := r.Uint64(key)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	n = init()
	if err := r.SetUint64(key, n); err != nil {
		return 0, err
	}
	return n, nil
}
