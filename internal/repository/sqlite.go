package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slabkim/EVACUATE.AI/internal/models"
)

const stateKey = "earthquake_state"

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS device_tokens (
			token TEXT PRIMARY KEY,
			platform TEXT NOT NULL DEFAULT 'unknown',
			lat REAL NOT NULL DEFAULT 0,
			lng REAL NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS dispatch_state (
			key TEXT PRIMARY KEY,
			last_processed_event_id TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Upsert(ctx context.Context, d *models.Device) error {
	query := `
		INSERT INTO device_tokens (token, platform, lat, lng, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			platform = excluded.platform,
			lat = excluded.lat,
			lng = excluded.lng,
			updated_at = excluded.updated_at
	`
	updatedAt := d.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, query, d.Token, d.Platform, d.Latitude, d.Longitude, updatedAt)
	if err != nil {
		return fmt.Errorf("error upserting device: %w", err)
	}
	return nil
}

func (s *SQLiteDB) List(ctx context.Context) ([]models.Device, error) {
	query := `SELECT token, platform, lat, lng, updated_at FROM device_tokens`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.Token, &d.Platform, &d.Latitude, &d.Longitude, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning device row: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (s *SQLiteDB) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("error deleting device: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM device_tokens`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting devices: %w", err)
	}
	return n, nil
}

func (s *SQLiteDB) Marker(ctx context.Context) (string, error) {
	var id string
	query := `SELECT last_processed_event_id FROM dispatch_state WHERE key = ?`
	err := s.db.QueryRowContext(ctx, query, stateKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMarkerNotSet
	}
	if err != nil {
		return "", fmt.Errorf("error reading dispatch marker: %w", err)
	}
	return id, nil
}

func (s *SQLiteDB) SetMarker(ctx context.Context, eventID string) error {
	query := `
		INSERT INTO dispatch_state (key, last_processed_event_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			last_processed_event_id = excluded.last_processed_event_id,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, stateKey, eventID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("error writing dispatch marker: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
