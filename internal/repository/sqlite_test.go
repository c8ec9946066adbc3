package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slabkim/EVACUATE.AI/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	return db
}

func TestSQLiteDB_UpsertAndList(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	device := &models.Device{
		Token:     "tok_abc",
		Platform:  "android",
		Latitude:  -6.2088,
		Longitude: 106.8456,
		UpdatedAt: time.Now().UTC(),
	}

	if err := db.Upsert(ctx, device); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	devices, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	if devices[0].Token != "tok_abc" {
		t.Errorf("expected token 'tok_abc', got '%s'", devices[0].Token)
	}
	if devices[0].Platform != "android" {
		t.Errorf("expected platform 'android', got '%s'", devices[0].Platform)
	}
}

func TestSQLiteDB_UpsertReplacesExisting(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	db.Upsert(ctx, &models.Device{Token: "tok_1", Platform: "ios", Latitude: 1, Longitude: 2})
	db.Upsert(ctx, &models.Device{Token: "tok_1", Platform: "ios", Latitude: -7.5, Longitude: 110.2})

	devices, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device after re-register, got %d", len(devices))
	}
	if devices[0].Latitude != -7.5 || devices[0].Longitude != 110.2 {
		t.Errorf("expected updated location (-7.5, 110.2), got (%f, %f)",
			devices[0].Latitude, devices[0].Longitude)
	}
}

func TestSQLiteDB_Delete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	db.Upsert(ctx, &models.Device{Token: "tok_keep"})
	db.Upsert(ctx, &models.Device{Token: "tok_drop"})

	if err := db.Delete(ctx, "tok_drop"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Deleting a token that no longer exists is not an error.
	if err := db.Delete(ctx, "tok_drop"); err != nil {
		t.Fatalf("repeat Delete failed: %v", err)
	}

	n, err := db.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 device left, got %d", n)
	}
}

func TestSQLiteDB_MarkerLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	_, err := db.Marker(ctx)
	if !errors.Is(err, ErrMarkerNotSet) {
		t.Fatalf("expected ErrMarkerNotSet on fresh db, got %v", err)
	}

	if err := db.SetMarker(ctx, "2026-08-30T14:05:00Z"); err != nil {
		t.Fatalf("SetMarker failed: %v", err)
	}

	id, err := db.Marker(ctx)
	if err != nil {
		t.Fatalf("Marker failed: %v", err)
	}
	if id != "2026-08-30T14:05:00Z" {
		t.Errorf("expected marker '2026-08-30T14:05:00Z', got '%s'", id)
	}

	// Overwrite with a newer event identity.
	if err := db.SetMarker(ctx, "2026-08-30T15:10:00Z"); err != nil {
		t.Fatalf("second SetMarker failed: %v", err)
	}
	id, err = db.Marker(ctx)
	if err != nil {
		t.Fatalf("Marker failed: %v", err)
	}
	if id != "2026-08-30T15:10:00Z" {
		t.Errorf("expected marker '2026-08-30T15:10:00Z', got '%s'", id)
	}
}
