package repository

import (
	"context"
	"path/filepath"
	"testing"

	"changekit/internal/database"
	"changekit/internal/theme"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestPreferenceRepository(t *testing.T) {
	repo := NewPreferenceRepository(newTestDB(t))
	ctx := context.Background()

	got, err := repo.Get(ctx, "unknown")
	if err != nil || got != "" {
		t.Fatalf("Get(unknown) = %q, %v; want empty", got, err)
	}

	if err := repo.Set(ctx, "v1", "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(ctx, "v1", "light"); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}
	if got, _ := repo.Get(ctx, "v1"); got != "light" {
		t.Errorf("Get() = %q, want light", got)
	}
}

func TestPreferenceRepositoryBacksThemeService(t *testing.T) {
	svc := theme.NewService(NewPreferenceRepository(newTestDB(t)))
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, "v2", false); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if got := svc.Current(ctx, "v2", false); got.Name != "dark" {
		t.Errorf("Current() = %q, want dark", got.Name)
	}
}
