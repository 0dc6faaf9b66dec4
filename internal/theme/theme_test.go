package theme

import (
	"context"
	"errors"
	"testing"
)

type failingStorage struct{}

func (failingStorage) Get(ctx context.Context, visitor string) (string, error) {
	return "", errors.New("db down")
}

func (failingStorage) Set(ctx context.Context, visitor, name string) error {
	return errors.New("db down")
}

func TestCurrent(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	storage.Set(ctx, "saved-dark", "dark")
	storage.Set(ctx, "garbage", "sepia")
	svc := NewService(storage)

	tests := []struct {
		name        string
		visitor     string
		prefersDark bool
		want        string
	}{
		{"no preference, light system", "new", false, "light"},
		{"no preference, dark system", "new", true, "dark"},
		{"saved preference wins", "saved-dark", false, "dark"},
		{"unknown saved name ignored", "garbage", true, "dark"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.Current(ctx, tt.visitor, tt.prefersDark); got.Name != tt.want {
				t.Errorf("Current() = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStorage())

	got, err := svc.Toggle(ctx, "v1", false)
	if err != nil || got.Name != "dark" {
		t.Fatalf("Toggle() = %q, %v; want dark", got.Name, err)
	}
	// the saved choice now overrides the system preference
	if cur := svc.Current(ctx, "v1", false); cur.Name != "dark" {
		t.Errorf("Current() = %q, want dark", cur.Name)
	}
	got, _ = svc.Toggle(ctx, "v1", true)
	if got.Name != "light" {
		t.Errorf("second Toggle() = %q, want light", got.Name)
	}
}

func TestStorageFailureFallsBack(t *testing.T) {
	svc := NewService(failingStorage{})
	if got := svc.Current(context.Background(), "v1", true); got.Name != "dark" {
		t.Errorf("Current() = %q, want the system preference", got.Name)
	}
	if _, err := svc.Toggle(context.Background(), "v1", true); err == nil {
		t.Error("Toggle() should report the save failure")
	}
}

func TestPalettes(t *testing.T) {
	if Light.Background == Dark.Background || Light.Text == Dark.Text {
		t.Error("palettes should differ in background and text")
	}
	if _, ok := ByName("solarized"); ok {
		t.Error("ByName() accepted an unknown palette")
	}
}
