package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mekedron/grocer-cli/internal/domain"
)

func TestNewStoreUsesEnvConfigPath(t *testing.T) {
	t.Setenv(envConfigPath, "/tmp/custom-grocer-config.json")
	store, err := NewStore()
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	if store.Path() != "/tmp/custom-grocer-config.json" {
		t.Fatalf("expected env path, got %q", store.Path())
	}
}

func TestNewStoreDefaultsToHomeDirectory(t *testing.T) {
	t.Setenv(envConfigPath, "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	store, err := NewStore()
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}
	if store.Path() != filepath.Join(home, ".grocer", "config.json") {
		t.Fatalf("expected default path under home, got %q", store.Path())
	}
}

func TestStoreSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")
	store := NewStoreAt(path)

	input := domain.Config{
		Profiles: []domain.Profile{
			{
				Name:      "default",
				IsDefault: true,
				Location:  &domain.Coordinate{Lat: -7.770717, Lon: 110.3695},
				APIURL:    "http://localhost:5000/api/",
				Locale:    "id",
			},
			{Name: "work", Address: "Jl. Malioboro"},
		},
	}
	if err := store.Save(context.Background(), input); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	output, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if len(output.Profiles) != 2 || output.Profiles[0].Name != "default" {
		t.Fatalf("unexpected roundtrip config: %+v", output)
	}
	if output.Profiles[0].Location == nil || output.Profiles[0].Location.Lat != -7.770717 {
		t.Fatalf("expected saved location, got %+v", output.Profiles[0].Location)
	}
	if output.Profiles[1].Location != nil {
		t.Fatalf("expected work profile without location, got %+v", output.Profiles[1].Location)
	}
}

func TestStoreLoadMissingConfig(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "missing.json"))
	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestStoreLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}
	store := NewStoreAt(path)
	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestStoreLoadRejectsOutOfRangeLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	payload := `{"profiles":[{"name":"default","is_default":true,"location":{"lat":91,"lon":0}}]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := NewStoreAt(path).Load(context.Background())
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if !strings.Contains(err.Error(), "latitude") {
		t.Fatalf("expected latitude detail, got %v", err)
	}
}

func TestStoreSaveRejectsEmptyProfiles(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "config.json"))
	err := store.Save(context.Background(), domain.Config{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestStoreSaveRejectsDuplicateProfiles(t *testing.T) {
	store := NewStoreAt(filepath.Join(t.TempDir(), "config.json"))
	err := store.Save(context.Background(), domain.Config{Profiles: []domain.Profile{{Name: "a"}, {Name: "a"}}})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
