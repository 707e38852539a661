package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/coolbeans/collatrix/pkg/collation"
	"github.com/coolbeans/collatrix/pkg/vmr"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecm.yaml")
	writeFile(t, path, `
name: ecm-acts
collation:
  min_extant_proportion: 0.5
  use_tfidf: true
  subwitness_suffixes: ["*", "C", "C1", "C2", "A", "K", "L", "/1", "/2", "V"]
  trivial_reading_types: [defective, orthographic]
  ignored_reading_types: [lac, overlap]
fetch:
  rate_limit: 250ms
`)

	profile, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	options := profile.CollationOptions()
	if options.MinExtantProportion != 0.5 {
		t.Errorf("MinExtantProportion: got %v, want 0.5", options.MinExtantProportion)
	}
	if !options.UseTFIDF {
		t.Error("UseTFIDF: got false, want true")
	}
	if len(options.SubwitnessSuffixes) != 10 {
		t.Errorf("SubwitnessSuffixes: got %v", options.SubwitnessSuffixes)
	}
	if !reflect.DeepEqual(options.IgnoredReadingTypes, []string{"lac", "overlap"}) {
		t.Errorf("IgnoredReadingTypes: got %v", options.IgnoredReadingTypes)
	}

	fetchConfig, err := profile.FetchConfig()
	if err != nil {
		t.Fatalf("FetchConfig failed: %v", err)
	}
	if fetchConfig.RateLimit != 250*time.Millisecond {
		t.Errorf("RateLimit: got %v, want 250ms", fetchConfig.RateLimit)
	}
	// Unset values keep their defaults.
	if profile.Fetch.BaseURL != vmr.DefaultBaseURL {
		t.Errorf("BaseURL: got %q, want default", profile.Fetch.BaseURL)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tei.toml")
	writeFile(t, path, `
name = "tei"

[collation]
min_extant_proportion = 0.9
ambiguous_reading_prefix = "W"
subwitness_suffixes = ["*", "C"]

[fetch]
cache_dir = "/tmp/collatrix"
`)

	profile, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if profile.Name != "tei" {
		t.Errorf("Name: got %q, want tei", profile.Name)
	}
	options := profile.CollationOptions()
	if options.AmbiguousReadingPrefix != "W" {
		t.Errorf("AmbiguousReadingPrefix: got %q, want W", options.AmbiguousReadingPrefix)
	}
	if options.MinExtantProportion != 0.9 {
		t.Errorf("MinExtantProportion: got %v, want 0.9", options.MinExtantProportion)
	}
	if profile.Fetch.CacheDir != "/tmp/collatrix" {
		t.Errorf("CacheDir: got %q", profile.Fetch.CacheDir)
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	dir := t.TempDir()

	profile, err := Load(filepath.Join(dir, "absent.toml"))
	if err != nil {
		t.Fatalf("missing TOML should not be an error: %v", err)
	}
	if !reflect.DeepEqual(profile, Default()) {
		t.Errorf("missing TOML: got %+v, want defaults", profile)
	}

	if _, err := Load(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("expected error for missing YAML profile")
	}
}

func TestLoad_Rejects(t *testing.T) {
	dir := t.TempDir()

	outOfRange := filepath.Join(dir, "range.yaml")
	writeFile(t, outOfRange, "collation:\n  min_extant_proportion: 1.5\n")
	if _, err := Load(outOfRange); !errors.Is(err, collation.ErrThresholdOutOfRange) {
		t.Errorf("got %v, want ErrThresholdOutOfRange", err)
	}

	badDuration := filepath.Join(dir, "duration.yaml")
	writeFile(t, badDuration, "fetch:\n  timeout: soon\n")
	if _, err := Load(badDuration); err == nil {
		t.Error("expected error for bad duration")
	}

	if _, err := Load(filepath.Join(dir, "profile.json")); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := Load(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	for _, name := range []string{"profile.yaml", "profile.toml"} {
		t.Run(name, func(t *testing.T) {
			profile := Default()
			profile.Name = "roundtrip"
			profile.Collation.SubwitnessSuffixes = []string{"*", "C"}
			profile.Collation.UseTFIDF = true

			path := filepath.Join(t.TempDir(), name)
			if err := profile.Save(path); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if !reflect.DeepEqual(loaded, profile) {
				t.Errorf("got %+v, want %+v", loaded, profile)
			}
		})
	}
}

func TestProfile_ApparatusCache(t *testing.T) {
	profile := Default()
	cache, err := profile.ApparatusCache()
	if err != nil {
		t.Fatalf("ApparatusCache failed: %v", err)
	}
	if cache != nil {
		t.Error("expected no cache without cache_dir")
	}

	profile.Fetch.CacheDir = filepath.Join(t.TempDir(), "apparatus")
	cache, err = profile.ApparatusCache()
	if err != nil {
		t.Fatalf("ApparatusCache failed: %v", err)
	}
	if cache == nil {
		t.Fatal("expected a cache for a configured cache_dir")
	}
	if _, err := os.Stat(profile.Fetch.CacheDir); err != nil {
		t.Errorf("cache directory not created: %v", err)
	}

	profile.Fetch.CacheTTL = "-1h"
	if _, err := profile.ApparatusCache(); err == nil {
		t.Error("expected error for negative cache_ttl")
	}
	if err := profile.Validate(); err == nil {
		t.Error("Validate accepted a negative cache_ttl")
	}
}
