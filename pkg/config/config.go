// Package config loads collation profiles from YAML or TOML files.
//
// A profile bundles the collation options and the settings used to fetch
// remote apparatus documents. Fields absent from a file keep their default
// values.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/collatrix/pkg/collation"
	"github.com/coolbeans/collatrix/pkg/fetch"
	"github.com/coolbeans/collatrix/pkg/vmr"
)

// Profile is the serializable form of a collation profile.
type Profile struct {
	Name        string            `yaml:"name" toml:"name"`
	Description string            `yaml:"description,omitempty" toml:"description,omitempty"`
	Collation   CollationSettings `yaml:"collation" toml:"collation"`
	Fetch       FetchSettings     `yaml:"fetch" toml:"fetch"`
}

// CollationSettings mirrors collation.Options.
type CollationSettings struct {
	MinExtantProportion    float64  `yaml:"min_extant_proportion" toml:"min_extant_proportion"`
	UseTFIDF               bool     `yaml:"use_tfidf" toml:"use_tfidf"`
	AmbiguousReadingPrefix string   `yaml:"ambiguous_reading_prefix" toml:"ambiguous_reading_prefix"`
	SubwitnessSuffixes     []string `yaml:"subwitness_suffixes" toml:"subwitness_suffixes"`
	TrivialReadingTypes    []string `yaml:"trivial_reading_types" toml:"trivial_reading_types"`
	IgnoredReadingTypes    []string `yaml:"ignored_reading_types" toml:"ignored_reading_types"`
}

// FetchSettings configures access to the VMR API. Durations use Go syntax,
// e.g. "1s" or "500ms".
type FetchSettings struct {
	BaseURL   string `yaml:"base_url" toml:"base_url"`
	CacheDir  string `yaml:"cache_dir" toml:"cache_dir"`
	CacheTTL  string `yaml:"cache_ttl" toml:"cache_ttl"`
	RateLimit string `yaml:"rate_limit" toml:"rate_limit"`
	Timeout   string `yaml:"timeout" toml:"timeout"`
}

// Default returns the default profile.
func Default() Profile {
	fetchConfig := fetch.DefaultFetchConfig()
	return Profile{
		Name: "default",
		Collation: CollationSettings{
			MinExtantProportion: collation.DefaultMinExtantProportion,
			SubwitnessSuffixes:  []string{},
			TrivialReadingTypes: []string{},
			IgnoredReadingTypes: []string{},
		},
		Fetch: FetchSettings{
			BaseURL:   vmr.DefaultBaseURL,
			CacheTTL:  vmr.DefaultCacheTTL.String(),
			RateLimit: fetchConfig.RateLimit.String(),
			Timeout:   fetchConfig.Timeout.String(),
		},
	}
}

type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatFor(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	}
	return 0, fmt.Errorf("unsupported profile format %q (use .yaml, .yml or .toml)", filepath.Ext(path))
}

// Load reads a profile, choosing the format from the file extension. A
// missing TOML file yields the default profile; a missing YAML file is an
// error.
func Load(path string) (Profile, error) {
	if path == "" {
		return Profile{}, fmt.Errorf("profile path is empty")
	}
	profileFormat, err := formatFor(path)
	if err != nil {
		return Profile{}, err
	}

	profile := Default()
	switch profileFormat {
	case formatTOML:
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return profile, nil
			}
			return Profile{}, fmt.Errorf("failed to stat profile: %w", err)
		}
		if _, err := toml.DecodeFile(path, &profile); err != nil {
			return Profile{}, fmt.Errorf("failed to decode profile %s: %w", path, err)
		}

	case formatYAML:
		data, err := os.ReadFile(path)
		if err != nil {
			return Profile{}, fmt.Errorf("failed to read profile %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
		}
	}

	if err := profile.Validate(); err != nil {
		return Profile{}, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return profile, nil
}

// Save writes the profile, choosing the format from the file extension.
func (profile Profile) Save(path string) error {
	profileFormat, err := formatFor(path)
	if err != nil {
		return err
	}

	var data []byte
	switch profileFormat {
	case formatTOML:
		var buffer bytes.Buffer
		if err := toml.NewEncoder(&buffer).Encode(profile); err != nil {
			return fmt.Errorf("failed to encode profile: %w", err)
		}
		data = buffer.Bytes()
	case formatYAML:
		data, err = yaml.Marshal(profile)
		if err != nil {
			return fmt.Errorf("failed to encode profile: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write profile %s: %w", path, err)
	}
	return nil
}

// Validate checks the proportion and every duration.
func (profile Profile) Validate() error {
	if err := profile.CollationOptions().Validate(); err != nil {
		return err
	}
	if _, err := profile.FetchConfig(); err != nil {
		return err
	}
	_, err := parseDuration("cache_ttl", profile.Fetch.CacheTTL, vmr.DefaultCacheTTL)
	return err
}

// CollationOptions converts the collation settings.
func (profile Profile) CollationOptions() collation.Options {
	settings := profile.Collation
	return collation.Options{
		MinExtantProportion:    settings.MinExtantProportion,
		UseTFIDF:               settings.UseTFIDF,
		AmbiguousReadingPrefix: settings.AmbiguousReadingPrefix,
		SubwitnessSuffixes:     append([]string(nil), settings.SubwitnessSuffixes...),
		TrivialReadingTypes:    append([]string(nil), settings.TrivialReadingTypes...),
		IgnoredReadingTypes:    append([]string(nil), settings.IgnoredReadingTypes...),
	}
}

// FetchConfig converts the fetch settings.
func (profile Profile) FetchConfig() (fetch.FetchConfig, error) {
	fetchConfig := fetch.DefaultFetchConfig()

	rateLimit, err := parseDuration("rate_limit", profile.Fetch.RateLimit, fetchConfig.RateLimit)
	if err != nil {
		return fetch.FetchConfig{}, err
	}
	timeout, err := parseDuration("timeout", profile.Fetch.Timeout, fetchConfig.Timeout)
	if err != nil {
		return fetch.FetchConfig{}, err
	}

	fetchConfig.RateLimit = rateLimit
	fetchConfig.Timeout = timeout
	return fetchConfig, nil
}

// ApparatusCache opens the cache directory of the profile, or returns nil
// when no cache_dir is set.
func (profile Profile) ApparatusCache() (*vmr.ApparatusCache, error) {
	if profile.Fetch.CacheDir == "" {
		return nil, nil
	}
	ttl, err := parseDuration("cache_ttl", profile.Fetch.CacheTTL, vmr.DefaultCacheTTL)
	if err != nil {
		return nil, err
	}
	return vmr.NewApparatusCache(profile.Fetch.CacheDir, ttl)
}

// parseDuration parses a duration setting; an empty value yields fallback.
func parseDuration(name, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", name, value)
	}
	return parsed, nil
}
