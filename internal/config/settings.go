package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds all configuration options.
type Settings struct {
	// Server settings
	ListenAddr     string   `json:"listen_addr" yaml:"listen_addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// Acquisition settings
	WorkspaceRoot        string  `json:"workspace_root" yaml:"workspace_root"`
	MaxRetries           int     `json:"max_retries" yaml:"max_retries"`
	RetryDelaySeconds    float64 `json:"retry_delay_seconds" yaml:"retry_delay_seconds"`
	MaxConcurrentTracks  int     `json:"max_concurrent_tracks" yaml:"max_concurrent_tracks"`
	MaxConcurrentFetches int     `json:"max_concurrent_fetches" yaml:"max_concurrent_fetches"`
	BatchTimeoutSeconds  float64 `json:"batch_timeout_seconds" yaml:"batch_timeout_seconds"`
	FailFastPermanent    bool    `json:"fail_fast_permanent" yaml:"fail_fast_permanent"`

	// External fetch tool
	FetchCommand string   `json:"fetch_command" yaml:"fetch_command"`
	FetchArgs    []string `json:"fetch_args" yaml:"fetch_args"`
	AudioFormat  string   `json:"audio_format" yaml:"audio_format"`

	// Archive settings
	ArchiveCompression      string `json:"archive_compression" yaml:"archive_compression"` // deflate, store
	ArchiveCompressionLevel int    `json:"archive_compression_level" yaml:"archive_compression_level"`

	// Playlist settings
	CreatePlaylist bool   `json:"create_playlist" yaml:"create_playlist"`
	PlaylistFormat string `json:"playlist_format" yaml:"playlist_format"` // m3u, pls, wpl, zpl
	M3UExtended    bool   `json:"m3u_extended" yaml:"m3u_extended"`

	// Tag settings
	ModifyTags           bool `json:"modify_tags" yaml:"modify_tags"`
	SaveCoverArtInTags   bool `json:"save_cover_art_in_tags" yaml:"save_cover_art_in_tags"`
	CoverArtInTagsResize bool `json:"cover_art_in_tags_resize" yaml:"cover_art_in_tags_resize"`
	CoverArtMaxSize      int  `json:"cover_art_max_size" yaml:"cover_art_max_size"`

	// Upstream services
	UserAgent        string `json:"user_agent" yaml:"user_agent"`
	MusicBrainzURL   string `json:"musicbrainz_url" yaml:"musicbrainz_url"`
	YouTubeSearchURL string `json:"youtube_search_url" yaml:"youtube_search_url"`

	// Logging
	LogLevel  string `json:"log_level" yaml:"log_level"`   // debug, info, warn, error
	LogFormat string `json:"log_format" yaml:"log_format"` // json, text
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		ListenAddr:     ":3001",
		AllowedOrigins: []string{"*"},

		WorkspaceRoot:        filepath.Join(os.TempDir(), "tunefetch"),
		MaxRetries:           3,
		RetryDelaySeconds:    5,
		MaxConcurrentTracks:  10,
		MaxConcurrentFetches: 4,
		BatchTimeoutSeconds:  0,
		FailFastPermanent:    false,

		FetchCommand: "yt-dlp",
		AudioFormat:  "mp3",

		ArchiveCompression:      "deflate",
		ArchiveCompressionLevel: 5,

		CreatePlaylist: false,
		PlaylistFormat: "m3u",
		M3UExtended:    true,

		ModifyTags:           true,
		SaveCoverArtInTags:   true,
		CoverArtInTagsResize: true,
		CoverArtMaxSize:      1000,

		UserAgent:        "TuneFetcherAI/1.0",
		MusicBrainzURL:   "https://musicbrainz.org/ws/2",
		YouTubeSearchURL: "https://www.youtube.com/results",

		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load reads settings from a JSON or YAML file. A missing file yields the
// defaults; fields absent from the file keep their default values.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ApplyEnv overrides settings from TUNEFETCH_* environment variables.
func (s *Settings) ApplyEnv() error {
	if v := os.Getenv("TUNEFETCH_LISTEN_ADDR"); v != "" {
		s.ListenAddr = v
	}
	if v := os.Getenv("TUNEFETCH_WORKSPACE_ROOT"); v != "" {
		s.WorkspaceRoot = v
	}
	if v := os.Getenv("TUNEFETCH_FETCH_COMMAND"); v != "" {
		s.FetchCommand = v
	}
	if v := os.Getenv("TUNEFETCH_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv("TUNEFETCH_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TUNEFETCH_MAX_RETRIES: %w", err)
		}
		s.MaxRetries = n
	}
	if v := os.Getenv("TUNEFETCH_RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TUNEFETCH_RETRY_DELAY: %w", err)
		}
		s.RetryDelaySeconds = d.Seconds()
	}
	if v := os.Getenv("TUNEFETCH_MAX_CONCURRENT_FETCHES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TUNEFETCH_MAX_CONCURRENT_FETCHES: %w", err)
		}
		s.MaxConcurrentFetches = n
	}
	return nil
}

// Validate checks option ranges.
func (s *Settings) Validate() error {
	if s.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", s.MaxRetries)
	}
	if s.RetryDelaySeconds < 0 {
		return fmt.Errorf("retry_delay_seconds must not be negative")
	}
	if s.MaxConcurrentTracks < 1 {
		return fmt.Errorf("max_concurrent_tracks must be at least 1, got %d", s.MaxConcurrentTracks)
	}
	if s.MaxConcurrentFetches < 1 {
		return fmt.Errorf("max_concurrent_fetches must be at least 1, got %d", s.MaxConcurrentFetches)
	}
	if s.WorkspaceRoot == "" {
		return fmt.Errorf("workspace_root is required")
	}
	switch s.ArchiveCompression {
	case "deflate", "store":
	default:
		return fmt.Errorf("unknown archive_compression %q", s.ArchiveCompression)
	}
	if s.ArchiveCompressionLevel < -2 || s.ArchiveCompressionLevel > 9 {
		return fmt.Errorf("archive_compression_level out of range: %d", s.ArchiveCompressionLevel)
	}
	return nil
}

// RetryDelay returns the fixed pause between fetch attempts.
func (s *Settings) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelaySeconds * float64(time.Second))
}

// BatchTimeout returns the overall batch deadline, zero when unbounded.
func (s *Settings) BatchTimeout() time.Duration {
	return time.Duration(s.BatchTimeoutSeconds * float64(time.Second))
}
