// Package config handles configuration and API key management for nimbus.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", "dracula", "notty", "ascii" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	DefaultModel string `json:"default_model"`
	// Timeout is the per-request timeout in seconds enforced by the API
	// client. Zero disables it.
	Timeout int `json:"timeout"`
	// SystemPrompt is sent as the system instruction with every request.
	SystemPrompt string `json:"system_prompt,omitempty"`
	// Temperature overrides the model's sampling temperature when set.
	Temperature *float32 `json:"temperature,omitempty"`
	// Verbose lowers the log level to debug.
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	ServerAddr      string         `json:"server_addr"`
	LogFile         string         `json:"log_file,omitempty"`   // Defaults to ~/.nimbus/nimbus.log
	LogFormat       string         `json:"log_format,omitempty"` // "json" (default) or "console"
	TUITheme        string         `json:"tui_theme"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		DefaultModel:    "gemini-2.5-flash",
		Timeout:         120,
		Verbose:         false,
		CopyToClipboard: false,
		ServerAddr:      "127.0.0.1:8100",
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path.
// NIMBUS_HOME overrides the default of ~/.nimbus.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("NIMBUS_HOME"); dir != "" {
		return filepath.Abs(dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".nimbus"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory may hold a .env with the API key
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the log file path from config, defaulting to the config dir
func GetLogPath(cfg Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "nimbus.log"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Keys returns the settable configuration keys
func Keys() []string {
	return []string{
		"default_model",
		"timeout",
		"system_prompt",
		"temperature",
		"verbose",
		"copy_to_clipboard",
		"server_addr",
		"log_file",
		"log_format",
		"tui_theme",
		"markdown.style",
		"markdown.enable_emoji",
		"markdown.preserve_newlines",
		"markdown.table_wrap",
		"markdown.inline_table_links",
	}
}

// Set updates a single key on cfg from its string form
func (cfg *Config) Set(key, value string) error {
	switch key {
	case "default_model":
		cfg.DefaultModel = value
	case "timeout":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("timeout must be a non-negative number of seconds: %q", value)
		}
		cfg.Timeout = n
	case "system_prompt":
		cfg.SystemPrompt = value
	case "temperature":
		if value == "" || value == "default" {
			cfg.Temperature = nil
			return nil
		}
		f, err := strconv.ParseFloat(value, 32)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("temperature must be between 0 and 2, or \"default\": %q", value)
		}
		t := float32(f)
		cfg.Temperature = &t
	case "server_addr":
		cfg.ServerAddr = value
	case "log_file":
		cfg.LogFile = value
	case "log_format":
		if value != "json" && value != "console" {
			return fmt.Errorf("log_format must be json or console: %q", value)
		}
		cfg.LogFormat = value
	case "tui_theme":
		cfg.TUITheme = value
	case "markdown.style":
		cfg.Markdown.Style = value
	case "verbose", "copy_to_clipboard", "markdown.enable_emoji", "markdown.preserve_newlines",
		"markdown.table_wrap", "markdown.inline_table_links":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %q", key, value)
		}
		*cfg.boolField(key) = b
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

func (cfg *Config) boolField(key string) *bool {
	switch key {
	case "verbose":
		return &cfg.Verbose
	case "copy_to_clipboard":
		return &cfg.CopyToClipboard
	case "markdown.enable_emoji":
		return &cfg.Markdown.EnableEmoji
	case "markdown.preserve_newlines":
		return &cfg.Markdown.PreserveNewLines
	case "markdown.table_wrap":
		return &cfg.Markdown.TableWrap
	default:
		return &cfg.Markdown.InlineTableLinks
	}
}

// AvailableModels returns well-known model names for completion and help text.
// Any model name accepted by the API may be configured.
func AvailableModels() []string {
	return []string{
		"gemini-2.5-flash",
		"gemini-2.5-pro",
		"gemini-2.0-flash",
	}
}
