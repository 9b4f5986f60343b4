// Package config holds the immutable service configuration, constructed once
// at startup and passed explicitly into each component.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbxkit/playerstore/pkg/opencloud"
)

// Runtime modes. Auto picks http when Open Cloud credentials are configured
// and falls back to an in-process mock universe otherwise.
const (
	ModeAuto = "auto"
	ModeHTTP = "http"
	ModeMock = "mock"
)

// Defaults.
const (
	DefaultListen           = ":8080"
	DefaultOpenCloudBaseURL = "https://apis.roblox.com"
	DefaultUsersBaseURL     = "https://users.roblox.com"
)

// Config is the full startup configuration. Missing required fields are
// process-fatal at validation time; nothing here changes after startup.
type Config struct {
	Listen        string
	MetricsListen string

	Mode string

	UniverseID     int64
	DataStore      string
	Scope          string
	EntryKeyPrefix string
	MutableRoot    string

	APIKey     string
	AdminToken string

	OpenCloudBaseURL string
	UsersBaseURL     string

	// SeedFile populates the mock universe in mock mode.
	SeedFile string
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Listen) == "" {
		c.Listen = DefaultListen
	}
	if strings.TrimSpace(c.Mode) == "" {
		c.Mode = ModeAuto
	}
	if strings.TrimSpace(c.OpenCloudBaseURL) == "" {
		c.OpenCloudBaseURL = DefaultOpenCloudBaseURL
	}
	if strings.TrimSpace(c.UsersBaseURL) == "" {
		c.UsersBaseURL = DefaultUsersBaseURL
	}
	if strings.TrimSpace(c.Scope) == "" {
		c.Scope = opencloud.DefaultScope
	}
	if strings.TrimSpace(c.EntryKeyPrefix) == "" {
		c.EntryKeyPrefix = opencloud.DefaultKeyPrefix
	}
}

// ResolveMode returns the effective runtime mode ("http" or "mock").
func (c *Config) ResolveMode() (string, error) {
	switch strings.ToLower(strings.TrimSpace(c.Mode)) {
	case "", ModeAuto:
		if strings.TrimSpace(c.APIKey) != "" && c.UniverseID > 0 {
			return ModeHTTP, nil
		}
		return ModeMock, nil
	case ModeHTTP:
		return ModeHTTP, nil
	case ModeMock:
		return ModeMock, nil
	default:
		return "", fmt.Errorf("config: unsupported mode %q", c.Mode)
	}
}

// Validate checks the configuration for the resolved mode.
func (c *Config) Validate() error {
	mode, err := c.ResolveMode()
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.DataStore) == "" {
		return errors.New("config: data store name is required")
	}
	if mode == ModeHTTP {
		if strings.TrimSpace(c.APIKey) == "" {
			return errors.New("config: http mode requires an Open Cloud API key")
		}
		if err := c.Locator().Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Locator builds the entry locator for the configured namespace.
func (c *Config) Locator() opencloud.Locator {
	return opencloud.Locator{
		UniverseID: c.UniverseID,
		DataStore:  c.DataStore,
		Scope:      c.Scope,
		KeyPrefix:  c.EntryKeyPrefix,
	}
}
