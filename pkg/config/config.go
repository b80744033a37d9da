package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the merged configuration surface of §6, shared by the
// server and the agent. Fields are merged in order CLI > file >
// defaults: Defaults fills in the baseline, LoadFile overlays whatever
// a config file sets, and the CLI layer (cmd/k3rs) overlays on top of
// that the value of every flag the user explicitly set.
type Config struct {
	DataDir        string        `yaml:"data_dir"`
	Token          string        `yaml:"token"`
	ListenPort     int           `yaml:"listen_port"`
	NodeName       string        `yaml:"node_name"`
	ObjectStoreURL string        `yaml:"object_store_url"`
	LeaseTTL       time.Duration `yaml:"lease_ttl"`
	RenewInterval  time.Duration `yaml:"renew_interval"`
	EvictionGrace  time.Duration `yaml:"eviction_grace"`
	LogLevel       string        `yaml:"log_level"`
	LogJSON        bool          `yaml:"log_json"`
}

// Defaults returns the baseline configuration, before any file or CLI
// overrides are applied.
func Defaults() Config {
	return Config{
		DataDir:        "/var/lib/k3rs",
		ListenPort:     6443,
		ObjectStoreURL: "local",
		LeaseTTL:       15 * time.Second,
		RenewInterval:  5 * time.Second,
		EvictionGrace:  5 * time.Minute,
		LogLevel:       "info",
		LogJSON:        true,
	}
}

// LoadFile reads path as YAML and overlays its fields onto base,
// returning a new Config. A missing file is not an error: base is
// returned unchanged, since a config file is optional at every layer.
// Only fields actually present in the file override base's value.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return Config{}, err
	}

	var overlay rawConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Config{}, err
	}
	return overlay.applyTo(base), nil
}

// rawConfig mirrors Config with pointer fields so LoadFile can tell an
// explicitly-set zero value ("listen_port: 0") apart from an absent key.
type rawConfig struct {
	DataDir        *string `yaml:"data_dir"`
	Token          *string `yaml:"token"`
	ListenPort     *int    `yaml:"listen_port"`
	NodeName       *string `yaml:"node_name"`
	ObjectStoreURL *string `yaml:"object_store_url"`
	LeaseTTL       *string `yaml:"lease_ttl"`
	RenewInterval  *string `yaml:"renew_interval"`
	EvictionGrace  *string `yaml:"eviction_grace"`
	LogLevel       *string `yaml:"log_level"`
	LogJSON        *bool   `yaml:"log_json"`
}

func (r rawConfig) applyTo(base Config) Config {
	if r.DataDir != nil {
		base.DataDir = *r.DataDir
	}
	if r.Token != nil {
		base.Token = *r.Token
	}
	if r.ListenPort != nil {
		base.ListenPort = *r.ListenPort
	}
	if r.NodeName != nil {
		base.NodeName = *r.NodeName
	}
	if r.ObjectStoreURL != nil {
		base.ObjectStoreURL = *r.ObjectStoreURL
	}
	if r.LeaseTTL != nil {
		if d, err := time.ParseDuration(*r.LeaseTTL); err == nil {
			base.LeaseTTL = d
		}
	}
	if r.RenewInterval != nil {
		if d, err := time.ParseDuration(*r.RenewInterval); err == nil {
			base.RenewInterval = d
		}
	}
	if r.EvictionGrace != nil {
		if d, err := time.ParseDuration(*r.EvictionGrace); err == nil {
			base.EvictionGrace = d
		}
	}
	if r.LogLevel != nil {
		base.LogLevel = *r.LogLevel
	}
	if r.LogJSON != nil {
		base.LogJSON = *r.LogJSON
	}
	return base
}
