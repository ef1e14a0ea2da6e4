package main

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for the rxncore shell.
type Config struct {
	Storage StorageConfig `koanf:"storage"`
	Blob    BlobConfig    `koanf:"blob"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	History string        `koanf:"history"`
}

// StorageConfig selects the document persistence backend.
type StorageConfig struct {
	Driver string `koanf:"driver"` // memory|sqlite|postgres
	Path   string `koanf:"path"`   // sqlite database file
	DSN    string `koanf:"dsn"`    // postgres connection string
}

// BlobConfig selects the export artifact store.
type BlobConfig struct {
	Driver   string `koanf:"driver"` // fs|s3|memory
	Root     string `koanf:"root"`   // fs root directory
	Bucket   string `koanf:"bucket"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
	Access   string `koanf:"access"`
	Secret   string `koanf:"secret"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr"` // empty disables the metrics listener
}

type LogConfig struct {
	Level string `koanf:"level"` // debug|info|warn|error
}

// LoadConfig layers configuration from defaults, an optional rxncore.toml,
// RXNCORE_ environment variables, and command-line flags, in ascending
// priority.
func LoadConfig(flags *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"storage.driver": "sqlite",
		"storage.path":   "rxncore.db",
		"storage.dsn":    "",
		"blob.driver":    "fs",
		"blob.root":      "./blobdata",
		"blob.bucket":    "",
		"blob.region":    "",
		"blob.endpoint":  "",
		"blob.access":    "",
		"blob.secret":    "",
		"metrics.addr":   "",
		"log.level":      "info",
		"history":        ".rxncore_history",
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Config file is optional.
	if path == "" {
		path = "rxncore.toml"
	}
	_ = k.Load(file.Provider(path), toml.Parser())

	// RXNCORE_STORAGE_DRIVER=postgres maps onto storage.driver.
	if err := k.Load(env.Provider("RXNCORE_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "RXNCORE_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(p.m))
	for key, value := range p.m {
		parts := strings.Split(key, ".")
		node := out
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]interface{})
			if !ok {
				child = map[string]interface{}{}
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return out, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
