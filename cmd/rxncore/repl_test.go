package main

import (
	"reflect"
	"testing"

	"github.com/spf13/pflag"
)

func TestParseArgsHonorsQuotes(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{`node add 0 ATP 1 2 3 4`, []string{"node", "add", "0", "ATP", "1", "2", "3", "4"}},
		{`network new "citric acid cycle"`, []string{"network", "new", "citric acid cycle"}},
		{`  spaced   out  `, []string{"spaced", "out"}},
		{``, nil},
	}
	for _, tc := range cases {
		if got := parseArgs(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("parseArgs(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRectArgs(t *testing.T) {
	x, y, w, h, err := rectArgs([]string{"1", "2.5", "30", "40"})
	if err != nil || x != 1 || y != 2.5 || w != 30 || h != 40 {
		t.Fatalf("rectArgs = %v %v %v %v, %v", x, y, w, h, err)
	}
	if _, _, _, _, err := rectArgs([]string{"1", "2"}); err == nil {
		t.Fatalf("short rect accepted")
	}
	if _, _, _, _, err := rectArgs([]string{"1", "2", "x", "4"}); err == nil {
		t.Fatalf("non-numeric rect accepted")
	}
}

func TestLoadConfigDefaultsAndFlags(t *testing.T) {
	cfg, err := LoadConfig(nil, "does-not-exist.toml")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.Path != "rxncore.db" {
		t.Fatalf("storage defaults = %+v", cfg.Storage)
	}
	if cfg.Blob.Driver != "fs" || cfg.Blob.Root != "./blobdata" {
		t.Fatalf("blob defaults = %+v", cfg.Blob)
	}
	if cfg.Log.Level != "info" || cfg.Metrics.Addr != "" {
		t.Fatalf("ambient defaults = %+v %+v", cfg.Log, cfg.Metrics)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("storage.driver", "sqlite", "")
	flags.String("metrics.addr", "", "")
	if err := flags.Parse([]string{"--storage.driver=postgres", "--metrics.addr=:9100"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err = LoadConfig(flags, "does-not-exist.toml")
	if err != nil {
		t.Fatalf("load with flags: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Fatalf("flag override lost: %+v", cfg.Storage)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("metrics flag lost: %+v", cfg.Metrics)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("RXNCORE_STORAGE_DRIVER", "memory")
	t.Setenv("RXNCORE_BLOB_ROOT", "/tmp/artifacts")
	cfg, err := LoadConfig(nil, "does-not-exist.toml")
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("env override lost: %+v", cfg.Storage)
	}
	if cfg.Blob.Root != "/tmp/artifacts" {
		t.Fatalf("env override lost: %+v", cfg.Blob)
	}
}
