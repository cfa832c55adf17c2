package main

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := ReadConfig("")
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("config = %+v, want defaults", *cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestReadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seegprep.yaml")
	writeFile(t, path, `
tag_reader: dcmdump
dcmdump: /opt/dcmtk/bin/dcmdump
dcm2niix: /usr/local/bin/dcm2niix
recursive_scan: true
sigma_max: 4.5
`)

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if cfg.TagReader != TagReaderDcmdump || cfg.Dcmdump != "/opt/dcmtk/bin/dcmdump" || cfg.Dcm2niix != "/usr/local/bin/dcm2niix" {
		t.Errorf("tools not overridden: %+v", cfg)
	}
	if !cfg.RecursiveScan || cfg.SigmaMax != 4.5 {
		t.Errorf("switches not overridden: %+v", cfg)
	}
	// untouched keys keep their defaults
	if cfg.Python != "python3" || cfg.DefaceMarker != "_0000" || cfg.SigmaMin != 0.5 || cfg.IndexFile != "DICOMDIR" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestReadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	unknown := filepath.Join(dir, "unknown.yaml")
	writeFile(t, unknown, "dcm2nii: dcm2nii\n")
	if _, err := ReadConfig(unknown); err == nil {
		t.Error("expected an error for an unknown key")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad tag reader", func(c *Config) { c.TagReader = "gdcm" }},
		{"empty marker", func(c *Config) { c.DefaceMarker = "" }},
		{"zero sigma", func(c *Config) { c.SigmaMin = 0 }},
		{"inverted sigmas", func(c *Config) { c.SigmaMin, c.SigmaMax = 3, 1 }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", tt.name)
		}
	}
}

func TestValidatePaths(t *testing.T) {
	tests := []struct {
		in, out string
		bad     bool
	}{
		{"/data/in", "/data/out", false},
		{"/data/in", "/data/input", false},
		{"/data/in", "/data/in", true},
		{"/data/in", "/data/in/out", true},
		{"/data/in/P001", "/data/in", false},
	}
	for _, tt := range tests {
		err := validatePaths(tt.in, tt.out)
		if tt.bad != errors.Is(err, ErrOutputInsideInput) {
			t.Errorf("validatePaths(%s, %s) = %v", tt.in, tt.out, err)
		}
	}
}

func TestNormalizeDirArg(t *testing.T) {
	tests := map[string]string{
		"/":          "/",
		"/data/in/":  "/data/in",
		"/data/in//": "/data/in",
		"rel":        "rel",
	}
	for in, want := range tests {
		if got := normalizeDirArg(in); got != want {
			t.Errorf("normalizeDirArg(%q) = %q, want %q", in, got, want)
		}
	}
}
