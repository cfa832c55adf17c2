package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Tag reader backends
const (
	TagReaderNative  = "native"
	TagReaderDcmdump = "dcmdump"
)

// Config holds the tool locations and pipeline switches. It is filled from
// DefaultConfig, then from the optional YAML file, then from the positional
// arguments of the selected stage.
type Config struct {
	InputRoot  string `yaml:"-"`
	OutputRoot string `yaml:"-"`

	TagReader string `yaml:"tag_reader"`
	Dcmdump   string `yaml:"dcmdump"`
	Dcm2niix  string `yaml:"dcm2niix"`

	Python       string `yaml:"python"`
	DefaceScript string `yaml:"deface_script"`
	DefaceMarker string `yaml:"deface_marker"`

	Slicer       string  `yaml:"slicer"`
	VesselScript string  `yaml:"vessel_script"`
	SigmaMin     float64 `yaml:"sigma_min"`
	SigmaMax     float64 `yaml:"sigma_max"`

	IndexFile     string `yaml:"index_file"`
	RecursiveScan bool   `yaml:"recursive_scan"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		TagReader:    TagReaderNative,
		Dcmdump:      "dcmdump",
		Dcm2niix:     "dcm2niix",
		Python:       "python3",
		DefaceScript: "CTA-DEFACE_task.py",
		DefaceMarker: "_0000",
		Slicer:       "Slicer",
		VesselScript: "vesselTree_vmtk_headless.py",
		SigmaMin:     0.5,
		SigmaMax:     3.0,
		IndexFile:    "DICOMDIR",
	}
}

// ReadConfig overlays the YAML file at filePath on top of DefaultConfig.
func ReadConfig(filePath string) (*Config, error) {
	cfg := DefaultConfig()
	if filePath == "" {
		return &cfg, nil
	}

	file, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("could not read config %s: %w", filePath, err)
	}
	if err := yaml.UnmarshalStrict(file, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", filePath, err)
	}
	return &cfg, nil
}

// Validate checks the enum and numeric fields.
func (c *Config) Validate() error {
	switch c.TagReader {
	case TagReaderNative, TagReaderDcmdump:
	default:
		return fmt.Errorf("invalid tag_reader %q (use %q or %q)", c.TagReader, TagReaderNative, TagReaderDcmdump)
	}
	if c.DefaceMarker == "" {
		return errors.New("deface_marker must not be empty")
	}
	if c.SigmaMin <= 0 || c.SigmaMax < c.SigmaMin {
		return fmt.Errorf("invalid sigma range %g-%g", c.SigmaMin, c.SigmaMax)
	}
	return nil
}

// normalizeDirArg strips trailing separators, leaving "/" alone.
func normalizeDirArg(path string) string {
	if path == "/" {
		return path
	}
	return strings.TrimRight(path, "/")
}

// validatePaths rejects an output root equal to or inside the input root,
// otherwise the walk over patients would pick up its own output.
func validatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return ErrOutputInsideInput
	}
	return nil
}
