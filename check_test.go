package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeTool writes an executable shell script and returns its absolute path.
func fakeTool(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatalf("failed to write fake tool: %v", err)
	}
	return path
}

func preflightConfig(t *testing.T) (*Config, string) {
	t.Helper()
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dcm2niix = fakeTool(t, root, "dcm2niix")
	cfg.InputRoot = filepath.Join(root, "in") + "/"
	cfg.OutputRoot = filepath.Join(root, "out", "nested")
	if err := os.MkdirAll(filepath.Join(root, "in"), 0755); err != nil {
		t.Fatal(err)
	}
	return &cfg, root
}

func TestPreflightConvert(t *testing.T) {
	cfg, root := preflightConfig(t)

	if err := preflight(stageConvert, cfg); err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	if cfg.InputRoot != filepath.Join(root, "in") || cfg.OutputRoot != filepath.Join(root, "out", "nested") {
		t.Errorf("roots not normalized: %s, %s", cfg.InputRoot, cfg.OutputRoot)
	}
	if info, err := os.Stat(cfg.OutputRoot); err != nil || !info.IsDir() {
		t.Errorf("output root not created: %v", err)
	}
}

func TestPreflightFailures(t *testing.T) {
	tests := []struct {
		name   string
		stage  string
		mutate func(cfg *Config, root string)
		want   error
	}{
		{"missing converter", stageConvert, func(c *Config, root string) {
			c.Dcm2niix = filepath.Join(root, "no-such-dcm2niix")
		}, ErrToolNotFound},
		{"missing dcmdump", stageConvert, func(c *Config, root string) {
			c.TagReader = TagReaderDcmdump
			c.Dcmdump = filepath.Join(root, "no-such-dcmdump")
		}, ErrToolNotFound},
		{"input is a file", stageConvert, func(c *Config, root string) {
			c.InputRoot = c.Dcm2niix
		}, ErrInputNotDir},
		{"input missing", stageConvert, func(c *Config, root string) {
			c.InputRoot = filepath.Join(root, "nowhere")
		}, ErrInputNotDir},
		{"output inside input", stageConvert, func(c *Config, root string) {
			c.OutputRoot = filepath.Join(root, "in", "out")
		}, ErrOutputInsideInput},
		{"missing deface script", stageDeface, func(c *Config, root string) {
			c.Python = c.Dcm2niix
			c.DefaceScript = filepath.Join(root, "CTA-DEFACE_task.py")
		}, ErrScriptNotFound},
		{"missing slicer", stageVessels, func(c *Config, root string) {
			c.Slicer = filepath.Join(root, "Slicer")
		}, ErrToolNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, root := preflightConfig(t)
			tt.mutate(cfg, root)
			if err := preflight(tt.stage, cfg); !errors.Is(err, tt.want) {
				t.Errorf("preflight = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPreflightDefaceAndVessels(t *testing.T) {
	cfg, root := preflightConfig(t)
	cfg.Python = fakeTool(t, root, "python3")
	cfg.Slicer = fakeTool(t, root, "Slicer")
	cfg.DefaceScript = filepath.Join(root, "CTA-DEFACE_task.py")
	cfg.VesselScript = filepath.Join(root, "vesselTree_vmtk_headless.py")
	writeFile(t, cfg.DefaceScript, "print('deface')\n")
	writeFile(t, cfg.VesselScript, "print('vessels')\n")

	if err := preflight(stageDeface, cfg); err != nil {
		t.Errorf("deface preflight failed: %v", err)
	}
	if err := preflight(stageVessels, cfg); err != nil {
		t.Errorf("vessels preflight failed: %v", err)
	}
}

func TestCheckTools(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dcm2niix = fakeTool(t, root, "dcm2niix")
	cfg.Dcmdump = filepath.Join(root, "missing-dcmdump")
	cfg.Python = fakeTool(t, root, "python3")
	cfg.Slicer = fakeTool(t, root, "Slicer")
	cfg.DefaceScript = filepath.Join(root, "deface.py")
	cfg.VesselScript = filepath.Join(root, "vessels.py")
	writeFile(t, cfg.DefaceScript, "")
	writeFile(t, cfg.VesselScript, "")

	runner := &scriptedRunner{result: Result{Stdout: "tool v1.2.3\nmore text\n"}}
	statuses := checkTools(context.Background(), &cfg, runner)
	if len(statuses) != 6 {
		t.Fatalf("expected 6 statuses, got %d", len(statuses))
	}
	// the missing tool is not run
	if len(runner.calls) != 3 {
		t.Errorf("expected 3 version queries, got %d", len(runner.calls))
	}
	if statuses[1].Version != "tool v1.2.3" {
		t.Errorf("version = %q", statuses[1].Version)
	}

	var buf bytes.Buffer
	if printToolReport(&buf, statuses) {
		t.Error("report should fail with a missing tool")
	}
	if !strings.Contains(buf.String(), "MISSING") || !strings.Contains(buf.String(), "missing-dcmdump") {
		t.Errorf("report does not list the missing tool:\n%s", buf.String())
	}

	cfg.Dcmdump = fakeTool(t, root, "dcmdump")
	buf.Reset()
	if !printToolReport(&buf, checkTools(context.Background(), &cfg, runner)) {
		t.Errorf("report should pass:\n%s", buf.String())
	}
}

func TestPreflightLaterStagesShareRoot(t *testing.T) {
	cfg, root := preflightConfig(t)
	cfg.Python = fakeTool(t, root, "python3")
	cfg.Slicer = fakeTool(t, root, "Slicer")
	cfg.DefaceScript = filepath.Join(root, "CTA-DEFACE_task.py")
	cfg.VesselScript = filepath.Join(root, "vesselTree_vmtk_headless.py")
	writeFile(t, cfg.DefaceScript, "")
	writeFile(t, cfg.VesselScript, "")

	nifti := filepath.Join(root, "nifti")
	if err := os.MkdirAll(nifti, 0755); err != nil {
		t.Fatal(err)
	}

	for _, stage := range []string{stageDeface, stageVessels} {
		cfg.InputRoot, cfg.OutputRoot = nifti, nifti
		if err := preflight(stage, cfg); err != nil {
			t.Errorf("%s with input == output: %v", stage, err)
		}
	}

	cfg.InputRoot, cfg.OutputRoot = nifti, nifti
	if err := preflight(stageConvert, cfg); !errors.Is(err, ErrOutputInsideInput) {
		t.Errorf("convert with input == output = %v, want %v", err, ErrOutputInsideInput)
	}
}
