package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrToolNotFound      = errors.New("required tool not found")
	ErrScriptNotFound    = errors.New("script not found")
	ErrInputNotDir       = errors.New("input root is not a directory")
	ErrOutputInsideInput = errors.New("output root must not be inside the input root")
)

// checkTool resolves name on PATH (or as a path when it contains a separator).
func checkTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return path, nil
}

func checkScript(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrScriptNotFound, path)
	}
	return nil
}

// requiredTools lists the executables a stage cannot run without.
func requiredTools(stage string, cfg *Config) []string {
	switch stage {
	case stageConvert:
		tools := []string{cfg.Dcm2niix}
		if cfg.TagReader == TagReaderDcmdump {
			tools = append(tools, cfg.Dcmdump)
		}
		return tools
	case stageDeface:
		return []string{cfg.Python}
	case stageVessels:
		return []string{cfg.Slicer}
	}
	return nil
}

func requiredScripts(stage string, cfg *Config) []string {
	switch stage {
	case stageDeface:
		return []string{cfg.DefaceScript}
	case stageVessels:
		return []string{cfg.VesselScript}
	}
	return nil
}

// preflight verifies tools, scripts and roots before any patient is
// touched. On success the roots in cfg are absolute and the output root exists.
func preflight(stage string, cfg *Config) error {
	for _, tool := range requiredTools(stage, cfg) {
		path, err := checkTool(tool)
		if err != nil {
			return err
		}
		logger.Debugf("Using %s at %s", tool, path)
	}
	for _, script := range requiredScripts(stage, cfg) {
		if err := checkScript(script); err != nil {
			return err
		}
	}

	inputAbs, err := filepath.Abs(normalizeDirArg(cfg.InputRoot))
	if err != nil {
		return fmt.Errorf("invalid input root %s: %w", cfg.InputRoot, err)
	}
	info, err := os.Stat(inputAbs)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInputNotDir, cfg.InputRoot)
	}

	outputAbs, err := filepath.Abs(normalizeDirArg(cfg.OutputRoot))
	if err != nil {
		return fmt.Errorf("invalid output root %s: %w", cfg.OutputRoot, err)
	}
	// only convert walks whole patient trees; the later stages write next to
	// the category folders they read
	if stage == stageConvert {
		if err := validatePaths(inputAbs, outputAbs); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(outputAbs, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cfg.InputRoot = inputAbs
	cfg.OutputRoot = outputAbs
	return nil
}

// ToolStatus is one line of the check stage report.
type ToolStatus struct {
	Role    string
	Name    string
	Path    string
	Version string
	Err     error
}

// checkTools queries every configured tool and script without processing data.
func checkTools(ctx context.Context, cfg *Config, runner Runner) []ToolStatus {
	tools := []struct {
		role, name, flag string
	}{
		{"tag reader", cfg.Dcmdump, "--version"},
		{"converter", cfg.Dcm2niix, "--version"},
		{"defacing interpreter", cfg.Python, "--version"},
		{"vesselness host", cfg.Slicer, "--version"},
	}

	var out []ToolStatus
	for _, p := range tools {
		st := ToolStatus{Role: p.role, Name: p.name}
		st.Path, st.Err = checkTool(p.name)
		if st.Err == nil {
			pctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			res := runner.Run(pctx, Command{Name: st.Path, Args: []string{p.flag}})
			cancel()
			st.Version = firstLine(res.Stdout)
			if st.Version == "" {
				st.Version = firstLine(res.Stderr)
			}
		}
		out = append(out, st)
	}

	for _, s := range []struct{ role, path string }{
		{"defacing script", cfg.DefaceScript},
		{"vesselness script", cfg.VesselScript},
	} {
		st := ToolStatus{Role: s.role, Name: s.path, Err: checkScript(s.path)}
		if st.Err == nil {
			st.Path, _ = filepath.Abs(s.path)
		}
		out = append(out, st)
	}
	return out
}

// printToolReport writes the check table and reports whether everything was found.
func printToolReport(w io.Writer, statuses []ToolStatus) bool {
	ok := true
	fmt.Fprintln(w, "\n=== Tool Check ===")
	for _, st := range statuses {
		if st.Err != nil {
			ok = false
			fmt.Fprintf(w, "%-22s MISSING  %s\n", st.Role, st.Name)
			continue
		}
		line := fmt.Sprintf("%-22s OK       %s", st.Role, st.Path)
		if st.Version != "" {
			line += " (" + st.Version + ")"
		}
		fmt.Fprintln(w, line)
	}
	return ok
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
