package main

import (
	"context"
)

// dcm2niixCommand builds the conversion call for one series: no BIDS
// side-car, gzip output, explicit basename and output directory. The search
// depth follows the representative scan: the series directory only, or its
// whole subtree when scanning recursively.
func dcm2niixCommand(cfg *Config, base, outDir, seriesDir string) Command {
	depth := "0"
	if cfg.RecursiveScan {
		depth = "9"
	}
	return Command{
		Name: cfg.Dcm2niix,
		Args: []string{"-b", "n", "-z", "y", "-d", depth, "-f", base, "-o", outDir, seriesDir},
	}
}

// runConvert classifies and converts every patient under the input root.
func runConvert(ctx context.Context, cfg *Config, opts *Options, stats *RunStats) error {
	runner := execRunner{tee: opts.Debug}
	reader := newTagReader(cfg, execRunner{})
	router := NewRouter(cfg, reader, runner, stageJournal(), stats)

	logger.Infof("Converting DICOM series from %s into %s (tag reader: %s)", cfg.InputRoot, cfg.OutputRoot, cfg.TagReader)
	return processPatients(ctx, cfg.InputRoot, "Converting", opts, router.RoutePatient)
}
