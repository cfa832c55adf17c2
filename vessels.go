package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
)

// VesselExtractor runs the headless vesselness script on every CTA volume.
type VesselExtractor struct {
	cfg     *Config
	runner  Runner
	journal zerolog.Logger
	stats   *RunStats
}

func NewVesselExtractor(cfg *Config, runner Runner, journal zerolog.Logger, stats *RunStats) *VesselExtractor {
	if stats == nil {
		stats = newRunStats()
	}
	return &VesselExtractor{cfg: cfg, runner: runner, journal: journal, stats: stats}
}

func (v *VesselExtractor) ProcessPatient(ctx context.Context, patientDir string) {
	patient := filepath.Base(patientDir)
	v.stats.Patients++

	vols, err := listNifti(filepath.Join(patientDir, string(CategoryCTA)))
	if err != nil {
		logger.Warnf("Patient %s: %v", patient, err)
	}
	if len(vols) == 0 {
		v.stats.Skipped++
		logger.Infof("Patient %s: no CTA volumes", patient)
		return
	}

	for _, vol := range vols {
		if ctx.Err() != nil {
			return
		}
		outDir := filepath.Join(v.cfg.OutputRoot, patient, "Vessels", niftiStem(vol))
		if err := os.MkdirAll(outDir, 0755); err != nil {
			logger.Errorf("Cannot create %s: %v", outDir, err)
			v.stats.Failed++
			continue
		}

		res := v.runner.Run(ctx, vesselCommand(v.cfg, vol, outDir))
		if res.Failed() {
			logFailure("vesselness failed for "+vol, res)
			v.stats.Failed++
			v.journal.Error().
				Str("event", "failed").
				Str("patient", patient).
				Str("volume", filepath.Base(vol)).
				Int("exit_code", res.ExitCode).
				Msg("vesselness failed")
			continue
		}
		v.stats.Vessels++
		v.journal.Info().
			Str("event", "vessels").
			Str("patient", patient).
			Str("volume", filepath.Base(vol)).
			Str("output", outDir).
			Msg("vessel tree written")
	}
}

func vesselCommand(cfg *Config, volume, outDir string) Command {
	return Command{
		Name: cfg.Slicer,
		Args: []string{
			"--no-splash", "--no-main-window",
			"--python-script", cfg.VesselScript,
			"--input", volume,
			"--output-dir", outDir,
			"--sigma-min", strconv.FormatFloat(cfg.SigmaMin, 'g', -1, 64),
			"--sigma-max", strconv.FormatFloat(cfg.SigmaMax, 'g', -1, 64),
		},
	}
}

// runVessels extracts vessel trees for every patient of a converted tree.
func runVessels(ctx context.Context, cfg *Config, opts *Options, stats *RunStats) error {
	extractor := NewVesselExtractor(cfg, execRunner{tee: opts.Debug}, stageJournal(), stats)

	logger.Infof("Extracting vessels from CTA volumes in %s into %s with %s", cfg.InputRoot, cfg.OutputRoot, cfg.Slicer)
	return processPatients(ctx, cfg.InputRoot, "Vessels", opts, extractor.ProcessPatient)
}
