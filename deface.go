package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// defaceGroup is one model run per patient: the volumes of its source
// categories are staged together.
type defaceGroup struct {
	Name    string
	Sources []Category
}

var defaceGroups = []defaceGroup{
	{Name: "CT", Sources: []Category{CategoryCTPre, CategoryCTPost}},
	{Name: "CTA", Sources: []Category{CategoryCTA}},
}

// Defacer stages converted CT volumes and runs the defacing model on them.
type Defacer struct {
	cfg     *Config
	runner  Runner
	journal zerolog.Logger
	stats   *RunStats
}

func NewDefacer(cfg *Config, runner Runner, journal zerolog.Logger, stats *RunStats) *Defacer {
	if stats == nil {
		stats = newRunStats()
	}
	return &Defacer{cfg: cfg, runner: runner, journal: journal, stats: stats}
}

// DefacePatient runs every group that has at least one volume.
func (d *Defacer) DefacePatient(ctx context.Context, patientDir string) {
	patient := filepath.Base(patientDir)
	d.stats.Patients++

	ran := 0
	for _, g := range defaceGroups {
		if ctx.Err() != nil {
			return
		}
		if d.defaceGroup(ctx, patient, patientDir, g) {
			ran++
		}
	}
	if ran == 0 {
		d.stats.Skipped++
		logger.Infof("Patient %s: no CT volumes to deface", patient)
	}
}

func (d *Defacer) defaceGroup(ctx context.Context, patient, patientDir string, g defaceGroup) bool {
	groupDir := filepath.Join(d.cfg.OutputRoot, patient, "defaced", g.Name)
	staging := filepath.Join(groupDir, "input")
	output := filepath.Join(groupDir, "output")

	var sources []string
	for _, c := range g.Sources {
		vols, err := listNifti(filepath.Join(patientDir, string(c)))
		if err != nil {
			logger.Warnf("Patient %s: %v", patient, err)
			continue
		}
		sources = append(sources, vols...)
	}
	if len(sources) == 0 {
		logger.Debugf("Patient %s: nothing to deface in group %s", patient, g.Name)
		return false
	}

	for _, dir := range []string{staging, output} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Errorf("Cannot create %s: %v", dir, err)
			d.stats.Failed++
			return true
		}
	}

	staged := stageForDeface(sources, staging, d.cfg.DefaceMarker)
	if len(staged) == 0 {
		d.stats.Failed++
		return true
	}

	res := d.runner.Run(ctx, defaceCommand(d.cfg, staging, output))
	if res.Failed() {
		logFailure("defacing failed for "+patient+"/"+g.Name, res)
		d.stats.Failed++
		d.journal.Error().
			Str("event", "failed").
			Str("patient", patient).
			Str("group", g.Name).
			Int("exit_code", res.ExitCode).
			Msg("defacing failed")
		return true
	}

	d.stats.Defaced++
	d.journal.Info().
		Str("event", "defaced").
		Str("patient", patient).
		Str("group", g.Name).
		Int("volumes", len(staged)).
		Str("output", output).
		Msg("group defaced")
	return true
}

// stageForDeface copies each volume into staging as <stem><marker>.nii.gz,
// putting the collision counter before the marker. It returns the staged
// paths; a failed copy is logged and left out.
func stageForDeface(sources []string, staging, marker string) []string {
	var staged []string
	for _, src := range sources {
		stem := uniqueBase(staging, niftiStem(src), marker+".nii.gz")
		dst := filepath.Join(staging, stem+marker+".nii.gz")
		if err := copyFile(src, dst); err != nil {
			logger.Warnf("Staging %s failed - %v", src, err)
			continue
		}
		staged = append(staged, dst)
	}
	return staged
}

func defaceCommand(cfg *Config, staging, output string) Command {
	return Command{
		Name: cfg.Python,
		Args: []string{cfg.DefaceScript, "-i", staging, "-o", output},
	}
}

// runDeface defaces every patient of a converted output tree.
func runDeface(ctx context.Context, cfg *Config, opts *Options, stats *RunStats) error {
	defacer := NewDefacer(cfg, execRunner{tee: opts.Debug}, stageJournal(), stats)

	logger.Infof("Defacing CT volumes from %s into %s with %s %s", cfg.InputRoot, cfg.OutputRoot, cfg.Python, cfg.DefaceScript)
	return processPatients(ctx, cfg.InputRoot, "Defacing", opts, defacer.DefacePatient)
}
