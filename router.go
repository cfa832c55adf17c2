package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Router classifies series directories and hands them to the converter or
// the electrode copier.
type Router struct {
	cfg     *Config
	reader  TagReader
	runner  Runner
	journal zerolog.Logger
	stats   *RunStats
}

func NewRouter(cfg *Config, reader TagReader, runner Runner, journal zerolog.Logger, stats *RunStats) *Router {
	if stats == nil {
		stats = newRunStats()
	}
	return &Router{cfg: cfg, reader: reader, runner: runner, journal: journal, stats: stats}
}

// SeriesOutcome is what happened to one series directory.
type SeriesOutcome struct {
	Category Category
	Reason   string
	Outputs  []string
	Failed   bool
}

// RoutePatient routes every series below patientDir in lexical order.
func (r *Router) RoutePatient(ctx context.Context, patientDir string) {
	patient := filepath.Base(patientDir)
	r.stats.Patients++

	dirs, err := listSeriesDirs(patientDir, r.cfg.RecursiveScan)
	if err != nil {
		logger.Warnf("Patient %s: %v", patient, err)
		return
	}

	var routed, written int
	for _, dir := range dirs {
		if ctx.Err() != nil {
			return
		}
		out := r.RouteSeries(ctx, patient, dir)
		routed++
		written += len(out.Outputs)
	}
	r.journal.Info().
		Str("event", "patient-done").
		Str("patient", patient).
		Int("series", routed).
		Int("outputs", written).
		Msg("patient complete")
}

// RouteSeries classifies seriesDir from its representative file and writes
// its artifacts under <output>/<patient>/<Category>/.
func (r *Router) RouteSeries(ctx context.Context, patient, seriesDir string) SeriesOutcome {
	r.stats.Series++
	series := r.relSeries(seriesDir)

	rep, ok := selectRepresentative(r.reader, seriesDir, r.cfg)
	if !ok {
		return r.skip(patient, series, "", "", ReasonNoReadableFile)
	}

	modality := tagValue(rep.Modality)
	description := tagValue(rep.Description)

	category, reason := Classify(modality, description)
	if category == CategorySkipped {
		return r.skip(patient, series, modality, description, reason)
	}

	r.journal.Info().
		Str("event", "entered").
		Str("patient", patient).
		Str("series", series).
		Str("modality", modality).
		Str("description", description).
		Str("category", string(category)).
		Msg("routing series")

	outDir := filepath.Join(r.cfg.OutputRoot, patient, string(category))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		logger.Errorf("Cannot create %s: %v", outDir, err)
		r.stats.Failed++
		return SeriesOutcome{Category: category, Failed: true}
	}

	if category.IsVolume() {
		return r.convertSeries(ctx, patient, series, seriesDir, outDir, category, description)
	}
	return r.copyElectrodes(patient, series, seriesDir, outDir)
}

func (r *Router) skip(patient, series, modality, description, reason string) SeriesOutcome {
	r.stats.Skipped++
	r.journal.Warn().
		Str("event", "skipped").
		Str("patient", patient).
		Str("series", series).
		Str("modality", modality).
		Str("description", description).
		Str("reason", reason).
		Msg(reason)
	return SeriesOutcome{Category: CategorySkipped, Reason: reason}
}

func (r *Router) convertSeries(ctx context.Context, patient, series, seriesDir, outDir string, category Category, description string) SeriesOutcome {
	label := description
	if label == "" {
		label = "NoLabel"
	}
	base := uniqueBase(outDir, patient+"_"+string(category)+"_"+sanitize(label), ".nii.gz")

	res := r.runner.Run(ctx, dcm2niixCommand(r.cfg, base, outDir, seriesDir))
	if res.Failed() {
		logFailure("dcm2niix failed on "+series, res)
		r.stats.Failed++
		r.journal.Error().
			Str("event", "failed").
			Str("patient", patient).
			Str("series", series).
			Str("category", string(category)).
			Int("exit_code", res.ExitCode).
			Msg("conversion failed")
		return SeriesOutcome{Category: category, Failed: true}
	}

	output := filepath.Join(outDir, base+".nii.gz")
	if !exists(output) {
		logger.Warnf("dcm2niix reported success for %s but %s is missing", series, output)
	}
	r.stats.Converted++
	r.journal.Info().
		Str("event", "converted").
		Str("patient", patient).
		Str("series", series).
		Str("category", string(category)).
		Str("output", output).
		Msg("series converted")
	return SeriesOutcome{Category: category, Outputs: []string{output}}
}

// copyElectrodes copies every file of a trajectory SEG series, naming each
// copy after its segment label.
func (r *Router) copyElectrodes(patient, series, seriesDir, outDir string) SeriesOutcome {
	outcome := SeriesOutcome{Category: CategoryElectrodes}

	files, err := listSeriesFiles(seriesDir, r.cfg, true)
	if err != nil {
		logger.Warnf("%v", err)
		r.stats.Failed++
		outcome.Failed = true
		return outcome
	}

	for _, f := range files {
		label := r.segmentLabel(f)
		base := uniqueBase(outDir, "electrode_"+sanitize(label), ".dcm")
		dst := filepath.Join(outDir, base+".dcm")
		if err := copyFile(f, dst); err != nil {
			logger.Warnf("Copy %s to %s failed - %v", f, dst, err)
			continue
		}
		r.stats.Copied++
		outcome.Outputs = append(outcome.Outputs, dst)
		r.journal.Info().
			Str("event", "copied").
			Str("patient", patient).
			Str("series", series).
			Str("label", label).
			Str("output", dst).
			Msg("electrode copied")
	}
	return outcome
}

// segmentLabel reads the top-level SegmentLabel, falling back to the first
// item of SegmentSequence and then to "segment".
func (r *Router) segmentLabel(file string) string {
	for _, path := range []TagPath{SegmentLabelPath, NestedSegmentLabelPath} {
		if res := r.reader.Lookup(file, path); res.Status == TagFound {
			return res.Value
		}
	}
	return "segment"
}

func (r *Router) relSeries(seriesDir string) string {
	rel, err := filepath.Rel(r.cfg.InputRoot, seriesDir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return seriesDir
	}
	return rel
}

func tagValue(res TagResult) string {
	if res.Status == TagFound {
		return res.Value
	}
	return ""
}
