package main

import (
	"fmt"
	"io"
	"time"
)

// RunStats counts what happened during one stage run. The pipeline is
// sequential, so plain fields are enough.
type RunStats struct {
	Patients  int
	Series    int
	Converted int
	Copied    int
	Defaced   int
	Vessels   int
	Skipped   int
	Failed    int
	StartTime time.Time
}

func newRunStats() *RunStats {
	return &RunStats{StartTime: time.Now()}
}

// printSummary writes the end-of-run block for the given stage.
func (s *RunStats) printSummary(w io.Writer, stage string) {
	elapsed := time.Since(s.StartTime)

	fmt.Fprintf(w, "\n=== %s Summary ===\n", stageTitle(stage))
	fmt.Fprintf(w, "Patients: %d\n", s.Patients)
	switch stage {
	case stageConvert:
		fmt.Fprintf(w, "Series: %d\n", s.Series)
		fmt.Fprintf(w, "Converted: %d\n", s.Converted)
		fmt.Fprintf(w, "Electrode files copied: %d\n", s.Copied)
	case stageDeface:
		fmt.Fprintf(w, "Groups defaced: %d\n", s.Defaced)
	case stageVessels:
		fmt.Fprintf(w, "Volumes processed: %d\n", s.Vessels)
	}
	fmt.Fprintf(w, "Skipped: %d\n", s.Skipped)
	fmt.Fprintf(w, "Failed: %d\n", s.Failed)
	fmt.Fprintf(w, "Total time: %s\n", elapsed.Round(time.Second))
}

func stageTitle(stage string) string {
	switch stage {
	case stageConvert:
		return "Conversion"
	case stageDeface:
		return "Defacing"
	case stageVessels:
		return "Vesselness"
	default:
		return stage
	}
}
