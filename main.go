package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/k0kubun/go-ansi"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var (
	// version and build info
	buildStamp string
	gitHash    string
	goVersion  string
	version    string
	logger     = zap.NewNop().Sugar()
)

// SetupCloseHandler creates a 'listener' on a new goroutine which will notify the
// program if it receives an interrupt from the OS. The first interrupt cancels
// the returned context, which kills the running tool and stops the patient
// loop; a second one exits immediately.
func setupCloseHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\r- Ctrl+C pressed in Terminal")
		cancel()
		<-c
		closeLogger()
		os.Exit(1)
	}()
	return ctx, cancel
}

// stageJournal returns the series journal, mirrored into the log file when
// --save-log is active.
func stageJournal() zerolog.Logger {
	if logSink != nil {
		return newJournal(io.MultiWriter(os.Stderr, logSink))
	}
	return newJournal(os.Stderr)
}

// processPatients calls fn once per patient directory under root, in
// lexical order, advancing the progress bar after each.
func processPatients(ctx context.Context, root, desc string, opts *Options, fn func(context.Context, string)) error {
	patients, err := listPatients(root)
	if err != nil {
		return err
	}
	if len(patients) == 0 {
		logger.Warnf("No patient directories found in %s", root)
		return nil
	}

	var bar *progressbar.ProgressBar
	if opts.Debug || opts.NoProgress {
		bar = progressbar.DefaultSilent(int64(len(patients)))
	} else {
		bar = progressbar.NewOptions(len(patients),
			progressbar.OptionSetWriter(ansi.NewAnsiStderr()),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, p := range patients {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		bar.Describe(fmt.Sprintf("%s %s", desc, filepath.Base(p)))
		fn(ctx, p)
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return nil
}

func run(ctx context.Context) int {
	options, err := InitOptions(os.Args[1:])
	if err != nil || options.Help {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n\n", err)
		}
		fmt.Fprintf(os.Stderr, "%s", options.usage())
		return 1
	}

	setLogger(options.Debug, "")

	if options.Version {
		logger.Infof("Current version: %s", version)
		logger.Infof("Git Commit Hash: %s", gitHash)
		logger.Infof("UTC Build Time : %s", buildStamp)
		logger.Infof("Golang Version : %s", goVersion)
		return 0
	}

	cfg, err := ReadConfig(options.Config)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	options.apply(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	if options.Stage == stageCheck {
		ok := printToolReport(os.Stdout, checkTools(ctx, cfg, execRunner{}))
		if !ok {
			return 1
		}
		return 0
	}

	if err := preflight(options.Stage, cfg); err != nil {
		logger.Errorf("Pre-flight check failed: %v", err)
		if errors.Is(err, ErrToolNotFound) || errors.Is(err, ErrScriptNotFound) {
			logger.Infof("Run 'seegprep check' to see which tools are available")
		}
		return 1
	}

	if options.Debug || options.SaveLog {
		setLogger(options.Debug, filepath.Join(cfg.OutputRoot, "seegprep.log"))
	}
	defer closeLogger()

	stats := newRunStats()
	switch options.Stage {
	case stageConvert:
		err = runConvert(ctx, cfg, options, stats)
	case stageDeface:
		err = runDeface(ctx, cfg, options, stats)
	case stageVessels:
		err = runVessels(ctx, cfg, options, stats)
	}
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warnf("Run interrupted; outputs written so far are kept")
	case err != nil:
		logger.Errorf("%v", err)
	}

	stats.printSummary(os.Stdout, options.Stage)
	if stats.Failed > 0 {
		logger.Warnf("Some series failed. Check the logs above for details.")
	}
	return 0
}

func main() {
	ctx, cancel := setupCloseHandler()
	code := run(ctx)
	cancel()
	os.Exit(code)
}
