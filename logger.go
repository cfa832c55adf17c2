package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logSink is the file behind --save-log, closed when the logger is rebuilt.
var logSink *os.File

// setLogger (re)builds the package logger. Console output goes to stderr at
// INFO, or DEBUG when debug is set; a non-empty logFile additionally receives
// every DEBUG and above line.
func setLogger(debug bool, logFile string) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.CallerKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if colorEnabled(os.Stderr) {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}

	if logSink != nil {
		_ = logSink.Close()
		logSink = nil
	}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err == nil {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err == nil {
				fileCfg := encCfg
				fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
				cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(fileCfg), zapcore.AddSync(f), zapcore.DebugLevel))
				logSink = f
			}
		}
	}

	logger = zap.New(zapcore.NewTee(cores...)).Sugar()
}

// closeLogger flushes the logger and releases the log file.
func closeLogger() {
	_ = logger.Sync()
	if logSink != nil {
		_ = logSink.Close()
		logSink = nil
	}
}

// newJournal returns the per-series event log. Each event is one line with
// patient, series, modality, description and outcome fields.
func newJournal(w io.Writer) zerolog.Logger {
	color := false
	if f, ok := w.(*os.File); ok {
		color = colorEnabled(f)
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !color,
		TimeFormat: time.DateTime,
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// colorEnabled honours NO_COLOR and TERM=dumb on top of TTY detection.
func colorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
