package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DavidGamba/go-getoptions"
)

// Stages
const (
	stageConvert = "convert"
	stageDeface  = "deface"
	stageVessels = "vessels"
	stageCheck   = "check"
)

var errUsage = errors.New("invalid arguments")

// Options command line parameters. The stage and its roots are positional;
// every flag is optional.
type Options struct {
	Stage  string
	Input  string
	Output string
	Tool   string
	Script string

	Config     string
	Version    bool
	Debug      bool
	Help       bool
	SaveLog    bool
	NoProgress bool

	opt *getoptions.GetOpt
}

// InitOptions parses args (without the program name).
func InitOptions(args []string) (*Options, error) {
	opt := &Options{
		opt: getoptions.New(),
	}

	opt.opt.BoolVar(&opt.Help, "help", false, opt.opt.Alias("h"),
		opt.opt.Description("show help information"))
	opt.opt.BoolVar(&opt.Debug, "debug", false,
		opt.opt.Description("show more info, including the output of external tools"))
	opt.opt.BoolVar(&opt.SaveLog, "save-log", false,
		opt.opt.Description("save debug log info to <output_root>/seegprep.log"))
	opt.opt.BoolVar(&opt.Version, "version", false, opt.opt.Alias("v"),
		opt.opt.Description("show version information"))
	opt.opt.BoolVar(&opt.NoProgress, "no-progress", false,
		opt.opt.Description("do not draw the progress bar"))
	opt.opt.StringVar(&opt.Config, "config", "", opt.opt.Alias("c"),
		opt.opt.Description("YAML file overriding tool paths and pipeline settings"))

	remaining, err := opt.opt.Parse(args)
	if err != nil {
		return opt, err
	}
	if opt.Help || opt.Version {
		return opt, nil
	}
	if err := opt.setPositional(remaining); err != nil {
		return opt, err
	}
	return opt, nil
}

func (o *Options) setPositional(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing stage", errUsage)
	}
	o.Stage = strings.ToLower(args[0])
	rest := args[1:]

	maxArgs := 2
	switch o.Stage {
	case stageCheck:
		if len(rest) > 0 {
			return fmt.Errorf("%w: check takes no arguments", errUsage)
		}
		return nil
	case stageConvert:
	case stageDeface, stageVessels:
		maxArgs = 4
	default:
		return fmt.Errorf("%w: unknown stage %q", errUsage, args[0])
	}

	if len(rest) < 2 {
		return fmt.Errorf("%w: %s needs <input_root> <output_root>", errUsage, o.Stage)
	}
	if len(rest) > maxArgs {
		return fmt.Errorf("%w: too many arguments for %s", errUsage, o.Stage)
	}
	o.Input, o.Output = rest[0], rest[1]
	if o.Input == "" || o.Output == "" {
		return fmt.Errorf("%w: empty root directory", errUsage)
	}
	if len(rest) > 2 {
		o.Tool = rest[2]
	}
	if len(rest) > 3 {
		o.Script = rest[3]
	}
	return nil
}

// apply copies the positional roots and tool overrides into cfg.
func (o *Options) apply(cfg *Config) {
	cfg.InputRoot = o.Input
	cfg.OutputRoot = o.Output
	switch o.Stage {
	case stageDeface:
		if o.Tool != "" {
			cfg.Python = o.Tool
		}
		if o.Script != "" {
			cfg.DefaceScript = o.Script
		}
	case stageVessels:
		if o.Tool != "" {
			cfg.Slicer = o.Tool
		}
		if o.Script != "" {
			cfg.VesselScript = o.Script
		}
	}
}

// usage returns the synopsis followed by the flag help.
func (o *Options) usage() string {
	var b strings.Builder
	b.WriteString("Usage:\n")
	b.WriteString("  seegprep [flags] convert <input_root> <output_root>\n")
	b.WriteString("  seegprep [flags] deface  <input_root> <output_root> [interpreter] [script]\n")
	b.WriteString("  seegprep [flags] vessels <input_root> <output_root> [slicer] [script]\n")
	b.WriteString("  seegprep [flags] check\n")
	if o != nil && o.opt != nil {
		b.WriteString(o.opt.Help())
	}
	return b.String()
}
