package config

import (
	"flag"
	"strings"
)

// Flags holds command-line overrides. Each subcommand registers the ones it
// accepts on its own FlagSet.
type Flags struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	Output     string
	Policy     string
	Search     ListFlag
	Embed      ListFlag
	Inputs     ListFlag
	Extensions ListFlag
}

// ListFlag collects a repeatable string flag.
type ListFlag []string

func (l *ListFlag) String() string { return strings.Join(*l, ",") }

func (l *ListFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// RegisterCommon binds the flags shared by every subcommand.
func (f *Flags) RegisterCommon(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
}

// RegisterPatch binds the flags of the patch workflow.
func (f *Flags) RegisterPatch(fs *flag.FlagSet) {
	f.RegisterCommon(fs)
	fs.StringVar(&f.Output, "o", "", "Output scene path (default: overwrite input)")
	fs.StringVar(&f.Policy, "policy", "", "Material patch policy: replace or supersede")
	fs.Var(&f.Search, "search", "Asset search location, repeatable (suffix /** to recurse)")
	fs.Var(&f.Embed, "embed", "Regexp of file paths to embed before extensions run, repeatable")
	fs.Var(&f.Inputs, "input", "Extension script input, repeatable (e.g. a glTF sidecar)")
	fs.Var(&f.Extensions, "ext", "Extension to run, repeatable (default from config)")
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Output != "" {
		cfg.Pipeline.Output = f.Output
	}
	if f.Policy != "" {
		cfg.Extensions.MaterialPolicy = f.Policy
	}
	if len(f.Search) > 0 {
		cfg.Search.Locations = append(cfg.Search.Locations, f.Search...)
	}
	if len(f.Embed) > 0 {
		cfg.Search.EmbedFiles = append(cfg.Search.EmbedFiles, f.Embed...)
	}
	if len(f.Inputs) > 0 {
		cfg.Extensions.ScriptInputs = append([]string(nil), f.Inputs...)
	}
	if len(f.Extensions) > 0 {
		cfg.Extensions.Enabled = append([]string(nil), f.Extensions...)
	}
}
