package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/scenepack/internal/config"
	"github.com/Faultbox/scenepack/internal/extension"
	_ "github.com/Faultbox/scenepack/internal/gltfmat"
	"github.com/Faultbox/scenepack/internal/logger"
	"github.com/Faultbox/scenepack/internal/state"
)

func cmdPatch(args []string) {
	var flags config.Flags
	fs := flag.NewFlagSet("patch", flag.ExitOnError)
	flags.RegisterPatch(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: scenetool patch [options] <scene.bin>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	input := fs.Arg(0)

	cfg := loadConfig(&flags)
	defer logger.Sync()

	if err := runPatch(cfg, input); err != nil {
		logger.Error("patch failed", zap.String("scene", input), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runPatch loads the scene, runs the enabled extensions over every script
// input and writes the result.
func runPatch(cfg *config.Config, input string) error {
	st, err := state.Load(input)
	if err != nil {
		return err
	}
	defer st.Close()

	if st.Policy, err = state.ParsePolicy(cfg.Extensions.MaterialPolicy); err != nil {
		return err
	}

	for _, loc := range cfg.Search.Locations {
		if err := st.AddSearchLocation(loc); err != nil {
			return err
		}
	}
	for _, dir := range st.SearchLocations() {
		logger.Debug("search location", zap.String("dir", dir))
	}

	if len(cfg.Search.EmbedFiles) > 0 {
		n, err := st.EmbedMatching(cfg.Search.EmbedFiles)
		if err != nil {
			return err
		}
		logger.Info("embedded files", zap.Int("count", n))
	}

	report := extension.Run(st, cfg.Extensions.Enabled, cfg.Extensions.ScriptInputs)
	logger.Info("extensions finished",
		zap.Int("runs", report.Runs),
		zap.Int("failures", report.Failures))

	buf, err := st.Finalize(cfg.Pipeline.Version, cfg.Pipeline.InitialBufferSize)
	if err != nil {
		return err
	}

	output := cfg.Pipeline.Output
	if output == "" {
		output = input
	}
	if err := os.WriteFile(output, buf, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Printf("Patched: %s (%d bytes, %d materials, %d extension failures)\n",
		output, len(buf), st.MaterialsLength(), report.Failures)
	return nil
}

func cmdConfig(args []string) {
	var flags config.Flags
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	flags.RegisterPatch(fs)
	save := fs.Bool("save", false, "Save the effective config to the user config directory")
	fs.Parse(args)

	cfg := loadConfig(&flags)
	defer logger.Sync()

	if *save {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved: %s\n", config.ConfigDir())
		return
	}

	data, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
}

// loadConfig resolves the config and initialises logging, exiting on failure.
func loadConfig(flags *config.Flags) *config.Config {
	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
		fileCfg.JSON = cfg.Logging.JSON
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
