package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"spatial-engine/internal/commands"
	"spatial-engine/internal/engineconfig"
	"spatial-engine/internal/graphics"
	"spatial-engine/internal/logger"
	"spatial-engine/internal/primitives"
)

func main() {
	reg := commands.NewRegistry("run")

	runFlags := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := runFlags.String("config", engineconfig.EngineConfigPath, "engine config file")
	partsPath := runFlags.String("parts", primitives.PartsPath, "parts file")
	verbose := runFlags.Bool("v", false, "mirror log output to stderr")
	reg.Register("run", "open the viewer (default)", runFlags, func() error {
		return run(*configPath, *partsPath, *verbose)
	})

	initFlags := flag.NewFlagSet("init-config", flag.ExitOnError)
	initPath := initFlags.String("config", engineconfig.EngineConfigPath, "file to write")
	force := initFlags.Bool("force", false, "overwrite an existing file")
	reg.Register("init-config", "write the default config file", initFlags, func() error {
		return initConfig(*initPath, *force)
	})

	if err := reg.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		reg.Usage(os.Stderr)
		os.Exit(1)
	}
}

func run(configPath, partsPath string, verbose bool) error {
	cfg, cfgErr := engineconfig.Load(configPath)
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File, Stderr: verbose})
	if err != nil {
		return err
	}
	defer log.Close()
	if cfgErr != nil {
		log.Warn("config rejected, using defaults", zap.Error(cfgErr))
	}

	parts, err := primitives.LoadParts(partsPath)
	if err != nil {
		log.Warn("parts rejected, using defaults", zap.Error(err))
		parts = primitives.DefaultParts()
	}

	a, err := newApp(cfg, log, parts)
	if err != nil {
		return err
	}
	graphics.Run(a.window(), a.update, a.draw, a.close)
	return nil
}

func initConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s exists; use -force to overwrite", path)
	}
	if err := engineconfig.Save(path, engineconfig.Default()); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}
