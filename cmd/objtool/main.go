// objtool is a CLI utility for inspecting and converting Wavefront OBJ models.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/objscene/internal/assets"
	"github.com/Faultbox/objscene/internal/config"
	"github.com/Faultbox/objscene/internal/logger"
	"github.com/Faultbox/objscene/pkg/importer"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "help", "-h", "--help":
		printUsage()
		return
	case "init-config":
		if err := cmdInitConfig(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
		fileCfg.JSON = cfg.Logging.JSON
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Debug("configuration loaded",
		zap.String("config", config.ConfigPath()),
		zap.String("root", cfg.Import.Root))

	a, err := newApp(cfg)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	switch command {
	case "info":
		err = a.cmdInfo(args)
	case "dump":
		err = a.cmdDump(args)
	case "convert", "c":
		err = a.cmdConvert(args)
	case "serve":
		err = a.cmdServe(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		a.Close()
		os.Exit(1)
	}

	if err != nil {
		logger.Error(command+" failed", zap.Error(err))
		a.Close()
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`objtool - Wavefront OBJ model utility

Usage:
  objtool [flags] <command> [options]

Commands:
  info <model.obj>                 Show scene summary
  dump [-model] <model.obj>        Dump the scene (or parsed model) structure
  convert <model.obj> [output]     Convert to glTF (.glb or .gltf, "-" for stdout)
  serve                            Serve scene stats and glTF over HTTP
  init-config [path]               Write a default config file

Model paths are relative to -root.

Flags:
  -config <path>     Config file (.yaml or .toml)
  -root <dir>        Base directory for models and materials
  -fallback-mtl      Try <model>.mtl when an mtllib is missing
  -watch             Reload files that change on disk (serve)
  -addr <addr>       Listen address (serve)
  -log-file <path>   Also write logs to a rotating file
  -debug             Enable debug logging

Examples:
  objtool info cube.obj
  objtool -root ./assets convert -binary=false chair.obj chair.gltf
  objtool -root ./assets -watch serve`)
}

// app holds what the commands share: the config, the cached file reader
// rooted at the import root and the importer on top of it.
type app struct {
	cfg      *config.Config
	files    *assets.Manager
	importer *importer.Importer
	log      *zap.Logger
}

func newApp(cfg *config.Config) (*app, error) {
	files := assets.NewManager(logger.Named("assets"))
	if err := files.AddRoot(cfg.Import.Root); err != nil {
		return nil, err
	}

	opts := importer.Options{
		MaterialFallback: cfg.Import.MaterialFallback,
		PointCloud:       cfg.Import.PointCloud,
	}
	return &app{
		cfg:      cfg,
		files:    files,
		importer: importer.New(files, logger.Named("import"), opts),
		log:      logger.Named("objtool"),
	}, nil
}

func (a *app) Close() {
	if err := a.files.Close(); err != nil {
		a.log.Warn("closing assets", zap.Error(err))
	}
}
