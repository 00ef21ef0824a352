/*
Package main implements the henkan kana-kanji conversion server and CLI.

henkan decodes kana (or romaji) into ranked Japanese text candidates using
a sharded system dictionary, a connection cost matrix and part-of-speech
rules. It runs as a MessagePack IPC server for input method front ends, or
as an interactive CLI for testing dictionaries.

# Usage

Start the server with default settings:

	henkan

Use a custom data directory and enable debug logging:

	henkan -data /path/to/data -d

Run the CLI with five candidates per input:

	henkan -c -n 5

Build the reading index (and connection.bin from connection.txt when
present) for a data directory:

	henkan -build /path/to/data

# Data directory

	dictionary00.txt .. dictionary09.txt   reading\tleft_id\tright_id\tcost\tsurface
	dictionary.idx, dictionary.str         built by -build
	connection.bin                         int16 cost matrix
	id.def                                 part-of-speech ids

# Configuration

Settings are read from config.toml in the user config directory, created
with defaults when missing. See package config for the sections.

# Flags

	-data string     data directory (default from config)
	-config string   config file path
	-d               debug logging
	-c               interactive CLI instead of the IPC server
	-n int           candidates per input in CLI mode
	-romaji          treat CLI input as romaji
	-system          register the built-in system lexicon
	-build string    build the index for a data directory and exit
	-version         show the version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bastiangx/henkan/internal/cli"
	"github.com/bastiangx/henkan/internal/utils"
	"github.com/bastiangx/henkan/pkg/config"
	"github.com/bastiangx/henkan/pkg/connection"
	"github.com/bastiangx/henkan/pkg/converter"
	"github.com/bastiangx/henkan/pkg/dictionary"
	"github.com/bastiangx/henkan/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0"
	AppName = "henkan"
	gh      = "https://github.com/bastiangx/henkan"

	matrixTextFile = "connection.txt"
)

func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	dataDir := flag.String("data", "", "Directory containing the dictionary data (default from config)")
	configPath := flag.String("config", "", "Path to a config.toml")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	nBest := flag.Int("n", 0, "Candidates per input in CLI mode (default from config)")
	romajiInput := flag.Bool("romaji", false, "Treat CLI input as romaji")
	systemLexicon := flag.Bool("system", false, "Register the built-in system lexicon")
	buildDir := flag.String("build", "", "Build dictionary.idx for a data directory and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	log.SetOutput(os.Stderr)
	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *buildDir != "" {
		if !*debugMode {
			log.SetLevel(log.InfoLevel)
		}
		if err := build(*buildDir); err != nil {
			log.Fatalf("Build failed: %v", err)
		}
		return
	}

	appConfig, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activePath))

	requested := appConfig.Engine.DataDir
	if *dataDir != "" {
		requested = *dataDir
	}
	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	resolvedDataDir := pathResolver.GetDataDir(requested)
	log.Debugf("Using data dir at: %s", resolvedDataDir)

	conv, err := converter.New(appConfig.EngineOptions(resolvedDataDir))
	if err != nil {
		log.Fatalf("Failed to init converter: %v", err)
	}
	defer conv.Close()

	if *systemLexicon || (!*cliMode && appConfig.Server.SystemLexicon) {
		conv.Register(converter.SystemLexiconName, converter.SystemLexicon())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *cliMode {
		n := appConfig.CLI.DefaultNBest
		if *nBest > 0 {
			n = *nBest
		}
		romaji := appConfig.CLI.Romaji || *romajiInput
		log.Debug("Input info:", "n", n, "romaji", romaji)
		if err := cli.NewInputHandler(conv, n, romaji).Start(ctx); err != nil {
			log.Errorf("CLI error: %v", err)
			os.Exit(1)
		}
		return
	}

	showStartupInfo(conv.Info())
	if err := server.NewServer(conv, appConfig).Start(ctx); err != nil {
		log.Errorf("Server error: %v", err)
		os.Exit(1)
	}
}

// build writes the index and, when only the text form exists, the binary
// connection matrix, then validates the directory.
func build(dir string) error {
	stats, err := dictionary.BuildIndex(dir)
	if err != nil {
		return err
	}
	log.Infof("Indexed %d records (%d readings) from %d shards", stats.Records, stats.Readings, stats.Shards)

	matrixBin := filepath.Join(dir, dictionary.MatrixFile)
	matrixText := filepath.Join(dir, matrixTextFile)
	if !utils.FileExists(matrixBin) && utils.FileExists(matrixText) {
		if err := connection.ConvertText(matrixText, matrixBin); err != nil {
			return err
		}
		log.Infof("Converted %s to %s", matrixTextFile, dictionary.MatrixFile)
	}
	if err := dictionary.ValidateDataDir(dir); err != nil {
		return err
	}

	files, err := dictionary.Inventory(dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		info, _ := dictionary.GetFormatInfo(f.Format)
		log.Infof("  %-18s %-24s %d bytes", f.Name, info.Description, f.Size)
	}
	return nil
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ henkan ] kana to kanji conversion")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo prints basic info about the loaded data to stderr.
func showStartupInfo(info converter.Info) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	fmt.Fprintln(os.Stderr, "==========")
	fmt.Fprintf(os.Stderr, " %s\n", AppName)
	fmt.Fprintln(os.Stderr, "==========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("data dir: ( %s )", info.DataDir)
	log.Info("dictionary", "records", info.Records, "shards", info.Shards, "pos", info.PosIDs)
	log.Info("status: ready")
}
