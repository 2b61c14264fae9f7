// Copyright 2025 The PathServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the pathserve fuzzy path matcher server and CLI.

pathserve ranks the files below a directory against a short abbreviation, the
way command-t style file finders do: "amu" finds "app/models/user.rb". It can
run as a MessagePack IPC server for editors, as an HTTP service, or as a
one-shot and interactive CLI.

# Usage

Start the IPC server over the current directory:

	pathserve serve

Serve HTTP on a custom address with filesystem watching:

	pathserve http --addr :7878 --watch

Rank a list of paths piped on stdin:

	git ls-files | pathserve query --stdin amu

Explore rankings interactively:

	pathserve repl --root ~/src/project -d

# Configuration

Runtime configuration is read from a TOML file, created with defaults on first
run under ~/.config/pathserve/config.toml:

	[matcher]
	always_show_dot_files = false
	never_show_dot_files = false
	workers = 4
	threshold = 1000
	default_limit = 20
	scorer = "path"

	[scanner]
	root = "."
	max_depth = 15
	max_files = 30000
	scan_dot_directories = false
	ignore_dirs = ["node_modules", "vendor"]
	watch = false

	[server]
	max_limit = 200
	max_query = 256
	http_addr = "127.0.0.1:7878"

Command line flags override the file.
*/
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0"
	AppName = "pathserve"
	gh      = "https://github.com/bastiangx/pathserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// showVersion prints the styled version banner to stderr.
func showVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ PathServe ] Fuzzy path matching for editors and terminals")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available commands")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(mode, root string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("%s %s (%s)", AppName, Version, mode)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("root: ( %s )", root)
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
