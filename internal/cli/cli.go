// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for skiff.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdStatus
	CmdConfig
	CmdSessions
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet    bool
	Verbose  bool
	Model    string
	BaseURL  string
	NoStream bool

	// Command-specific
	Query      string
	File       string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `skiff - terminal chat client for streaming LLM backends

Usage:
  skiff                      Start TUI (default)
  skiff ask "question"       Ask a single question, stream the answer
  skiff chat                 Interactive chat in the plain terminal
  skiff status               Check backend reachability
  skiff config [key] [val]   Show or set configuration
  skiff sessions             List saved conversations
  skiff version              Show version information
  skiff help                 Show this help

Flags:
  -m, --model NAME     Use a specific model (overrides config)
  -u, --url URL        Backend base URL (overrides config)
  -f, --file FILE      Attach a file to the question (ask only)
  --no-stream          Request the full response in one piece
  -q, --quiet          Minimal output
  -v, --verbose        Verbose output

Environment:
  SKIFF_BASE_URL, SKIFF_MODEL, SKIFF_STREAM, SKIFF_THEME, SKIFF_DB_PATH
`

// Parse reads os.Args and returns the command plus its arguments.
func Parse() (Command, *Args) {
	args := &Args{Raw: []string{}}

	raw := os.Args[1:]
	if len(raw) == 0 {
		return CmdTUI, args
	}

	cmd := CmdTUI
	positional := []string{}

	i := 0
	// The first positional token picks the command.
	switch raw[0] {
	case "ask", "a":
		cmd = CmdAsk
		i = 1
	case "chat", "c":
		cmd = CmdChat
		i = 1
	case "status", "s":
		cmd = CmdStatus
		i = 1
	case "config":
		cmd = CmdConfig
		i = 1
	case "sessions":
		cmd = CmdSessions
		i = 1
	case "version", "--version", "-V":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	}

	for ; i < len(raw); i++ {
		arg := raw[i]
		switch arg {
		case "-m", "--model":
			if i+1 < len(raw) {
				i++
				args.Model = raw[i]
			}
		case "-u", "--url":
			if i+1 < len(raw) {
				i++
				args.BaseURL = raw[i]
			}
		case "-f", "--file":
			if i+1 < len(raw) {
				i++
				args.File = raw[i]
			}
		case "--no-stream":
			args.NoStream = true
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		default:
			if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			} else if strings.HasPrefix(arg, "--url=") {
				args.BaseURL = strings.TrimPrefix(arg, "--url=")
			} else {
				positional = append(positional, arg)
			}
		}
	}

	args.Raw = positional
	if len(positional) > 0 {
		args.Subcommand = positional[0]
	}
	if cmd == CmdAsk {
		args.Query = strings.Join(positional, " ")
	}

	return cmd, args
}

// HandleVersion prints build information.
func HandleVersion() {
	fmt.Printf("skiff %s\n", Version)
	fmt.Printf("  commit: %s\n", GitCommit)
	fmt.Printf("  built:  %s\n", BuildDate)
	fmt.Printf("  %s/%s, %s\n", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// HandleHelp prints usage.
func HandleHelp() {
	fmt.Print(usageText)
}
