package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/switchstr/server"
)

// handleLSPCommand processes the `switchstr lsp` subcommand. The server
// speaks LSP on stdin/stdout; logs go to stderr or the configured file.
func handleLSPCommand(args []string) int {
	fs := flag.NewFlagSet("lsp", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Debug logging")
	tag := fs.String("tags", "", "Template build tag (overrides switchstr.toml)")
	fs.Parse(args)

	m, err := loadConfig(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading switchstr.toml: %v\n", err)
		return 1
	}
	opts := options(m, *tag)

	srv := server.NewLSP(server.WithTag(opts.Tag), server.WithVersion(version))
	if err := srv.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return 1
	}
	return 0
}
