// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const (
	appName    = "tsbridgectl"
	appVersion = "0.1.0-alpha"
)

// Execute runs the CLI application
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRunner(os.Stdout, os.Stderr).run(ctx, os.Args[1:])
}

// runner carries the output streams and the factories commands use to reach
// Temporal, Slack and the database. Tests swap the factories.
type runner struct {
	out    io.Writer
	errOut io.Writer

	connect   connectFunc
	newPoster posterFunc
	openStore storeFunc
}

func newRunner(out, errOut io.Writer) *runner {
	return &runner{
		out:       out,
		errOut:    errOut,
		connect:   connectTemporal,
		newPoster: slackPoster,
		openStore: openDataService,
	}
}

func (r *runner) run(ctx context.Context, argv []string) error {
	if len(argv) < 1 {
		return r.printUsage()
	}

	command := argv[0]
	args := argv[1:]

	switch command {
	case "encode":
		return r.encodeCommand(args)
	case "decode":
		return r.decodeCommand(args)
	case "dispatch":
		return r.dispatchCommand(ctx, args)
	case "post":
		return r.postCommand(ctx, args)
	case "migrate":
		return r.migrateCommand(args)
	case "version":
		fmt.Fprintf(r.out, "%s version %s\n", appName, appVersion)
		return nil
	case "help", "-h", "--help":
		return r.printUsage()
	default:
		fmt.Fprintf(r.errOut, "Unknown command: %s\n\n", command)
		return r.printUsage()
	}
}

func (r *runner) printUsage() error {
	fmt.Fprintf(r.out, `%s - Temporal interaction tokens

Usage:
  %s <command> [arguments]

Commands:
  encode <file>                   Encode a descriptor file (YAML or JSON) into a token
  decode <token>                  Decode a token and print its descriptor
  dispatch <token> [json-arg...]  Run the Temporal call a token describes
  post <channel> <file>           Post a Slack button carrying a descriptor's token
  migrate                         Create or update the interaction audit tables
  version                         Print version information
  help                            Show this help message

Examples:
  %s encode approve.yaml
  %s decode 'E:Signal,W:wf-123,N:default,T:tq1,S:approve-signal'
  %s dispatch 'E:Signal,W:wf-123,N:default,T:tq1,S:approve-signal' '"approve"'
  %s decode --format yaml 'E:Query,W:wf-1,N:default,T:tq1,Q:status,U:'
  %s post C0123456 approve.yaml

`, appName, appName, appName, appName, appName, appName, appName)
	return nil
}
