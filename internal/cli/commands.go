// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/noldarim/tsbridge/internal/chat"
	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/dispatch"
	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/noldarim/tsbridge/internal/orchestrator/models"
	"github.com/noldarim/tsbridge/internal/orchestrator/services"
	"github.com/noldarim/tsbridge/internal/orchestrator/temporal"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"gopkg.in/yaml.v3"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetCLILogger()
		log = &l
	})
	return log
}

// prompter is the part of *chat.Poster the post command uses.
type prompter interface {
	PostPrompt(ctx context.Context, channel, text string, buttons ...chat.Button) (chat.Posted, error)
}

// auditStore is a closable audit log, normally *services.DataService.
type auditStore interface {
	services.AuditStore
	Close() error
}

type (
	connectFunc func(cfg *config.AppConfig) (services.Dispatcher, io.Closer, error)
	posterFunc  func(cfg *config.SlackConfig) (prompter, error)
	storeFunc   func(cfg *config.AppConfig, migrate bool) (auditStore, error)
)

func connectTemporal(cfg *config.AppConfig) (services.Dispatcher, io.Closer, error) {
	c, err := temporal.NewClient(&cfg.Temporal)
	if err != nil {
		return nil, nil, err
	}
	return dispatch.NewDispatcher(c.WorkflowService(), dispatch.OptionsFromConfig(&cfg.Temporal)), c, nil
}

func slackPoster(cfg *config.SlackConfig) (prompter, error) {
	p, err := chat.NewPoster(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func openDataService(cfg *config.AppConfig, migrate bool) (auditStore, error) {
	ds, err := services.NewDataService(cfg, migrate)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// loadConfig reads the config and sets up logging. Console logs go to stderr,
// keeping stdout for command output.
func loadConfig(path string) (*config.AppConfig, error) {
	cfg, err := config.NewConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Initialize(&cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// --- encode ---

func (r *runner) encodeCommand(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(r.errOut)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: encode <descriptor-file>")
	}

	_, desc, err := LoadDescriptorFile(fs.Arg(0))
	if err != nil {
		return err
	}

	token := interaction.Encode(desc)
	fmt.Fprintln(r.out, token)
	if err := chat.CheckToken(token); err != nil {
		fmt.Fprintf(r.errOut, "Warning: %v\n", err)
	}
	return nil
}

// --- decode ---

func (r *runner) decodeCommand(args []string) error {
	var format string
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(r.errOut)
	fs.StringVar(&format, "format", "json", "Output format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: decode [--format json|yaml] <token>")
	}

	desc, err := interaction.Decode(fs.Arg(0))
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return writeIndentedJSON(r.out, interaction.View(desc))
	case "yaml":
		file, err := FileFromDescriptor(desc)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(file); err != nil {
			return fmt.Errorf("failed to render YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (use json or yaml)", format)
	}
}

// --- dispatch ---

type dispatchOutput struct {
	Descriptor interaction.DescriptorView `json:"descriptor"`
	Outcome    dispatch.OutcomeView       `json:"outcome"`
	RecordID   string                     `json:"record_id,omitempty"`
}

func (r *runner) dispatchCommand(ctx context.Context, args []string) error {
	var (
		configPath string
		timeout    time.Duration
		user       string
	)
	fs := flag.NewFlagSet("dispatch", flag.ContinueOnError)
	fs.SetOutput(r.errOut)
	fs.StringVar(&configPath, "config", "", "Path to config file")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "Deadline for the Temporal call")
	fs.StringVar(&user, "user", "", "User recorded in the audit log")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: dispatch [--config path] [--timeout 30s] <token> [json-arg...]")
	}

	token := fs.Arg(0)
	liveArgs, err := parseJSONArgs(fs.Args()[1:])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	dispatcher, closer, err := r.connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Temporal: %w", err)
	}
	defer closer.Close()

	var store services.AuditStore
	if cfg.Database.Enabled {
		ds, err := r.openStore(cfg, false)
		if err != nil {
			// The call itself does not depend on the audit log.
			getLog().Warn().Err(err).Msg("Audit log unavailable, dispatching without it")
		} else {
			defer ds.Close()
			store = ds
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	svc := services.NewInteractionService(dispatcher, store, nil)
	result, err := svc.Handle(ctx, services.Request{
		Token:  token,
		Args:   liveArgs,
		Source: models.SourceCLI,
		UserID: user,
	})
	if err != nil {
		return err
	}

	return writeIndentedJSON(r.out, dispatchOutput{
		Descriptor: interaction.View(result.Descriptor),
		Outcome:    dispatch.ViewOutcome(result.Outcome),
		RecordID:   result.RecordID,
	})
}

// --- post ---

func (r *runner) postCommand(ctx context.Context, args []string) error {
	var configPath string
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	fs.SetOutput(r.errOut)
	fs.StringVar(&configPath, "config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: post [--config path] <channel> <descriptor-file>")
	}
	channel := fs.Arg(0)

	file, desc, err := LoadDescriptorFile(fs.Arg(1))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	poster, err := r.newPoster(&cfg.Slack)
	if err != nil {
		return fmt.Errorf("failed to create Slack client: %w", err)
	}

	text := file.Text
	if text == "" {
		text = fmt.Sprintf("%s `%s`", desc.Variant(), desc.GetWorkflowID())
	}
	label := file.Label
	if label == "" {
		label = string(desc.Variant())
	}

	posted, err := poster.PostPrompt(ctx, channel, text, chat.Button{
		Label:      label,
		Value:      file.Value,
		Style:      slack.Style(file.Style),
		Descriptor: desc,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "Posted to %s at %s\n", posted.ChannelID, posted.Timestamp)
	return nil
}

// --- migrate ---

func (r *runner) migrateCommand(args []string) error {
	var configPath string
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(r.errOut)
	fs.StringVar(&configPath, "config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return errors.New("database is disabled (set database.enabled: true)")
	}

	ds, err := r.openStore(cfg, true)
	if err != nil {
		return err
	}
	defer ds.Close()

	fmt.Fprintf(r.out, "Interaction audit schema is up to date (%s)\n", cfg.Database.Driver)
	return nil
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
