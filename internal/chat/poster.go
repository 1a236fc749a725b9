// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/noldarim/tsbridge/internal/config"
	"github.com/noldarim/tsbridge/internal/logger"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetSlackLogger().With().Str("component", "chat").Logger()
		log = &l
	})
	return log
}

// ErrNoChannel is returned when neither the caller nor the config names a channel.
var ErrNoChannel = errors.New("no channel given and slack.default_channel is empty")

// MessagePoster is the part of *slack.Client the Poster uses.
type MessagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Poster posts token-carrying messages.
type Poster struct {
	api            MessagePoster
	defaultChannel string
}

// NewPoster creates a Poster backed by the Slack Web API.
func NewPoster(cfg *config.SlackConfig) (*Poster, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("slack.bot_token is required")
	}
	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	return NewPosterWithClient(slack.New(cfg.BotToken, opts...), cfg.DefaultChannel), nil
}

// NewPosterWithClient creates a Poster over an existing client.
func NewPosterWithClient(api MessagePoster, defaultChannel string) *Poster {
	return &Poster{api: api, defaultChannel: defaultChannel}
}

// Posted identifies a message Slack accepted.
type Posted struct {
	ChannelID string
	Timestamp string
}

// Post sends blocks to channel, or to the default channel when channel is empty.
// fallback is the notification text.
func (p *Poster) Post(ctx context.Context, channel, fallback string, blocks []slack.Block) (Posted, error) {
	if channel == "" {
		channel = p.defaultChannel
	}
	if channel == "" {
		return Posted{}, ErrNoChannel
	}

	channelID, ts, err := p.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return Posted{}, fmt.Errorf("failed to post message to %s: %w", channel, err)
	}

	getLog().Debug().Str("channel", channelID).Str("ts", ts).Int("blocks", len(blocks)).Msg("Posted message")
	return Posted{ChannelID: channelID, Timestamp: ts}, nil
}

// PostPrompt renders text and buttons with PromptBlocks and posts them.
func (p *Poster) PostPrompt(ctx context.Context, channel, text string, buttons ...Button) (Posted, error) {
	blocks, err := PromptBlocks(text, buttons...)
	if err != nil {
		return Posted{}, err
	}
	return p.Post(ctx, channel, text, blocks)
}
