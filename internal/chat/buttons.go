// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat carries interaction tokens through Slack: tokens go out as
// button action ids and come back in block_actions callbacks.
package chat

import (
	"errors"
	"fmt"

	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/slack-go/slack"
)

// MaxActionIDLength is Slack's limit for a block element action_id.
const MaxActionIDLength = 255

// ErrTokenTooLong is returned when an encoded token does not fit in an action_id.
var ErrTokenTooLong = errors.New("token exceeds action_id limit")

// CheckToken returns ErrTokenTooLong (wrapped with the actual length) when
// token cannot be used as an action_id.
func CheckToken(token string) error {
	if len(token) > MaxActionIDLength {
		return fmt.Errorf("%w: %d > %d", ErrTokenTooLong, len(token), MaxActionIDLength)
	}
	return nil
}

// ActionButton builds a button whose action_id is the encoded descriptor.
// value travels next to the token and is delivered back as the live argument
// when the button is clicked.
func ActionButton(label, value string, d interaction.Descriptor, style slack.Style) (*slack.ButtonBlockElement, error) {
	token := interaction.Encode(d)
	if err := CheckToken(token); err != nil {
		return nil, err
	}
	btn := slack.NewButtonBlockElement(token, value, slack.NewTextBlockObject(slack.PlainTextType, label, false, false))
	if style != slack.StyleDefault {
		btn = btn.WithStyle(style)
	}
	return btn, nil
}

// Button describes one button of a prompt.
type Button struct {
	Label      string
	Value      string
	Style      slack.Style
	Descriptor interaction.Descriptor
}

// PromptBlocks renders text followed by one action block per button. Buttons
// live in separate blocks because Slack rejects duplicate action_ids inside a
// block, and two buttons signalling the same workflow share a token.
func PromptBlocks(text string, buttons ...Button) ([]slack.Block, error) {
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
	}
	for i, b := range buttons {
		btn, err := ActionButton(b.Label, b.Value, b.Descriptor, b.Style)
		if err != nil {
			return nil, fmt.Errorf("button %q: %w", b.Label, err)
		}
		blocks = append(blocks, slack.NewActionBlock(fmt.Sprintf("tsbridge-%d", i), btn))
	}
	return blocks, nil
}
