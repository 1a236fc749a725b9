// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/noldarim/tsbridge/internal/interaction"
	"github.com/samber/lo"
	"github.com/slack-go/slack"
)

// ErrUnsupportedInteraction is returned for callbacks other than block_actions.
var ErrUnsupportedInteraction = errors.New("unsupported interaction type")

// Inbound is one clicked element of a block_actions callback.
type Inbound struct {
	// Token is the element's action_id, expected to be an interaction token.
	Token string
	// Args are the live arguments gathered from the click and the form state.
	Args      []json.RawMessage
	UserID    string
	ChannelID string
}

// ParseInteraction decodes the JSON carried in the "payload" form field of a
// Slack interactivity request. Each block action becomes one Inbound; the
// token itself is not decoded here.
func ParseInteraction(payload string) ([]Inbound, error) {
	if payload == "" {
		return nil, errors.New("empty interaction payload")
	}

	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &cb); err != nil {
		return nil, fmt.Errorf("failed to parse interaction payload: %w", err)
	}
	if cb.Type != slack.InteractionTypeBlockActions {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedInteraction, cb.Type)
	}

	out := make([]Inbound, 0, len(cb.ActionCallback.BlockActions))
	for _, action := range cb.ActionCallback.BlockActions {
		if action == nil || action.ActionID == "" {
			continue
		}
		args := append(actionArgs(action), formStateArgs(cb.BlockActionState, action)...)
		if len(args) == 0 {
			args = nil
		}
		out = append(out, Inbound{
			Token:     action.ActionID,
			Args:      args,
			UserID:    cb.User.ID,
			ChannelID: cb.Channel.ID,
		})
	}

	getLog().Debug().
		Str("user", cb.User.ID).
		Str("channel", cb.Channel.ID).
		Int("actions", len(out)).
		Msg("Parsed block_actions callback")
	return out, nil
}

// actionArgs collects what the user picked on the element itself.
func actionArgs(a *slack.BlockAction) []json.RawMessage {
	var args []json.RawMessage
	if a.Value != "" {
		args = append(args, interaction.TextArg(a.Value))
	}
	if a.SelectedOption.Value != "" {
		args = append(args, interaction.TextArg(a.SelectedOption.Value))
	}
	for _, opt := range a.SelectedOptions {
		if opt.Value != "" {
			args = append(args, interaction.TextArg(opt.Value))
		}
	}
	return args
}

// formStateArgs flattens input values of the message in block id, then action
// id order so the argument list is stable across clicks. Stateful elements
// such as selects also appear in the state; the clicked one is skipped since
// actionArgs already carries its value.
func formStateArgs(state *slack.BlockActionStates, clicked *slack.BlockAction) []json.RawMessage {
	if state == nil || len(state.Values) == 0 {
		return nil
	}

	var args []json.RawMessage
	blockIDs := lo.Keys(state.Values)
	slices.Sort(blockIDs)
	for _, blockID := range blockIDs {
		actions := state.Values[blockID]
		actionIDs := lo.Keys(actions)
		slices.Sort(actionIDs)
		for _, actionID := range actionIDs {
			if blockID == clicked.BlockID && actionID == clicked.ActionID {
				continue
			}
			action := actions[actionID]
			args = append(args, actionArgs(&action)...)
		}
	}
	return args
}
