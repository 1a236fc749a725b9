// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package utils provides shared utility functions for Temporal workflows and activities.
package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
	dashRuns    = regexp.MustCompile(`-+`)
)

// GenerateWorkflowID creates a readable workflow id from a workflow type and a
// unique suffix, e.g. "approvalworkflow-3f2a...". Workflow ids end up inside
// tokens, so the result only contains characters that never need escaping.
func GenerateWorkflowID(workflowType, suffix string) string {
	sanitized := unsafeChars.ReplaceAllString(workflowType, "")
	sanitized = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(sanitized)), " ", "-")
	sanitized = dashRuns.ReplaceAllString(sanitized, "-")
	sanitized = strings.Trim(sanitized, "-")

	if sanitized == "" {
		sanitized = "workflow"
	}

	// Leave room in the 255 byte action_id for the other keys
	if len(sanitized) > 40 {
		sanitized = strings.Trim(sanitized[:40], "-")
	}

	return fmt.Sprintf("%s-%s", sanitized, suffix)
}
