// Package chat drives one turn of the team-assembly dialogue. Each call
// sends the full transcript to the language-model provider and decides
// whether the response carries a terminal, structured role set. The
// extractor holds no state across calls: the transcript lives with the
// client, so the conversation state is recomputed per call.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/StafflyAI/staffly-mvp/engine/domain"
)

// Completer abstracts the language-model provider: complete the given
// transcript with one assistant turn.
type Completer interface {
	Complete(ctx context.Context, system string, transcript []domain.ChatMessage) (string, error)
}

// Turn is the outcome of processing one conversation turn.
type Turn struct {
	// Content is the user-visible assistant response. A well-formed
	// role block is stripped; otherwise the text passes through as is.
	Content string `json:"content"`
	// Complete reports whether a well-formed role set was emitted.
	Complete bool `json:"isComplete"`
	// Roles is the extracted role set; nil unless Complete.
	Roles []domain.RoleSpec `json:"roles,omitempty"`
}

// Extractor processes conversation turns.
type Extractor struct {
	llm    Completer
	system string
	logger *slog.Logger
}

// New creates an Extractor. An empty system prompt selects the default.
func New(llm Completer, system string, logger *slog.Logger) *Extractor {
	if system == "" {
		system = DefaultSystemPrompt
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{llm: llm, system: system, logger: logger}
}

// ProcessTurn asks the provider for the next assistant turn and detects
// a terminal role set. A malformed role block is not an error: the
// block is logged and the turn stays in the gathering state, so a bad
// model response costs the user one turn, never the conversation.
func (e *Extractor) ProcessTurn(ctx context.Context, transcript []domain.ChatMessage) (Turn, error) {
	content, err := e.llm.Complete(ctx, e.system, transcript)
	if err != nil {
		return Turn{}, fmt.Errorf("chat: %w: %v", domain.ErrProviderFailure, err)
	}
	if strings.TrimSpace(content) == "" {
		return Turn{}, fmt.Errorf("chat: %w: empty response", domain.ErrProviderFailure)
	}

	trimmed, roles, found, perr := extractRoles(content)
	if !found {
		return Turn{Content: content}, nil
	}
	if perr != nil {
		// Parse-or-ignore: the conversation continues as if no block was
		// emitted, raw text and all, and the user gets another turn.
		e.logger.Warn("chat: ignoring malformed role block", "err", perr)
		return Turn{Content: content}, nil
	}

	return Turn{Content: trimmed, Complete: true, Roles: roles}, nil
}

// rolePayload is the JSON shape inside a role block.
type rolePayload struct {
	Roles []domain.RoleSpec `json:"roles"`
}

// extractRoles scans content for a delimited role block. Returns the
// content with the block removed, the parsed roles, whether a block was
// found, and a parse error if the payload was malformed.
func extractRoles(content string) (string, []domain.RoleSpec, bool, error) {
	open := strings.Index(content, roleBlockOpen)
	if open < 0 {
		return content, nil, false, nil
	}
	rest := content[open+len(roleBlockOpen):]
	end := strings.Index(rest, roleBlockClose)
	if end < 0 {
		// Opening marker without a closing one: not a block.
		return content, nil, false, nil
	}

	payload := strings.TrimSpace(rest[:end])
	trimmed := stripBlock(content[:open], rest[end+len(roleBlockClose):])

	var parsed rolePayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return trimmed, nil, true, fmt.Errorf("decode role payload: %w", err)
	}
	if len(parsed.Roles) == 0 {
		return trimmed, nil, true, fmt.Errorf("role payload has no roles")
	}
	for i, r := range parsed.Roles {
		if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Query) == "" {
			return trimmed, nil, true, fmt.Errorf("role %d missing title or query", i)
		}
	}

	return trimmed, parsed.Roles, true, nil
}

// stripBlock joins the text surrounding a removed block.
func stripBlock(before, after string) string {
	before = strings.TrimSpace(before)
	after = strings.TrimSpace(after)
	switch {
	case before == "":
		return after
	case after == "":
		return before
	default:
		return before + "\n\n" + after
	}
}
