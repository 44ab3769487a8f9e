package convo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Store persists per-user conversation history. Get returns an empty slice
// (and a nil error) when no history exists for the user; a backend failure
// must surface as a non-nil error, never as empty history. Set replaces the
// stored sequence atomically for that key, last-write-wins.
type Store interface {
	Get(ctx context.Context, userID int64) ([]Message, error)
	Set(ctx context.Context, userID int64, messages []Message) error
	Clear(ctx context.Context, userID int64) error
}

// Provider generates an assistant reply for an ordered message sequence.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Notifier delivers advisory messages to a user outside the normal reply
// path. Failures are logged by the orchestrator and otherwise ignored.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

const warnText = "Your conversation history is getting long and will slow replies down. Send /clear to reset it."

// Orchestrator runs one conversation turn: load history, check token load,
// call the completion provider with the full context, persist the updated
// history, return the reply.
type Orchestrator struct {
	Store    Store
	Provider Provider
	Notifier Notifier
	Logger   *slog.Logger

	// Threshold overrides TokenWarnThreshold when > 0.
	Threshold int
}

// Turn processes one inbound user message and returns the assistant reply.
// The stored history gains exactly one user and one assistant message on
// success; on any failure the stored history is left untouched.
func (o *Orchestrator) Turn(ctx context.Context, userID int64, text string) (string, error) {
	history, err := o.Store.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load history for user %d: %w", userID, err)
	}

	// Token load is measured over the transcript as stored, before the new
	// message is appended.
	threshold := o.Threshold
	if threshold <= 0 {
		threshold = TokenWarnThreshold
	}
	if load := EstimateTokens(FormatHistory(history)); load > threshold {
		if err := o.Notifier.Notify(ctx, userID, warnText); err != nil {
			o.Logger.Warn("token warning not delivered", "user_id", userID, "error", err)
		}
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: text})

	reply, err := o.Provider.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("completion for user %d: %w", userID, err)
	}

	// Stored assistant content carries exactly one trailing newline to match
	// the transcript convention; the returned reply does not.
	stored := strings.TrimRight(reply, "\n") + "\n"
	messages = append(messages, Message{Role: RoleAssistant, Content: stored})
	if err := o.Store.Set(ctx, userID, messages); err != nil {
		return "", fmt.Errorf("persist history for user %d: %w", userID, err)
	}
	return reply, nil
}
