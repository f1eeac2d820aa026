package engine

import "context"

// Prompter is the consumed external capability for asking the operator for a
// value. The core treats it as a pluggable provider, not a UI concern; the
// engine uses it only to obtain conversion factors and the acting employee
// name for reconciliation.
type Prompter interface {
	Prompt(ctx context.Context, question string) (string, error)
}

// PromptFunc adapts a function to the Prompter interface.
type PromptFunc func(ctx context.Context, question string) (string, error)

func (f PromptFunc) Prompt(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}
