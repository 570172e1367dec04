package llm

import "context"

// Provider is the opaque generation capability: grounded context in, answer
// text out. Implementations must return an error rather than a partial
// answer so the engine can apply its degraded-answer policy.
type Provider interface {
	Generate(ctx context.Context, question string, contextChunks []string) (string, error)
}
