package llm

import "context"

// Request is one completion call. Temperature and MaxTokens of zero mean
// "use the adapter default", the same override convention as per-call knobs
// on the upstream clients.
type Request struct {
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// StreamChunk is one element of a streamed completion. A non-nil Err ends
// the stream; the channel is closed afterwards.
type StreamChunk struct {
	Text string
	Err  error
}

// Provider is an external text-completion service. Implementations must not
// retry: a failed call surfaces exactly once and the caller decides how to
// degrade. Streams are finite and not restartable.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
	GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error)
}
