package llm

import "context"

// Message is one turn of model-visible conversation context.
type Message struct {
	Role    string // "user" | "assistant"
	Content string
}

type Provider interface {
	// Complete sends the fixed system instructions plus the full history
	// in order and returns the model's reply. Single attempt per call;
	// retries are the caller's decision since every call is billed.
	Complete(ctx context.Context, system string, history []Message) (string, error)
	Close() error
}
