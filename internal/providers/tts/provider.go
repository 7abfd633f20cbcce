package tts

import "context"

type Provider interface {
	// Synthesize returns WAV (LINEAR16) audio for text.
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
	Close() error
}
