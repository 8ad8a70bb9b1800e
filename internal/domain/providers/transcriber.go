package providers

import "context"

// Transcriber converts an opaque audio payload into text. The routing core
// never inspects audio bytes itself.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
