package voice

import (
	"context"

	"maven/app/client/speechkit"
)

// Stream is one streaming recognition session.
type Stream interface {
	SendConfig() error
	Send(chunk []byte) error
	// Recv returns nil for updates without text.
	Recv() (*speechkit.Result, error)
	Close() error
}

type Recognizer interface {
	Start(ctx context.Context) (Stream, error)
}

type speechkitRecognizer struct {
	client *speechkit.YandexSpeechKit
}

func (r speechkitRecognizer) Start(ctx context.Context) (Stream, error) {
	handle, err := r.client.Start(ctx)
	if err != nil {
		return nil, err
	}

	return handle, nil
}
