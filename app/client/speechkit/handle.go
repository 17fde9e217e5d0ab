package speechkit

import (
	"context"
	"strings"

	"github.com/samber/oops"
	"github.com/yandex-cloud/go-genproto/yandex/cloud/ai/stt/v3"
)

const sampleRate = 16000

// Result is one recognition update. Partial results are replaced by later ones,
// a final result closes the phrase.
type Result struct {
	Text  string
	Final bool
}

type Handle struct {
	client   stt.Recognizer_RecognizeStreamingClient
	cancel   context.CancelFunc
	language string
}

func (h *Handle) Send(content []byte) error {
	var req stt.StreamingRequest
	req.SetChunk(&stt.AudioChunk{
		Data: content,
	})

	return h.client.Send(&req)
}

func (h *Handle) SendConfig() error {
	var audioFormatOpts stt.AudioFormatOptions
	audioFormatOpts.SetRawAudio(&stt.RawAudio{
		AudioEncoding:     stt.RawAudio_LINEAR16_PCM,
		SampleRateHertz:   sampleRate,
		AudioChannelCount: 1,
	})

	var eouClassifier stt.EouClassifierOptions
	eouClassifier.SetDefaultClassifier(&stt.DefaultEouClassifier{
		Type:                       stt.DefaultEouClassifier_DEFAULT,
		MaxPauseBetweenWordsHintMs: 1000,
	})

	var req stt.StreamingRequest
	req.SetSessionOptions(&stt.StreamingOptions{
		RecognitionModel: &stt.RecognitionModelOptions{
			Model:       "general",
			AudioFormat: &audioFormatOpts,
			LanguageRestriction: &stt.LanguageRestrictionOptions{
				RestrictionType: stt.LanguageRestrictionOptions_WHITELIST,
				LanguageCode:    []string{h.language},
			},
		},
		EouClassifier: &eouClassifier,
	})

	return h.client.Send(&req)
}

// Recv blocks for the next update. Updates that carry no text yield nil.
func (h *Handle) Recv() (*Result, error) {
	res, err := h.client.Recv()
	if err != nil {
		return nil, oops.In("speechkit").Wrapf(err, "failed to receive stt")
	}

	if final := res.GetFinal(); final != nil {
		return firstAlternative(final, true), nil
	}

	if partial := res.GetPartial(); partial != nil {
		return firstAlternative(partial, false), nil
	}

	return nil, nil
}

func (h *Handle) Close() error {
	h.cancel()
	return nil
}

func firstAlternative(update *stt.AlternativeUpdate, final bool) *Result {
	for _, alt := range update.Alternatives {
		text := strings.TrimSpace(alt.Text)
		if text == "" {
			continue
		}

		return &Result{Text: text, Final: final}
	}

	if final {
		return &Result{Final: true}
	}

	return nil
}
