package voice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"maven/app/client/speechkit"
	"maven/app/config"
	"maven/app/service/assistant"

	"github.com/samber/do"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

const bufferSize = 4096

var ErrDisabled = errors.New("voice input is disabled")

var (
	// errPhraseDone ends a single-phrase capture.
	errPhraseDone = errors.New("phrase recognized")
	errAudioEnded = errors.New("audio stream ended")
)

var _ do.Shutdownable = (*Service)(nil)

// Input receives the composed transcript of the running capture.
type Input interface {
	SetInput(text string)
}

// Service bridges speech recognition into the assistant input buffer.
type Service struct {
	recognizer Recognizer
	audio      AudioSource
	input      Input
	continuous bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	assistantSvc := do.MustInvoke[*assistant.Service](di)

	if !cfg.Voice.Enabled {
		svc := NewService(nil, nil, assistantSvc, false)
		assistantSvc.SetCapture(svc)
		return svc, nil
	}

	client, err := do.Invoke[*speechkit.YandexSpeechKit](di)
	if err != nil {
		return nil, oops.In("voice").Wrapf(err, "failed to create speech client")
	}

	svc := NewService(
		speechkitRecognizer{client: client},
		&FFmpegSource{Format: cfg.Voice.FFmpegFormat, Input: cfg.Voice.FFmpegInput},
		assistantSvc,
		cfg.Voice.Continuous,
	)
	assistantSvc.SetCapture(svc)

	return svc, nil
}

// NewService builds the bridge. A nil recognizer leaves voice input disabled.
func NewService(recognizer Recognizer, audio AudioSource, input Input, continuous bool) *Service {
	return &Service{
		recognizer: recognizer,
		audio:      audio,
		input:      input,
		continuous: continuous,
	}
}

func (s *Service) Enabled() bool {
	return s.recognizer != nil
}

func (s *Service) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.done != nil
}

// Start begins capturing until Stop, ctx cancellation or, unless continuous,
// the first final phrase. Starting while listening is a no-op.
func (s *Service) Start(ctx context.Context) error {
	if s.recognizer == nil {
		return ErrDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)

	audio, err := s.audio.Open(ctx)
	if err != nil {
		cancel()
		return oops.In("voice").Wrapf(err, "failed to open audio")
	}

	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(ctx, cancel, audio, done)

	slog.Debug("Voice capture started", "continuous", s.continuous)

	return nil
}

// Stop ends the capture and returns once no more input updates can happen.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if done == nil {
		return
	}

	cancel()
	<-done
}

func (s *Service) Shutdown() error {
	s.Stop()
	return nil
}

func (s *Service) run(ctx context.Context, cancel context.CancelFunc, audio io.ReadCloser, done chan struct{}) {
	defer close(done)
	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.cancel = nil
			s.done = nil
		}
		s.mu.Unlock()
	}()
	defer func() {
		cancel()
		_ = audio.Close()
	}()

	err := s.recognize(ctx, audio)
	if err != nil && ctx.Err() == nil {
		slog.Error("Voice capture failed", "error", err)
		return
	}

	slog.Debug("Voice capture stopped")
}

func (s *Service) recognize(ctx context.Context, audio io.Reader) error {
	phrases := &transcript{}

	for {
		err := s.session(ctx, audio, phrases)
		if err == nil || errors.Is(err, errPhraseDone) {
			return nil
		}

		if errors.Is(err, errAudioEnded) {
			slog.Info("Audio source ended, stopping capture")
			return nil
		}

		if errors.Is(err, io.EOF) && ctx.Err() == nil {
			slog.Info("Recognition stream ended, restarting")
			continue
		}

		return err
	}
}

func (s *Service) session(ctx context.Context, audio io.Reader, phrases *transcript) error {
	// The stream lives in the group context so either side ending unblocks the other.
	g, ctx := errgroup.WithContext(ctx)

	stream, err := s.recognizer.Start(ctx)
	if err != nil {
		return oops.In("voice").Wrapf(err, "failed to start recognition")
	}
	defer stream.Close()

	g.Go(func() error {
		return s.streamAudio(ctx, audio, stream)
	})

	g.Go(func() error {
		return s.receivePhrases(ctx, stream, phrases)
	})

	return g.Wait()
}

func (s *Service) streamAudio(ctx context.Context, audio io.Reader, stream Stream) error {
	if err := stream.SendConfig(); err != nil {
		return oops.In("voice").Wrapf(err, "failed to send audio config")
	}

	buffer := make([]byte, bufferSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			n, err := audio.Read(buffer)
			if errors.Is(err, io.EOF) {
				return errAudioEnded
			}
			if err != nil {
				return oops.In("voice").Wrapf(err, "failed to read audio")
			}

			if n == 0 {
				continue
			}

			if err = stream.Send(buffer[:n]); err != nil {
				return oops.In("voice").Wrapf(err, "failed to send audio")
			}
		}
	}
}

func (s *Service) receivePhrases(ctx context.Context, stream Stream, phrases *transcript) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res, err := stream.Recv()
		if err != nil {
			return err
		}

		if res == nil {
			continue
		}

		s.input.SetInput(phrases.update(res.Text, res.Final))

		if res.Final {
			slog.Debug("Phrase recognized", "text", res.Text)

			if !s.continuous {
				return errPhraseDone
			}
		}
	}
}
