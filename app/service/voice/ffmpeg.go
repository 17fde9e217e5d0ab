package voice

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/samber/oops"
)

// AudioSource opens a 16 kHz mono LINEAR16 PCM stream.
type AudioSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FFmpegSource captures a local input device with ffmpeg.
type FFmpegSource struct {
	Format string
	Input  string
}

func (f *FFmpegSource) Open(ctx context.Context) (io.ReadCloser, error) {
	args := []string{
		"-loglevel", "warning",
		"-f", f.Format,
		"-i", f.Input,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	slog.Info("Running ffmpeg", "cmd", "ffmpeg "+strings.Join(args, " "))

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, oops.In("voice").Wrapf(err, "failed to create stdout pipe")
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, oops.In("voice").Wrapf(err, "failed to create stderr pipe")
	}

	if err = cmd.Start(); err != nil {
		return nil, oops.In("voice").Wrapf(err, "failed to start ffmpeg")
	}

	go logStderr(stderr)

	return &ffmpegStream{cmd: cmd, stdout: stdout}, nil
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	once   sync.Once
}

func (f *ffmpegStream) Read(p []byte) (int, error) {
	return f.stdout.Read(p)
}

// Close kills the capture and reaps the process.
func (f *ffmpegStream) Close() error {
	f.once.Do(func() {
		if f.cmd.Process != nil {
			_ = f.cmd.Process.Kill()
		}
		_ = f.cmd.Wait()
	})

	return nil
}

func logStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		slog.Debug("ffmpeg", "stderr", scanner.Text())
	}
}
