package speechkit

import (
	"context"
	"encoding/json"
	"os"

	"maven/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
	ycsdk "github.com/yandex-cloud/go-sdk"
	"github.com/yandex-cloud/go-sdk/iamkey"
)

// YandexSpeechKit opens streaming recognition sessions against SpeechKit STT v3.
type YandexSpeechKit struct {
	sdk      *ycsdk.SDK
	language string
}

func NewClient(di *do.Injector) (*YandexSpeechKit, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	creds, err := loadCredentials(cfg.Voice.ServiceAccountKey)
	if err != nil {
		return nil, err
	}

	sdk, err := ycsdk.Build(ctx, ycsdk.Config{
		Credentials: creds,
	})
	if err != nil {
		return nil, oops.In("speechkit").Wrapf(err, "failed to create Yandex SDK")
	}

	return &YandexSpeechKit{
		sdk:      sdk,
		language: cfg.Voice.Language,
	}, nil
}

// loadCredentials reads an authorized key file of a service account.
func loadCredentials(path string) (ycsdk.Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.In("speechkit").With("path", path).Wrapf(err, "could not read service account key")
	}

	var key iamkey.Key
	if err = json.Unmarshal(data, &key); err != nil {
		return nil, oops.In("speechkit").With("path", path).Wrapf(err, "could not parse service account key")
	}

	creds, err := ycsdk.ServiceAccountKey(&key)
	if err != nil {
		return nil, oops.In("speechkit").Wrapf(err, "could not create service account credentials")
	}

	return creds, nil
}

func (y *YandexSpeechKit) Start(ctx context.Context) (*Handle, error) {
	ctx, cancel := context.WithCancel(ctx)

	client, err := y.sdk.AI().STTV3().Recognizer().RecognizeStreaming(ctx)
	if err != nil {
		cancel()
		return nil, oops.In("speechkit").Wrapf(err, "failed to open recognition stream")
	}

	return &Handle{
		client:   client,
		cancel:   cancel,
		language: y.language,
	}, nil
}

func (y *YandexSpeechKit) Shutdown() error {
	return y.sdk.Shutdown(context.Background())
}
