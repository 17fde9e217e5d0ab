package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"maven/app/api"
	"maven/app/client/gemini"
	"maven/app/client/model"
	"maven/app/client/openai"
	"maven/app/client/speechkit"
	"maven/app/config"
	"maven/app/service/actions"
	"maven/app/service/assistant"
	"maven/app/service/braindump"
	"maven/app/service/engine"
	"maven/app/service/mcpserver"
	"maven/app/service/queue"
	"maven/app/service/search"
	"maven/app/service/store"
	"maven/app/service/voice"
	"maven/app/service/workspace"
	"maven/app/util/mylog"

	"github.com/samber/do"
	"github.com/samber/oops"
)

// app owns the injector of one command run.
type app struct {
	ctx    context.Context
	cancel context.CancelFunc
	di     *do.Injector
}

func newApp(configPath string) (*app, error) {
	mylog.Preinit()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	di := do.New()
	do.ProvideValue(di, ctx)

	cfg, err := config.Load(configPath)
	if err != nil {
		cancel()
		return nil, oops.In("cli").Wrapf(err, "config load failed")
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		cancel()
		return nil, oops.In("cli").Wrapf(err, "logging init failed")
	}

	do.Provide(di, store.New)
	do.Provide(di, workspace.New)
	do.Provide(di, newModelClient)
	do.Provide(di, actions.NewRegistry)
	do.Provide(di, queue.New[assistant.Job])
	do.Provide(di, assistant.New)
	do.Provide(di, engine.New)
	do.Provide(di, speechkit.NewClient)
	do.Provide(di, voice.New)
	do.Provide(di, braindump.New)
	do.Provide(di, search.New)
	do.Provide(di, mcpserver.New)
	do.Provide(di, api.New)

	return &app{
		ctx:    ctx,
		cancel: cancel,
		di:     di,
	}, nil
}

// startWorker runs the dispatch worker until the app context is done.
func (a *app) startWorker() error {
	worker, err := do.Invoke[*engine.Service](a.di)
	if err != nil {
		return err
	}

	go worker.Run(a.ctx)

	return nil
}

func (a *app) close() {
	a.cancel()

	if err := a.di.Shutdown(); err != nil {
		slog.Warn("Shutdown finished with errors", "error", err)
	}
}

func newModelClient(di *do.Injector) (model.Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	switch cfg.Model.Provider {
	case "openai":
		client, err := openai.NewClient(di)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		client, err := gemini.NewClient(di)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
