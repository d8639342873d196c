package bootstrap

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"wordgame-service/config"
	"wordgame-service/internal/roomsync"
	"wordgame-service/pkg/graceful"
)

type App struct {
	config       config.Config
	store        Store
	controller   *roomsync.Controller
	hub          Hub
	fiberApp     *fiber.App
	httpHandlers map[string]interface{}
	wsHandlers   map[string]interface{}
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewApp(config config.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
	app.initDependencies()
	return app
}

func (a *App) initDependencies() {
	a.store = InitStore(a.ctx, a.config)
	a.controller = InitController(a.store, a.config)
	a.hub = InitWebsocket(a.ctx, a.config)
	a.httpHandlers = SetupHTTPHandlers(a.controller)
	a.wsHandlers = SetupWSHandlers(a.controller, a.hub)
	a.fiberApp = SetupServer(a.config, a.httpHandlers, a.wsHandlers)
}

func (a *App) Start() {
	go func() {
		port := a.config.Server.Port
		if err := a.fiberApp.Listen(a.config.Server.Host + ":" + port); err != nil {
			zap.L().Error("Failed to start server", zap.Error(err))
		}
	}()

	zap.L().Info("Server started on port", zap.String("port", a.config.Server.Port), zap.String("store", a.config.Store.Driver))

	defer func() {
		a.cancel()
		if err := a.store.Close(); err != nil {
			zap.L().Error("Failed to close store", zap.Error(err))
		}
	}()

	graceful.WaitForShutdown(a.fiberApp, 5*time.Second, a.ctx)
}
