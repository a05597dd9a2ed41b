package main

import (
	"coderoom"
	"coderoom/internal/api/handler/endpoints"
	"coderoom/internal/api/models"
	"coderoom/internal/api/service"
	"coderoom/internal/api/websocket"
	"coderoom/internal/runner"
	"coderoom/pkg"
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	coderoom.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)

	if coderoom.GetConfig().Mode == "dev" {
		if err := coderoom.DB.AutoMigrate(
			&models.Room{},
			&models.RoomFile{},
		); err != nil {
			coderoom.Logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		coderoom.Logger.Info().Msg("Database migrated successfully")
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(coderoom.GetConfig().ApiPort))
	pkg.AssertNoError(err)
	defer stop()
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	cfg := coderoom.GetConfig()

	roomService := service.NewRoomService()
	jobRunner := runner.New(
		cfg.RunnerConfig.MaxConcurrent,
		time.Duration(cfg.RunnerConfig.TimeoutSeconds)*time.Second,
		cfg.RunnerConfig.WorkDir,
		coderoom.Logger,
	)

	hub := websocket.NewHub(coderoom.Logger)
	go hub.Run()
	coderoom.Logger.Info().Msg("WebSocket hub started")

	processor := websocket.NewProcessor(roomService, jobRunner, coderoom.Logger)

	if cfg.NatsURL != "" {
		bridge, err := websocket.NewSaveBridge(cfg.NatsURL, hub, coderoom.Logger)
		if err != nil {
			coderoom.Logger.Fatal().Err(err).Msg("Failed to connect save bridge")
		}
		defer bridge.Close()
		if err := bridge.Subscribe(); err != nil {
			coderoom.Logger.Fatal().Err(err).Msg("Failed to subscribe save bridge")
		}
		processor.UseBridge(bridge)
	}

	initAPI(router, hub, processor)

	coderoom.Logger.Debug().Msgf("Starting room API on port %s", cfg.ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		coderoom.Logger.Fatal().Msg(err.Error())
		panic(err)
	}
}

func initAPI(router *graceful.Graceful, hub *websocket.Hub, processor *websocket.Processor) {
	endpoints.RoomHandler(router)
	endpoints.WebSocketHandler(router, hub, processor)
}
