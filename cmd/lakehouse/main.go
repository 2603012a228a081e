package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/datafortress/lakehouse/internal/dal"
	"github.com/datafortress/lakehouse/internal/handler"
	"github.com/datafortress/lakehouse/internal/orchestrator"
	"github.com/datafortress/lakehouse/internal/server"
	"github.com/datafortress/lakehouse/internal/sse"
	"github.com/datafortress/lakehouse/internal/tenant"
)

type App struct {
	logger       *zap.Logger
	settings     Settings
	registry     *sse.Registry
	resolver     *tenant.Resolver
	streamServer *server.StreamServer
	restServer   *server.RESTServer
}

func NewApp(logger *zap.Logger, settings Settings, awsConfig aws.Config) *App {
	registry := sse.NewRegistry(
		logger,
		time.Duration(settings.HeartbeatIntervalSeconds)*time.Second,
	)
	resolver := tenant.NewResolver(settings.TenantHeader, settings.JWTSecret)

	projectStore := dal.NewProjectStore(
		logger,
		dynamodb.NewFromConfig(awsConfig),
		settings.DynamoTable,
	)
	objectStore := dal.NewObjectStore(s3.NewFromConfig(awsConfig), settings.S3Bucket)
	orchestratorClient := orchestrator.NewClient(
		logger,
		eventbridge.NewFromConfig(awsConfig),
		sfn.NewFromConfig(awsConfig),
		settings.EventBusName,
	)

	restServer := server.NewRESTServer(
		logger,
		handler.NewSandboxCallbackHandler(logger, projectStore, registry),
		handler.NewTriggerSyncHandler(logger, orchestratorClient, registry),
		handler.NewRunFlowHandler(logger, orchestratorClient),
		handler.NewProjectsHandler(logger, projectStore),
		handler.NewLayersHandler(logger, objectStore),
		registry,
	)

	websocketUpgrader := &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	streamServer := server.NewStreamServer(logger, registry, websocketUpgrader)

	return &App{
		logger:       logger,
		settings:     settings,
		registry:     registry,
		resolver:     resolver,
		streamServer: streamServer,
		restServer:   restServer,
	}
}

func (a *App) Run(ctx context.Context) {
	notifyCtx, notifyCtxCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer notifyCtxCancel()

	address := fmt.Sprintf("0.0.0.0:%d", a.settings.Port)

	router := mux.NewRouter().
		PathPrefix(a.settings.BasePath).
		Subrouter()
	router.Use(a.resolver.Middleware)

	a.streamServer.Register(router)
	a.restServer.Register(router)

	// Deriving request contexts from the signal context makes the open
	// event streams unwind on shutdown instead of pinning Shutdown until
	// every client disconnects.
	httpServer := &http.Server{
		Addr:        address,
		Handler:     server.CORS(router),
		BaseContext: func(net.Listener) context.Context { return notifyCtx },
	}

	a.logger.Info("starting http server",
		zap.String("address", address))

	go func() {
		err := httpServer.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("failed to start http server",
				zap.Error(err))
		}
	}()

	<-notifyCtx.Done()

	a.logger.Info("stopping http server")

	a.registry.Close()

	shutdownCtx, shutdownCtxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCtxCancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Fatal("http server shutdown failed",
			zap.Error(err))
	}

	a.logger.Info("http server stopped")
}

func main() {
	ctx := context.Background()

	var settings Settings
	_, err := env.UnmarshalFromEnviron(&settings)
	if err != nil {
		bootstrap, _ := zap.NewDevelopment()
		bootstrap.Fatal("failed to parse settings from environment", zap.Error(err))
	}

	logger, err := buildZapLogger(settings.LogEncoding)
	if err != nil {
		bootstrap, _ := zap.NewDevelopment()
		bootstrap.Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal("failed to load aws configuration", zap.Error(err))
	}

	app := NewApp(logger, settings, awsConfig)
	app.Run(ctx)
}
