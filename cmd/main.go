package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"

	"jsonweblog/config"
	_ "jsonweblog/docs"
	"jsonweblog/internal/broadcast"
	"jsonweblog/internal/controller"
	"jsonweblog/internal/elasticsearch"
	"jsonweblog/internal/kafka"
	"jsonweblog/internal/layoutstore"
	"jsonweblog/internal/metrics"
	"jsonweblog/internal/parser"
	"jsonweblog/internal/repository"
	"jsonweblog/internal/scheduler"
	"jsonweblog/internal/schema"
	"jsonweblog/internal/service"
	"jsonweblog/internal/source"
	"jsonweblog/internal/store"
	"jsonweblog/internal/util"
)

// @title           JSON Web Log API
// @version         1.0
// @description     Ingests newline-delimited JSON logs, keeps a bounded in-memory window and serves it over HTTP and a WebSocket live feed.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @BasePath  /
// @schemes   http

// @tag.name         logs
// @tag.description  Query, clear and inspect the in-memory log window

// @tag.name         schema
// @tag.description  Discovered fields and the column layout

// @tag.name         feed
// @tag.description  WebSocket live feed

// ingestStopWait bounds how long shutdown waits for a read that cannot be
// interrupted, such as a blocked stdin read.
const ingestStopWait = 2 * time.Second

func main() {
	app := fx.New(
		// Core Dependencies
		fx.Provide(
			NewConfig,
			metrics.NewRecorder,
			schema.NewTracker,
			NewRecordStore,
			NewBroadcaster,
			NewNormalizer,
			NewLineSource,
		),
		// Infrastructure Dependencies
		fx.Provide(
			NewGinEngine,
			NewLayoutStore,
			NewArchiveRepository,
			NewSinkService,
		),
		// Services and controllers
		fx.Provide(
			service.NewIngestService,
			service.NewLogQueryService,
			service.NewFeedService,
			service.NewStatsService,
			service.NewLayoutService,
			controller.NewLogController,
			controller.NewSchemaController,
			controller.NewFeedController,
		),
		fx.Invoke(
			ConfigureLogging,
			LoadLayout,
			RegisterAPIRoutes,
			RegisterScheduler,
			StartSinks,
			StartIngestion,
		),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second) // Timeout for startup
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	<-app.Done()

	// Initiate shutdown
	stopCtx, cancelStop := context.WithTimeout(context.Background(), 15*time.Second) // Timeout for graceful shutdown
	defer cancelStop()
	log.Info().Msg("Shutting down application...")
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown due to error or timeout")
		os.Exit(1)
	}
	log.Info().Msg("All background processes finished. Exiting.")
}

func NewConfig() (*config.Config, error) {
	return config.NewConfig()
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	// Add swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// --- Factory Functions ---

func NewRecordStore(cfg *config.Config, tracker schema.Tracker) store.RecordStore {
	return store.NewInMemoryRecordStore(cfg.Store.Capacity, tracker)
}

func NewBroadcaster(lc fx.Lifecycle, cfg *config.Config, recordStore store.RecordStore, recorder metrics.Recorder) broadcast.Broadcaster {
	b := broadcast.NewBroadcaster(recordStore, cfg.Broadcast.QueueSize, recorder)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Int("subscribers", b.SubscriberCount()).Msg("Closing broadcaster")
			b.Close()
			return nil
		},
	})
	return b
}

func NewNormalizer(cfg *config.Config) parser.Normalizer {
	return parser.NewNormalizer(parser.NewFlattener(cfg.Parser.MaxFlattenDepth), nil)
}

func NewLineSource(cfg *config.Config) source.LineSource {
	if cfg.Input.Source == config.InputSourceKafka {
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.LogTopic).Msg("Reading log lines from Kafka")
		return kafka.NewKafkaLineSource(cfg)
	}
	log.Info().Int("max_line_bytes", cfg.Input.MaxLineBytes).Msg("Reading log lines from stdin")
	return source.NewStdinSource(cfg.Input.MaxLineBytes)
}

func NewLayoutStore(lc fx.Lifecycle, cfg *config.Config) (layoutstore.Store, error) {
	if cfg.Layout.Backend != config.LayoutBackendPostgres {
		log.Info().Str("path", cfg.Layout.FilePath).Msg("Using file layout store")
		return layoutstore.NewFileStore(cfg.Layout.FilePath), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	layoutStore, pool, err := layoutstore.NewPostgresStore(ctx, cfg.Postgres.DSN, cfg.Postgres.LayoutTable)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing Postgres pool")
			pool.Close()
			return nil
		},
	})
	return layoutStore, nil
}

// NewArchiveRepository returns nil when archiving is disabled; the query
// service then answers archive searches with ErrArchiveDisabled.
func NewArchiveRepository(cfg *config.Config) (repository.ArchiveRepository, error) {
	if !cfg.Elasticsearch.Enabled {
		return nil, nil
	}
	return elasticsearch.NewElasticsearchArchiveRepository(cfg)
}

// NewSinkService assembles the optional downstream sinks: the Elasticsearch
// archive and the Kafka forwarder.
func NewSinkService(lc fx.Lifecycle, cfg *config.Config, broadcaster broadcast.Broadcaster) (service.SinkService, error) {
	var sinks []service.RecordSink

	if cfg.Elasticsearch.Enabled {
		esClient, err := elasticsearch.NewElasticClient(cfg)
		if err != nil {
			return nil, err
		}
		archive, err := elasticsearch.NewElasticRecordArchive(cfg, esClient)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info().Msg("Closing Elasticsearch archive")
				return archive.Close(ctx)
			},
		})
		sinks = append(sinks, service.NewSink("elasticsearch", archive.StoreRecords))
	}

	if cfg.Kafka.ForwardTopic != "" {
		forwarder, err := kafka.NewKafkaRecordForwarder(cfg)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info().Msg("Closing Kafka forwarder")
				return forwarder.Close()
			},
		})
		sinks = append(sinks, service.NewSink("kafka", forwarder.Forward))
	}

	return service.NewSinkService(broadcaster, cfg.Broadcast.QueueSize, sinks...), nil
}

// --- Invoker Functions ---

func ConfigureLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func LoadLayout(lc fx.Lifecycle, layoutService service.LayoutService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := layoutService.Load(ctx); err != nil {
				log.Warn().Err(err).Msg("Could not load saved layout, starting without one")
			}
			return nil
		},
	})
}

func RegisterAPIRoutes(
	lifecycle fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	recorder metrics.Recorder,
	logController *controller.LogController,
	schemaController *controller.SchemaController,
	feedController *controller.FeedController,
) {
	controller.RegisterLogRoutes(router, logController)
	controller.RegisterSchemaRoutes(router, schemaController)
	controller.RegisterFeedRoutes(router, feedController)
	router.GET("/metrics", gin.WrapH(recorder.Handler()))

	// The WebSocket upgrade must reach gin without the gzip wrapper.
	mux := http.NewServeMux()
	mux.Handle("/ws", router)
	mux.Handle("/", gzhttp.GzipHandler(router))

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			listener, port, err := util.ListenFirstFree("", cfg.Server.Port, cfg.Server.PortAttempts)
			if err != nil {
				return fmt.Errorf("start HTTP server: %w", err)
			}
			if port != cfg.Server.Port {
				log.Warn().Int("requested", cfg.Server.Port).Int("port", port).Msg("Requested port in use, using next free port")
			}
			log.Info().Msgf("Starting HTTP server on http://localhost:%d", port)
			go func(l net.Listener) {
				if err := server.Serve(l); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("HTTP server Serve error")
				}
			}(listener)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Shutting down HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}

func RegisterScheduler(lc fx.Lifecycle, cfg *config.Config, statsSvc service.StatsService) error {
	_, err := scheduler.NewScheduler(lc, cfg, statsSvc)
	return err
}

func StartSinks(lc fx.Lifecycle, sinkService service.SinkService) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			sinkService.Start(context.Background())
			return nil
		},
		OnStop: func(context.Context) error {
			log.Info().Msg("Stopping record sinks...")
			sinkService.Stop()
			return nil
		},
	})
}

// StartIngestion runs the ingestion loop in a goroutine managed by the fx
// lifecycle. End of input either keeps the server running or, with
// INPUT_EXIT_ON_EOF, shuts the application down.
func StartIngestion(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	ingestService service.IngestService,
	lineSource source.LineSource,
) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info().Msg("Starting ingestion goroutine")
			go func() {
				defer close(done)
				err := ingestService.Run(ctx)
				switch {
				case err == nil:
					if cfg.Input.ExitOnEOF {
						log.Info().Msg("Input exhausted, shutting down")
						_ = shutdowner.Shutdown()
						return
					}
					log.Info().Msg("Input exhausted, still serving stored logs")
				case errors.Is(err, context.Canceled):
				default:
					log.Error().Err(err).Msg("Ingestion failed")
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			log.Info().Msg("Signaling ingestion goroutine to stop...")
			cancel()
			if err := lineSource.Close(); err != nil {
				log.Debug().Err(err).Msg("Closing line source")
			}
			select {
			case <-done:
			case <-time.After(ingestStopWait):
				log.Warn().Msg("Ingestion goroutine still blocked on input, not waiting")
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
