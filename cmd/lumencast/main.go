package main

import (
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lumencast/lumencast/app/controllers"
	"github.com/lumencast/lumencast/app/repository"
	"github.com/lumencast/lumencast/internal/pkg/archive"
	"github.com/lumencast/lumencast/internal/pkg/billing"
	"github.com/lumencast/lumencast/internal/pkg/cache"
	"github.com/lumencast/lumencast/internal/pkg/chat"
	"github.com/lumencast/lumencast/internal/pkg/database"
	"github.com/lumencast/lumencast/internal/pkg/entitlements"
	"github.com/lumencast/lumencast/internal/pkg/env"
	"github.com/lumencast/lumencast/internal/pkg/events"
	"github.com/lumencast/lumencast/internal/pkg/ledger"
	"github.com/lumencast/lumencast/internal/pkg/live"
	"github.com/lumencast/lumencast/internal/pkg/maintenance"
	"github.com/lumencast/lumencast/internal/pkg/mediatransport"
	"github.com/lumencast/lumencast/internal/pkg/presence"
	"github.com/lumencast/lumencast/internal/pkg/router"
	"github.com/lumencast/lumencast/internal/pkg/tiers"
)

func main() {
	app, mgr := NewApplication()

	// stop background workers on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		mgr.Stop()
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	stdlog.Fatal(err)
}

func NewApplication() (*fiber.App, *maintenance.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitGlobalFactory(database.GetDB())
	repos := repository.GetGlobalFactory().GetRepositories()

	publisher := events.NewRedisPublisher(cache.GetClient())

	var archiver live.TranscriptArchiver
	archiveCfg, err := archive.LoadConfig()
	if err != nil {
		log.Warnf("[Archive] configuration invalid, transcript archival disabled: %v", err)
	} else if archiveCfg.IsEnabled() {
		archiveClient, err := archive.NewClient(archiveCfg, repos.Chat)
		if err != nil {
			log.Warnf("[Archive] client setup failed, transcript archival disabled: %v", err)
		} else {
			archiver = archiveClient
		}
	}

	tierRegistry := tiers.NewRegistry(repos.Tier)
	subscriptionLedger := ledger.NewService(repos.Subscription, repos.Tier)
	resolver := entitlements.NewResolver(repos.Subscription)
	liveManager := live.NewManager(repos.Session, mediatransport.NewHTTPProviderFromEnv(), publisher, archiver)
	presenceTracker := presence.NewTracker(repos.Session, repos.Presence, publisher)
	chatGateway := chat.NewGateway(repos.Session, repos.Chat, resolver, publisher)
	billingService := billing.NewService(repos.WebhookEvent, subscriptionLedger)

	maintenanceManager := maintenance.NewManager(subscriptionLedger)
	maintenanceManager.Start()

	controllers.Setup(controllers.Services{
		Live:         liveManager,
		Tiers:        tierRegistry,
		Ledger:       subscriptionLedger,
		Entitlements: resolver,
		Presence:     presenceTracker,
		Chat:         chatGateway,
		Billing:      billingService,
		Maintenance:  maintenanceManager,
	})

	app := fiber.New(fiber.Config{
		AppName: "LumenCast",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app, maintenanceManager
}
