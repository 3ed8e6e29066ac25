// README: Entry point; loads config, wires services, starts the HTTP server and the wallet reconciler.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"gazflow/internal/ai"
	"gazflow/internal/config"
	"gazflow/internal/events"
	httptransport "gazflow/internal/http"
	"gazflow/internal/infra"
	"gazflow/internal/modules/dispatch"
	"gazflow/internal/modules/insights"
	"gazflow/internal/modules/order"
	"gazflow/internal/modules/pricing"
	"gazflow/internal/modules/profile"
	"gazflow/internal/modules/relay"
	"gazflow/internal/modules/tracking"
	"gazflow/internal/modules/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("GAZFLOW_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}

	if cfg.DB.Migrate {
		if err := infra.Migrate(ctx, cfg.DB.DSN); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}
	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	hub := relay.NewRedisHub(redisClient)
	notifier := relay.NewNotifier(hub)

	publisher := events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer publisher.Close()

	driverIndex := dispatch.NewIndex(redisClient)
	profileSvc := profile.NewService(profile.NewStore(dbPool), driverIndex, notifier)

	pricingSvc := pricing.NewService(pricing.NewStore(dbPool), cfg.Region, cfg.Order.Currency)
	walletSvc := wallet.NewService(wallet.NewStore(dbPool), cfg.Wallet)

	orderSvc := order.NewService(order.ServiceDeps{
		Store:    order.NewStore(dbPool),
		Pricing:  pricingSvc,
		Wallet:   walletSvc,
		Notifier: notifier,
		Events:   publisher,
		Config:   cfg.Order,
	})
	dispatchSvc := dispatch.NewService(orderSvc, profileSvc, driverIndex)
	projector := tracking.NewProjector(orderSvc, profileSvc, cfg.Tracking.MaxAge)

	var summarizer ai.Summarizer
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiSummarizer(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Printf("gemini disabled: %v", err)
		} else {
			defer gemini.Close()
			summarizer = gemini
		}
	}
	insightsSvc := insights.NewService(insights.NewStore(dbPool), summarizer, cfg.Order.Currency)

	gin.SetMode(gin.ReleaseMode)
	handler := httptransport.NewServer(httptransport.ServerDeps{
		Verifier:       verifier,
		Profiles:       profileSvc,
		Orders:         orderSvc,
		Dispatch:       dispatchSvc,
		Tracking:       projector,
		Wallet:         walletSvc,
		Catalog:        pricingSvc,
		Insights:       insightsSvc,
		Hub:            hub,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on %s", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		walletSvc.RunReconciler(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
