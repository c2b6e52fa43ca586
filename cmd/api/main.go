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

	"github.com/ariefcatur/go-checkout-session/internal/checkout"
	"github.com/ariefcatur/go-checkout-session/internal/config"
	"github.com/ariefcatur/go-checkout-session/internal/gateway"
	"github.com/ariefcatur/go-checkout-session/internal/httpx"
	kafkax "github.com/ariefcatur/go-checkout-session/internal/kafka"
	"github.com/ariefcatur/go-checkout-session/internal/postgres"
	"github.com/ariefcatur/go-checkout-session/internal/redisx"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Draft storage
	storage, closeStorage, err := openDraftStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("draft storage (%s): %v", cfg.DraftBackend, err)
	}
	defer closeStorage()

	// Session store, recovered before the persister is attached so a
	// half-applied recovery is never written back.
	store := checkout.NewStore()
	if d, ok := checkout.LoadDraft(ctx, storage); ok {
		checkout.Recover(store, d)
		s := store.Snapshot()
		log.Printf("recovered checkout draft: product=%q reference=%q", s.ProductID, s.Reference)
	}
	persister := &checkout.Persister{Storage: storage}
	store.Subscribe(persister.OnChange)

	// Gateway
	gw := gateway.New(gateway.Config{BaseURL: cfg.GatewayBaseURL, Timeout: cfg.GatewayTimeout})

	orch := &checkout.Orchestrator{
		Store:   store,
		Gateway: gw,
		Service: cfg.ServiceName,
	}
	if c, ok := storage.(checkout.DraftClearer); ok {
		orch.Drafts = c
	}

	// Kafka producer (optional)
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, cfg.EventsTopic, 1024)
		prod.Start(ctx)
		orch.Events = &kafkax.CheckoutPublisher{P: prod}
	}

	// Resolve a recovered product against the live catalog
	if store.Snapshot().ProductID != "" {
		rctx, rcancel := context.WithTimeout(ctx, cfg.GatewayTimeout)
		if _, err := orch.Catalog(rctx); err != nil {
			log.Printf("resolve recovered product: %v", err)
		}
		rcancel()
	}

	router := httpx.NewRouter()
	httpx.NewCheckoutHandler(orch).Register(router)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("HTTP listening at %s (gateway=%s drafts=%s)", cfg.HTTPAddr, cfg.GatewayBaseURL, cfg.DraftBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close() // flush queued events & close writer
		prod.WaitClosed()
	}
}

func openDraftStorage(ctx context.Context, cfg config.Config) (checkout.DraftStorage, func(), error) {
	switch cfg.DraftBackend {
	case "memory":
		return &checkout.MemoryDraftStorage{}, func() {}, nil
	case "postgres":
		if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
			return nil, nil, err
		}
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return &postgres.DraftStore{DB: db, Key: cfg.DraftKey}, db.Close, nil
	case "redis", "":
		rdb := redisx.New(cfg.RedisAddr)
		return redisx.NewDraftStore(rdb, cfg.DraftKey), func() { _ = rdb.Close() }, nil
	}
	return nil, nil, errors.New("unknown draft backend")
}
