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

	"github.com/ariefcatur/go-checkout-session/internal/config"
	"github.com/ariefcatur/go-checkout-session/internal/httpx"
	kafkax "github.com/ariefcatur/go-checkout-session/internal/kafka"
	"github.com/ariefcatur/go-checkout-session/internal/redisx"
	"github.com/ariefcatur/go-checkout-session/internal/tracker"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &tracker.Service{Redis: rdb, ServiceName: "tracker"}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.TrackerGroup, cfg.EventsTopic, cfg.TrackerWorkers)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("tracker consumer started: group=%s topic=%s workers=%d", cfg.TrackerGroup, cfg.EventsTopic, cfg.TrackerWorkers)
		if err := cons.Start(ctx, svc.HandleCheckoutEvent); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// status read API
	router := httpx.NewRouter()
	(&httpx.TrackerHandler{Statuses: svc}).Register(router)
	srv := &http.Server{Addr: cfg.TrackerHTTP, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("tracker HTTP listening at %s", cfg.TrackerHTTP)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("listen: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumer...")
	cancel()
	<-done

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
}
