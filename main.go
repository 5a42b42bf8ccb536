package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sautihealth/sauti/api"
	"github.com/sautihealth/sauti/broadcast"
	"github.com/sautihealth/sauti/config"
	"github.com/sautihealth/sauti/content"
	"github.com/sautihealth/sauti/conversion"
	"github.com/sautihealth/sauti/datastore"
	"github.com/sautihealth/sauti/delivery"
	"github.com/sautihealth/sauti/quality"
	"github.com/sautihealth/sauti/scheduler"
	"github.com/sautihealth/sauti/speech"
	"github.com/sautihealth/sauti/translate"
	"github.com/sautihealth/sauti/webhooks"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	// File-backed state
	subscriberStore := datastore.NewSubscriberStore(cfg.Storage.SubscriberPath)
	cursorStore := datastore.NewCursorStore(cfg.Content.CursorPath)

	if len(cfg.Content.PrimaryURLs) != 2 {
		log.Fatalf("Config requires exactly two primary content URLs, got %d", len(cfg.Content.PrimaryURLs))
	}

	// Content fallback chain
	contentChain := content.NewChain(
		content.NewWebSource(sourceName(cfg.Content.PrimaryURLs[0]), cfg.Content.PrimaryURLs[0], nil),
		content.NewWebSource(sourceName(cfg.Content.PrimaryURLs[1]), cfg.Content.PrimaryURLs[1], nil),
		buildFallbacks(cfg.Content, cursorStore),
		nil,
	)

	// Translation and speech synthesis
	translator := translate.NewNLLBClient(cfg.Inference)
	converter, err := conversion.NewConverter()
	if err != nil {
		log.Fatalf("Converter setup failed: %v", err)
	}
	synthesizer, err := speech.NewMMSClient(cfg.Inference, cfg.Storage.AudioDir, converter)
	if err != nil {
		log.Fatalf("Synthesizer setup failed: %v", err)
	}

	// Delivery channel and eligibility policy
	twilioProvider := delivery.NewTwilioProvider(cfg.Delivery)
	deliveryService := delivery.NewService(twilioProvider, subscriberStore, cfg.Delivery.RequireChannelHistoryEnabled())

	orchestrator := broadcast.NewOrchestrator(
		contentChain,
		translator,
		synthesizer,
		quality.NewGate(),
		deliveryService,
		cfg.Server.PublicURL,
		cfg.Storage.AudioDir,
		cfg.Server.AppName,
	)

	inboundHandler := webhooks.NewInboundMessageHandler(deliveryService, orchestrator, cfg.Server.AppName)
	broadcastScheduler := scheduler.New(orchestrator, cfg.Scheduler)

	router := api.SetupRoutes(inboundHandler, broadcastScheduler, cfg.Server.AppName, cfg.Storage.AudioDir)

	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	defer cancelScheduler()
	go broadcastScheduler.Run(schedulerCtx)

	startServer(cfg.Server.Port, router, cancelScheduler)
}

// buildFallbacks assembles the lower tiers of the content chain: keyword-
// filtered feeds, then the curated CSV rotation.
func buildFallbacks(cfg config.ContentConfig, cursorStore *datastore.CursorStore) []content.Fetcher {
	fallbacks := make([]content.Fetcher, 0, len(cfg.FeedURLs)+1)
	for _, feedURL := range cfg.FeedURLs {
		name := fmt.Sprintf("Feed-%s", sourceName(feedURL))
		fallbacks = append(fallbacks, content.NewFeedSource(name, feedURL, cfg.Keyword))
	}
	fallbacks = append(fallbacks, content.NewCSVSource(cfg.CSVPath, cursorStore))
	return fallbacks
}

// sourceName derives a human-readable source label from a URL host.
func sourceName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

func startServer(port string, router http.Handler, cancelScheduler context.CancelFunc) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal // Block until signal received
	log.Println("Shutdown signal received, initiating graceful shutdown...")
	cancelScheduler()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
