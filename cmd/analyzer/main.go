package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/market-insight-engine/internal/bootstrap"
	"github.com/kirillkom/market-insight-engine/internal/config"
	"github.com/kirillkom/market-insight-engine/internal/core/domain"
)

const analysisTimeout = 2 * time.Minute

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "analyzer")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	go app.FitVectorizer(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case <-app.Vectorizer.Ready():
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		default:
			http.Error(w, "vectorizer not ready", http.StatusServiceUnavailable)
		}
	})
	metricsServer := &http.Server{
		Addr:        ":" + cfg.MetricsPort,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	go func() {
		log.Printf("metrics listening on :%s", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics shutdown error: %v", err)
		}
	}()

	log.Printf("analyzer subscribed to %s", cfg.NATSRequestSubject)
	err = app.Queue.SubscribeAnalysisRequests(ctx, func(handlerCtx context.Context, request domain.AnalysisRequest) error {
		analysisCtx, cancel := context.WithTimeout(handlerCtx, analysisTimeout)
		defer cancel()

		segmentCount := request.SegmentCount
		if segmentCount == 0 {
			segmentCount = cfg.DefaultSegmentCount
		}

		started := time.Now()
		analysis, err := app.AnalysisUC.AnalyzeMarketSegments(analysisCtx, segmentCount)
		app.Metrics.RecordAnalysis("analyzer", app.Segmenter.Mode(), time.Since(started), err)
		if err != nil {
			return err
		}
		if !analysis.Success {
			app.Log.Warn("analysis_unsuccessful", "message", analysis.Message)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("analyzer subscribe error: %v", err)
	}
}
