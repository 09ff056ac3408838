package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/market-insight-engine/internal/bootstrap"
	"github.com/kirillkom/market-insight-engine/internal/config"
)

const reportTimeout = 5 * time.Minute

func main() {
	cfg := config.Load()

	segmentCount := flag.Int("segments", cfg.DefaultSegmentCount, "number of market segments to produce")
	outPath := flag.String("out", cfg.ReportPath, "path of the xlsx report to write")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "report")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	// One-shot run: fit synchronously, analyze, export.
	app.FitVectorizer(ctx)

	runCtx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	analysis, err := app.AnalysisUC.AnalyzeMarketSegments(runCtx, *segmentCount)
	if err != nil {
		log.Fatalf("analysis error: %v", err)
	}
	if !analysis.Success {
		log.Fatalf("analysis unsuccessful: %s", analysis.Message)
	}

	if err := app.Exporter.Export(analysis, *outPath); err != nil {
		log.Fatalf("export error: %v", err)
	}
	log.Printf("report written to %s (%d segments, %d companies)", *outPath, len(analysis.Segments), analysis.TotalCompanies)
}
