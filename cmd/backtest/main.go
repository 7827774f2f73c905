package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kbxbnb/BnBot/internal/backtest"
	"github.com/kbxbnb/BnBot/internal/config"
	"github.com/kbxbnb/BnBot/internal/engine"
	"github.com/kbxbnb/BnBot/internal/logger"
	"github.com/kbxbnb/BnBot/internal/market"
	"github.com/kbxbnb/BnBot/internal/news"
	"github.com/kbxbnb/BnBot/internal/sentiment"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	startStr := flag.String("start", "", "range start (YYYY-MM-DD)")
	endStr := flag.String("end", "", "range end (YYYY-MM-DD)")
	tickersCSV := flag.String("tickers", "", "optional comma-separated ticker filter")
	rvol := flag.Float64("rvol", 0, "override RVOL threshold")
	outDir := flag.String("out", "data", "output directory")
	flag.Parse()

	if *startStr == "" || *endStr == "" {
		fmt.Fprintln(os.Stderr, "usage: backtest -start YYYY-MM-DD -end YYYY-MM-DD [-tickers AAPL,TSLA] [-rvol 1.5]")
		os.Exit(2)
	}
	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad start date: %v\n", err)
		os.Exit(2)
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad end date: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *rvol > 0 {
		cfg.Trading.RvolThreshold = *rvol
	}
	log := logger.New(cfg.Logging.Level)

	var tickers []string
	if *tickersCSV != "" {
		for _, t := range strings.Split(*tickersCSV, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, strings.ToUpper(t))
			}
		}
	}

	scorer := sentiment.NewChain(sentiment.NewLLMScorer(cfg, log), sentiment.NewLexiconScorer())
	rules := engine.EntryRules{
		RvolThreshold:      cfg.Trading.RvolThreshold,
		RvolWindow:         cfg.Trading.RvolWindow,
		ResistanceLookback: cfg.Trading.ResistanceLookback,
	}
	runner := backtest.NewRunner(
		news.NewClient(cfg, log),
		market.NewClient(cfg, log),
		scorer,
		rules,
		cfg.Trading.BarTimeframe,
		log,
	)

	trades, err := runner.Run(context.Background(), start, end, tickers)
	if err != nil {
		log.Error("backtest failed", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Error("create output dir", "error", err)
		os.Exit(1)
	}
	csvPath := filepath.Join(*outDir, fmt.Sprintf("backtest_%s_%s.csv", *startStr, *endStr))
	if err := writeCSV(csvPath, trades); err != nil {
		log.Error("write csv", "error", err)
		os.Exit(1)
	}
	log.Info("results written", "path", csvPath, "rows", len(trades))

	summary := backtest.Summarize(trades)
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}

func writeCSV(path string, trades []backtest.SimTrade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"ticker", "headline", "sentiment", "score", "source", "entry_price", "exit_price", "roi", "result", "reason"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range trades {
		row := []string{
			t.Ticker,
			t.Headline,
			t.Sentiment,
			strconv.FormatFloat(t.SentimentScore, 'f', 4, 64),
			t.SentimentSource,
			formatPtr(t.EntryPrice),
			formatPtr(t.ExitPrice),
			formatPtr(t.ROI),
			t.Result,
			t.Reason,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
