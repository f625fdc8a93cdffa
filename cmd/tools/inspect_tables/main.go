package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kapu/genshin-gacha-api/internal/config"
	"github.com/kapu/genshin-gacha-api/internal/service/gacha"
	"github.com/kapu/genshin-gacha-api/internal/service/wiki"
	"github.com/kapu/genshin-gacha-api/internal/util"
)

// Prints what the locator and parser see on each live page, one table at a
// time. Used when /gacha starts reporting structure changes.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	fetcher := wiki.NewHTTPFetcher(wiki.HTTPFetcherConfig{
		Timeout:   cfg.Wiki.Timeout,
		UserAgent: cfg.Wiki.UserAgent,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	failed := false
	for _, src := range wiki.DefaultSources(cfg.Wiki.HistoryURL, cfg.Wiki.ArchiveURL) {
		fmt.Printf("\n=== %s (%s layout) ===\n%s\n", src.Name, src.Layout, src.URL)

		body, err := fetcher.Fetch(ctx, src)
		if err != nil {
			logger.Error("Fetch failed", zap.String("source", src.Name), zap.Error(err))
			failed = true
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			logger.Error("HTML parse failed", zap.String("source", src.Name), zap.Error(err))
			failed = true
			continue
		}

		tables := wiki.LocateTables(doc, src)
		fmt.Printf("tables located: %d\n", len(tables))
		if len(tables) == 0 {
			fmt.Println("no banner tables matched; check the table selectors")
			failed = true
			continue
		}

		located := make([]gacha.LocatedTable, len(tables))
		for i, table := range tables {
			located[i] = gacha.LocatedTable{Source: src.Name, Index: i, Table: table}
		}

		for i, result := range gacha.ParseTables(located, cfg.Pipeline.ParseWorkers) {
			if result.Err != nil {
				fmt.Printf("#%d  parse error: %v\n", i, result.Err)
				continue
			}
			rec := result.Record
			fmt.Printf("#%d  %s [%s] version=%q key=%s %s ~ %s\n", i, rec.Name, rec.Kind, rec.VersionText, rec.VersionKey, rec.StartTime, rec.EndTime)
			fmt.Printf("     5*: %s\n", strings.Join(rec.FiveStarItems, ", "))
			fmt.Printf("     4*: %s\n", strings.Join(rec.FourStarItems, ", "))
		}
	}

	if failed {
		os.Exit(1)
	}
}
