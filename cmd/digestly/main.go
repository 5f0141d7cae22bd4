package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/digestly/digestly/pkg/config"
	"github.com/digestly/digestly/pkg/curation"
	"github.com/digestly/digestly/pkg/db"
	"github.com/digestly/digestly/pkg/domain"
	"github.com/digestly/digestly/pkg/llm"
	"github.com/digestly/digestly/pkg/newsletter"
	"github.com/digestly/digestly/pkg/scheduler"
	"github.com/digestly/digestly/pkg/scraper"
	"github.com/digestly/digestly/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"config file path"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Printf("[ERROR] can't load config: %v", err)
		os.Exit(1)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	setupLog(opts.Debug, opts.NoColor, cfg.LLM.APIKey)

	log.Printf("[INFO] starting digestly version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts.Debug); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()
	log.Print("[INFO] shutdown complete")
}

// run wires all components and blocks until the context is canceled
func run(ctx context.Context, cfg *config.Config, debug bool) error {
	database, err := db.New(db.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("can't initialize database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("[WARN] can't close database: %v", err)
		}
	}()

	scrapers := makeScrapers(cfg.GetSourcesConfig())
	if len(scrapers) == 0 {
		log.Printf("[WARN] no sources configured, scraping disabled")
	}

	var enricher scheduler.Enricher
	if cfg.Extraction.Enabled {
		enricher = scraper.NewPageExtractor(cfg.Extraction.Timeout, cfg.Extraction.MinTextLength, cfg.Sources.UserAgent)
	}

	var writer newsletter.Writer
	if cfg.LLM.Model != "" {
		writer = llm.NewWriter(cfg.GetLLMConfig())
		log.Printf("[INFO] LLM drafting enabled with model %s", cfg.LLM.Model)
	} else {
		log.Printf("[INFO] no LLM model configured, using fallback rendering")
	}

	selector := curation.NewSelector(curation.NewScorer(nil))
	generator := newsletter.NewGenerator(database, writer, selector, cfg.GetCurationConfig(), nil)

	sched := scheduler.NewScheduler(database, scrapers, enricher, generator, scheduler.Config{
		ScrapeInterval:   cfg.Schedule.ScrapeInterval,
		GenerateInterval: cfg.Schedule.GenerateInterval,
		MaxWorkers:       cfg.Schedule.MaxWorkers,
	})
	sched.Start(ctx)
	defer sched.Stop()

	srv := server.New(cfg, database, sched, generator, revision, debug)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// makeScrapers builds one scraper per configured source kind
func makeScrapers(sources config.SourcesConfig) []scheduler.Scraper {
	var scrapers []scheduler.Scraper

	if len(sources.Subreddits) > 0 {
		scrapers = append(scrapers, scraper.NewReddit(scraper.RedditConfig{
			Subreddits: sources.Subreddits,
			Limit:      sources.RedditLimit,
			Timeout:    sources.Timeout,
			UserAgent:  sources.UserAgent,
		}))
	}
	if len(sources.Feeds) > 0 {
		scrapers = append(scrapers, scraper.NewRSS(sources.Feeds, domain.SourceRSS, sources.Timeout, sources.UserAgent))
	}
	if len(sources.Blogs) > 0 {
		scrapers = append(scrapers, scraper.NewRSS(sources.Blogs, domain.SourceBlog, sources.Timeout, sources.UserAgent))
	}
	if len(sources.YouTubeChannels) > 0 {
		scrapers = append(scrapers, scraper.NewYouTube(sources.YouTubeChannels, sources.Timeout, sources.UserAgent))
	}

	return scrapers
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
