package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/whpcodes/promo-directory/internal/api"
	"github.com/whpcodes/promo-directory/internal/config"
	"github.com/whpcodes/promo-directory/internal/domain"
	"github.com/whpcodes/promo-directory/internal/graph"
	"github.com/whpcodes/promo-directory/internal/ledger"
	"github.com/whpcodes/promo-directory/internal/recommend"
	"github.com/whpcodes/promo-directory/internal/statscache"
	"github.com/whpcodes/promo-directory/internal/storage"
	"github.com/whpcodes/promo-directory/internal/storage/inmemory"
	"github.com/whpcodes/promo-directory/internal/storage/postgres"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	var (
		store   storage.Storage
		healthy func(r *http.Request) error
	)
	if cfg.App.DatabaseURL != "" {
		pg, err := postgres.New(cfg.App.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		store = pg
		healthy = func(r *http.Request) error { return pg.Ping(r.Context()) }
		log.Info().Msg("using postgres storage")
	} else {
		mem := inmemory.New()
		fillWithMockData(mem)
		store = mem
		log.Info().Msg("DATABASE_URL not set, using in-memory storage with seed data")
	}

	var g *graph.Graph
	if cfg.App.UseGraphLinks {
		g, err = graph.Load(cfg.App.GraphPath)
		if err != nil {
			// widgets fall through to the category query until the file shows up
			log.Warn().Err(err).Str("path", cfg.App.GraphPath).Msg("neighbor graph unavailable")
		} else {
			log.Info().Int("nodes", g.Len()).Msg("neighbor graph loaded")
		}
	}

	stats := statscache.New(cfg.App.RedisAddr)
	if stats != nil {
		if err := stats.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, stats cache disabled")
			stats = nil
		}
	}

	srv := &api.Server{
		Store:   store,
		Rec:     recommend.New(g, store, log.Logger),
		Ledger:  ledger.NewReader(cfg.App.PagesDir),
		Stats:   stats,
		Stream:  api.NewCommentStream(),
		Log:     log.Logger,
		Healthy: healthy,
	}

	server := &http.Server{
		Addr:           cfg.Server.Addr(),
		Handler:        srv.Router(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting promo-directory service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited gracefully")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.App.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.With().Str("service", "promo-directory").Logger()
}

// fillWithMockData seeds the in-memory store so the API is browsable in dev
// mode without a database.
func fillWithMockData(s storage.Storage) {
	ctx := context.Background()

	hub, err := s.CreateWhop(ctx, &domain.Whop{
		Name:         "Trading Hub Premium",
		Slug:         "trading-hub-premium",
		Description:  "Signals and community for day traders.",
		Category:     "trading",
		Price:        "$49/mo",
		Rating:       4.6,
		AffiliateURL: "https://whop.com/trading-hub-premium?a=whpcodes",
		Indexable:    true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed: failed to create whop")
	}

	for _, w := range []*domain.Whop{
		{Name: "Signal Pro", Slug: "signal-pro", Category: "trading", Rating: 4.8, Indexable: true},
		{Name: "Deal Den", Slug: "deal-den", Category: "trading", Rating: 4.1, Indexable: true},
		{Name: "Reseller Society", Slug: "reseller-society", Category: "reselling", Rating: 4.3, Indexable: true},
	} {
		if _, err := s.CreateWhop(ctx, w); err != nil {
			log.Fatal().Err(err).Msg("seed: failed to create whop")
		}
	}

	if _, err := s.CreatePromoCode(ctx, &domain.PromoCode{
		WhopID:        hub.ID,
		Code:          "WELCOME20",
		Title:         "20% off the first month",
		DiscountValue: 20,
		DiscountType:  "percentage",
		Active:        true,
	}); err != nil {
		log.Fatal().Err(err).Msg("seed: failed to create promo code")
	}

	if _, err := s.CreateSubmission(ctx, &domain.PromoCodeSubmission{
		WhopID:        &hub.ID,
		Code:          "SAVE30",
		Title:         "30% off, found on Discord",
		DiscountValue: 30,
		DiscountType:  "percentage",
	}); err != nil {
		log.Fatal().Err(err).Msg("seed: failed to create submission")
	}

	post, err := s.CreateBlogPost(ctx, &domain.BlogPost{
		Title:           "How We Verify Promo Codes",
		Slug:            "how-we-verify-promo-codes",
		Content:         "Every code on WHPCodes goes through a checkout test before it is listed.",
		Author:          "editorial",
		Published:       true,
		CommentsEnabled: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed: failed to create blog post")
	}

	if _, err := s.CreateComment(ctx, &domain.Comment{
		PostID:     post.ID,
		AuthorName: "dealhunter",
		Content:    "WELCOME20 worked for me yesterday.",
	}); err != nil {
		log.Fatal().Err(err).Msg("seed: failed to create comment")
	}
}
