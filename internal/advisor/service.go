// Package advisor produces spending insights from a text-generation model.
// Any failure degrades to a fixed Portuguese message; it never surfaces an
// error to the caller.
package advisor

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"crediflow/internal/cache"
	"crediflow/internal/core"
	applog "crediflow/internal/log"
	"crediflow/internal/metrics"
)

const (
	MsgNoAPIKey    = "Configure sua API Key para receber insights."
	MsgNoPurchases = "Adicione algumas despesas para que eu possa analisar seu perfil financeiro."
	MsgUnavailable = "Não foi possível gerar insights no momento. Tente novamente mais tarde."
)

const cacheEntries = 64

// Source tells where an answer came from.
type Source string

const (
	SourceGenerated Source = metrics.InsightsGenerated
	SourceCached    Source = metrics.InsightsCached
	SourceFallback  Source = metrics.InsightsFallback
)

type Insights struct {
	Text        string    `json:"text"`
	Source      Source    `json:"source"`
	GeneratedAt time.Time `json:"generatedAt,omitzero"`
}

type Config struct {
	// Timeout bounds one model call.
	Timeout time.Duration
	// TTL is how long an answer for unchanged data is reused.
	TTL time.Duration
}

type Service struct {
	gen     Generator
	cache   *cache.LRUCache[Insights]
	group   singleflight.Group
	timeout time.Duration
	now     func() time.Time
}

// NewService builds the insights service. gen may be nil when no API key is
// configured.
func NewService(gen Generator, cfg Config) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	return &Service{
		gen:     gen,
		cache:   cache.NewLRUCache[Insights](cacheEntries, cfg.TTL),
		timeout: cfg.Timeout,
		now:     time.Now,
	}
}

// Cache exposes the answer cache for periodic cleanup.
func (s *Service) Cache() *cache.LRUCache[Insights] {
	return s.cache
}

// Insights answers for the given cards and purchases. Concurrent requests
// for the same data share one model call.
func (s *Service) Insights(ctx context.Context, cards []core.Card, purchases []core.Purchase) Insights {
	if s.gen == nil {
		return s.fallback(MsgNoAPIKey)
	}
	if len(purchases) == 0 {
		return s.fallback(MsgNoPurchases)
	}

	key := Fingerprint(cards, purchases)
	if cached, ok := s.cache.Get(key); ok {
		cached.Source = SourceCached
		metrics.IncInsights(string(SourceCached))
		return cached
	}

	v, _, _ := s.group.Do(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		start := time.Now()
		text, err := s.gen.Generate(callCtx, BuildPrompt(cards, purchases))
		metrics.ObserveInsightsModel(metrics.Result(err), time.Since(start))
		if err != nil {
			slog.ErrorContext(ctx, "Insights generation failed",
				applog.FieldComponent, applog.ComponentInsights,
				applog.FieldError, err)
			return s.fallback(MsgUnavailable), nil
		}

		res := Insights{Text: text, Source: SourceGenerated, GeneratedAt: s.now().UTC()}
		s.cache.Set(key, res)
		metrics.IncInsights(string(SourceGenerated))
		slog.InfoContext(ctx, "Insights generated",
			applog.FieldComponent, applog.ComponentInsights,
			applog.FieldItems, len(purchases))
		return res, nil
	})
	return v.(Insights)
}

// Invalidate drops every cached answer.
func (s *Service) Invalidate() {
	s.cache.Purge()
}

func (s *Service) fallback(msg string) Insights {
	metrics.IncInsights(string(SourceFallback))
	return Insights{Text: msg, Source: SourceFallback}
}
