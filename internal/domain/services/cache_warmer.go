package services

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/athebyme/gomarket-storefront/internal/domain/catalog"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/metrics"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// Refresher перезаписывает закэшированный ответ внешнего API
type Refresher interface {
	Refresh(ctx context.Context, params url.Values) error
}

// Invalidator сбрасывает все закэшированные ответы внешнего API
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CacheWarmerOptions что прогревать: первые Pages страниц каталога без фильтров
// для каждого класса экрана и сортировки
type CacheWarmerOptions struct {
	Pages       int
	Concurrency int
	Viewports   []models.ViewportClass
	Sorts       []models.SortKey

	// PurgeOnStart сбросить кэш перед первым циклом, например после смены формата ответа источника
	PurgeOnStart bool
}

// WarmReport итог одного цикла прогрева
type WarmReport struct {
	Requested int
	Warmed    int
	Failed    int
}

// CacheWarmer заранее наполняет кэш ответами, с которых начинается просмотр каталога
type CacheWarmer struct {
	refresher Refresher
	logger    interfaces.LoggerPort
	opts      CacheWarmerOptions
}

func NewCacheWarmer(refresher Refresher, logger interfaces.LoggerPort, opts CacheWarmerOptions) *CacheWarmer {
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if len(opts.Viewports) == 0 {
		opts.Viewports = []models.ViewportClass{models.ViewportMobile, models.ViewportTablet, models.ViewportDesktop}
	}
	if len(opts.Sorts) == 0 {
		opts.Sorts = []models.SortKey{models.SortDefault}
	}
	return &CacheWarmer{refresher: refresher, logger: logger, opts: opts}
}

// Warm выполняет один цикл. Ошибки отдельных запросов считаются в отчете
// и цикл не прерывают; ошибка возвращается только при отмене контекста
func (w *CacheWarmer) Warm(ctx context.Context) (WarmReport, error) {
	start := time.Now()
	defer func() {
		metrics.WarmupDuration.Observe(time.Since(start).Seconds())
	}()

	queries := w.queries()
	var warmed, failed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)

	for _, q := range queries {
		q := q
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			metrics.WarmupActive.Inc()
			defer metrics.WarmupActive.Dec()

			if err := w.refresher.Refresh(gctx, catalog.EncodeParams(q, q.PageSize())); err != nil {
				atomic.AddInt64(&failed, 1)
				metrics.WarmupRequests.WithLabelValues(string(q.Viewport), "error").Inc()
				w.logger.WarnWithContext(gctx, "Ошибка прогрева страницы каталога",
					interfaces.LogField{Key: "viewport", Value: string(q.Viewport)},
					interfaces.LogField{Key: "page", Value: q.Page},
					interfaces.LogField{Key: "error", Value: err.Error()},
				)
				return nil
			}
			atomic.AddInt64(&warmed, 1)
			metrics.WarmupRequests.WithLabelValues(string(q.Viewport), "ok").Inc()
			return nil
		})
	}

	err := g.Wait()
	report := WarmReport{
		Requested: len(queries),
		Warmed:    int(atomic.LoadInt64(&warmed)),
		Failed:    int(atomic.LoadInt64(&failed)),
	}
	if err == nil {
		err = ctx.Err()
	}

	w.logger.InfoWithContext(ctx, "Цикл прогрева кэша завершен",
		interfaces.LogField{Key: "requested", Value: report.Requested},
		interfaces.LogField{Key: "warmed", Value: report.Warmed},
		interfaces.LogField{Key: "failed", Value: report.Failed},
		interfaces.LogField{Key: "duration", Value: time.Since(start).String()},
	)
	return report, err
}

// Purge сбрасывает кэш, если источник это умеет
func (w *CacheWarmer) Purge(ctx context.Context) error {
	inv, ok := w.refresher.(Invalidator)
	if !ok {
		return nil
	}
	if err := inv.Invalidate(ctx); err != nil {
		return fmt.Errorf("сброс кэша каталога: %w", err)
	}
	w.logger.InfoWithContext(ctx, "Кэш каталога сброшен")
	return nil
}

// Run прогревает кэш сразу и затем каждые interval до отмены контекста
func (w *CacheWarmer) Run(ctx context.Context, interval time.Duration) {
	if w.opts.PurgeOnStart {
		if err := w.Purge(ctx); err != nil {
			w.logger.WarnWithContext(ctx, "Не удалось сбросить кэш перед прогревом",
				interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.Warm(ctx); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *CacheWarmer) queries() []models.CatalogQuery {
	out := make([]models.CatalogQuery, 0, len(w.opts.Viewports)*len(w.opts.Sorts)*w.opts.Pages)
	for _, viewport := range w.opts.Viewports {
		for _, sort := range w.opts.Sorts {
			for page := 1; page <= w.opts.Pages; page++ {
				out = append(out, models.CatalogQuery{Sort: sort, Page: page, Viewport: viewport})
			}
		}
	}
	return out
}
