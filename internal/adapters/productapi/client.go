// Package productapi HTTP-клиент внешнего Product API
package productapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/athebyme/gomarket-storefront/internal/metrics"
	"github.com/athebyme/gomarket-storefront/internal/utils"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

const (
	tracerName = "github.com/athebyme/gomarket-storefront/productapi"

	// defaultMaxBodySize откатный запрос на 500 товаров укладывается с запасом
	defaultMaxBodySize = 32 << 20
	// maxErrorBody сколько байт тела ошибки попадает в StatusError
	maxErrorBody = 512
)

// Options параметры клиента
type Options struct {
	BaseURL      string
	ProductsPath string
	Timeout      time.Duration

	RateLimit float64 // запросов в секунду, 0 снимает ограничение
	RateBurst int

	MaxRetries    int
	RetryWaitTime time.Duration
	MaxRetryWait  time.Duration

	// MaxBodySize предел тела ответа в байтах, больший ответ считается ошибкой источника
	MaxBodySize int64

	// HTTPClient для тестов; по умолчанию создается клиент с Timeout
	HTTPClient *http.Client
}

// Client обращается к внешнему API с ограничением частоты и повторами на 429/503
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	opts     Options
	logger   interfaces.LoggerPort
	tracer   trace.Tracer
}

var _ interfaces.ProductSourcePort = (*Client)(nil)

// NewClient создает клиента внешнего API
func NewClient(opts Options, logger interfaces.LoggerPort) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("некорректный адрес Product API: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("некорректный адрес Product API: %q", opts.BaseURL)
	}

	path := opts.ProductsPath
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.RateBurst
	if burst < 1 {
		burst = 1
	}

	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}

	return &Client{
		endpoint: base.String() + path,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		opts:     opts,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// FetchProducts выполняет GET с параметрами params и возвращает тело ответа.
// Ошибки транспорта оборачивают utils.ErrUpstreamUnavailable, коды не 2xx
// возвращаются как *utils.StatusError
func (c *Client) FetchProducts(ctx context.Context, params url.Values) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "productapi.FetchProducts",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.url", c.endpoint),
			attribute.String("catalog.page", params.Get("page")),
		),
	)
	defer span.End()

	target := c.endpoint
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rate limiter")
			return nil, fmt.Errorf("ожидание лимита запросов: %w", err)
		}

		body, retryAfter, err := c.do(ctx, target)
		if err == nil {
			span.SetAttributes(attribute.Int("catalog.attempts", attempt+1))
			return body, nil
		}

		var statusErr *utils.StatusError
		if !errors.As(err, &statusErr) || !statusErr.Retryable() || attempt >= c.opts.MaxRetries {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		wait := c.retryWait(attempt, retryAfter)
		metrics.UpstreamRetries.Inc()
		c.logger.WarnWithContext(ctx, "Product API просит повторить запрос",
			interfaces.LogField{Key: "status", Value: statusErr.StatusCode},
			interfaces.LogField{Key: "attempt", Value: attempt + 1},
			interfaces.LogField{Key: "wait", Value: wait.String()},
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			span.RecordError(ctx.Err())
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) do(ctx context.Context, target string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if requestID, ok := ctx.Value(interfaces.CtxRequestID).(string); ok && requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamDurations.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("error").Inc()
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("%w: %v", utils.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	metrics.UpstreamRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()), &utils.StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	// лишний байт отличает ответ ровно на пределе от обрезанного
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodySize+1))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: чтение ответа: %v", utils.ErrUpstreamUnavailable, err)
	}
	if int64(len(body)) > c.opts.MaxBodySize {
		return nil, 0, fmt.Errorf("%w: ответ больше %d байт", utils.ErrUpstreamUnavailable, c.opts.MaxBodySize)
	}
	return body, 0, nil
}

// retryWait время ожидания перед повтором: Retry-After, если сервер его
// прислал, иначе линейно растущая пауза. В обоих случаях не больше MaxRetryWait
func (c *Client) retryWait(attempt int, retryAfter time.Duration) time.Duration {
	wait := retryAfter
	if wait < 0 {
		wait = c.opts.RetryWaitTime * time.Duration(attempt+1)
	}
	if c.opts.MaxRetryWait > 0 && wait > c.opts.MaxRetryWait {
		wait = c.opts.MaxRetryWait
	}
	return wait
}

// parseRetryAfter разбирает Retry-After в секундах или HTTP-дате.
// -1 означает, что заголовка нет или он некорректен
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return -1
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return -1
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return -1
}
