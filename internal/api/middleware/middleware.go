package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/athebyme/gomarket-storefront/internal/metrics"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// Заголовки и cookie сессии каталога
const (
	SessionHeader = "X-Catalog-Session"
	SessionCookie = "catalog_session"

	maxSessionIDLength = 128
)

// RequestID добавляет уникальный идентификатор запроса
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), interfaces.CtxRequestID, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger логирует входящие запросы и время их выполнения
func Logger(logger interfaces.LoggerPort) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := NewResponseWriter(w)

			logger.DebugWithContext(r.Context(), "Входящий запрос",
				interfaces.LogField{Key: "method", Value: r.Method},
				interfaces.LogField{Key: "path", Value: r.URL.Path},
				interfaces.LogField{Key: "remote_addr", Value: r.RemoteAddr},
				interfaces.LogField{Key: "user_agent", Value: r.UserAgent()},
			)

			next.ServeHTTP(ww, r)

			logger.InfoWithContext(r.Context(), "Исходящий ответ",
				interfaces.LogField{Key: "method", Value: r.Method},
				interfaces.LogField{Key: "path", Value: r.URL.Path},
				interfaces.LogField{Key: "status", Value: ww.Status()},
				interfaces.LogField{Key: "duration", Value: time.Since(start).String()},
			)
		})
	}
}

// ResponseWriter обертка для отслеживания статус-кода
type ResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

// NewResponseWriter создает новую обертку ResponseWriter
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader записывает статус-код
func (rw *ResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Status возвращает статус-код
func (rw *ResponseWriter) Status() int {
	return rw.statusCode
}

// Recoverer обрабатывает панику в запросах
func Recoverer(logger interfaces.LoggerPort) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.ErrorWithContext(r.Context(), "Паника при обработке запроса",
						interfaces.LogField{Key: "error", Value: fmt.Sprint(rvr)},
						interfaces.LogField{Key: "path", Value: r.URL.Path},
						interfaces.LogField{Key: "method", Value: r.Method},
					)

					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Timeout ограничивает время обработки запроса дедлайном контекста.
// Обработчик и запросы к внешнему API видят отмену и завершаются сами
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if timeout <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CORS добавляет заголовки для Cross-Origin Resource Sharing
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			exact, wildcard := false, false
			for _, allowedOrigin := range allowedOrigins {
				switch allowedOrigin {
				case origin:
					exact = true
				case "*":
					wildcard = true
				}
			}

			// Учетные данные (cookie сессии) разрешены только явно перечисленным источникам
			if origin != "" && (exact || wildcard) {
				h := w.Header()
				if exact {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Add("Vary", "Origin")
				} else {
					h.Set("Access-Control-Allow-Origin", "*")
				}
				h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Request-ID, "+SessionHeader+", Viewport-Width, Sec-CH-Viewport-Width")
				h.Set("Access-Control-Expose-Headers", "X-Request-ID, "+SessionHeader+", Location")
			}

			// Предварительные запросы OPTIONS
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders базовые заголовки безопасности ответа
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// Tracing открывает span OpenTelemetry на запрос и кладет trace_id в контекст.
// Без установленного провайдера span не записывается, trace_id берется из
// X-Trace-ID или генерируется
func Tracing(next http.Handler) http.Handler {
	tracer := otel.Tracer("github.com/athebyme/gomarket-storefront/api")
	propagator := propagation.TraceContext{}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		traceID := ""
		if sc := span.SpanContext(); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		if traceID == "" {
			traceID = r.Header.Get("X-Trace-ID")
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}

		ctx = context.WithValue(ctx, interfaces.CtxTraceID, traceID)
		w.Header().Set("X-Trace-ID", traceID)

		ww := NewResponseWriter(w)
		next.ServeHTTP(ww, r.WithContext(ctx))
		span.SetAttributes(attribute.Int("http.status_code", ww.Status()))
	})
}

// RateLimiter ограничивает частоту запросов с одного IP алгоритмом token bucket.
// Лимитеры неактивных адресов вытесняются через idle
func RateLimiter(perSecond float64, burst int, idle time.Duration) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}
	limiters := cache.New(idle, idle)

	return func(next http.Handler) http.Handler {
		if perSecond <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			var limiter *rate.Limiter
			if v, found := limiters.Get(ip); found {
				limiter = v.(*rate.Limiter)
			} else {
				limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
				if err := limiters.Add(ip, limiter, cache.DefaultExpiration); err != nil {
					// Параллельный запрос уже создал лимитер
					if v, found := limiters.Get(ip); found {
						limiter = v.(*rate.Limiter)
					}
				}
			}

			if !limiter.Allow() {
				retryAfter := int(1/perSecond + 0.999)
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Session определяет сессию каталога по заголовку X-Catalog-Session или
// cookie catalog_session. Если сессии нет, создается новая и выставляется cookie
func Session(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := validSessionID(r.Header.Get(SessionHeader))
			if sessionID == "" {
				if cookie, err := r.Cookie(SessionCookie); err == nil {
					sessionID = validSessionID(cookie.Value)
				}
			}

			if sessionID == "" {
				sessionID = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			w.Header().Set(SessionHeader, sessionID)
			ctx := context.WithValue(r.Context(), interfaces.CtxSessionID, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionID сессия каталога из контекста запроса
func SessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(interfaces.CtxSessionID).(string)
	return sessionID
}

// Metrics собирает HTTP-метрики Prometheus. Путь берется из шаблона маршрута chi,
// чтобы не плодить метки на каждый URL
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.ActiveRequests.Inc()
		defer metrics.ActiveRequests.Dec()

		ww := NewResponseWriter(w)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := strconv.Itoa(ww.Status())

		metrics.HTTPDurations.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
		metrics.RequestsCounter.WithLabelValues(path, r.Method, status).Inc()
	})
}

func validSessionID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxSessionIDLength {
		return ""
	}
	for _, c := range value {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ""
		}
	}
	return value
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
