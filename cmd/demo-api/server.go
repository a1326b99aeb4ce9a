package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/athebyme/gomarket-storefront/pkg/utils"
)

// Формы ответа демо-бэкенда
const (
	envelopeBare = "bare"
	envelopeData = "data"
	envelopeFlat = "flat"
)

// flatPagination описание страницы в camelCase, как у плоского ответа
type flatPagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

// demoServer нарочито простой Product API: понимает только page, limit
// и поиск по названию. Фильтры, сортировку и прочие параметры игнорирует
type demoServer struct {
	products []map[string]interface{}
	envelope string
	logger   interfaces.LoggerPort
}

func newDemoServer(products []map[string]interface{}, envelope string, logger interfaces.LoggerPort) (*demoServer, error) {
	switch envelope {
	case envelopeBare, envelopeData, envelopeFlat:
	default:
		return nil, fmt.Errorf("неизвестная форма ответа %q: ожидается bare, data или flat", envelope)
	}
	return &demoServer{products: products, envelope: envelope, logger: logger}, nil
}

func (s *demoServer) routes(productsPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get(productsPath, s.listProducts)
	return r
}

func (s *demoServer) listProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	matched := s.search(query.Get("search"))

	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	p := utils.NewPagination(page, limit)
	p.SetTotal(len(matched))
	start, end := p.Bounds(len(matched))
	items := matched[start:end]

	s.logger.DebugWithContext(r.Context(), "Демо-запрос товаров",
		interfaces.LogField{Key: "query", Value: r.URL.RawQuery},
		interfaces.LogField{Key: "matched", Value: len(matched)},
		interfaces.LogField{Key: "returned", Value: len(items)},
	)

	render.Status(r, http.StatusOK)
	switch s.envelope {
	case envelopeBare:
		render.JSON(w, r, items)
	case envelopeData:
		render.JSON(w, r, map[string]interface{}{
			"data": map[string]interface{}{
				"products":   items,
				"pagination": p,
			},
		})
	default:
		render.JSON(w, r, map[string]interface{}{
			"products": items,
			"pagination": flatPagination{
				CurrentPage: p.Page,
				TotalPages:  p.TotalPages,
				TotalItems:  p.TotalItems,
			},
		})
	}
}

// search ищет подстроку только в названии, без учета регистра
func (s *demoServer) search(term string) []map[string]interface{} {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.products
	}
	out := make([]map[string]interface{}, 0)
	for _, product := range s.products {
		name, _ := product["name"].(string)
		if strings.Contains(strings.ToLower(name), term) {
			out = append(out, product)
		}
	}
	return out
}
