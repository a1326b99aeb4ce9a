package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/utils"
)

// Client hints с шириной окна браузера
var viewportWidthHeaders = []string{"Sec-CH-Viewport-Width", "Viewport-Width"}

// ResolveViewport класс экрана запроса: параметр viewport, затем width,
// затем client hints, иначе desktop. Некорректный viewport дает ошибку,
// некорректная ширина пропускается
func ResolveViewport(r *http.Request) (models.ViewportClass, error) {
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("viewport")); raw != "" {
		viewport, ok := models.ParseViewport(raw)
		if !ok {
			return "", utils.ErrInvalidViewport
		}
		return viewport, nil
	}

	if width, ok := parseWidth(query.Get("width")); ok {
		return models.ClassifyWidth(width), nil
	}

	for _, header := range viewportWidthHeaders {
		if width, ok := parseWidth(r.Header.Get(header)); ok {
			return models.ClassifyWidth(width), nil
		}
	}

	return models.ViewportDesktop, nil
}

func parseWidth(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	width, err := strconv.Atoi(raw)
	if err != nil || width <= 0 {
		return 0, false
	}
	return width, true
}
