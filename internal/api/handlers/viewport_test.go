package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/utils"
)

func TestResolveViewport(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		headers map[string]string
		want    models.ViewportClass
	}{
		{name: "по умолчанию", target: "/", want: models.ViewportDesktop},
		{name: "явный класс", target: "/?viewport=Tablet", want: models.ViewportTablet},
		{name: "класс важнее ширины", target: "/?viewport=desktop&width=320", want: models.ViewportDesktop},
		{name: "ширина мобильная", target: "/?width=390", want: models.ViewportMobile},
		{name: "граница планшета", target: "/?width=768", want: models.ViewportTablet},
		{name: "граница десктопа", target: "/?width=1024", want: models.ViewportDesktop},
		{name: "битая ширина пропускается", target: "/?width=NaN", headers: map[string]string{"Viewport-Width": "800"}, want: models.ViewportTablet},
		{name: "client hint", target: "/", headers: map[string]string{"Sec-CH-Viewport-Width": "360"}, want: models.ViewportMobile},
		{name: "отрицательная ширина", target: "/?width=-5", want: models.ViewportDesktop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			got, err := ResolveViewport(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveViewport_Invalid(t *testing.T) {
	_, err := ResolveViewport(httptest.NewRequest(http.MethodGet, "/?viewport=watch", nil))
	assert.ErrorIs(t, err, utils.ErrInvalidViewport)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{utils.ErrEmptySession, http.StatusBadRequest},
		{utils.ErrBrowseNotFound, http.StatusNotFound},
		{utils.ErrNoSavedFilters, http.StatusNotFound},
		{utils.ErrWindowFull, http.StatusConflict},
		{utils.ErrStaleResult, http.StatusConflict},
		{&utils.StatusError{StatusCode: 500}, http.StatusBadGateway},
		{fmt.Errorf("fetch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("fetch: %w", context.Canceled), statusClientClosedRequest},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := classifyError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
