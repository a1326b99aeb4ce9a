package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
)

const sampleProducts = `[
	{"id": 1, "name": "Цемент М500", "brand": {"name": "Евроцемент"}, "price": 520},
	{"id": "2", "name": "Клей плиточный", "brand": "Ceresit", "price": "по запросу"}
]`

func productsJSON(t *testing.T, products []models.Product) string {
	t.Helper()
	raw, err := json.Marshal(products)
	require.NoError(t, err)
	return string(raw)
}

func TestNormalize_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    EnvelopeKind
		count   int
	}{
		{"bare list", sampleProducts, EnvelopeBareList, 2},
		{"nested data", `{"data": {"products": ` + sampleProducts + `}}`, EnvelopeNested, 2},
		{"flat products", `{"products": ` + sampleProducts + `}`, EnvelopeFlat, 2},
		{"data without products", `{"data": {"items": []}}`, EnvelopeUnknown, 0},
		{"products not a list", `{"products": {"id": 1}}`, EnvelopeUnknown, 0},
		{"null", `null`, EnvelopeUnknown, 0},
		{"broken json", `{"products": [`, EnvelopeUnknown, 0},
		{"empty body", ``, EnvelopeUnknown, 0},
	}

	var reference string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, DetectEnvelope([]byte(tt.payload)).Kind)

			page := Normalize([]byte(tt.payload), 1)
			require.NotNil(t, page.Products)
			assert.Len(t, page.Products, tt.count)

			if tt.count > 0 {
				got := productsJSON(t, page.Products)
				if reference == "" {
					reference = got
				}
				assert.JSONEq(t, reference, got)
			}
		})
	}
}

func TestNormalize_PaginationPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    models.Pagination
	}{
		{
			name:    "inner pagination wins",
			payload: `{"data": {"products": [], "pagination": {"currentPage": 2, "totalPages": 5, "totalItems": 41}}, "pagination": {"currentPage": 9}}`,
			want:    models.Pagination{CurrentPage: 2, TotalPages: 5, TotalItems: 41},
		},
		{
			name:    "top level pagination for nested data",
			payload: `{"data": {"products": []}, "pagination": {"page": 3, "pages": 4, "total": 30}}`,
			want:    models.Pagination{CurrentPage: 3, TotalPages: 4, TotalItems: 30},
		},
		{
			name:    "flat with snake case",
			payload: `{"products": [], "pagination": {"current_page": 1, "total_pages": 2, "total_items": 10}}`,
			want:    models.Pagination{CurrentPage: 1, TotalPages: 2, TotalItems: 10},
		},
		{
			name:    "synthesized for bare list",
			payload: `[]`,
			want:    models.Pagination{CurrentPage: 7, TotalPages: 1, TotalItems: 0},
		},
		{
			name:    "pagination not an object",
			payload: `{"products": [], "pagination": "n/a"}`,
			want:    models.Pagination{CurrentPage: 7, TotalPages: 1, TotalItems: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize([]byte(tt.payload), 7).Pagination)
		})
	}
}

func TestNormalize_SkipsNonObjects(t *testing.T) {
	page := Normalize([]byte(`[1, {"id": 10}, "x", null, [2], {"id": 11}]`), 1)

	require.Len(t, page.Products, 2)
	assert.Equal(t, "10", page.Products[0].ID())
	assert.Equal(t, "11", page.Products[1].ID())
}

func TestNormalize_Idempotent(t *testing.T) {
	payload := `{"data": {"products": ` + sampleProducts + `, "pagination": {"currentPage": 2, "totalPages": 3, "totalItems": 20}}}`
	first := Normalize([]byte(payload), 1)

	raw, err := json.Marshal(first)
	require.NoError(t, err)
	second := Normalize(raw, 5)

	assert.Equal(t, first.Pagination, second.Pagination)
	assert.JSONEq(t, productsJSON(t, first.Products), productsJSON(t, second.Products))
}

func TestNormalize_ShapesAgreeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "n")
		items := make([]string, n)
		for i := range items {
			name := rapid.StringMatching(`[a-zA-Zа-яА-Я ]{0,12}`).Draw(t, fmt.Sprintf("name%d", i))
			price := rapid.IntRange(0, 10000).Draw(t, fmt.Sprintf("price%d", i))
			items[i] = fmt.Sprintf(`{"id": %d, "name": %q, "price": %d}`, i, name, price)
		}
		list := "[" + strings.Join(items, ",") + "]"

		bare := Normalize([]byte(list), 1)
		nested := Normalize([]byte(`{"data": {"products": `+list+`}}`), 1)
		flat := Normalize([]byte(`{"products": `+list+`}`), 1)

		if bare.Products == nil || nested.Products == nil || flat.Products == nil {
			t.Fatal("nil product list")
		}
		want := mustJSON(t, bare.Products)
		if got := mustJSON(t, nested.Products); got != want {
			t.Fatalf("nested: %s != %s", got, want)
		}
		if got := mustJSON(t, flat.Products); got != want {
			t.Fatalf("flat: %s != %s", got, want)
		}
	})
}

func mustJSON(t *rapid.T, v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(raw)
}
