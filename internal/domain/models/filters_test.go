package models

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParseFilters_CommaHandling(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   []string
	}{
		{"repeated keeps commas", url.Values{"category": {"Клей, плиточный", "gips"}}, []string{"gips", "Клей, плиточный"}},
		{"list alias splits", url.Values{"categories": {"a,b", " c "}}, []string{"a", "b", "c"}},
		{"both merged", url.Values{"category": {"a,b"}, "categories": {"a,b"}}, []string{"a", "a,b", "b"}},
		{"blank dropped", url.Values{"category": {" "}, "categories": {",,"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFilters(tt.values).Categories)
		})
	}
}

func TestFilters_QueryRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[a-zа-я0-9, -]{1,10}`)
		optNumber := func(label string) *float64 {
			if !rapid.Bool().Draw(t, label+"Set") {
				return nil
			}
			v := float64(rapid.IntRange(0, 100000).Draw(t, label)) / 4
			return &v
		}
		f := Filters{
			Categories: rapid.SliceOfN(word, 0, 4).Draw(t, "categories"),
			Brands:     rapid.SliceOfN(word, 0, 3).Draw(t, "brands"),
			PriceMin:   optNumber("priceMin"),
			PriceMax:   optNumber("priceMax"),
			Rating:     optNumber("rating"),
			InStock:    rapid.Bool().Draw(t, "inStock"),
			OnSale:     rapid.Bool().Draw(t, "onSale"),
			IsNew:      rapid.Bool().Draw(t, "isNew"),
		}

		encoded := f.ToQuery().Encode()
		decoded, err := url.ParseQuery(encoded)
		if err != nil {
			t.Fatal(err)
		}
		got := ParseFilters(decoded)
		want := f.Normalize()
		if !assert.ObjectsAreEqual(want, got) {
			t.Fatalf("round trip of %q: got %+v, want %+v", encoded, got, want)
		}
	})
}
