package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagination(t *testing.T) {
	p := NewPagination(0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.GetLimit())

	p = NewPagination(3, 8)
	p.SetTotal(20)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 16, p.GetOffset())
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrev)

	start, end := p.Bounds(20)
	assert.Equal(t, 16, start)
	assert.Equal(t, 20, end)
}

func TestPagination_BoundsPastEnd(t *testing.T) {
	p := NewPagination(5, 10)
	p.SetTotal(12)

	start, end := p.Bounds(12)
	assert.Equal(t, 12, start)
	assert.Equal(t, 12, end)
	assert.False(t, p.HasNext)
}
