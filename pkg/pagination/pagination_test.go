package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_CoercesInvalidValues(t *testing.T) {
	tests := []struct {
		name         string
		page, size   int
		wantPage     int
		wantPageSize int
		wantOffset   int
	}{
		{"valid", 3, 10, 3, 10, 20},
		{"zero page", 0, 10, 1, 10, 0},
		{"negative page", -5, 10, 1, 10, 0},
		{"zero size", 2, 0, 2, DefaultPageSize, 20},
		{"oversized", 1, 500, 1, MaxPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Normalize(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPageSize, p.PageSize)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/search/available?page=2&pageSize=50", nil)
	p := FromRequest(r)

	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 50, p.PageSize)
	assert.Equal(t, 50, p.Offset)
}

func TestFromRequest_GarbageValues(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=abc&pageSize=-1", nil)
	p := FromRequest(r)

	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
}

func TestNewResult_Metadata(t *testing.T) {
	res := NewResult([]string{"a", "b"}, 45, Normalize(2, 20))

	assert.Equal(t, 45, res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext)
	assert.True(t, res.HasPrevious)
}

func TestNewResult_LastPageAndNilData(t *testing.T) {
	res := NewResult[string](nil, 45, Normalize(3, 20))

	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.False(t, res.HasNext)
	assert.True(t, res.HasPrevious)
}

func TestNewResult_PageBeyondLast(t *testing.T) {
	res := NewResult([]string{}, 45, Normalize(10, 20))

	assert.False(t, res.HasNext)
	assert.Equal(t, 3, res.TotalPages)
}
