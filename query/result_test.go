package query

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		page  int
		limit int
		want  Pagination
	}{
		{"partial last page", 47, 1, 20, Pagination{Total: 47, Page: 1, Limit: 20, Pages: 3}},
		{"empty", 0, 1, 20, Pagination{Total: 0, Page: 1, Limit: 20, Pages: 0}},
		{"exact", 40, 2, 20, Pagination{Total: 40, Page: 2, Limit: 20, Pages: 2}},
		{"single", 1, 1, 20, Pagination{Total: 1, Page: 1, Limit: 20, Pages: 1}},
		{"machine learning page 2", 25, 2, 10, Pagination{Total: 25, Page: 2, Limit: 10, Pages: 3}},
		{"past the end", 25, 9, 10, Pagination{Total: 25, Page: 9, Limit: 10, Pages: 3}},
		{"zero limit", 5, 0, 0, Pagination{Total: 5, Page: 1, Limit: 20, Pages: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPagination(tt.total, tt.page, tt.limit))
		})
	}
}

func TestNewResultEncodesEmptyData(t *testing.T) {
	res := NewResult[int](nil, 25, 9, 10)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"pagination":{"total":25,"page":9,"limit":10,"pages":3}}`, string(b))
}

func TestCacheKey(t *testing.T) {
	key := CacheKey(Questions, ParseRequest(url.Values{"category": {"CNN"}, "page": {"2"}, "limit": {"10"}}))
	assert.Equal(t, `questions:{"category":"CNN","limit":"10","order":"DESC","page":"2","sortBy":"id"}`, key)
}

func TestCacheKeyIgnoresNoise(t *testing.T) {
	a := CacheKey(Questions, ParseRequest(url.Values{"category": {"CNN"}}))
	b := CacheKey(Questions, ParseRequest(url.Values{"category": {"CNN"}, "_": {"1700000000"}, "role": {"admin"}}))
	assert.Equal(t, a, b)
}

func TestCacheKeyDistinguishesPaginated(t *testing.T) {
	all := CacheKey(Questions, ParseRequest(url.Values{}))
	paged := CacheKey(Questions, ParseRequest(url.Values{"page": {"1"}}))
	assert.NotEqual(t, all, paged)
	assert.True(t, strings.HasPrefix(all, "questions:"))
}

func TestCacheKeyNormalizesSort(t *testing.T) {
	a := CacheKey(Questions, ParseRequest(url.Values{"sortBy": {"bogus"}, "order": {"desc"}}))
	b := CacheKey(Questions, ParseRequest(url.Values{}))
	assert.Equal(t, a, b)
}
