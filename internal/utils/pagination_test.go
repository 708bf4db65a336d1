package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.pageSize), "%d/%d", tt.total, tt.pageSize)
	}
}

func TestLastPageHoldsRemainder(t *testing.T) {
	for n := int64(1); n <= 50; n++ {
		for size := 1; size <= 12; size++ {
			pages := TotalPages(n, size)
			remainder := int(n) - PageOffset(pages, size)
			assert.True(t, remainder >= 1 && remainder <= size, "n=%d size=%d remainder=%d", n, size, remainder)
		}
	}
}

func TestGeneratePagination(t *testing.T) {
	assert.Nil(t, GeneratePagination(1, 1))
	assert.Nil(t, GeneratePagination(1, 0))

	p := GeneratePagination(5, 10)
	require.NotNil(t, p)
	assert.True(t, p.HasPrev)
	assert.True(t, p.HasNext)
	assert.Equal(t, 4, p.PrevPage)
	assert.Equal(t, 6, p.NextPage)

	var numbers []int
	for _, pg := range p.Pages {
		numbers = append(numbers, pg.Number)
		if pg.Number == 5 {
			assert.False(t, pg.IsLink)
		}
	}
	assert.Equal(t, []int{1, 0, 3, 4, 5, 6, 7, 0, 10}, numbers)

	first := GeneratePagination(1, 2)
	require.NotNil(t, first)
	assert.False(t, first.HasPrev)
	assert.True(t, first.HasNext)
}
