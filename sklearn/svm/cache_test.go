package svm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(data []float64, from, col int) {
	for j := from; j < len(data); j++ {
		data[j] = float64(10*col + j)
	}
}

func TestColumnCacheLRU(t *testing.T) {
	// A zero budget still holds two full columns.
	c := newColumnCache(4, 0)

	data, start := c.get(0, 4)
	assert.Equal(t, 0, start)
	fill(data, start, 0)

	data, start = c.get(0, 4)
	assert.Equal(t, 4, start, "a cached column needs no filling")
	assert.Equal(t, []float64{0, 1, 2, 3}, data[:4])

	data, start = c.get(1, 4)
	fill(data, start, 1)
	assert.Equal(t, 2, c.cachedColumns())

	// Column 0 is least recently used and gets evicted.
	data, start = c.get(2, 4)
	fill(data, start, 2)
	assert.Equal(t, 2, c.cachedColumns())
	assert.Nil(t, c.heads[0].data)
	assert.NotNil(t, c.heads[1].data)

	// Touching 1 makes 2 the next victim.
	c.get(1, 4)
	c.get(3, 4)
	assert.Nil(t, c.heads[2].data)
	assert.NotNil(t, c.heads[1].data)
}

func TestColumnCacheExtendsShortColumn(t *testing.T) {
	c := newColumnCache(4, 1)

	data, start := c.get(0, 2)
	require.Equal(t, 0, start)
	fill(data, start, 0)

	data, start = c.get(0, 4)
	assert.Equal(t, 2, start, "only the missing tail is filled")
	assert.Equal(t, []float64{0, 1}, data[:2])
}

func TestColumnCacheSwap(t *testing.T) {
	c := newColumnCache(4, 1)

	data, start := c.get(0, 4)
	fill(data, start, 0)
	short, start := c.get(2, 1)
	fill(short, start, 2)

	c.swap(0, 3)

	// Column 0 moved to slot 3 with its rows 0 and 3 exchanged.
	assert.Nil(t, c.heads[0].data)
	assert.Equal(t, []float64{3, 1, 2, 0}, c.heads[3].data)
	// Column 2 held only row 0 and cannot represent the swap.
	assert.Nil(t, c.heads[2].data)
	assert.Equal(t, 1, c.cachedColumns())

	c.swap(1, 1)
	assert.Equal(t, 1, c.cachedColumns())
}
