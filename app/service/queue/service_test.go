package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFO(t *testing.T) {
	q := NewService[string](3)

	require.NoError(t, q.Add("a"))
	require.NoError(t, q.Add("b"))
	require.NoError(t, q.Add("c"))
	assert.ErrorIs(t, q.Add("d"), ErrFull)
	assert.Equal(t, 3, q.Len())

	assert.Equal(t, "a", <-q.Channel())
	assert.Equal(t, "b", <-q.Channel())
	require.NoError(t, q.Add("d"))
	assert.Equal(t, "c", <-q.Channel())
	assert.Equal(t, "d", <-q.Channel())
}

func TestShutdown(t *testing.T) {
	q := NewService[int](1)

	require.NoError(t, q.Shutdown())
	require.NoError(t, q.Shutdown())

	assert.ErrorIs(t, q.Add(1), ErrClosed)

	_, ok := <-q.Channel()
	assert.False(t, ok)
}
