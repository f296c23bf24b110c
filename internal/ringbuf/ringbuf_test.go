package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingBuf(t *testing.T) {
	t.Parallel()
	rb := New[int](3)
	require.Equal(t, 3, rb.MaxLen())
	require.Equal(t, 0, rb.Len())

	rb.PushBack(1)
	rb.PushBack(2)
	rb.PushFront(0)
	require.Equal(t, 3, rb.Len())
	require.Panics(t, func() { rb.PushBack(3) })
	for i := 0; i < 3; i++ {
		require.Equal(t, i, rb.At(i))
	}
	require.Equal(t, 2, rb.PopBack())
	require.Equal(t, 0, rb.PopFront())
	require.Equal(t, 1, rb.PopFront())
	require.Equal(t, 0, rb.Len())
	require.Panics(t, func() { rb.PopFront() })
}

func TestRingBufWrap(t *testing.T) {
	t.Parallel()
	rb := New[string](2)
	for i := 0; i < 10; i++ {
		rb.PushFront("a")
		rb.PushBack("b")
		require.Equal(t, "a", rb.PopFront())
		require.Equal(t, "b", rb.PopFront())
	}
	require.Equal(t, 0, rb.Len())
}
