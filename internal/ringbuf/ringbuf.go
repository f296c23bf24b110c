// package ringbuf implements a fixed capacity double ended queue.
package ringbuf

type RingBuf[T any] struct {
	buf        []T
	head, tail int
}

func New[T any](n int) RingBuf[T] {
	return RingBuf[T]{buf: make([]T, n)}
}

func (rb *RingBuf[T]) MaxLen() int {
	return len(rb.buf)
}

func (rb *RingBuf[T]) PushBack(val T) {
	rb.mustHaveRoom()
	rb.buf[rb.index(rb.tail)] = val
	rb.tail++
}

func (rb *RingBuf[T]) PushFront(val T) {
	rb.mustHaveRoom()
	rb.head--
	rb.buf[rb.index(rb.head)] = val
}

func (rb *RingBuf[T]) PopFront() T {
	val := rb.At(0)
	var zero T
	rb.buf[rb.index(rb.head)] = zero
	rb.head++
	return val
}

func (rb *RingBuf[T]) PopBack() T {
	val := rb.At(rb.Len() - 1)
	rb.tail--
	var zero T
	rb.buf[rb.index(rb.tail)] = zero
	return val
}

func (rb *RingBuf[T]) At(i int) T {
	if i < 0 || i >= rb.Len() {
		panic(i)
	}
	return rb.buf[rb.index(rb.head+i)]
}

func (rb *RingBuf[T]) Len() int {
	return rb.tail - rb.head
}

func (rb *RingBuf[T]) index(i int) int {
	n := len(rb.buf)
	return ((i % n) + n) % n
}

func (rb *RingBuf[T]) mustHaveRoom() {
	if rb.Len() >= len(rb.buf) {
		panic("ringbuf: full")
	}
}
