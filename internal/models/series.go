package models

import (
	"encoding/json"
	"fmt"
)

// DefaultHistorySize keeps five minutes of samples at 1 Hz
const DefaultHistorySize = 300

// Series is a fixed-capacity history buffer. Once full, each Push evicts the
// oldest retained sample. Reads past the retained range return the zero value
// of T, which callers treat as "no data yet".
type Series[T any] struct {
	buf  []T
	head int // next physical write position
	size int
}

// NewSeries creates an empty series holding at most capacity samples.
// A capacity below one is a construction bug and panics.
func NewSeries[T any](capacity int) *Series[T] {
	if capacity < 1 {
		panic(fmt.Sprintf("models: series capacity must be positive, got %d", capacity))
	}
	return &Series[T]{buf: make([]T, capacity)}
}

// Push appends value as the newest sample
func (s *Series[T]) Push(value T) {
	s.buf[s.head] = value
	s.head = (s.head + 1) % len(s.buf)
	if s.size < len(s.buf) {
		s.size++
	}
}

// Get returns the sample at logical position index, 0 being the oldest
// retained sample. Out-of-range positions yield the zero value.
func (s *Series[T]) Get(index int) T {
	var zero T
	if index < 0 || index >= s.size {
		return zero
	}
	n := len(s.buf)
	return s.buf[(s.head+n-s.size+index)%n]
}

// Latest returns the most recently pushed sample, or the zero value when empty
func (s *Series[T]) Latest() T {
	var zero T
	if s.size == 0 {
		return zero
	}
	n := len(s.buf)
	return s.buf[(s.head+n-1)%n]
}

func (s *Series[T]) Len() int    { return s.size }
func (s *Series[T]) Cap() int    { return len(s.buf) }
func (s *Series[T]) Empty() bool { return s.size == 0 }
func (s *Series[T]) Full() bool  { return s.size == len(s.buf) }

// Clear empties the series. Stale slots are left in place and overwritten
// by later pushes.
func (s *Series[T]) Clear() {
	s.head = 0
	s.size = 0
}

// Values copies the retained samples, oldest first
func (s *Series[T]) Values() []T {
	out := make([]T, s.size)
	for i := range out {
		out[i] = s.Get(i)
	}
	return out
}

// Tail copies the newest n retained samples, oldest first
func (s *Series[T]) Tail(n int) []T {
	if n > s.size {
		n = s.size
	}
	if n <= 0 {
		return []T{}
	}
	out := make([]T, n)
	start := s.size - n
	for i := range out {
		out[i] = s.Get(start + i)
	}
	return out
}

// Clone returns an independent copy with identical contents and capacity
func (s *Series[T]) Clone() *Series[T] {
	c := &Series[T]{
		buf:  make([]T, len(s.buf)),
		head: s.head,
		size: s.size,
	}
	copy(c.buf, s.buf)
	return c
}

// MarshalJSON encodes the retained samples as an array, oldest first
func (s *Series[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}
