// Package chunk provides lazy fixed-size grouping over forward-only
// sequences. It is used to batch streamed response lines into bounded
// sub-graphs without buffering the full response.
package chunk

import (
	"bufio"
	"io"
	"iter"
)

// MaxLineBytes is the largest line Lines will read before failing.
const MaxLineBytes = 1 << 20

// Chunk partitions src into consecutive slices of length n; the final slice
// may be shorter. The returned sequence is lazy and single-pass: no element
// is read from src until the chunk containing it is requested, and at most
// one chunk is held in memory at a time. Consuming src is destructive, so
// the result is not restartable when src is backed by a stream.
//
// Chunk panics if n is not positive.
func Chunk[T any](src iter.Seq[T], n int) iter.Seq[[]T] {
	if n <= 0 {
		panic("chunk: size must be positive")
	}
	return func(yield func([]T) bool) {
		var buf []T
		for v := range src {
			if buf == nil {
				buf = make([]T, 0, n)
			}
			buf = append(buf, v)
			if len(buf) == n {
				if !yield(buf) {
					return
				}
				buf = nil
			}
		}
		if len(buf) > 0 {
			yield(buf)
		}
	}
}

// Lines yields successive newline-delimited lines from r, without the
// trailing newline. Each yielded slice is an independent copy. A read
// failure is yielded once as the final element's error.
func Lines(r io.Reader) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
		for sc.Scan() {
			line := make([]byte, len(sc.Bytes()))
			copy(line, sc.Bytes())
			if !yield(line, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(nil, err)
		}
	}
}
