package output

import "io"

type flusher interface {
	Flush() error
}

// flushIfPossible flushes buffering writers so that streamed event lines
// become visible to consumers as soon as they are written.
func flushIfPossible(w io.Writer) error {
	f, ok := w.(flusher)
	if !ok {
		return nil
	}
	return f.Flush()
}
