package export

import (
	"bufio"
	"io"
	"strconv"
)

// EdgeWriter appends "root\tfollower" lines. Both columns are numeric IDs
// and are written unsanitized.
type EdgeWriter struct {
	w      *bufio.Writer
	closer io.Closer
	lines  int
}

// NewEdgeWriter wraps w. When w is an io.Closer, Close closes it.
func NewEdgeWriter(w io.Writer) *EdgeWriter {
	ew := &EdgeWriter{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		ew.closer = c
	}
	return ew
}

// WriteEdges writes one line per follower and flushes, so every root that
// finished paging is on disk before the next one starts
func (e *EdgeWriter) WriteEdges(root int64, followers []int64) error {
	prefix := strconv.FormatInt(root, 10) + "\t"
	for _, f := range followers {
		if _, err := e.w.WriteString(prefix); err != nil {
			return err
		}
		if _, err := e.w.WriteString(strconv.FormatInt(f, 10)); err != nil {
			return err
		}
		if err := e.w.WriteByte('\n'); err != nil {
			return err
		}
		e.lines++
	}
	return e.w.Flush()
}

// Lines returns the number of edges written
func (e *EdgeWriter) Lines() int {
	return e.lines
}

// Close flushes and closes the underlying writer
func (e *EdgeWriter) Close() error {
	err := e.w.Flush()
	if e.closer != nil {
		if cerr := e.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
