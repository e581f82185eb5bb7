package transport

import "bytes"

// DefaultBufferLimit bounds the bytes held while waiting for a closing brace.
const DefaultBufferLimit = 4096

// Extractor pulls brace-delimited frames out of an unreliable byte stream.
//
// Frames are flat: the span runs from the first '{' to the next '}'.
// Bytes before the first '{' are discarded along with each frame. When no
// complete frame is available and the buffer grows past the limit, it is
// cut back to the last '{' (or emptied if that suffix is still too long),
// so the buffer never holds more than limit bytes between calls.
//
// Extractor is not safe for concurrent use; the link reader owns it.
type Extractor struct {
	buf   []byte
	limit int
}

// NewExtractor creates an Extractor. A limit <= 0 uses DefaultBufferLimit.
func NewExtractor(limit int) *Extractor {
	if limit <= 0 {
		limit = DefaultBufferLimit
	}
	return &Extractor{limit: limit}
}

// Feed appends chunk and returns every complete candidate frame in arrival
// order. Candidates are copies with invalid UTF-8 removed; they may still
// fail to decode.
func (e *Extractor) Feed(chunk []byte) [][]byte {
	e.buf = append(e.buf, chunk...)

	var frames [][]byte
	for {
		start := bytes.IndexByte(e.buf, '{')
		end := -1
		if start >= 0 {
			if i := bytes.IndexByte(e.buf[start:], '}'); i >= 0 {
				end = start + i
			}
		}

		if start < 0 || end < 0 {
			e.truncate()
			return frames
		}

		frames = append(frames, bytes.ToValidUTF8(e.buf[start:end+1], nil))
		e.buf = append(e.buf[:0], e.buf[end+1:]...)
	}
}

// Buffered returns the number of bytes waiting for a frame boundary.
func (e *Extractor) Buffered() int {
	return len(e.buf)
}

// Reset drops any buffered bytes.
func (e *Extractor) Reset() {
	e.buf = e.buf[:0]
}

func (e *Extractor) truncate() {
	if len(e.buf) <= e.limit {
		return
	}
	last := bytes.LastIndexByte(e.buf, '{')
	if last < 0 || len(e.buf)-last > e.limit {
		e.buf = e.buf[:0]
		return
	}
	e.buf = append(e.buf[:0], e.buf[last:]...)
}
