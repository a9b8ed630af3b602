package internal

import (
	"bytes"
	"net/http"
)

// Response wraps http.ResponseWriter with output buffering and commit tracking.
//
// While a buffer is active, Write goes to the innermost buffer. The response
// is committed once headers reach the client: on an unbuffered Write, Flush,
// SendError or Redirect. Hooks registered with OnBeforeCommit run once,
// right before the headers are sent.
type Response struct {
	w            http.ResponseWriter
	buffers      []*bytes.Buffer
	beforeCommit []func()
	status       int
	size         int64
	committed    bool
}

// NewResponse creates a Response over w.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{
		w:      w,
		status: http.StatusOK,
	}
}

// Header returns the response headers. Changes after commit have no effect.
func (r *Response) Header() http.Header {
	return r.w.Header()
}

// SetStatus sets the status code sent on commit.
func (r *Response) SetStatus(code int) {
	if !r.committed {
		r.status = code
	}
}

// Status returns the status code.
func (r *Response) Status() int {
	return r.status
}

// Size returns the number of body bytes sent to the client.
func (r *Response) Size() int64 {
	return r.size
}

// OnBeforeCommit registers a hook to run before headers are sent.
func (r *Response) OnBeforeCommit(fn func()) {
	r.beforeCommit = append(r.beforeCommit, fn)
}

// IsCommitted reports whether headers or body have reached the client.
func (r *Response) IsCommitted() bool {
	return r.committed
}

// Write writes to the active buffer, or to the client when none is active.
func (r *Response) Write(b []byte) (int, error) {
	if n := len(r.buffers); n > 0 {
		return r.buffers[n-1].Write(b)
	}
	return r.writeClient(b)
}

// WriteString is Write for strings.
func (r *Response) WriteString(s string) (int, error) {
	return r.Write([]byte(s))
}

// StartBuffer begins a new (possibly nested) output buffer.
func (r *Response) StartBuffer() {
	r.buffers = append(r.buffers, &bytes.Buffer{})
}

// BufferLevel returns the number of active buffers.
func (r *Response) BufferLevel() int {
	return len(r.buffers)
}

// EndBuffer removes the innermost buffer and returns its contents.
// It returns nil when no buffer is active.
func (r *Response) EndBuffer() []byte {
	n := len(r.buffers)
	if n == 0 {
		return nil
	}
	buf := r.buffers[n-1]
	r.buffers = r.buffers[:n-1]
	return buf.Bytes()
}

// Flush sends every buffered byte to the client, commits and flushes the
// underlying writer. Buffers stay active and empty.
func (r *Response) Flush() {
	for _, buf := range r.buffers {
		if buf.Len() > 0 {
			_, _ = r.writeClient(buf.Bytes())
			buf.Reset()
		}
	}
	r.commit()
	if flusher, ok := r.w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// SendError discards buffered output and sends a plain status response.
// It does nothing when the response is already committed.
func (r *Response) SendError(code int) {
	r.discardBuffers()
	if r.committed {
		return
	}
	r.status = code
	r.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	r.w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = r.writeClient([]byte(http.StatusText(code) + "\n"))
}

// Redirect discards buffered output and redirects the client.
func (r *Response) Redirect(code int, url string) {
	r.discardBuffers()
	if r.committed {
		return
	}
	r.w.Header().Set("Location", url)
	r.status = code
	r.commit()
}

func (r *Response) discardBuffers() {
	for _, buf := range r.buffers {
		buf.Reset()
	}
}

func (r *Response) commit() {
	if r.committed {
		return
	}
	r.committed = true

	hooks := r.beforeCommit
	r.beforeCommit = nil
	for _, fn := range hooks {
		fn()
	}

	r.w.WriteHeader(r.status)
}

func (r *Response) writeClient(b []byte) (int, error) {
	r.commit()
	n, err := r.w.Write(b)
	r.size += int64(n)
	return n, err
}

// Unwrap returns the underlying ResponseWriter.
func (r *Response) Unwrap() http.ResponseWriter {
	return r.w
}
