package log

import (
	"bytes"
	"io"
	"sync"
)

// DeferredWriter keeps log output in memory until Open is called, so the
// log file is only created once the run is known to want it. After Discard
// everything written is dropped.
type DeferredWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	w       io.WriteCloser
	open    func() (io.WriteCloser, error)
	dropped bool
}

// NewDeferredWriter returns a writer that calls open on Open. A nil open
// makes the writer drop all output.
func NewDeferredWriter(open func() (io.WriteCloser, error)) *DeferredWriter {
	return &DeferredWriter{
		open:    open,
		dropped: open == nil,
	}
}

func (d *DeferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.w != nil:
		return d.w.Write(p)
	case d.dropped:
		return len(p), nil
	}
	return d.buf.Write(p)
}

// Open opens the real output and flushes what was held back. If opening
// fails, output is dropped from then on and the error returned.
func (d *DeferredWriter) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.w != nil || d.dropped {
		return nil
	}

	w, err := d.open()
	if err != nil {
		d.dropped = true
		d.buf.Reset()
		return err
	}
	d.w = w

	_, err = d.buf.WriteTo(w)
	return err
}

// Discard drops held back output and everything written later
func (d *DeferredWriter) Discard() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.w == nil {
		d.dropped = true
		d.buf.Reset()
	}
}

func (d *DeferredWriter) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.w != nil {
		return d.w.Close()
	}
	return nil
}
