package vfsstream

import (
	"errors"
	"io"
)

// ErrBadSeek is returned when a seek would land outside the stream's valid
// range (for read-only streams: outside [0, len(data)]).
var ErrBadSeek = errors.New("vfsstream: invalid seek")

// MemStream is an in-memory Stream. With writable=false it is a read-only
// view over a fixed byte slice (used to feed the ZIP backend a window into
// a loaded central directory, for example); with writable=true it grows its
// backing buffer on write, like bytes.Buffer but with random-access Seek.
type MemStream struct {
	buf      []byte
	pos      int64
	writable bool
}

// NewReadOnly wraps data (not copied) in a read-only Stream.
func NewReadOnly(data []byte) *MemStream {
	return &MemStream{buf: data}
}

// NewWritable returns an empty, growable Stream.
func NewWritable() *MemStream {
	return &MemStream{writable: true}
}

// Bytes returns the current contents. The caller must not retain the slice
// across further writes to a writable MemStream.
func (m *MemStream) Bytes() []byte {
	return m.buf
}

func (m *MemStream) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemStream) Write(p []byte) (int, error) {
	if !m.writable {
		return 0, errors.New("vfsstream: stream is read-only")
	}
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.pos:end], p)
	m.pos = end
	return n, nil
}

func (m *MemStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = int64(len(m.buf))
	default:
		return m.pos, ErrBadSeek
	}
	newPos := base + offset
	if newPos < 0 || (!m.writable && newPos > int64(len(m.buf))) {
		return m.pos, ErrBadSeek
	}
	m.pos = newPos
	return m.pos, nil
}

func (m *MemStream) Tell() (int64, error) {
	return m.pos, nil
}

func (m *MemStream) Duplicate() (Stream, error) {
	dup := &MemStream{writable: m.writable, pos: m.pos}
	if m.writable {
		dup.buf = append([]byte(nil), m.buf...)
	} else {
		dup.buf = m.buf // read-only, safe to share
	}
	return dup, nil
}

// Remove deletes size bytes at offset, shifting the tail down and adjusting
// the cursor if it sat at or past the removed range. Only valid on a
// writable stream.
func (m *MemStream) Remove(offset, size int64) error {
	if !m.writable {
		return errors.New("vfsstream: stream is read-only")
	}
	if offset < 0 || size < 0 || offset+size > int64(len(m.buf)) {
		return ErrBadSeek
	}
	if m.pos > offset {
		if m.pos >= offset+size {
			m.pos -= size
		} else {
			m.pos = offset
		}
	}
	m.buf = append(m.buf[:offset], m.buf[offset+size:]...)
	return nil
}

// Truncate removes every byte from the current cursor to the end of the
// stream, like fs_memory_stream_truncate.
func (m *MemStream) Truncate() error {
	return m.Remove(m.pos, int64(len(m.buf))-m.pos)
}

// TakeOwnership detaches and returns the backing buffer, resetting the
// stream to empty. The caller owns the returned slice exclusively.
func (m *MemStream) TakeOwnership() []byte {
	data := m.buf
	m.buf = nil
	m.pos = 0
	return data
}

func (m *MemStream) Close() error {
	return nil
}

var _ Stream = (*MemStream)(nil)
