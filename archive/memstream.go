package archive

import (
	"io"

	"github.com/orcaman/writerseeker"
)

// MemStream is a Stream backed entirely by memory, using the same
// writerseeker-for-in-memory-buffering approach cmd/distri/pack.go
// uses for gzip output. It is useful for tests and for hosts that want
// to build an archive fully in memory before handing the bytes to a
// real sink.
//
// writerseeker.WriterSeeker exposes Write/Seek directly and produces
// read snapshots via BytesReader; MemStream keeps its own cursor so a
// single position serves both reads and writes, the way Stream expects.
type MemStream struct {
	ws  writerseeker.WriterSeeker
	pos int64
	len int64
}

// NewMemStream returns an empty in-memory Stream.
func NewMemStream() *MemStream {
	return &MemStream{}
}

func (m *MemStream) Read(p []byte) (int, error) {
	r := m.ws.BytesReader()
	if _, err := r.Seek(m.pos, SeekStart); err != nil {
		return 0, wrapf(KindSeek, "seek", err, "positioning mem stream reader")
	}
	n, err := r.Read(p)
	m.pos += int64(n)
	return n, err
}

func (m *MemStream) Write(p []byte) (int, error) {
	if _, err := m.ws.Seek(m.pos, SeekStart); err != nil {
		return 0, wrapf(KindSeek, "seek", err, "positioning mem stream writer")
	}
	n, err := m.ws.Write(p)
	if err != nil {
		return n, wrapf(KindWrite, "write", err, "writing %d bytes to mem stream", len(p))
	}
	m.pos += int64(n)
	if m.pos > m.len {
		m.len = m.pos
	}
	return n, nil
}

func (m *MemStream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case SeekStart:
		abs = offset
	case SeekCurrent:
		abs = m.pos + offset
	case SeekEnd:
		abs = m.len + offset
	default:
		return 0, wrapf(KindSeek, "seek", nil, "invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, wrapf(KindSeek, "seek", nil, "negative position %d", abs)
	}
	m.pos = abs
	return abs, nil
}

func (m *MemStream) Size() (int64, error) { return m.len, nil }

func (m *MemStream) SetSize(n int64) error {
	if n == m.len {
		return nil
	}
	cur := m.Bytes()
	buf := make([]byte, n)
	copy(buf, cur)
	m.ws = writerseeker.WriterSeeker{}
	if _, err := m.ws.Write(buf); err != nil {
		return wrapf(KindWrite, "write", err, "resizing mem stream to %d bytes", n)
	}
	m.len = n
	if m.pos > n {
		m.pos = n
	}
	return nil
}

func (m *MemStream) Flush() error { return nil }

// Bytes returns the current contents of the stream.
func (m *MemStream) Bytes() []byte {
	b, _ := io.ReadAll(m.ws.BytesReader())
	if int64(len(b)) > m.len {
		return b[:m.len]
	}
	if int64(len(b)) < m.len {
		out := make([]byte, m.len)
		copy(out, b)
		return out
	}
	return b
}
