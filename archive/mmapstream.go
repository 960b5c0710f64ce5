package archive

import (
	"io"

	"golang.org/x/exp/mmap"
)

// MmapStream is a read-only Stream backed by a memory-mapped file,
// grounded on internal/install/install.go's use of mmap.Open to read
// SquashFS package images without copying the whole file into memory
// first. OpenFile uses this to map the archive at the path it is given.
type MmapStream struct {
	r   *mmap.ReaderAt
	pos int64
}

// OpenMmap memory-maps the file at path for read-only archive access.
func OpenMmap(path string) (*MmapStream, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, wrapf(KindFile, "open", err, "memory-mapping %s", path)
	}
	return &MmapStream{r: r}, nil
}

func (m *MmapStream) Read(p []byte) (int, error) {
	n, err := m.r.ReadAt(p, m.pos)
	m.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (m *MmapStream) Write([]byte) (int, error) {
	return 0, newErr(KindNoPermission, "write", "", nil)
}

func (m *MmapStream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case SeekStart:
		abs = offset
	case SeekCurrent:
		abs = m.pos + offset
	case SeekEnd:
		abs = int64(m.r.Len()) + offset
	default:
		return 0, wrapf(KindSeek, "seek", nil, "invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, wrapf(KindSeek, "seek", nil, "negative position %d", abs)
	}
	m.pos = abs
	return abs, nil
}

func (m *MmapStream) Size() (int64, error) { return int64(m.r.Len()), nil }

func (m *MmapStream) SetSize(int64) error {
	return newErr(KindNoPermission, "set-size", "", nil)
}

func (m *MmapStream) Flush() error { return nil }

// Close unmaps the underlying file.
func (m *MmapStream) Close() error { return m.r.Close() }
