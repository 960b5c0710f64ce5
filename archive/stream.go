// Package archive implements a PKZIP archive engine: scanning, writing,
// in-place entry removal, streaming deflate/inflate, a gzip/zlib/deflate
// stream proxy, and a read-only virtual filesystem view over named
// registered archives.
package archive

import (
	"encoding/binary"
	"io"
)

// Whence mirrors io.Seeker's whence constants so hosts fronting the
// archive with a non-os.File backing store don't need to import "io"
// just to implement Stream.
const (
	SeekStart   = io.SeekStart
	SeekCurrent = io.SeekCurrent
	SeekEnd     = io.SeekEnd
)

// Stream is the backing store contract: a seekable byte store
// that may be a file, an in-memory buffer, or a network stream. All
// on-disk scalars are little-endian; Stream implementations are not
// responsible for byte order, only for raw bytes.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker

	// Size returns the current length of the stream.
	Size() (int64, error)

	// SetSize truncates or extends the stream to n bytes.
	SetSize(n int64) error

	// Flush pushes any buffered writes to the underlying medium.
	Flush() error
}

// readFull reads exactly len(buf) bytes from s at the stream's current
// position, the way internal/squashfs's binary.Read calls do, but
// without requiring an io.ReaderAt.
func readFull(s Stream, buf []byte) error {
	_, err := io.ReadFull(s, buf)
	if err != nil {
		return wrapf(KindRead, "read", err, "short read (wanted %d bytes)", len(buf))
	}
	return nil
}

func readUint16(s Stream) (uint16, error) {
	var b [2]byte
	if err := readFull(s, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readUint32(s Stream) (uint32, error) {
	var b [4]byte
	if err := readFull(s, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func writeUint16(s Stream, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := s.Write(b[:])
	if err != nil {
		return wrapf(KindWrite, "write", err, "writing uint16")
	}
	return nil
}

func writeUint32(s Stream, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := s.Write(b[:])
	if err != nil {
		return wrapf(KindWrite, "write", err, "writing uint32")
	}
	return nil
}

func seekAbs(s Stream, off int64) error {
	if _, err := s.Seek(off, SeekStart); err != nil {
		return wrapf(KindSeek, "seek", err, "seeking to offset %d", off)
	}
	return nil
}

func tell(s Stream) (int64, error) {
	off, err := s.Seek(0, SeekCurrent)
	if err != nil {
		return 0, wrapf(KindSeek, "seek", err, "querying current offset")
	}
	return off, nil
}
