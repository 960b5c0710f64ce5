package archive

import (
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
)

// deflateLevel maps a 0..100 compression level to flate's 0..9 scale,
// clamping out-of-range input instead of erroring.
func deflateLevel(pct int) int {
	lvl := pct / 10
	if lvl < 0 {
		lvl = 0
	}
	if lvl > 9 {
		lvl = 9
	}
	return lvl
}

// deflateWriter streams src through DEFLATE into dst, flushing whenever
// the internal buffer fills, updating a running CRC-32 as it goes. It returns the original and compressed byte counts.
func deflateWriter(dst io.Writer, src io.Reader, level int) (crc uint32, usize, csize int64, err error) {
	counter := &countingWriter{w: dst}
	fw, err := flate.NewWriter(counter, level)
	if err != nil {
		return 0, 0, 0, wrapf(KindFailed, "deflate", err, "initializing deflate writer")
	}
	crcw := crc32.NewIEEE()
	buf := make([]byte, 32*1024)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			crcw.Write(buf[:n])
			usize += int64(n)
			if _, werr := fw.Write(buf[:n]); werr != nil {
				return 0, 0, 0, wrapf(KindWrite, "deflate", werr, "writing deflate block")
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return 0, 0, 0, wrapf(KindRead, "deflate", rerr, "reading source for compression")
		}
	}
	if err := fw.Close(); err != nil {
		return 0, 0, 0, wrapf(KindFailed, "deflate", err, "finalizing deflate stream")
	}
	return crcw.Sum32(), usize, counter.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// inflateError maps a flate decode failure to the InvalidData kind.
func inflateError(err error) error {
	if err == nil {
		return nil
	}
	return wrapf(KindInvalidData, "inflate", err, "decompressing deflate stream")
}

// inflateReader wraps a flate.Reader that pulls more input from src as
// needed and stops when the deflate stream ends or src is exhausted;
// decode failures are reported with the InvalidData kind.
type inflateReader struct {
	fr  io.ReadCloser
	src io.Reader
}

func newInflateReader(src io.Reader) *inflateReader {
	return &inflateReader{fr: flate.NewReader(src), src: src}
}

func (r *inflateReader) Read(p []byte) (int, error) {
	n, err := r.fr.Read(p)
	if err != nil && err != io.EOF {
		return n, inflateError(err)
	}
	return n, err
}

func (r *inflateReader) Close() error { return r.fr.Close() }
