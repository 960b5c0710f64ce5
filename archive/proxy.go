package archive

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/pgzip"
)

// Format selects which container the stream Proxy speaks.
type Format int

const (
	FormatZlib Format = iota
	FormatDeflate
	FormatGzip
)

// Proxy is a full-duplex-by-configuration adapter bound to either an
// Input (decompress) or an Output (compress), never both. On the read
// side, caller buffers smaller than 32 KiB+2 KiB are served from an
// internal buffer (see Read); how many bytes are pulled from Input at a
// time is left to the underlying gzip/zlib/flate reader.
type Proxy struct {
	format Format

	in  io.Reader // set when reading (decompressing)
	out io.Writer // set when writing (compressing)

	inflate io.Reader
	zlibW   io.WriteCloser
	flateW  *flate.Writer
	gzw     *pgzip.Writer

	size     int64 // surfaced gzip "extra length" field, or -1
	produced int64 // bytes delivered to the caller on the read side
	internal bytes.Buffer
}

// NewInputProxy returns a Proxy that decompresses bytes pulled from in.
func NewInputProxy(format Format, in io.Reader) (*Proxy, error) {
	p := &Proxy{format: format, in: in, size: -1}
	if err := p.initInflate(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewOutputProxy returns a Proxy that compresses bytes pushed to Write,
// forwarding completed blocks to out.
func NewOutputProxy(format Format, out io.Writer) (*Proxy, error) {
	p := &Proxy{format: format, out: out, size: -1}
	if err := p.initDeflate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Proxy) initInflate() error {
	switch p.format {
	case FormatGzip:
		gzr, err := pgzip.NewReader(p.in)
		if err != nil {
			return wrapf(KindFailed, "proxy", err, "reading gzip header")
		}
		if len(gzr.Header.Extra) >= 4 {
			p.size = int64(binary.LittleEndian.Uint32(gzr.Header.Extra[:4]))
		}
		p.inflate = gzr
	case FormatZlib:
		zr, err := zlib.NewReader(p.in)
		if err != nil {
			return wrapf(KindFailed, "proxy", err, "reading zlib header")
		}
		p.inflate = zr
	default: // FormatDeflate
		p.inflate = flate.NewReader(p.in)
	}
	return nil
}

func (p *Proxy) initDeflate() error {
	switch p.format {
	case FormatGzip:
		p.gzw = pgzip.NewWriter(p.out)
	case FormatZlib:
		zw, err := zlib.NewWriterLevel(p.out, zlib.DefaultCompression)
		if err != nil {
			return wrapf(KindFailed, "proxy", err, "initializing zlib writer")
		}
		p.zlibW = zw
	default: // FormatDeflate
		fw, err := flate.NewWriter(p.out, flate.DefaultCompression)
		if err != nil {
			return wrapf(KindFailed, "proxy", err, "initializing deflate writer")
		}
		p.flateW = fw
	}
	return nil
}

// Size returns the decompressed size surfaced by a gzip "extra length"
// field, or -1 when unknown.
func (p *Proxy) Size() int64 { return p.size }

// Read pulls from Input, decompresses, and copies to buf. When buf is
// smaller than 32 KiB+2 KiB, an internal buffer is filled once and
// served from in slices instead of making many small calls into the
// underlying codec.
func (p *Proxy) Read(buf []byte) (int, error) {
	const shortcutThreshold = 32*1024 + 2*1024

	if p.internal.Len() > 0 {
		return p.internal.Read(buf)
	}
	if len(buf) < shortcutThreshold {
		tmp := make([]byte, shortcutThreshold)
		n, err := p.readThrough(tmp)
		if n > 0 {
			p.internal.Write(tmp[:n])
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if p.internal.Len() > 0 {
			return p.internal.Read(buf)
		}
		return 0, err
	}
	return p.readThrough(buf)
}

func (p *Proxy) readThrough(buf []byte) (int, error) {
	n, err := p.inflate.Read(buf)
	p.produced += int64(n)
	if err != nil && err != io.EOF {
		return n, wrapf(KindInvalidData, "proxy", err, "decompressing")
	}
	return n, err
}

// Write feeds raw bytes into the deflate/zlib/gzip encoder in NO_FLUSH
// mode. A call with length -1 (represented by a nil slice) signals
// Z_FINISH.
func (p *Proxy) Write(buf []byte) (int, error) {
	if buf == nil {
		return 0, p.finish()
	}
	switch p.format {
	case FormatGzip:
		return p.gzw.Write(buf)
	case FormatZlib:
		return p.zlibW.Write(buf)
	default:
		return p.flateW.Write(buf)
	}
}

func (p *Proxy) finish() error {
	switch p.format {
	case FormatGzip:
		return p.gzw.Close()
	case FormatZlib:
		return p.zlibW.Close()
	default:
		return p.flateW.Close()
	}
}

// Reset restores the adapter to its pre-init state.
func (p *Proxy) Reset(in io.Reader, out io.Writer) error {
	p.produced = 0
	p.internal.Reset()
	if in != nil {
		p.in = in
		p.out = nil
		return p.initInflate()
	}
	p.out = out
	p.in = nil
	return p.initDeflate()
}

// Seek supports forward seeks on the read side by discarding
// decompressed output, and backward seeks by a full reset and replay
// from position 0. Seeking is rejected on the write side.
func (p *Proxy) Seek(offset int64, whence int) (int64, error) {
	if p.out != nil {
		return 0, newErr(KindNoSupport, "seek", "", nil)
	}
	var target int64
	switch whence {
	case SeekStart:
		target = offset
	case SeekCurrent:
		target = p.produced + offset
	default:
		return 0, newErr(KindNoSupport, "seek", "", nil)
	}
	if target < p.produced {
		if seeker, ok := p.in.(io.Seeker); ok {
			if _, err := seeker.Seek(0, SeekStart); err != nil {
				return 0, wrapf(KindSeek, "seek", err, "rewinding proxy input")
			}
		}
		if err := p.initInflate(); err != nil {
			return 0, err
		}
		p.produced = 0
		p.internal.Reset()
	}
	discard := target - p.produced
	buf := make([]byte, 32*1024)
	for discard > 0 {
		n := int64(len(buf))
		if discard < n {
			n = discard
		}
		got, err := p.readThrough(buf[:n])
		discard -= int64(got)
		if err != nil {
			break
		}
	}
	return p.produced, nil
}
