package archive

import "io"

// progressReader wraps a source reader and invokes onRead with the
// cumulative byte count after each successful read, backing the
// feedback reporting  describes ("Report progress via
// feedback").
type progressReader struct {
	r      io.Reader
	total  int64
	onRead func(total int64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.total += int64(n)
		if p.onRead != nil {
			p.onRead(p.total)
		}
	}
	return n, err
}
