package archive

import (
	"io"
	"os"
	"strings"
	"time"
)

// Action is the result of a Feedback callback.
type Action int

const (
	ActionContinue Action = iota
	ActionSkip
	ActionCancel
	ActionTerminate
)

// Feedback is delivered during compress/decompress so the host can
// report progress and optionally cancel.
type Feedback struct {
	Kind       FeedbackKind
	Index      int
	Year       int
	Month      int
	Day        int
	Hour       int
	Minute     int
	Second     int
	Path       string
	Dest       string
	OrigSize   int64
	CompSize   int64
	Progress   float64
}

// FeedbackKind distinguishes compression from decompression feedback.
type FeedbackKind int

const (
	FeedbackCompress FeedbackKind = iota
	FeedbackDecompress
)

// FeedbackFunc is the host callback type. A nil FeedbackFunc
// is treated as always-continue.
type FeedbackFunc func(Feedback) Action

func callFeedback(fn FeedbackFunc, fb Feedback) Action {
	if fn == nil {
		return ActionContinue
	}
	return fn(fb)
}

// AddFolder writes a placeholder entry for a "/"-terminated folder
// path. A prior identical path is replaced.
func (a *Archive) AddFolder(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	name = normalizeName(name)
	if len(name) == 0 || name[len(name)-1] != '/' {
		name += "/"
	}

	offset, err := a.endOfLastPayload()
	if err != nil {
		return err
	}
	if err := seekAbs(a.stream, offset); err != nil {
		return err
	}

	ent := &Entry{
		Name:        name,
		Method:      MethodStored,
		IsFolder:    true,
		Permissions: a.opts.DefaultPermissions,
		Modified:    time.Now(),
		Offset:      offset,
	}
	if err := a.writeLocalHeader(ent); err != nil {
		return err
	}
	a.replaceOrAppend(ent)
	return nil
}

// AddFile streams src into a new entry named name. If src implements
// io.Seeker it is rewound first so repeated calls with the same reader
// re-add the file correctly instead of appending from its prior
// position.
func (a *Archive) AddFile(name string, src io.Reader, mode os.FileMode, linkTarget string, progress FeedbackFunc) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	name = normalizeName(name)
	if s, ok := src.(io.Seeker); ok {
		if _, err := s.Seek(0, io.SeekStart); err != nil {
			return wrapf(KindSeek, "add", err, "rewinding source for %s", name)
		}
	}
	offset, err := a.endOfLastPayload()
	if err != nil {
		return err
	}
	if err := seekAbs(a.stream, offset); err != nil {
		return err
	}

	ent := &Entry{
		Name:        name,
		Permissions: Permissions(mode.Perm()),
		Modified:    time.Now(),
		Offset:      offset,
		IsLink:      linkTarget != "",
	}

	// Provisional header: CRC and sizes are zero, rewritten after the
	// payload is known.
	if err := a.writeLocalHeader(ent); err != nil {
		return err
	}

	level := deflateLevel(a.opts.CompressionLevel)
	var crc uint32
	var usize, csize int64

	if ent.IsLink {
		crc, usize, csize, err = deflateWriter(a.stream, strings.NewReader(linkTarget), level)
		if err != nil {
			a.rollbackEntry(ent)
			return err
		}
		ent.Method = MethodDeflate
	} else {
		reporter := &progressReader{r: src, onRead: func(n int64) {
			callFeedback(progress, Feedback{Kind: FeedbackCompress, Path: name, OrigSize: n})
		}}
		crc, usize, csize, err = deflateWriter(a.stream, reporter, level)
		if err != nil {
			a.rollbackEntry(ent)
			return err
		}
		if usize == 0 {
			// Zero-length source: store uncompressed with zero size
			//.
			ent.Method = MethodStored
			csize = 0
		} else {
			ent.Method = MethodDeflate
		}
	}

	ent.CRC32 = crc
	ent.UncompSize = uint32(usize)
	ent.CompSize = uint32(csize)

	// Seek back and overwrite the local header with final values.
	end, err := tell(a.stream)
	if err != nil {
		return err
	}
	if err := seekAbs(a.stream, offset); err != nil {
		return err
	}
	if err := a.writeLocalHeader(ent); err != nil {
		return err
	}
	if err := seekAbs(a.stream, end); err != nil {
		return err
	}

	a.replaceOrAppend(ent)
	a.modified = true
	return nil
}

// writeLocalHeader writes the 30-byte fixed header plus name for ent at
// the stream's current position.
func (a *Archive) writeLocalHeader(ent *Entry) error {
	if err := writeUint32(a.stream, sigLocalFile); err != nil {
		return err
	}
	if err := writeUint16(a.stream, versionNeeded); err != nil {
		return err
	}
	if err := writeUint16(a.stream, 0); err != nil { // flags
		return err
	}
	if err := writeUint16(a.stream, ent.Method); err != nil {
		return err
	}
	if err := writeUint32(a.stream, dosTime(ent.Modified)); err != nil {
		return err
	}
	if err := writeUint32(a.stream, ent.CRC32); err != nil {
		return err
	}
	if err := writeUint32(a.stream, ent.CompSize); err != nil {
		return err
	}
	if err := writeUint32(a.stream, ent.UncompSize); err != nil {
		return err
	}
	if err := writeUint16(a.stream, uint16(len(ent.Name))); err != nil {
		return err
	}
	if err := writeUint16(a.stream, 0); err != nil { // extra len
		return err
	}
	if _, err := a.stream.Write([]byte(ent.Name)); err != nil {
		return wrapf(KindWrite, "write", err, "writing entry name %q", ent.Name)
	}
	return nil
}

// rollbackEntry undoes a half-written entry after a CRC/IO error during
// compression.
func (a *Archive) rollbackEntry(ent *Entry) {
	seekAbs(a.stream, ent.Offset)
	a.stream.SetSize(ent.Offset)
}

func (a *Archive) replaceOrAppend(ent *Entry) {
	for i, e := range a.entries {
		if e.Name == ent.Name {
			a.entries = append(a.entries[:i], a.entries[i+1:]...)
			break
		}
	}
	a.entries = append(a.entries, ent)
}

// endOfLastPayload returns the offset where the next entry's local
// header should begin: the end of the last entry's compressed payload,
// or 0 for an empty archive.
func (a *Archive) endOfLastPayload() (int64, error) {
	if len(a.entries) == 0 {
		return 0, nil
	}
	last := a.entries[len(a.entries)-1]
	return last.Offset + last.footprint(), nil
}

// RemoveEntry deletes the named entry, shifting all following bytes
// left by its footprint and adjusting subsequent offsets.
func (a *Archive) RemoveEntry(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	ent, idx := a.findEntry(name)
	if ent == nil {
		return newErr(KindMissingPath, "remove", name, nil)
	}

	chunk := ent.footprint()
	size, err := a.stream.Size()
	if err != nil {
		return wrapf(KindRead, "remove", err, "querying stream size")
	}

	if err := shiftLeft(a.stream, ent.Offset+chunk, size, chunk); err != nil {
		return err
	}
	if err := a.stream.SetSize(size - chunk); err != nil {
		return wrapf(KindWrite, "remove", err, "truncating after removal")
	}

	a.entries = append(a.entries[:idx], a.entries[idx+1:]...)
	for _, e := range a.entries[idx:] {
		e.Offset -= chunk
	}
	a.modified = true
	return nil
}

// shiftLeft memmoves the byte range [from, to) in s leftward by delta,
// reading and rewriting it in fixed-size chunks since Stream exposes
// no in-place move primitive.
func shiftLeft(s Stream, from, to, delta int64) error {
	const bufSize = 64 * 1024
	buf := make([]byte, bufSize)
	src := from
	dst := from - delta
	for src < to {
		n := to - src
		if n > bufSize {
			n = bufSize
		}
		if err := seekAbs(s, src); err != nil {
			return err
		}
		if err := readFull(s, buf[:n]); err != nil {
			return err
		}
		if err := seekAbs(s, dst); err != nil {
			return err
		}
		if _, err := s.Write(buf[:n]); err != nil {
			return wrapf(KindWrite, "remove", err, "shifting archive data")
		}
		src += n
		dst += n
	}
	return nil
}

// Flush writes the central directory and EOCD immediately after the
// last entry's payload, if anything has actually changed since open.
// An archive that became empty is truncated to zero length instead.
func (a *Archive) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.modified {
		return nil
	}
	if len(a.entries) == 0 {
		if err := a.stream.SetSize(0); err != nil {
			return wrapf(KindWrite, "flush", err, "truncating empty archive")
		}
		return a.stream.Flush()
	}

	cdOffset, err := a.endOfLastPayload()
	if err != nil {
		return err
	}
	if err := seekAbs(a.stream, cdOffset); err != nil {
		return err
	}
	for _, ent := range a.entries {
		if err := a.writeCentralRecord(ent); err != nil {
			return err
		}
	}
	cdEnd, err := tell(a.stream)
	if err != nil {
		return err
	}

	if err := writeUint32(a.stream, sigEndOfCentral); err != nil {
		return err
	}
	if err := writeUint16(a.stream, 0); err != nil {
		return err
	}
	if err := writeUint16(a.stream, 0); err != nil {
		return err
	}
	n := uint16(len(a.entries))
	if err := writeUint16(a.stream, n); err != nil {
		return err
	}
	if err := writeUint16(a.stream, n); err != nil {
		return err
	}
	if err := writeUint32(a.stream, uint32(cdEnd-cdOffset)); err != nil {
		return err
	}
	if err := writeUint32(a.stream, uint32(cdOffset)); err != nil {
		return err
	}
	if err := writeUint16(a.stream, 0); err != nil { // comment len
		return err
	}
	if err := a.stream.SetSize(cdEnd + eocdLen); err != nil {
		return wrapf(KindWrite, "flush", err, "sizing archive after EOCD")
	}
	return a.stream.Flush()
}

func (a *Archive) writeCentralRecord(ent *Entry) error {
	if err := writeUint32(a.stream, sigCentralDir); err != nil {
		return err
	}
	if err := writeUint16(a.stream, uint16(hostOS)<<8|versionNeeded); err != nil {
		return err
	}
	if err := writeUint16(a.stream, versionNeeded); err != nil {
		return err
	}
	if err := writeUint16(a.stream, 0); err != nil {
		return err
	}
	if err := writeUint16(a.stream, ent.Method); err != nil {
		return err
	}
	if err := writeUint32(a.stream, dosTime(ent.Modified)); err != nil {
		return err
	}
	if err := writeUint32(a.stream, ent.CRC32); err != nil {
		return err
	}
	if err := writeUint32(a.stream, ent.CompSize); err != nil {
		return err
	}
	if err := writeUint32(a.stream, ent.UncompSize); err != nil {
		return err
	}
	if err := writeUint16(a.stream, uint16(len(ent.Name))); err != nil {
		return err
	}
	if err := writeUint16(a.stream, 0); err != nil { // extra len
		return err
	}
	if err := writeUint16(a.stream, uint16(len(ent.Comment))); err != nil {
		return err
	}
	if err := writeUint16(a.stream, 0); err != nil { // disk
		return err
	}
	if err := writeUint16(a.stream, 0); err != nil { // internal attrs
		return err
	}
	ext := encodePermissions(ent.Permissions, ent.IsLink, ent.HasSecurity)
	if err := writeUint32(a.stream, ext); err != nil {
		return err
	}
	if err := writeUint32(a.stream, uint32(ent.Offset)); err != nil {
		return err
	}
	if _, err := a.stream.Write([]byte(ent.Name)); err != nil {
		return wrapf(KindWrite, "flush", err, "writing central record name")
	}
	if ent.Comment != "" {
		if _, err := a.stream.Write([]byte(ent.Comment)); err != nil {
			return wrapf(KindWrite, "flush", err, "writing central record comment")
		}
	}
	return nil
}
