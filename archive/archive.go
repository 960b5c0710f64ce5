package archive

import (
	"sync"
	"time"
)

// Options configures an Archive. Zero value is a reasonable default.
type Options struct {
	// CompressionLevel is 0..100, mapped to a DEFLATE level 0..9 by
	// dividing by 10 and clamping.
	CompressionLevel int

	// WindowBits selects the DEFLATE container: negative for raw
	// deflate, 15 for zlib, 31 for gzip.
	WindowBits int

	// Password, if set, is reserved for a future encrypted-entry
	// extension; this package does not yet encrypt payloads.
	Password string

	// DefaultPermissions applies to entries with no security bit set.
	DefaultPermissions Permissions

	// Location interprets DOS timestamps; defaults to time.Local.
	Location *time.Location
}

func (o Options) withDefaults() Options {
	out := o
	if out.WindowBits == 0 {
		out.WindowBits = -15
	}
	if out.DefaultPermissions == 0 {
		out.DefaultPermissions = DefaultPermissions
	}
	if out.Location == nil {
		out.Location = time.Local
	}
	return out
}

// Archive owns a backing Stream and the in-memory entry index built from
// it. One archive is not safe for concurrent compression or
// decompression: callers serialize access to Stream; the process-wide
// VFS registry (vfs.go) is the only part of this package that takes its
// own lock.
type Archive struct {
	opts    Options
	stream  Stream
	entries []*Entry
	mu      sync.Mutex // guards entries and stream position bookkeeping

	// modified tracks whether any compression has actually occurred
	// since open; the central directory is only rewritten if so.
	modified bool
}

// Create returns a new, empty Archive writing to stream.
func Create(stream Stream, opts Options) *Archive {
	return &Archive{stream: stream, opts: opts.withDefaults()}
}

// Open scans an existing archive out of stream.
func Open(stream Stream, opts Options) (*Archive, error) {
	a := &Archive{stream: stream, opts: opts.withDefaults()}
	if err := a.scan(); err != nil {
		return nil, err
	}
	return a, nil
}

// OpenFile memory-maps path read-only and scans it.
func OpenFile(path string, opts Options) (*Archive, *MmapStream, error) {
	s, err := OpenMmap(path)
	if err != nil {
		return nil, nil, err
	}
	a, err := Open(s, opts)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return a, s, nil
}

// Entries returns a snapshot of the current entry index in insertion
// order.
func (a *Archive) Entries() []CompressedItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]CompressedItem, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.toItem()
	}
	return out
}

// Close flushes any pending central directory write. It does not close
// the underlying Stream; callers own that lifecycle.
func (a *Archive) Close() error {
	return a.Flush()
}

func (a *Archive) findEntry(name string) (*Entry, int) {
	name = normalizeName(name)
	for i, e := range a.entries {
		if e.Name == name {
			return e, i
		}
	}
	return nil, -1
}
