package archive

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// registry is the process-wide ArchiveName -> Archive map backing the
// "archive:<name>/<path>" view, grounded on internal/fuse/fuse.go's
// mutex-guarded inode tables: registration/deregistration take the
// lock, lookups are read-heavy and use an RLock.
type registry struct {
	mu    sync.RWMutex
	byName map[string]*Archive
}

var vfsRegistry = &registry{byName: make(map[string]*Archive)}

// Register makes a under the given case-insensitive name available at
// "archive:<name>/<path>".
func Register(name string, a *Archive) {
	vfsRegistry.mu.Lock()
	defer vfsRegistry.mu.Unlock()
	vfsRegistry.byName[strings.ToLower(name)] = a
}

// Deregister removes a previously registered archive.
func Deregister(name string) {
	vfsRegistry.mu.Lock()
	defer vfsRegistry.mu.Unlock()
	delete(vfsRegistry.byName, strings.ToLower(name))
}

func lookupArchive(name string) (*Archive, bool) {
	vfsRegistry.mu.RLock()
	defer vfsRegistry.mu.RUnlock()
	a, ok := vfsRegistry.byName[strings.ToLower(name)]
	return a, ok
}

// WarmAll looks up every named archive concurrently and returns a
// MissingPath error for the first name that is not registered. It reads
// nothing from the backing streams: each archive's central directory
// was already parsed when it was opened. The concurrent fan-out is
// grounded on internal/fuse/fuse.go and internal/install/install.go's
// errgroup-based concurrent package installs.
func WarmAll(names []string) error {
	var g errgroup.Group
	for _, n := range names {
		n := n
		g.Go(func() error {
			a, ok := lookupArchive(n)
			if !ok {
				return newErr(KindMissingPath, "warm", n, nil)
			}
			a.Entries() // forces a lock round-trip; scan already ran at Open
			return nil
		})
	}
	return g.Wait()
}

// ParsePath splits "archive:<name>/<rest>" into its name and rest.
// Either '/' or '\' is accepted as the separator inside rest.
func ParsePath(p string) (name, rest string, ok bool) {
	const prefix = "archive:"
	if !strings.HasPrefix(p, prefix) {
		return "", "", false
	}
	p = p[len(prefix):]
	idx := strings.IndexAny(p, `/\`)
	if idx < 0 {
		return p, "", true
	}
	name = p[:idx]
	rest = strings.ReplaceAll(p[idx+1:], `\`, "/")
	return name, rest, true
}

// Readdir enumerates entries directly under dir within the named
// archive. Entries in sub-folders are hidden unless recursive is set.
func Readdir(archiveName, dir string, recursive bool) ([]CompressedItem, error) {
	a, ok := lookupArchive(archiveName)
	if !ok {
		return nil, newErr(KindMissingPath, "readdir", archiveName, nil)
	}
	dir = strings.Trim(dir, "/")
	var prefix string
	if dir != "" {
		prefix = dir + "/"
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	var out []CompressedItem
	for _, e := range a.entries {
		if !strings.HasPrefix(e.Name, prefix) {
			continue
		}
		rel := e.Name[len(prefix):]
		if rel == "" {
			continue
		}
		if !recursive && strings.Contains(strings.TrimSuffix(rel, "/"), "/") {
			continue
		}
		out = append(out, e.toItem())
	}
	return out, nil
}

// File is a read-only virtual file opened through the VFS view. Each
// File holds a private inflate state and read position; two Files open
// on the same path are independent.
type File struct {
	a       *Archive
	ent     *Entry
	pos     int64
	r       io.Reader
	modTime time.Time
}

// OpenVFS resolves "archive:<name>/<path>" and returns a fresh virtual
// file, lazily initializing the inflate state on first Read.
func OpenVFS(vfsPath string) (*File, error) {
	name, rest, ok := ParsePath(vfsPath)
	if !ok {
		return nil, newErr(KindMissingPath, "open", vfsPath, nil)
	}
	a, ok := lookupArchive(name)
	if !ok {
		return nil, newErr(KindMissingPath, "open", name, nil)
	}
	a.mu.Lock()
	ent, _ := a.findEntry(rest)
	a.mu.Unlock()
	if ent == nil {
		return nil, newErr(KindMissingPath, "open", rest, nil)
	}
	modTime := ent.Modified
	if modTime.IsZero() {
		modTime = unpackDOSTime(0, a.opts.Location)
	}
	return &File{a: a, ent: ent, modTime: modTime}, nil
}

// Size returns the entry's original (uncompressed) size.
func (f *File) Size() int64 { return int64(f.ent.UncompSize) }

// ModTime returns the entry's timestamp.
func (f *File) ModTime() time.Time { return f.modTime }

func (f *File) ensureReader() error {
	if f.r != nil {
		return nil
	}
	a := f.a
	a.mu.Lock()
	defer a.mu.Unlock()
	payloadOff := f.ent.Offset + localHeaderLen + int64(len(f.ent.Name))
	if err := seekAbs(a.stream, payloadOff); err != nil {
		return err
	}
	// Copy the compressed payload out while the lock is held so this
	// File's reads never touch the shared stream position again.
	payload := make([]byte, f.ent.CompSize)
	if err := readFull(a.stream, payload); err != nil {
		return err
	}
	lim := bytes.NewReader(payload)
	switch f.ent.Method {
	case MethodStored:
		f.r = lim
	case MethodDeflate:
		f.r = newInflateReader(lim)
	default:
		return newErr(KindNoSupport, "open", f.ent.Name, nil)
	}
	f.pos = 0
	return nil
}

// Read implements io.Reader, lazily initializing the inflate state.
func (f *File) Read(p []byte) (int, error) {
	if err := f.ensureReader(); err != nil {
		return 0, err
	}
	n, err := f.r.Read(p)
	f.pos += int64(n)
	return n, err
}

// Seek supports arbitrary seeking: forward seeks discard output,
// backward seeks reset the inflate state and replay from the start.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case SeekStart:
		target = offset
	case SeekCurrent:
		target = f.pos + offset
	case SeekEnd:
		target = int64(f.ent.UncompSize) + offset
	default:
		return 0, newErr(KindSeek, "seek", "", nil)
	}
	if target < f.pos {
		f.r = nil
		f.pos = 0
	}
	discard := target - f.pos
	if discard > 0 {
		if err := f.ensureReader(); err != nil {
			return 0, err
		}
		if _, err := io.CopyN(io.Discard, f, discard); err != nil && err != io.EOF {
			return 0, wrapf(KindSeek, "seek", err, "replaying to offset %d", target)
		}
	}
	return f.pos, nil
}

// Close releases the file's reader. Virtual files are not buffered on
// disk, so Close is a no-op beyond dropping the reference.
func (f *File) Close() error {
	f.r = nil
	return nil
}

// Write is always rejected: the archive VFS view is read-only.
func (f *File) Write([]byte) (int, error) {
	return 0, newErr(KindNoPermission, "write", f.ent.Name, nil)
}
