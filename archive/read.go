package archive

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/renameio"
	"golang.org/x/xerrors"
)

// Sink is the destination for a decompressed entry.
type Sink interface {
	io.Writer
}

// Decompress resolves pattern against the entry index with a
// case-insensitive glob and extracts every match under
// destDir, preserving directory structure. applySecurity controls
// whether the entry's stored permission bits are applied to the
// extracted file.
func (a *Archive) Decompress(pattern, destDir string, applySecurity bool, progress FeedbackFunc) error {
	a.mu.Lock()
	matches := make([]*Entry, 0)
	for _, e := range a.entries {
		if globMatch(pattern, e.Name) {
			matches = append(matches, e)
		}
	}
	a.mu.Unlock()

	var firstErr error
	for i, ent := range matches {
		dest := filepath.Join(destDir, filepath.FromSlash(ent.Name))
		action := callFeedback(progress, entryFeedback(ent, i, dest))
		switch action {
		case ActionCancel:
			return newErr(KindCancelled, "decompress", ent.Name, nil)
		case ActionTerminate:
			return firstErr
		case ActionSkip:
			continue
		}

		if err := a.extractOne(ent, dest, applySecurity); err != nil {
			// A decompression error aborts this entry only and
			// continues to the next wildcard match; the first such
			// error is returned once the remaining matches are done.
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
	}
	return firstErr
}

func entryFeedback(ent *Entry, index int, dest string) Feedback {
	m := ent.Modified
	return Feedback{
		Kind:     FeedbackDecompress,
		Index:    index,
		Year:     m.Year(),
		Month:    int(m.Month()),
		Day:      m.Day(),
		Hour:     m.Hour(),
		Minute:   m.Minute(),
		Second:   m.Second(),
		Path:     ent.Name,
		Dest:     dest,
		OrigSize: int64(ent.UncompSize),
		CompSize: int64(ent.CompSize),
	}
}

// extractOne streams one entry's payload to dest.
func (a *Archive) extractOne(ent *Entry, dest string, applySecurity bool) error {
	if ent.IsFolder {
		return os.MkdirAll(dest, 0755)
	}

	r, err := a.OpenReader(ent.Name)
	if err != nil {
		return err
	}
	defer r.Close()

	if ent.IsLink {
		target, err := io.ReadAll(r)
		if err != nil {
			return wrapf(KindRead, "decompress", err, "reading link target for %s", ent.Name)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return wrapf(KindFile, "decompress", err, "creating parent directory for %s", dest)
		}
		os.Remove(dest)
		if err := os.Symlink(string(target), dest); err != nil {
			return wrapf(KindFile, "decompress", err, "creating symlink %s", dest)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return wrapf(KindFile, "decompress", err, "creating parent directory for %s", dest)
	}
	// renameio makes the write atomic: either dest ends up fully written
	// or not touched at all, grounded on internal/install.go's package
	// unpacking.
	f, err := renameio.TempFile("", dest)
	if err != nil {
		return wrapf(KindFile, "decompress", err, "creating temp file for %s", dest)
	}
	defer f.Cleanup()

	if _, err := io.Copy(f, r); err != nil {
		return wrapf(KindRead, "decompress", err, "decompressing %s", ent.Name)
	}

	perm := a.opts.DefaultPermissions
	if applySecurity && ent.HasSecurity {
		perm = ent.Permissions
	}
	if err := f.Chmod(os.FileMode(perm)); err != nil {
		return wrapf(KindNoPermission, "decompress", err, "setting permissions on %s", dest)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return wrapf(KindWrite, "decompress", err, "finalizing %s", dest)
	}
	return nil
}

// OpenReader returns a streaming reader over one entry's decompressed
// bytes. It seeks the archive's stream, so concurrent reads from two
// OpenReader calls on the same Archive are not safe.
func (a *Archive) OpenReader(name string) (io.ReadCloser, error) {
	ent, _ := a.findEntry(name)
	if ent == nil {
		return nil, newErr(KindMissingPath, "open", name, nil)
	}

	payloadOff := ent.Offset + localHeaderLen + int64(len(ent.Name))
	if err := seekAbs(a.stream, payloadOff); err != nil {
		return nil, err
	}

	lim := io.LimitReader(streamReader{a.stream}, int64(ent.CompSize))
	switch ent.Method {
	case MethodStored:
		return io.NopCloser(lim), nil
	case MethodDeflate:
		return newInflateReader(lim), nil
	default:
		return nil, newErr(KindNoSupport, "open", name, xerrors.Errorf("method %d", ent.Method))
	}
}

// streamReader adapts Stream to a plain io.Reader for use with
// io.LimitReader.
type streamReader struct{ s Stream }

func (s streamReader) Read(p []byte) (int, error) { return s.s.Read(p) }

// globMatch matches pattern against name with a case-insensitive glob:
// '*' matches any run of characters, including '/', and '?'
// (single character) over the full entry path -- deliberately wider
// than path.Match's single-segment '*', since archive paths are matched
// as whole strings, not filesystem globs.
func globMatch(pattern, name string) bool {
	re := globCache.get(pattern)
	return re.MatchString(name)
}

var globCache = newGlobRegexpCache()

type globRegexpCache struct {
	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

func newGlobRegexpCache() *globRegexpCache {
	return &globRegexpCache{cache: make(map[string]*regexp.Regexp)}
}

func (c *globRegexpCache) get(pattern string) *regexp.Regexp {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.cache[pattern]; ok {
		return re
	}
	re := regexp.MustCompile("(?i)^" + globToRegexp(pattern) + "$")
	c.cache[pattern] = re
	return re
}

func globToRegexp(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}
