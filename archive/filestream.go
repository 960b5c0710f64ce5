package archive

import "os"

// FileStream is a read-write Stream backed directly by an *os.File, for
// hosts building or mutating an archive on disk rather than in memory or
// through a read-only mmap.
type FileStream struct {
	f *os.File
}

// CreateFile truncates (or creates) path and returns a Stream ready for
// AddFile/AddFolder calls.
func CreateFile(path string) (*FileStream, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, wrapf(KindFile, "create", err, "creating %s", path)
	}
	return &FileStream{f: f}, nil
}

// OpenFileRW opens an existing archive for in-place modification, such
// as RemoveEntry followed by Flush.
func OpenFileRW(path string) (*FileStream, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, wrapf(KindFile, "open", err, "opening %s", path)
	}
	return &FileStream{f: f}, nil
}

func (s *FileStream) Read(p []byte) (int, error)  { return s.f.Read(p) }
func (s *FileStream) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *FileStream) Seek(offset int64, whence int) (int64, error) {
	return s.f.Seek(offset, whence)
}

func (s *FileStream) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, wrapf(KindFile, "stat", err, "statting %s", s.f.Name())
	}
	return fi.Size(), nil
}

func (s *FileStream) SetSize(n int64) error {
	if err := s.f.Truncate(n); err != nil {
		return wrapf(KindWrite, "truncate", err, "truncating %s to %d bytes", s.f.Name(), n)
	}
	return nil
}

func (s *FileStream) Flush() error { return s.f.Sync() }

// Close closes the underlying file.
func (s *FileStream) Close() error { return s.f.Close() }
