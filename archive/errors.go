package archive

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Kind classifies an *Error so callers can branch on failure category
// without string-matching messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoData
	KindInvalidData
	KindRead
	KindWrite
	KindSeek
	KindFile
	KindNoSupport
	KindMissingPath
	KindNoPermission
	KindBufferOverflow
	KindAllocMemory
	KindWrongVersion
	KindDecompression
	KindSearch
	KindCancelled
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindNoData:
		return "no data"
	case KindInvalidData:
		return "invalid data"
	case KindRead:
		return "read error"
	case KindWrite:
		return "write error"
	case KindSeek:
		return "seek error"
	case KindFile:
		return "file error"
	case KindNoSupport:
		return "not supported"
	case KindMissingPath:
		return "missing path"
	case KindNoPermission:
		return "no permission"
	case KindBufferOverflow:
		return "buffer overflow"
	case KindAllocMemory:
		return "out of memory"
	case KindWrongVersion:
		return "wrong version"
	case KindDecompression:
		return "decompression error"
	case KindSearch:
		return "no match"
	case KindCancelled:
		return "cancelled"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by this package. It always
// carries a Kind so callers can use errors.Is/As, and it wraps the
// underlying cause (if any) with xerrors so %w-style chains still work.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		if e.Err != nil {
			return fmt.Sprintf("archive: %s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
		}
		return fmt.Sprintf("archive: %s %s: %s", e.Op, e.Path, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("archive: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("archive: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, archive.KindX) read naturally by comparing kinds
// through a sentinel wrapper; most callers instead call KindOf.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == te.Kind
}

func newErr(kind Kind, op, path string, err error) error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func wrapf(kind Kind, op string, err error, format string, args ...interface{}) error {
	if err == nil {
		return &Error{Kind: kind, Op: op, Err: xerrors.Errorf(format, args...)}
	}
	return &Error{Kind: kind, Op: op, Err: xerrors.Errorf(format+": %w", append(args, err)...)}
}

// KindOf returns the Kind carried by err, or KindUnknown if err is not
// (or does not wrap) an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if xerrors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}
