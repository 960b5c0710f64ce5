package archive

import (
	"strings"
	"time"
)

// Entry is one record inside an archive: a file, folder, or symlink.
// Entries are kept in insertion order in Archive.entries; Offset always
// points at the start of the entry's local file header.
type Entry struct {
	Name        string
	Comment     string
	Method      uint16
	IsLink      bool
	IsFolder    bool
	Permissions Permissions
	HasSecurity bool
	Modified    time.Time
	CRC32       uint32
	CompSize    uint32
	UncompSize  uint32
	Offset      int64
}

// normalizeName strips a leading "./" and converts backslashes to
// forward slashes so entry names are stored consistently regardless of
// the host path separator.
func normalizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	for strings.HasPrefix(name, "./") {
		name = name[2:]
	}
	return name
}

// ItemFlag enumerates the public, flattened entry kind surfaced by
// CompressedItem.
type ItemFlag int

const (
	ItemFile ItemFlag = 1 << iota
	ItemFolder
	ItemLink
)

// CompressedItem is the flattened, public view of an Entry.
type CompressedItem struct {
	Path        string
	Comment     string
	Modified    time.Time
	CompSize    int64
	UncompSize  int64
	Permissions Permissions
	Flags       ItemFlag
}

func (e *Entry) toItem() CompressedItem {
	var flags ItemFlag
	switch {
	case e.IsFolder:
		flags = ItemFolder
	case e.IsLink:
		flags = ItemLink
	default:
		flags = ItemFile
	}
	return CompressedItem{
		Path:        e.Name,
		Comment:     e.Comment,
		Modified:    e.Modified,
		CompSize:    int64(e.CompSize),
		UncompSize:  int64(e.UncompSize),
		Permissions: e.Permissions,
		Flags:       flags,
	}
}

// localHeaderSize returns the byte length of this entry's local file
// header including name and extra (extra is always empty for archives
// this package writes).
func (e *Entry) localHeaderSize() int64 {
	return localHeaderLen + int64(len(e.Name))
}

// footprint is the total byte span this entry occupies in the backing
// stream: local header + name + compressed payload.
func (e *Entry) footprint() int64 {
	return e.localHeaderSize() + int64(e.CompSize)
}
