package archive

import (
	"encoding/binary"
	"io"
)

// scan builds a.entries from a.stream, preferring the fast EOCD-based
// scan and falling back to a linear scan when the fast path's
// assumptions don't hold.
func (a *Archive) scan() error {
	size, err := a.stream.Size()
	if err != nil {
		return wrapf(KindRead, "scan", err, "querying stream size")
	}
	if size == 0 {
		return nil // empty archive, accepted as-is
	}

	if err := seekAbs(a.stream, 0); err != nil {
		return err
	}
	var sig [4]byte
	if err := readFull(a.stream, sig[:]); err != nil {
		return err
	}
	if binary.LittleEndian.Uint32(sig[:]) != sigLocalFile {
		return newErr(KindNoSupport, "scan", "", nil)
	}

	if size >= eocdLen {
		if ok, err := a.fastScan(size); err != nil {
			return err
		} else if ok {
			return nil
		}
	}
	return a.fallbackScan()
}

// fastScan implements : read the trailing EOCD, then
// read the central directory it points at in one shot.
func (a *Archive) fastScan(size int64) (bool, error) {
	if err := seekAbs(a.stream, size-eocdLen); err != nil {
		return false, err
	}
	var e eocd
	var err error
	if e.Signature, err = readUint32(a.stream); err != nil {
		return false, err
	}
	if e.Signature != sigEndOfCentral {
		return false, nil
	}
	if e.ThisDisk, err = readUint16(a.stream); err != nil {
		return false, err
	}
	if e.CDDisk, err = readUint16(a.stream); err != nil {
		return false, err
	}
	if e.DiskEntries, err = readUint16(a.stream); err != nil {
		return false, err
	}
	if e.TotalEntries, err = readUint16(a.stream); err != nil {
		return false, err
	}
	if e.CDSize, err = readUint32(a.stream); err != nil {
		return false, err
	}
	if e.CDOffset, err = readUint32(a.stream); err != nil {
		return false, err
	}

	if err := seekAbs(a.stream, int64(e.CDOffset)); err != nil {
		return false, err
	}
	entries := make([]*Entry, 0, e.TotalEntries)
	for i := 0; i < int(e.TotalEntries); i++ {
		ent, sig, err := a.readCentralRecord()
		if err != nil {
			return false, err
		}
		if sig != sigCentralDir {
			// Any mismatch in the central directory triggers the
			// fallback scan.
			return false, nil
		}
		entries = append(entries, ent)
	}
	a.entries = entries
	return true, nil
}

// readCentralRecord reads one central directory entry, assuming the
// stream is positioned at its signature.
func (a *Archive) readCentralRecord() (*Entry, uint32, error) {
	var h centralHeader
	var err error
	if h.Signature, err = readUint32(a.stream); err != nil {
		return nil, 0, err
	}
	if h.Signature != sigCentralDir {
		return nil, h.Signature, nil
	}
	if h.VersionMadeBy, err = readUint16(a.stream); err != nil {
		return nil, 0, err
	}
	if h.VersionNeeded, err = readUint16(a.stream); err != nil {
		return nil, 0, err
	}
	if h.Flags, err = readUint16(a.stream); err != nil {
		return nil, 0, err
	}
	if h.Method, err = readUint16(a.stream); err != nil {
		return nil, 0, err
	}
	if h.Time, err = readUint32(a.stream); err != nil {
		return nil, 0, err
	}
	if h.CRC32, err = readUint32(a.stream); err != nil {
		return nil, 0, err
	}
	if h.CompSize, err = readUint32(a.stream); err != nil {
		return nil, 0, err
	}
	if h.UncompSize, err = readUint32(a.stream); err != nil {
		return nil, 0, err
	}
	if h.NameLen, err = readUint16(a.stream); err != nil {
		return nil, 0, err
	}
	if h.ExtraLen, err = readUint16(a.stream); err != nil {
		return nil, 0, err
	}
	if h.CommentLen, err = readUint16(a.stream); err != nil {
		return nil, 0, err
	}
	if h.Disk, err = readUint16(a.stream); err != nil {
		return nil, 0, err
	}
	if h.IntAttrs, err = readUint16(a.stream); err != nil {
		return nil, 0, err
	}
	if h.ExtAttrs, err = readUint32(a.stream); err != nil {
		return nil, 0, err
	}
	if h.LocalHdrOffset, err = readUint32(a.stream); err != nil {
		return nil, 0, err
	}

	name := make([]byte, h.NameLen)
	if err := readFull(a.stream, name); err != nil {
		return nil, 0, err
	}
	if h.ExtraLen > 0 {
		if _, err := a.stream.Seek(int64(h.ExtraLen), SeekCurrent); err != nil {
			return nil, 0, wrapf(KindSeek, "scan", err, "skipping extra field")
		}
	}
	if h.CommentLen > 0 {
		if _, err := a.stream.Seek(int64(h.CommentLen), SeekCurrent); err != nil {
			return nil, 0, wrapf(KindSeek, "scan", err, "skipping comment field")
		}
	}

	entryName := normalizeName(string(name))
	perm, isLink, hasSecurity := a.opts.DefaultPermissions, false, false
	if byte(h.VersionMadeBy>>8) == hostOS {
		perm, isLink, hasSecurity = decodePermissions(h.ExtAttrs)
	}
	isFolder := len(entryName) > 0 && entryName[len(entryName)-1] == '/' &&
		h.UncompSize == 0 && !isLink

	return &Entry{
		Name:        entryName,
		Method:      h.Method,
		IsLink:      isLink,
		IsFolder:    isFolder,
		Permissions: perm,
		HasSecurity: hasSecurity,
		Modified:    unpackDOSTime(h.Time, a.opts.Location),
		CRC32:       h.CRC32,
		CompSize:    h.CompSize,
		UncompSize:  h.UncompSize,
		Offset:      int64(h.LocalHdrOffset),
	}, h.Signature, nil
}

// fallbackScan implements : a linear walk over 4-byte
// signatures from the start of the stream.
func (a *Archive) fallbackScan() error {
	if err := seekAbs(a.stream, 0); err != nil {
		return err
	}
	var entries []*Entry
	for {
		sig, err := readUint32(a.stream)
		if err == io.EOF {
			return newErr(KindInvalidData, "scan", "", nil)
		}
		if err != nil {
			return err
		}
		switch sig {
		case sigLocalFile:
			if err := a.skipLocalPayload(); err != nil {
				return err
			}
		case sigCentralDir:
			off, err := tell(a.stream)
			if err != nil {
				return err
			}
			if err := seekAbs(a.stream, off-4); err != nil {
				return err
			}
			ent, _, err := a.readCentralRecord()
			if err != nil {
				return err
			}
			entries = append(entries, ent)
		case sigEndOfCentral:
			a.entries = entries
			return nil
		default:
			return newErr(KindInvalidData, "scan", "", nil)
		}
	}
}

// skipLocalPayload reads past one local file header's name, extra, and
// compressed payload without building an Entry (used when the local
// header is encountered directly, e.g. duplicated data the central
// directory doesn't reference).
func (a *Archive) skipLocalPayload() error {
	var h localHeader
	var err error
	if h.Version, err = readUint16(a.stream); err != nil {
		return err
	}
	if h.Flags, err = readUint16(a.stream); err != nil {
		return err
	}
	if h.Method, err = readUint16(a.stream); err != nil {
		return err
	}
	if h.Time, err = readUint32(a.stream); err != nil {
		return err
	}
	if h.CRC32, err = readUint32(a.stream); err != nil {
		return err
	}
	if h.CompSize, err = readUint32(a.stream); err != nil {
		return err
	}
	if h.UncompSize, err = readUint32(a.stream); err != nil {
		return err
	}
	if h.NameLen, err = readUint16(a.stream); err != nil {
		return err
	}
	if h.ExtraLen, err = readUint16(a.stream); err != nil {
		return err
	}
	skip := int64(h.NameLen) + int64(h.ExtraLen) + int64(h.CompSize)
	if _, err := a.stream.Seek(skip, SeekCurrent); err != nil {
		return wrapf(KindSeek, "scan", err, "skipping local file payload")
	}
	return nil
}
