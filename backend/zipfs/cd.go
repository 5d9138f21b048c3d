package zipfs

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfsstream"
)

// fileInfo is the decoded per-entry record, per spec.md §3 "ZIP file info":
// a path slice into the CD, compression method, compressed/uncompressed
// sizes (Zip64-promoted), local-header offset, and directory flag.
type fileInfo struct {
	path             string
	method           uint16
	compressedSize   int64
	uncompressedSize int64
	localHeaderOffset int64
	isDir            bool
}

const (
	methodStore   = 0
	methodDeflate = 8

	zip64ExtraID = 0x0001
)

// loadCentralDirectory reads the full CD into one buffer (per spec.md §4.7
// "CD load and index") and decodes every record's variable-length sections
// to compute the next record's offset.
func loadCentralDirectory(s vfsstream.Stream, e eocd) ([]fileInfo, error) {
	buf := make([]byte, e.cdSize)
	if _, err := s.Seek(e.cdOffset, io.SeekStart); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(s, buf); err != nil {
		return nil, fmt.Errorf("zipfs: short read of central directory: %w", vfscommon.ErrInvalidFile)
	}

	files := make([]fileInfo, 0, e.recordCount)
	off := 0
	for off < len(buf) {
		if off+46 > len(buf) {
			return nil, fmt.Errorf("zipfs: truncated central directory record: %w", vfscommon.ErrInvalidFile)
		}
		rec := buf[off:]
		if binary.LittleEndian.Uint32(rec) != sigCentralDir {
			return nil, fmt.Errorf("zipfs: central directory signature mismatch: %w", vfscommon.ErrInvalidFile)
		}
		method := binary.LittleEndian.Uint16(rec[10:])
		compSize := int64(binary.LittleEndian.Uint32(rec[20:]))
		uncompSize := int64(binary.LittleEndian.Uint32(rec[24:]))
		nameLen := int(binary.LittleEndian.Uint16(rec[28:]))
		extraLen := int(binary.LittleEndian.Uint16(rec[30:]))
		commentLen := int(binary.LittleEndian.Uint16(rec[32:]))
		externalAttrs := binary.LittleEndian.Uint32(rec[38:])
		localOffset := int64(binary.LittleEndian.Uint32(rec[42:]))

		headerLen := 46 + nameLen + extraLen + commentLen
		if off+headerLen > len(buf) {
			return nil, fmt.Errorf("zipfs: central directory record overruns buffer: %w", vfscommon.ErrInvalidFile)
		}
		name := string(rec[46 : 46+nameLen])
		extra := rec[46+nameLen : 46+nameLen+extraLen]

		compSize, uncompSize, localOffset = promoteZip64(extra, compSize, uncompSize, localOffset)

		isDir := strings.HasSuffix(name, "/") || (externalAttrs&0x10 != 0 && uncompSize == 0 && method == methodStore)
		files = append(files, fileInfo{
			path:              strings.TrimSuffix(name, "/"),
			method:            method,
			compressedSize:    compSize,
			uncompressedSize:  uncompSize,
			localHeaderOffset: localOffset,
			isDir:             isDir,
		})

		off += headerLen
	}

	sort.Slice(files, func(i, j int) bool { return lessPath(files[i].path, files[j].path) })
	return files, nil
}

// lessPath implements spec.md §4.7's sort comparator: byte comparison,
// shorter-is-less on an equal prefix.
func lessPath(a, b string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// promoteZip64 parses the Zip64 extra field (ID 0x0001) per spec.md §6,
// pulling uncompressedSize, compressedSize, fileOffset in order, but only
// for fields whose base-record value was the 32-bit sentinel.
func promoteZip64(extra []byte, compSize, uncompSize, localOffset int64) (newComp, newUncomp, newOffset int64) {
	newComp, newUncomp, newOffset = compSize, uncompSize, localOffset

	needUncomp := uint32(uncompSize) == sentinel32
	needComp := uint32(compSize) == sentinel32
	needOffset := uint32(localOffset) == sentinel32
	if !needUncomp && !needComp && !needOffset {
		return
	}

	for i := 0; i+4 <= len(extra); {
		id := binary.LittleEndian.Uint16(extra[i:])
		size := int(binary.LittleEndian.Uint16(extra[i+2:]))
		if i+4+size > len(extra) {
			break
		}
		if id == zip64ExtraID {
			field := extra[i+4 : i+4+size]
			pos := 0
			if needUncomp && pos+8 <= len(field) {
				newUncomp = int64(binary.LittleEndian.Uint64(field[pos:]))
				pos += 8
			}
			if needComp && pos+8 <= len(field) {
				newComp = int64(binary.LittleEndian.Uint64(field[pos:]))
				pos += 8
			}
			if needOffset && pos+8 <= len(field) {
				newOffset = int64(binary.LittleEndian.Uint64(field[pos:]))
				pos += 8
			}
			return
		}
		i += 4 + size
	}
	return
}
