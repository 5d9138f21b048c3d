// Package zipfs implements the read-only ZIP backend: central-directory
// parsing with Zip64 promotion, an accelerated lookup tree, and DEFLATE
// streaming with dual caches, per spec.md §4.7.
package zipfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfsstream"
)

const (
	sigEOCD        = 0x06054b50
	sigEOCD64      = 0x06064b50
	sigEOCD64Locator = 0x07064b50
	sigCentralDir  = 0x02014b50
	sigLocalHeader = 0x04034b50

	eocdFixedSize        = 22
	eocd64LocatorSize    = 20
	eocd64FixedSize      = 56
	maxCommentSize       = 65535
	sweepChunkSize       = 4096
	sweepOverlap         = 3
)

// eocd is the decoded (and, where necessary, Zip64-promoted) End-of-
// Central-Directory record.
type eocd struct {
	recordCount int64
	cdSize      int64
	cdOffset    int64
}

const sentinel32 = 0xFFFFFFFF
const sentinel16 = 0xFFFF

// findEOCD locates and parses the EOCD record, per spec.md §4.7 "CD
// discovery": try position -22 from the end first; if the signature
// doesn't match (a non-empty comment pushed it earlier), sweep backward in
// 4KiB buffered reads with a 3-byte overlap, bounded by the maximum
// possible comment size.
func findEOCD(s vfsstream.Stream) (eocd, error) {
	size, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return eocd{}, err
	}

	if size >= eocdFixedSize {
		buf := make([]byte, eocdFixedSize)
		if _, err := s.Seek(-eocdFixedSize, io.SeekEnd); err != nil {
			return eocd{}, err
		}
		if _, err := io.ReadFull(s, buf); err != nil {
			return eocd{}, err
		}
		if binary.LittleEndian.Uint32(buf) == sigEOCD && binary.LittleEndian.Uint16(buf[20:]) == 0 {
			return decodeEOCD(s, buf, size-eocdFixedSize)
		}
	}

	maxBack := int64(eocdFixedSize + maxCommentSize)
	if maxBack > size {
		maxBack = size
	}
	searchStart := size - maxBack

	pos := size
	var prevTail []byte
	for pos > searchStart {
		chunkLen := int64(sweepChunkSize)
		if pos-chunkLen < searchStart {
			chunkLen = pos - searchStart
		}
		readAt := pos - chunkLen
		buf := make([]byte, chunkLen+int64(len(prevTail)))
		if _, err := s.Seek(readAt, io.SeekStart); err != nil {
			return eocd{}, err
		}
		if _, err := io.ReadFull(s, buf[:chunkLen]); err != nil {
			return eocd{}, err
		}
		copy(buf[chunkLen:], prevTail)

		if idx := bytes.LastIndex(buf, []byte{0x50, 0x4b, 0x05, 0x06}); idx >= 0 {
			recordOffset := readAt + int64(idx)
			recLen := size - recordOffset
			if recLen < eocdFixedSize {
				continue
			}
			full := make([]byte, eocdFixedSize)
			if _, err := s.Seek(recordOffset, io.SeekStart); err != nil {
				return eocd{}, err
			}
			if _, err := io.ReadFull(s, full); err != nil {
				return eocd{}, err
			}
			return decodeEOCD(s, full, recordOffset)
		}

		if chunkLen >= sweepOverlap {
			prevTail = append([]byte(nil), buf[:sweepOverlap]...)
		} else {
			prevTail = append([]byte(nil), buf...)
		}
		pos = readAt
	}

	return eocd{}, fmt.Errorf("zipfs: end of central directory record not found: %w", vfscommon.ErrInvalidFile)
}

func decodeEOCD(s vfsstream.Stream, buf []byte, recordOffset int64) (eocd, error) {
	rec := eocd{
		recordCount: int64(binary.LittleEndian.Uint16(buf[10:])),
		cdSize:      int64(binary.LittleEndian.Uint32(buf[12:])),
		cdOffset:    int64(binary.LittleEndian.Uint32(buf[16:])),
	}

	needs64 := rec.recordCount == sentinel16 || uint32(rec.cdSize) == sentinel32 || uint32(rec.cdOffset) == sentinel32
	if !needs64 {
		return rec, nil
	}

	locatorOffset := recordOffset - eocd64LocatorSize
	if locatorOffset < 0 {
		return eocd{}, fmt.Errorf("zipfs: zip64 locator out of range: %w", vfscommon.ErrInvalidFile)
	}
	locator := make([]byte, eocd64LocatorSize)
	if _, err := s.Seek(locatorOffset, io.SeekStart); err != nil {
		return eocd{}, err
	}
	if _, err := io.ReadFull(s, locator); err != nil {
		return eocd{}, err
	}
	if binary.LittleEndian.Uint32(locator) != sigEOCD64Locator {
		return eocd{}, fmt.Errorf("zipfs: zip64 locator signature mismatch: %w", vfscommon.ErrInvalidFile)
	}
	eocd64Offset := int64(binary.LittleEndian.Uint64(locator[8:]))

	fixed := make([]byte, eocd64FixedSize)
	if _, err := s.Seek(eocd64Offset, io.SeekStart); err != nil {
		return eocd{}, err
	}
	if _, err := io.ReadFull(s, fixed); err != nil {
		return eocd{}, err
	}
	if binary.LittleEndian.Uint32(fixed) != sigEOCD64 {
		return eocd{}, fmt.Errorf("zipfs: zip64 EOCD signature mismatch: %w", vfscommon.ErrInvalidFile)
	}

	return eocd{
		recordCount: int64(binary.LittleEndian.Uint64(fixed[32:])),
		cdSize:      int64(binary.LittleEndian.Uint64(fixed[40:])),
		cdOffset:    int64(binary.LittleEndian.Uint64(fixed[48:])),
	}, nil
}
