package zipfs

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/vfscore/vfs/backend"
	"github.com/vfscore/vfs/vfscommon"
	"github.com/vfscore/vfs/vfsstream"
)

const (
	uncompressedCacheSize = 32 * 1024
	compressedCacheSize   = 4 * 1024
	storedCacheSize       = uncompressedCacheSize + compressedCacheSize // merged per spec.md §4.7
)

// file is an open ZIP member. It owns a duplicated Stream over the archive
// so its cursor is independent of any other open file or the Backend's own
// stream, per spec.md §3 "File handle".
type file struct {
	b      *Backend
	fi     fileInfo
	stream vfsstream.Stream

	payloadOffset int64 // first byte past the local header
	pos           int64 // logical uncompressed position

	archiveReferenced bool

	// bufReader serves reads: for STORE, a single merged cache directly
	// over the payload bytes; for DEFLATE, a cache over the decompressor's
	// output, which itself pulls from a second, smaller cache over the
	// compressed payload bytes — the dual-cache arrangement spec.md §4.7
	// describes.
	bufReader *bufio.Reader
	inflate   io.ReadCloser // non-nil only for DEFLATE; closed and rebuilt on reset
}

// newFile opens fi within b, parsing the local header to find the payload
// offset per spec.md §4.7 "File open and read".
func newFile(b *Backend, fi fileInfo) (*file, error) {
	s, err := b.stream.Duplicate()
	if err != nil {
		return nil, err
	}
	f := &file{b: b, fi: fi, stream: s}
	if err := f.locatePayload(); err != nil {
		s.Close()
		return nil, err
	}
	if err := f.resetDecoder(0); err != nil {
		s.Close()
		return nil, err
	}
	return f, nil
}

func (f *file) locatePayload() error {
	if _, err := f.stream.Seek(f.fi.localHeaderOffset+26, io.SeekStart); err != nil {
		return err
	}
	var lens [4]byte
	if _, err := io.ReadFull(f.stream, lens[:]); err != nil {
		return err
	}
	nameLen := int64(binary.LittleEndian.Uint16(lens[0:2]))
	extraLen := int64(binary.LittleEndian.Uint16(lens[2:4]))
	f.payloadOffset = f.fi.localHeaderOffset + 30 + nameLen + extraLen
	return nil
}

// resetDecoder (re)builds the stream position and decompressor so the next
// Read produces bytes starting at logical offset 0, then read-discards up
// to target — the only seek strategy available without a seek table, per
// spec.md §4.7 "Seek".
func (f *file) resetDecoder(target int64) error {
	if f.inflate != nil {
		f.inflate.Close()
		f.inflate = nil
	}
	if _, err := f.stream.Seek(f.payloadOffset, io.SeekStart); err != nil {
		return err
	}

	bounded := io.LimitReader(asReader(f.stream), f.fi.compressedSize)
	if f.fi.method == methodStore {
		f.bufReader = bufio.NewReaderSize(bounded, storedCacheSize)
	} else {
		compressedCache := bufio.NewReaderSize(bounded, compressedCacheSize)
		inflate := flate.NewReader(compressedCache)
		f.inflate = inflate
		f.bufReader = bufio.NewReaderSize(inflate, uncompressedCacheSize)
	}
	f.pos = 0

	if target > 0 {
		if _, err := io.CopyN(io.Discard, f.bufReader, target); err != nil {
			return fmt.Errorf("zipfs: seek past readable data: %w", vfscommon.ErrBadSeek)
		}
		f.pos = target
	}
	return nil
}

// asReader adapts a Stream's Read to a plain io.Reader, translating
// vfscommon.ErrAtEnd to io.EOF so bufio/flate see ordinary EOF semantics.
type streamReader struct{ s vfsstream.Stream }

func asReader(s vfsstream.Stream) io.Reader { return streamReader{s} }

func (r streamReader) Read(p []byte) (int, error) {
	n, err := r.s.Read(p)
	if err == vfscommon.ErrAtEnd {
		err = io.EOF
	}
	return n, err
}

func (f *file) Read(p []byte) (int, error) {
	if f.pos >= f.fi.uncompressedSize {
		return 0, vfscommon.ErrAtEnd
	}
	max := f.fi.uncompressedSize - f.pos
	if int64(len(p)) > max {
		p = p[:max]
	}
	n, err := f.bufReader.Read(p)
	f.pos += int64(n)
	if err == io.EOF {
		err = nil
	}
	if n == 0 && err == nil {
		return 0, vfscommon.ErrAtEnd
	}
	return n, err
}

func (f *file) Write([]byte) (int, error) {
	return 0, vfscommon.ErrNotImplemented
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = f.pos + offset
	case io.SeekEnd:
		target = f.fi.uncompressedSize + offset
	default:
		return f.pos, vfscommon.ErrBadSeek
	}
	if target < 0 || target > f.fi.uncompressedSize {
		return f.pos, vfscommon.ErrBadSeek
	}

	if target >= f.pos {
		if _, err := io.CopyN(io.Discard, f.bufReader, target-f.pos); err != nil {
			return f.pos, fmt.Errorf("zipfs: seek past readable data: %w", vfscommon.ErrBadSeek)
		}
		f.pos = target
		return f.pos, nil
	}

	if err := f.resetDecoder(target); err != nil {
		return f.pos, err
	}
	return f.pos, nil
}

func (f *file) Tell() (int64, error) {
	return f.pos, nil
}

func (f *file) Info() (backend.Info, error) {
	return backend.Info{Size: f.fi.uncompressedSize, IsDir: f.fi.isDir}, nil
}

func (f *file) Duplicate() (backend.File, error) {
	dup, err := newFile(f.b, f.fi)
	if err != nil {
		return nil, err
	}
	if f.pos > 0 {
		if _, err := dup.Seek(f.pos, io.SeekStart); err != nil {
			dup.Close()
			return nil, err
		}
	}
	return dup, nil
}

func (f *file) Close() error {
	if f.inflate != nil {
		f.inflate.Close()
	}
	return f.stream.Close()
}

// MarkArchiveReferenced implements backend.ArchiveRefMarker by recording the
// flag that ArchiveReferenced reports. Close does not consult it: files opened
// through an archive FS reach the VFS core wrapped by the proxy backend, and
// the core marks that wrapper, whose Close releases the cache reference.
func (f *file) MarkArchiveReferenced() {
	f.archiveReferenced = true
}

// ArchiveReferenced reports the flag MarkArchiveReferenced set.
func (f *file) ArchiveReferenced() bool {
	return f.archiveReferenced
}

var (
	_ backend.File            = (*file)(nil)
	_ backend.ArchiveRefMarker = (*file)(nil)
)
