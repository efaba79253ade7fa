package tracefile

import (
	"io"
	"os"
	"syscall"

	seekable "github.com/SaveTheRbtz/zstd-seekable-format-go/pkg"
	"github.com/klauspost/compress/zstd"
)

// zstdDec is a package-level concurrent-safe decoder, mirroring the
// teacher's chunk/file/compress.go.
var zstdDec *zstd.Decoder

func init() {
	var err error
	zstdDec, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic("tracefile: init zstd decoder: " + err.Error())
	}
}

// chunkCursor is the byte-access contract FileChunkStream reads a chunk's
// payload area through. The three implementations below mirror the
// teacher's mmapCursor/stdioCursor split, adding a third for zstd-seekable
// sealed chunks.
type chunkCursor interface {
	ReadAt(p []byte, off int64) (int, error)
	Close() error
}

// mmapCursor memory-maps a sealed, uncompressed chunk file for random
// access.
type mmapCursor struct {
	f    *os.File
	data []byte
}

func openMmapCursor(path string) (*mmapCursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		f.Close()
		return nil, errEmptyChunk
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(info.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &mmapCursor{f: f, data: data}, nil
}

func (c *mmapCursor) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(c.data)) {
		return 0, errChunkEOF
	}
	n := copy(p, c.data[off:])
	if n < len(p) {
		return n, errChunkEOF
	}
	return n, nil
}

func (c *mmapCursor) Close() error {
	var err error
	if c.data != nil {
		err = syscall.Munmap(c.data)
		c.data = nil
	}
	if c.f != nil {
		if e := c.f.Close(); e != nil && err == nil {
			err = e
		}
		c.f = nil
	}
	return err
}

// stdioCursor reads the active (still-growing) chunk file via plain ReadAt
// on the open file instead of mapping it.
type stdioCursor struct{ f *os.File }

func openStdioCursor(path string) (*stdioCursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &stdioCursor{f: f}, nil
}

func (c *stdioCursor) ReadAt(p []byte, off int64) (int, error) {
	n, err := c.f.ReadAt(p, off)
	return n, err
}

func (c *stdioCursor) Close() error { return c.f.Close() }

// seekableCursor reads a sealed, zstd-seekable-compressed chunk, decoding
// only the frame(s) covering each requested byte range, mirroring the
// teacher's openSeekableReader.
type seekableCursor struct {
	f          *os.File
	r          seekable.Reader
	dataOffset int64
}

func openSeekableCursor(path string, dataOffset int64) (*seekableCursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	section := io.NewSectionReader(f, dataOffset, info.Size()-dataOffset)
	r, err := seekable.NewReader(section, zstdDec)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &seekableCursor{f: f, r: r, dataOffset: dataOffset}, nil
}

// ReadAt takes a file offset, like the other cursors; the decompressed
// payload starts at dataOffset.
func (c *seekableCursor) ReadAt(p []byte, off int64) (int, error) {
	return c.r.ReadAt(p, off-c.dataOffset)
}

func (c *seekableCursor) Close() error {
	var err error
	if c.r != nil {
		err = c.r.Close()
	}
	if c.f != nil {
		if e := c.f.Close(); e != nil && err == nil {
			err = e
		}
		c.f = nil
	}
	return err
}
