// Package block is the external block-device collaborator the ufs engine
// is built against: a fixed-size-block read/write abstraction over a
// file-backed disk image. It does not understand anything about
// superblocks, inodes, or bitmaps — that's ufs's job.
package block

import (
	"fmt"
	"io"
	"os"
)

// Disk is a file- or stream-backed block device. All reads and writes go
// through ReadBlock/WriteBlock in units of BlockSize bytes; there is no
// partial-block I/O.
type Disk struct {
	stream    io.ReadWriteSeeker
	BlockSize int
	// TotalBlocks is informational; it's used only for bounds checking and
	// is not trusted for anything else.
	TotalBlocks int
}

// New wraps an existing stream as a Disk. totalBlocks is the number of
// BlockSize-byte blocks the stream is expected to hold.
func New(stream io.ReadWriteSeeker, blockSize, totalBlocks int) *Disk {
	return &Disk{stream: stream, BlockSize: blockSize, TotalBlocks: totalBlocks}
}

// Open maps an on-disk image file to a Disk. The file must already exist;
// TotalBlocks is taken from its size divided by blockSize.
func Open(path string, blockSize int) (*Disk, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open disk image %q: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat disk image %q: %w", path, err)
	}

	return &Disk{
		stream:      file,
		BlockSize:   blockSize,
		TotalBlocks: int(info.Size()) / blockSize,
	}, nil
}

// Create truncates (or creates) path to hold exactly totalBlocks blocks of
// blockSize bytes each, and returns a Disk wrapping it.
func Create(path string, blockSize, totalBlocks int) (*Disk, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create disk image %q: %w", path, err)
	}
	if err := file.Truncate(int64(blockSize) * int64(totalBlocks)); err != nil {
		file.Close()
		return nil, fmt.Errorf("truncate disk image %q: %w", path, err)
	}
	return &Disk{stream: file, BlockSize: blockSize, TotalBlocks: totalBlocks}, nil
}

// Close releases the underlying file, if this Disk owns one.
func (d *Disk) Close() error {
	if closer, ok := d.stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (d *Disk) checkBounds(n int) error {
	if n < 0 || n >= d.TotalBlocks {
		return fmt.Errorf("block %d out of range [0, %d)", n, d.TotalBlocks)
	}
	return nil
}

// ReadBlock fills buf (exactly BlockSize bytes) with block n's contents.
func (d *Disk) ReadBlock(n int, buf []byte) error {
	if len(buf) != d.BlockSize {
		return fmt.Errorf("read block %d: buffer must be %d bytes, got %d", n, d.BlockSize, len(buf))
	}
	if err := d.checkBounds(n); err != nil {
		return err
	}
	if _, err := d.stream.Seek(int64(n)*int64(d.BlockSize), io.SeekStart); err != nil {
		return fmt.Errorf("seek to block %d: %w", n, err)
	}
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return fmt.Errorf("read block %d: %w", n, err)
	}
	return nil
}

// WriteBlock writes buf (exactly BlockSize bytes) to block n.
func (d *Disk) WriteBlock(n int, buf []byte) error {
	if len(buf) != d.BlockSize {
		return fmt.Errorf("write block %d: buffer must be %d bytes, got %d", n, d.BlockSize, len(buf))
	}
	if err := d.checkBounds(n); err != nil {
		return err
	}
	if _, err := d.stream.Seek(int64(n)*int64(d.BlockSize), io.SeekStart); err != nil {
		return fmt.Errorf("seek to block %d: %w", n, err)
	}
	if _, err := d.stream.Write(buf); err != nil {
		return fmt.Errorf("write block %d: %w", n, err)
	}
	return nil
}
