package block

import "github.com/xaionaro-go/bytesextra"

// NewInMemory builds a Disk entirely in memory, backed by a zeroed byte
// slice wrapped with bytesextra.NewReadWriteSeeker. It's how tests exercise
// ufs without touching the file system.
func NewInMemory(blockSize, totalBlocks int) *Disk {
	data := make([]byte, blockSize*totalBlocks)
	return New(bytesextra.NewReadWriteSeeker(data), blockSize, totalBlocks)
}

// NewInMemoryFromBytes wraps an existing byte slice (whose length must be a
// multiple of blockSize) as a Disk, without copying it.
func NewInMemoryFromBytes(data []byte, blockSize int) *Disk {
	return New(bytesextra.NewReadWriteSeeker(data), blockSize, len(data)/blockSize)
}
