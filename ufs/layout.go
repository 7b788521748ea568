// Package ufs implements the on-disk layout and primitive operations of a
// minimal UNIX-style file system: a superblock, two allocation bitmaps, a
// packed inode table, and a data region, all addressed in fixed-size blocks
// of a BlockDevice.
package ufs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// BlockSize is the fixed size, in bytes, of every block on the device.
const BlockSize = 4096

// DirectPtrs is the number of direct block pointers stored in an inode.
// There are no indirect blocks, so this also bounds the maximum file size.
const DirectPtrs = 30

// InodeSize is the exact size, in bytes, of one packed inode record.
const InodeSize = 128

// DirEntrySize is the exact size, in bytes, of one packed directory entry.
const DirEntrySize = 32

// MaxNameLength is the longest name (in bytes, not counting a NUL
// terminator) a directory entry can hold.
const MaxNameLength = 28

// MaxFileSize is the largest number of bytes a regular file can hold, given
// there are no indirect blocks.
const MaxFileSize = DirectPtrs * BlockSize

// RootInodeNumber is the inode number of the file system root, which is
// always allocated and always a directory.
const RootInodeNumber = 0

// FileType distinguishes directories from regular files in an inode record.
type FileType int32

const (
	// Directory marks an inode as holding a packed array of DirEntry records.
	Directory FileType = 0
	// RegularFile marks an inode as holding arbitrary file data.
	RegularFile FileType = 1
)

func (t FileType) String() string {
	switch t {
	case Directory:
		return "directory"
	case RegularFile:
		return "file"
	default:
		return fmt.Sprintf("FileType(%d)", int32(t))
	}
}

// Superblock is the layout descriptor stored in block 0. It never changes
// after a volume is formatted.
type Superblock struct {
	InodeBitmapAddr int32
	InodeBitmapLen  int32
	DataBitmapAddr  int32
	DataBitmapLen   int32
	InodeRegionAddr int32
	InodeRegionLen  int32
	DataRegionAddr  int32
	DataRegionLen   int32
	NumInodes       int32
	NumData         int32
}

// InodesPerBlock is how many packed 128-byte inode records fit in one block.
const InodesPerBlock = BlockSize / InodeSize

// encodeSuperblock serializes the superblock into a zero-padded block-sized
// buffer so it can be written as block 0 in a single call.
func encodeSuperblock(sb Superblock) []byte {
	buf := make([]byte, BlockSize)
	w := bytes.NewBuffer(buf[:0])
	// Error is impossible: every field is a fixed-size integer and the
	// destination buffer is a bytes.Buffer that never refuses a write.
	_ = binary.Write(w, binary.NativeEndian, &sb)
	return buf
}

// decodeSuperblock reads a superblock out of the first sizeof(Superblock)
// bytes of a block-sized buffer. The remainder of the block is undefined and
// ignored.
func decodeSuperblock(block []byte) (Superblock, error) {
	var sb Superblock
	r := bytes.NewReader(block)
	if err := binary.Read(r, binary.NativeEndian, &sb); err != nil {
		return Superblock{}, fmt.Errorf("decode superblock: %w", err)
	}
	return sb, nil
}

// Inode is the in-memory form of the 128-byte on-disk inode record.
type Inode struct {
	Type   FileType
	Size   int32
	Direct [DirectPtrs]int32
}

// BlocksUsed returns the number of direct pointers that hold meaningful
// data for the inode's current size, i.e. ceil(Size / BlockSize).
func (inode *Inode) BlocksUsed() int {
	return int((int64(inode.Size) + BlockSize - 1) / BlockSize)
}

// encodeInode serializes an inode to its exact 128-byte on-disk form.
func encodeInode(inode Inode) [InodeSize]byte {
	var out [InodeSize]byte
	w := bytes.NewBuffer(out[:0])
	_ = binary.Write(w, binary.NativeEndian, &inode)
	return out
}

// decodeInode parses a 128-byte on-disk record into an Inode.
func decodeInode(data []byte) (Inode, error) {
	var inode Inode
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.NativeEndian, &inode); err != nil {
		return Inode{}, fmt.Errorf("decode inode: %w", err)
	}
	return inode, nil
}

// DirEntry is the in-memory form of a 32-byte on-disk directory entry: a
// NUL-padded name and the inode number it resolves to.
type DirEntry struct {
	Name [MaxNameLength]byte
	Inum int32
}

// NewDirEntry builds a DirEntry from a Go string, NUL-padding the name
// field. A name longer than MaxNameLength is silently truncated; callers are
// expected to have validated the length already.
func NewDirEntry(name string, inum int32) DirEntry {
	var entry DirEntry
	copy(entry.Name[:], name)
	entry.Inum = inum
	return entry
}

// NameString returns the entry's name as a Go string, stopping at the first
// NUL byte.
func (e DirEntry) NameString() string {
	n := bytes.IndexByte(e.Name[:], 0)
	if n < 0 {
		n = len(e.Name)
	}
	return string(e.Name[:n])
}

func encodeDirEntry(entry DirEntry) [DirEntrySize]byte {
	var out [DirEntrySize]byte
	w := bytes.NewBuffer(out[:0])
	_ = binary.Write(w, binary.NativeEndian, &entry)
	return out
}

func decodeDirEntry(data []byte) (DirEntry, error) {
	var entry DirEntry
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.NativeEndian, &entry); err != nil {
		return DirEntry{}, fmt.Errorf("decode directory entry: %w", err)
	}
	return entry, nil
}

// encodeDirEntries packs a slice of entries back-to-back with no padding.
func encodeDirEntries(entries []DirEntry) []byte {
	out := make([]byte, 0, len(entries)*DirEntrySize)
	for _, entry := range entries {
		raw := encodeDirEntry(entry)
		out = append(out, raw[:]...)
	}
	return out
}

// DecodeDirEntries unpacks a byte slice whose length is a multiple of
// DirEntrySize into directory entries.
func DecodeDirEntries(data []byte) ([]DirEntry, error) {
	if len(data)%DirEntrySize != 0 {
		return nil, fmt.Errorf(
			"directory payload length %d is not a multiple of %d", len(data), DirEntrySize)
	}
	entries := make([]DirEntry, len(data)/DirEntrySize)
	for i := range entries {
		entry, err := decodeDirEntry(data[i*DirEntrySize : (i+1)*DirEntrySize])
		if err != nil {
			return nil, err
		}
		entries[i] = entry
	}
	return entries, nil
}
