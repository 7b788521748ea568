package ufs

import (
	"fmt"

	"github.com/boljen/go-bitmap"
)

// ceilDiv returns ceil(a/b) for positive integers.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Format lays out a brand-new volume across dev: a superblock, two
// allocation bitmaps sized to hold numInodes and numData bits respectively,
// a packed inode region, and a data region, then allocates inode 0 as the
// root directory with "." and ".." both pointing at itself.
//
// This isn't one of spec.md's six primitives — the original test suite
// consumed pre-built disk images without ever showing the tool that built
// them. It exists so there's something to format a volume with before the
// engine's primitives have anything to operate on.
func Format(dev BlockDevice, numInodes, numData int) (Superblock, error) {
	if numInodes < 2 {
		return Superblock{}, fmt.Errorf("format: numInodes must be at least 2, got %d", numInodes)
	}
	if numData < 1 {
		return Superblock{}, fmt.Errorf("format: numData must be at least 1, got %d", numData)
	}

	inodeBitmapLen := int32(ceilDiv(ceilDiv(numInodes, 8), BlockSize))
	dataBitmapLen := int32(ceilDiv(ceilDiv(numData, 8), BlockSize))
	inodeRegionLen := int32(ceilDiv(numInodes, InodesPerBlock))
	dataRegionLen := int32(numData)

	sb := Superblock{
		InodeBitmapAddr: 1,
		InodeBitmapLen:  inodeBitmapLen,
		NumInodes:       int32(numInodes),
		NumData:         int32(numData),
	}
	sb.DataBitmapAddr = sb.InodeBitmapAddr + inodeBitmapLen
	sb.DataBitmapLen = dataBitmapLen
	sb.InodeRegionAddr = sb.DataBitmapAddr + dataBitmapLen
	sb.InodeRegionLen = inodeRegionLen
	sb.DataRegionAddr = sb.InodeRegionAddr + inodeRegionLen
	sb.DataRegionLen = dataRegionLen

	inodeBitmap := bitmap.New(int(inodeBitmapLen) * BlockSize * 8)
	dataBitmap := bitmap.New(int(dataBitmapLen) * BlockSize * 8)

	inodeBitmap.Set(RootInodeNumber, true)
	dataBitmap.Set(0, true)

	inodes := make([]Inode, int(inodeRegionLen)*InodesPerBlock)
	inodes[RootInodeNumber] = Inode{
		Type: Directory,
		Size: 2 * DirEntrySize,
	}
	inodes[RootInodeNumber].Direct[0] = sb.DataRegionAddr

	rootDirBlock := make([]byte, BlockSize)
	copy(rootDirBlock, encodeDirEntries([]DirEntry{
		NewDirEntry(".", RootInodeNumber),
		NewDirEntry("..", RootInodeNumber),
	}))

	if err := writeSuperblock(dev, sb); err != nil {
		return Superblock{}, err
	}
	if err := writeInodeBitmap(dev, sb, inodeBitmap); err != nil {
		return Superblock{}, err
	}
	if err := writeDataBitmap(dev, sb, dataBitmap); err != nil {
		return Superblock{}, err
	}
	if err := writeInodeRegion(dev, sb, inodes); err != nil {
		return Superblock{}, err
	}
	if err := dev.WriteBlock(int(sb.DataRegionAddr), rootDirBlock); err != nil {
		return Superblock{}, fmt.Errorf("format: write root directory block: %w", err)
	}

	return sb, nil
}
