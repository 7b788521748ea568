package ufs

import (
	"fmt"

	"github.com/boljen/go-bitmap"
)

// ReadSuperblock decodes block 0 of dev into a Superblock. It is a pure
// function: it caches nothing and trusts nothing beyond what it reads.
func ReadSuperblock(dev BlockDevice) (Superblock, error) {
	block := make([]byte, BlockSize)
	if err := dev.ReadBlock(0, block); err != nil {
		return Superblock{}, fmt.Errorf("read superblock: %w", err)
	}
	return decodeSuperblock(block)
}

// writeSuperblock writes sb into block 0, leaving the remainder of the block
// zeroed.
func writeSuperblock(dev BlockDevice, sb Superblock) error {
	return dev.WriteBlock(0, encodeSuperblock(sb))
}

// readRegion reads a contiguous run of blocks into one buffer.
func readRegion(dev BlockDevice, addr, length int32) ([]byte, error) {
	buf := make([]byte, int(length)*BlockSize)
	for i := int32(0); i < length; i++ {
		if err := dev.ReadBlock(int(addr+i), buf[int(i)*BlockSize:int(i+1)*BlockSize]); err != nil {
			return nil, fmt.Errorf("read block %d: %w", addr+i, err)
		}
	}
	return buf, nil
}

// writeRegion writes a buffer whose length must be exactly BlockSize*length
// bytes back out as length contiguous blocks starting at addr.
func writeRegion(dev BlockDevice, addr, length int32, buf []byte) error {
	if len(buf) != int(length)*BlockSize {
		return fmt.Errorf(
			"region write: expected %d bytes, got %d", int(length)*BlockSize, len(buf))
	}
	for i := int32(0); i < length; i++ {
		if err := dev.WriteBlock(int(addr+i), buf[int(i)*BlockSize:int(i+1)*BlockSize]); err != nil {
			return fmt.Errorf("write block %d: %w", addr+i, err)
		}
	}
	return nil
}

// readInodeBitmap returns the inode allocation bitmap, one bit per inode
// slot, little-endian within each byte (bit i lives at byte[i/8]>>(i%8)&1).
func readInodeBitmap(dev BlockDevice, sb Superblock) (bitmap.Bitmap, error) {
	raw, err := readRegion(dev, sb.InodeBitmapAddr, sb.InodeBitmapLen)
	if err != nil {
		return nil, fmt.Errorf("read inode bitmap: %w", err)
	}
	return bitmap.Bitmap(raw), nil
}

func writeInodeBitmap(dev BlockDevice, sb Superblock, bm bitmap.Bitmap) error {
	if err := writeRegion(dev, sb.InodeBitmapAddr, sb.InodeBitmapLen, []byte(bm)); err != nil {
		return fmt.Errorf("write inode bitmap: %w", err)
	}
	return nil
}

// readDataBitmap returns the data-block allocation bitmap. Bit j is
// region-relative: it describes absolute block sb.DataRegionAddr+j.
func readDataBitmap(dev BlockDevice, sb Superblock) (bitmap.Bitmap, error) {
	raw, err := readRegion(dev, sb.DataBitmapAddr, sb.DataBitmapLen)
	if err != nil {
		return nil, fmt.Errorf("read data bitmap: %w", err)
	}
	return bitmap.Bitmap(raw), nil
}

func writeDataBitmap(dev BlockDevice, sb Superblock, bm bitmap.Bitmap) error {
	if err := writeRegion(dev, sb.DataBitmapAddr, sb.DataBitmapLen, []byte(bm)); err != nil {
		return fmt.Errorf("write data bitmap: %w", err)
	}
	return nil
}

// ReadDataBitmap exposes the raw data-block allocation bitmap to diagnostic
// tools that don't otherwise need a full FileSystem.
func ReadDataBitmap(dev BlockDevice, sb Superblock) ([]byte, error) {
	bm, err := readDataBitmap(dev, sb)
	if err != nil {
		return nil, err
	}
	return []byte(bm), nil
}

// readInodeRegion reads every packed inode slot in the inode region into
// memory, indexed by inode number.
func readInodeRegion(dev BlockDevice, sb Superblock) ([]Inode, error) {
	raw, err := readRegion(dev, sb.InodeRegionAddr, sb.InodeRegionLen)
	if err != nil {
		return nil, fmt.Errorf("read inode region: %w", err)
	}

	total := int(sb.InodeRegionLen) * InodesPerBlock
	inodes := make([]Inode, total)
	for i := 0; i < total; i++ {
		inode, err := decodeInode(raw[i*InodeSize : (i+1)*InodeSize])
		if err != nil {
			return nil, fmt.Errorf("decode inode %d: %w", i, err)
		}
		inodes[i] = inode
	}
	return inodes, nil
}

// writeInodeRegion writes the full packed inode array back to disk. len(inodes)
// must equal sb.InodeRegionLen*InodesPerBlock.
func writeInodeRegion(dev BlockDevice, sb Superblock, inodes []Inode) error {
	expected := int(sb.InodeRegionLen) * InodesPerBlock
	if len(inodes) != expected {
		return fmt.Errorf("write inode region: expected %d inodes, got %d", expected, len(inodes))
	}

	raw := make([]byte, expected*InodeSize)
	for i, inode := range inodes {
		encoded := encodeInode(inode)
		copy(raw[i*InodeSize:(i+1)*InodeSize], encoded[:])
	}
	if err := writeRegion(dev, sb.InodeRegionAddr, sb.InodeRegionLen, raw); err != nil {
		return fmt.Errorf("write inode region: %w", err)
	}
	return nil
}
