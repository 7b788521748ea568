package ufs

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	"github.com/noxer/bytewriter"
)

// FileSystem is the concrete engine that interprets a BlockDevice as a
// ds3fs volume and exposes the six primitive operations. There is
// deliberately only one implementation; spec.md's "dynamic dispatch" note
// observes that a base interface exists in the original source only to
// allow future backends and is not load-bearing here.
type FileSystem struct {
	Device BlockDevice
}

// New wraps a block device in a FileSystem engine. It performs no I/O.
func New(dev BlockDevice) *FileSystem {
	return &FileSystem{Device: dev}
}

// Stat returns the inode record for inodeNumber.
func (fs *FileSystem) Stat(inodeNumber int) (Inode, error) {
	sb, err := ReadSuperblock(fs.Device)
	if err != nil {
		return Inode{}, err
	}
	return fs.statWith(sb, inodeNumber)
}

// statWith is Stat's implementation given an already-loaded superblock, so
// callers that already have one (Create, Unlink) don't pay for a second
// read of block 0.
func (fs *FileSystem) statWith(sb Superblock, inodeNumber int) (Inode, error) {
	if inodeNumber < 0 || inodeNumber >= int(sb.NumInodes) {
		return Inode{}, EInvalidInode
	}

	inodeBitmap, err := readInodeBitmap(fs.Device, sb)
	if err != nil {
		return Inode{}, err
	}
	if !inodeBitmap.Get(inodeNumber) {
		return Inode{}, EInvalidInode
	}

	blockNum := sb.InodeRegionAddr + int32(inodeNumber/InodesPerBlock)
	block := make([]byte, BlockSize)
	if err := fs.Device.ReadBlock(int(blockNum), block); err != nil {
		return Inode{}, fmt.Errorf("stat inode %d: %w", inodeNumber, err)
	}

	offset := (inodeNumber % InodesPerBlock) * InodeSize
	return decodeInode(block[offset : offset+InodeSize])
}

// Lookup resolves name inside the directory parentInodeNumber and returns
// the inode number it names.
func (fs *FileSystem) Lookup(parentInodeNumber int, name string) (int, error) {
	parent, err := fs.Stat(parentInodeNumber)
	if err != nil {
		return 0, EInvalidInode
	}
	if parent.Type != Directory {
		return 0, EInvalidInode
	}

	payload := make([]byte, parent.Size)
	n, err := fs.Read(parentInodeNumber, payload, int(parent.Size))
	if err != nil {
		return 0, err
	}

	entries, err := DecodeDirEntries(payload[:n])
	if err != nil {
		return 0, fmt.Errorf("lookup %q in %d: %w", name, parentInodeNumber, err)
	}

	for _, entry := range entries {
		if entry.NameString() == name {
			return int(entry.Inum), nil
		}
	}
	return 0, ENotFound
}

// Read copies up to size bytes, starting at byte 0 of the file or directory
// inodeNumber names, into buffer. There is no seek offset: reads are always
// absolute from the start of the object.
func (fs *FileSystem) Read(inodeNumber int, buffer []byte, size int) (int, error) {
	inode, err := fs.Stat(inodeNumber)
	if err != nil {
		return 0, EInvalidInode
	}

	n := size
	if size <= 0 || size > int(inode.Size) {
		n = int(inode.Size)
	}
	if n == 0 {
		return 0, nil
	}

	out := bytewriter.New(buffer)
	blocksUsed := inode.BlocksUsed()
	copied := 0
	block := make([]byte, BlockSize)

	for i := 0; copied < n && i < blocksUsed; i++ {
		if err := fs.Device.ReadBlock(int(inode.Direct[i]), block); err != nil {
			return 0, fmt.Errorf("read block %d of inode %d: %w", i, inodeNumber, err)
		}

		toCopy := BlockSize
		if remaining := n - copied; remaining < toCopy {
			toCopy = remaining
		}

		written, err := out.Write(block[:toCopy])
		if err != nil {
			return 0, fmt.Errorf("read inode %d: %w", inodeNumber, err)
		}
		copied += written
	}

	return copied, nil
}

// Create makes a new directory or regular file named name inside the
// directory parentInodeNumber. If name already exists with the requested
// type, Create is idempotent and returns the existing inode number without
// mutating anything. Every validation and allocation error is returned
// before any bitmap, inode, or block is written; a device write error
// during the final writes leaves the writes already made in place.
func (fs *FileSystem) Create(parentInodeNumber int, fileType FileType, name string) (int, error) {
	sb, err := ReadSuperblock(fs.Device)
	if err != nil {
		return 0, err
	}

	parent, err := fs.statWith(sb, parentInodeNumber)
	if err != nil {
		return 0, EInvalidInode
	}
	if parent.Type != Directory {
		return 0, EInvalidType
	}
	if len(name) == 0 || len(name) > MaxNameLength {
		return 0, EInvalidName
	}

	dirBlock := make([]byte, BlockSize)
	if err := fs.Device.ReadBlock(int(parent.Direct[0]), dirBlock); err != nil {
		return 0, fmt.Errorf("create %q: %w", name, err)
	}
	existingEntries, err := DecodeDirEntries(dirBlock[:parent.Size])
	if err != nil {
		return 0, fmt.Errorf("create %q: %w", name, err)
	}

	for _, entry := range existingEntries {
		if entry.NameString() != name {
			continue
		}
		existing, err := fs.statWith(sb, int(entry.Inum))
		if err != nil {
			return 0, EInvalidInode
		}
		if existing.Type == fileType {
			return int(entry.Inum), nil
		}
		return 0, EInvalidType
	}

	entryIndex := int(parent.Size) / DirEntrySize
	if entryIndex >= BlockSize/DirEntrySize {
		return 0, ENotEnoughSpace
	}

	inodeBitmap, err := readInodeBitmap(fs.Device, sb)
	if err != nil {
		return 0, err
	}
	if !inodeBitmap.Get(parentInodeNumber) {
		return 0, EInvalidInode
	}

	dataBitmap, err := readDataBitmap(fs.Device, sb)
	if err != nil {
		return 0, err
	}

	newInodeNumber, ok := firstFree(inodeBitmap, int(sb.NumInodes))
	if !ok {
		return 0, ENotEnoughSpace
	}

	newInode := Inode{Type: fileType, Size: 0}
	var newDataBlockNumber int
	allocatedData := false

	var newDirBlock []byte
	if fileType == Directory {
		nd, ok := firstFree(dataBitmap, int(sb.NumData))
		if !ok {
			return 0, ENotEnoughSpace
		}
		newDataBlockNumber = nd
		allocatedData = true

		newInode.Direct[0] = sb.DataRegionAddr + int32(nd)
		newInode.Size = 2 * DirEntrySize

		newDirBlock = make([]byte, BlockSize)
		copy(newDirBlock, encodeDirEntries([]DirEntry{
			NewDirEntry(".", int32(newInodeNumber)),
			NewDirEntry("..", int32(parentInodeNumber)),
		}))
	}

	inodes, err := readInodeRegion(fs.Device, sb)
	if err != nil {
		return 0, err
	}

	updatedParentEntries := append(existingEntries, NewDirEntry(name, int32(newInodeNumber)))
	copy(dirBlock, encodeDirEntries(updatedParentEntries))

	parent.Size += DirEntrySize
	inodes[parentInodeNumber] = parent
	inodes[newInodeNumber] = newInode

	if allocatedData {
		if err := fs.Device.WriteBlock(int(newInode.Direct[0]), newDirBlock); err != nil {
			return 0, fmt.Errorf("create %q: write new directory block: %w", name, err)
		}
	}
	if err := fs.Device.WriteBlock(int(parent.Direct[0]), dirBlock); err != nil {
		return 0, fmt.Errorf("create %q: write parent directory block: %w", name, err)
	}
	if err := writeInodeRegion(fs.Device, sb, inodes); err != nil {
		return 0, err
	}

	inodeBitmap.Set(newInodeNumber, true)
	if err := writeInodeBitmap(fs.Device, sb, inodeBitmap); err != nil {
		return 0, err
	}
	if allocatedData {
		dataBitmap.Set(newDataBlockNumber, true)
		if err := writeDataBitmap(fs.Device, sb, dataBitmap); err != nil {
			return 0, err
		}
	}

	return newInodeNumber, nil
}

// Write replaces the contents of the regular file inodeNumber with up to
// size bytes of buffer. size is clamped to MaxFileSize. As many bytes as
// there is space for are written; running out of free data blocks ends the
// write early but is still reported as success, matching "write as many
// bytes as you can".
func (fs *FileSystem) Write(inodeNumber int, buffer []byte, size int) (int, error) {
	if size < 0 {
		return 0, EInvalidSize
	}

	sb, err := ReadSuperblock(fs.Device)
	if err != nil {
		return 0, err
	}

	inode, err := fs.statWith(sb, inodeNumber)
	if err != nil {
		return 0, EInvalidInode
	}
	if inode.Type != RegularFile {
		return 0, EInvalidType
	}

	if size > MaxFileSize {
		size = MaxFileSize
	}

	inodes, err := readInodeRegion(fs.Device, sb)
	if err != nil {
		return 0, err
	}
	dataBitmap, err := readDataBitmap(fs.Device, sb)
	if err != nil {
		return 0, err
	}

	need := (size + BlockSize - 1) / BlockSize
	if need > DirectPtrs {
		need = DirectPtrs
	}

	bytesWritten := 0
	block := make([]byte, BlockSize)

	for i := 0; i < need && bytesWritten < size; i++ {
		absolute := int(inode.Direct[i])
		relative := absolute - int(sb.DataRegionAddr)
		valid := relative >= 0 && relative < int(sb.DataRegionLen) && dataBitmap.Get(relative)

		if !valid {
			free, ok := firstFree(dataBitmap, int(sb.NumData))
			if !ok {
				break
			}
			absolute = int(sb.DataRegionAddr) + free
			inode.Direct[i] = int32(absolute)
			dataBitmap.Set(free, true)
		}

		toWrite := size - bytesWritten
		if toWrite > BlockSize {
			toWrite = BlockSize
		}
		for j := range block {
			block[j] = 0
		}
		copy(block, buffer[bytesWritten:bytesWritten+toWrite])

		if err := fs.Device.WriteBlock(absolute, block); err != nil {
			return 0, fmt.Errorf("write inode %d: %w", inodeNumber, err)
		}
		bytesWritten += toWrite
	}

	inode.Size = int32(bytesWritten)
	blocksUsed := inode.BlocksUsed()
	for i := blocksUsed; i < DirectPtrs; i++ {
		relative := int(inode.Direct[i]) - int(sb.DataRegionAddr)
		if relative >= 0 && relative < int(sb.DataRegionLen) {
			dataBitmap.Set(relative, false)
		}
	}

	inodes[inodeNumber] = inode
	if err := writeInodeRegion(fs.Device, sb, inodes); err != nil {
		return 0, err
	}
	if err := writeDataBitmap(fs.Device, sb, dataBitmap); err != nil {
		return 0, err
	}

	return bytesWritten, nil
}

// Unlink removes name from the directory parentInodeNumber. Removing a name
// that doesn't exist is success, not an error. "." and ".." can never be
// unlinked, and a non-empty directory can't be removed. A parent smaller
// than three entries (only "." and "..") is treated as corrupt and rejected
// with EInvalidInode before the name is looked at.
func (fs *FileSystem) Unlink(parentInodeNumber int, name string) error {
	sb, err := ReadSuperblock(fs.Device)
	if err != nil {
		return err
	}

	parent, err := fs.statWith(sb, parentInodeNumber)
	if err != nil {
		return EInvalidInode
	}
	if parent.Type != Directory {
		return EInvalidType
	}
	if parent.Size < 3*DirEntrySize {
		return EInvalidInode
	}

	if len(name) == 0 || len(name) > MaxNameLength {
		return EInvalidName
	}
	if name == "." || name == ".." {
		return EUnlinkNotAllowed
	}

	dirBlocks := parent.BlocksUsed()
	payload := make([]byte, dirBlocks*BlockSize)
	for i := 0; i < dirBlocks; i++ {
		if err := fs.Device.ReadBlock(int(parent.Direct[i]), payload[i*BlockSize:(i+1)*BlockSize]); err != nil {
			return fmt.Errorf("unlink %q: %w", name, err)
		}
	}

	entries, err := DecodeDirEntries(payload[:parent.Size])
	if err != nil {
		return fmt.Errorf("unlink %q: %w", name, err)
	}

	entryIndex := -1
	for i, entry := range entries {
		if entry.NameString() == name {
			entryIndex = i
			break
		}
	}
	if entryIndex == -1 {
		return nil
	}

	target, err := fs.statWith(sb, int(entries[entryIndex].Inum))
	if err != nil {
		return EInvalidInode
	}
	if target.Type == Directory && target.Size > 2*DirEntrySize {
		return EDirNotEmpty
	}

	inodeNumber := int(entries[entryIndex].Inum)
	entries = append(entries[:entryIndex], entries[entryIndex+1:]...)

	inodeBitmap, err := readInodeBitmap(fs.Device, sb)
	if err != nil {
		return err
	}
	dataBitmap, err := readDataBitmap(fs.Device, sb)
	if err != nil {
		return err
	}

	for i := 0; i < target.BlocksUsed(); i++ {
		relative := int(target.Direct[i]) - int(sb.DataRegionAddr)
		if relative >= 0 && relative < int(sb.DataRegionLen) {
			dataBitmap.Set(relative, false)
		}
	}
	inodeBitmap.Set(inodeNumber, false)

	originalBlocks := parent.BlocksUsed()
	parent.Size -= DirEntrySize
	newBlocks := parent.BlocksUsed()
	if newBlocks < originalBlocks {
		relative := int(parent.Direct[originalBlocks-1]) - int(sb.DataRegionAddr)
		if relative >= 0 && relative < int(sb.DataRegionLen) {
			dataBitmap.Set(relative, false)
		}
	}

	encoded := encodeDirEntries(entries)
	for i := 0; i < newBlocks; i++ {
		chunk := make([]byte, BlockSize)
		start, end := i*BlockSize, (i+1)*BlockSize
		if start < len(encoded) {
			if end > len(encoded) {
				end = len(encoded)
			}
			copy(chunk, encoded[start:end])
		}
		if err := fs.Device.WriteBlock(int(parent.Direct[i]), chunk); err != nil {
			return fmt.Errorf("unlink %q: %w", name, err)
		}
	}

	inodes, err := readInodeRegion(fs.Device, sb)
	if err != nil {
		return err
	}
	inodes[parentInodeNumber] = parent
	if err := writeInodeRegion(fs.Device, sb, inodes); err != nil {
		return err
	}

	if err := writeInodeBitmap(fs.Device, sb, inodeBitmap); err != nil {
		return err
	}
	if err := writeDataBitmap(fs.Device, sb, dataBitmap); err != nil {
		return err
	}

	return nil
}

// firstFree returns the lowest-indexed clear bit in [0, limit) of bm.
func firstFree(bm bitmap.Bitmap, limit int) (int, bool) {
	for i := 0; i < limit; i++ {
		if !bm.Get(i) {
			return i, true
		}
	}
	return 0, false
}
