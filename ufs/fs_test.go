package ufs_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gunrock-fs/ds3fs/block"
	"github.com/gunrock-fs/ds3fs/ufs"
)

// newTestVolume formats a fresh in-memory image with room for at least 16
// inodes and 16 data blocks, as spec.md's scenarios require.
func newTestVolume(t *testing.T) *ufs.FileSystem {
	t.Helper()
	disk := block.NewInMemory(ufs.BlockSize, 64)
	_, err := ufs.Format(disk, 32, 32)
	require.NoError(t, err)
	return ufs.New(disk)
}

func TestScenario_MkdirThenStatThenLookup(t *testing.T) {
	fs := newTestVolume(t)

	newInode, err := fs.Create(ufs.RootInodeNumber, ufs.Directory, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, newInode)

	inode, err := fs.Stat(newInode)
	require.NoError(t, err)
	assert.Equal(t, ufs.Directory, inode.Type)
	assert.EqualValues(t, 64, inode.Size)

	found, err := fs.Lookup(ufs.RootInodeNumber, "a")
	require.NoError(t, err)
	assert.Equal(t, newInode, found)

	dot, err := fs.Lookup(newInode, ".")
	require.NoError(t, err)
	assert.Equal(t, newInode, dot)

	dotdot, err := fs.Lookup(newInode, "..")
	require.NoError(t, err)
	assert.Equal(t, ufs.RootInodeNumber, dotdot)
}

func TestScenario_TouchThenReadEmpty(t *testing.T) {
	fs := newTestVolume(t)

	newInode, err := fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "f")
	require.NoError(t, err)
	assert.Equal(t, 1, newInode)

	inode, err := fs.Stat(newInode)
	require.NoError(t, err)
	assert.Equal(t, ufs.RegularFile, inode.Type)
	assert.EqualValues(t, 0, inode.Size)

	buf := make([]byte, 10)
	n, err := fs.Read(newInode, buf, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestScenario_WriteThenReadSmall(t *testing.T) {
	fs := newTestVolume(t)
	newInode, err := fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "f")
	require.NoError(t, err)

	n, err := fs.Write(newInode, []byte("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	inode, err := fs.Stat(newInode)
	require.NoError(t, err)
	assert.EqualValues(t, 5, inode.Size)

	buf := make([]byte, 5)
	n, err = fs.Read(newInode, buf, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
}

func TestScenario_WriteMultiBlockThenShrink(t *testing.T) {
	fs := newTestVolume(t)
	newInode, err := fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "f")
	require.NoError(t, err)

	payload := append(bytes.Repeat([]byte{'a'}, 4096), bytes.Repeat([]byte{'b'}, 4096)...)
	n, err := fs.Write(newInode, payload, len(payload))
	require.NoError(t, err)
	assert.Equal(t, 8192, n)

	inode, err := fs.Stat(newInode)
	require.NoError(t, err)
	assert.Equal(t, 2, inode.BlocksUsed())

	n, err = fs.Write(newInode, []byte("q"), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	inode, err = fs.Stat(newInode)
	require.NoError(t, err)
	assert.EqualValues(t, 1, inode.Size)
	assert.Equal(t, 1, inode.BlocksUsed())
}

func TestScenario_UnlinkEmptyDirectory(t *testing.T) {
	fs := newTestVolume(t)
	newInode, err := fs.Create(ufs.RootInodeNumber, ufs.Directory, "a")
	require.NoError(t, err)

	err = fs.Unlink(ufs.RootInodeNumber, "a")
	require.NoError(t, err)

	_, err = fs.Stat(newInode)
	assert.ErrorIs(t, err, ufs.EInvalidInode)

	_, err = fs.Lookup(ufs.RootInodeNumber, "a")
	assert.ErrorIs(t, err, ufs.ENotFound)
}

func TestScenario_UnlinkNonEmptyDirectoryFails(t *testing.T) {
	fs := newTestVolume(t)
	dirInode, err := fs.Create(ufs.RootInodeNumber, ufs.Directory, "a")
	require.NoError(t, err)

	_, err = fs.Create(dirInode, ufs.RegularFile, "child")
	require.NoError(t, err)

	err = fs.Unlink(ufs.RootInodeNumber, "a")
	assert.ErrorIs(t, err, ufs.EDirNotEmpty)
}

func TestUnlinkMissingNameIsSuccess(t *testing.T) {
	fs := newTestVolume(t)
	// Unlink rejects a parent holding only "." and ".." as corrupt, so the
	// root needs one real entry first.
	_, err := fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "f")
	require.NoError(t, err)

	err = fs.Unlink(ufs.RootInodeNumber, "nonexistent")
	assert.NoError(t, err)
}

func TestUnlinkDotIsNotAllowed(t *testing.T) {
	fs := newTestVolume(t)
	dirInode, err := fs.Create(ufs.RootInodeNumber, ufs.Directory, "a")
	require.NoError(t, err)
	// Unlink rejects a parent holding only "." and ".." as corrupt, so the
	// directory needs one real entry first.
	_, err = fs.Create(dirInode, ufs.RegularFile, "child")
	require.NoError(t, err)

	err = fs.Unlink(dirInode, ".")
	assert.ErrorIs(t, err, ufs.EUnlinkNotAllowed)

	err = fs.Unlink(dirInode, "..")
	assert.ErrorIs(t, err, ufs.EUnlinkNotAllowed)
}

func TestCreateIsIdempotent(t *testing.T) {
	fs := newTestVolume(t)

	first, err := fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "x")
	require.NoError(t, err)

	second, err := fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "x")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCreateMismatchedTypeFails(t *testing.T) {
	fs := newTestVolume(t)

	_, err := fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "x")
	require.NoError(t, err)

	_, err = fs.Create(ufs.RootInodeNumber, ufs.Directory, "x")
	assert.ErrorIs(t, err, ufs.EInvalidType)
}

func TestCreateInvalidNameRejected(t *testing.T) {
	fs := newTestVolume(t)

	_, err := fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "")
	assert.ErrorIs(t, err, ufs.EInvalidName)

	longName := string(bytes.Repeat([]byte{'x'}, ufs.MaxNameLength+1))
	_, err = fs.Create(ufs.RootInodeNumber, ufs.RegularFile, longName)
	assert.ErrorIs(t, err, ufs.EInvalidName)
}

func TestCreateFailsWhenOutOfInodes(t *testing.T) {
	disk := block.NewInMemory(ufs.BlockSize, 64)
	_, err := ufs.Format(disk, 2, 32)
	require.NoError(t, err)
	fs := ufs.New(disk)

	// Inode 0 is root; only one more slot (inode 1) is available.
	_, err = fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "only-one")
	require.NoError(t, err)

	_, err = fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "no-room")
	assert.ErrorIs(t, err, ufs.ENotEnoughSpace)
}

func TestWriteRejectsNegativeSize(t *testing.T) {
	fs := newTestVolume(t)
	newInode, err := fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "f")
	require.NoError(t, err)

	_, err = fs.Write(newInode, []byte{}, -1)
	assert.ErrorIs(t, err, ufs.EInvalidSize)
}

func TestWriteRejectsDirectory(t *testing.T) {
	fs := newTestVolume(t)
	dirInode, err := fs.Create(ufs.RootInodeNumber, ufs.Directory, "d")
	require.NoError(t, err)

	_, err = fs.Write(dirInode, []byte("x"), 1)
	assert.ErrorIs(t, err, ufs.EInvalidType)
}

func TestStatRejectsOutOfRangeInode(t *testing.T) {
	fs := newTestVolume(t)

	_, err := fs.Stat(-1)
	assert.ErrorIs(t, err, ufs.EInvalidInode)

	_, err = fs.Stat(1000)
	assert.ErrorIs(t, err, ufs.EInvalidInode)
}

// TestRoundTrip exercises spec.md's round-trip property: write(B) then
// read(len(B)) returns B unchanged, for a handful of representative sizes.
func TestRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 5, 4096, 4097, 30 * 4096}

	for _, size := range sizes {
		size := size
		t.Run("", func(t *testing.T) {
			disk := block.NewInMemory(ufs.BlockSize, 40)
			_, err := ufs.Format(disk, 16, 32)
			require.NoError(t, err)
			fs := ufs.New(disk)

			newInode, err := fs.Create(ufs.RootInodeNumber, ufs.RegularFile, "f")
			require.NoError(t, err)

			payload := make([]byte, size)
			for i := range payload {
				payload[i] = byte(i % 251)
			}

			n, err := fs.Write(newInode, payload, size)
			require.NoError(t, err)
			assert.Equal(t, size, n)

			buf := make([]byte, size)
			n, err = fs.Read(newInode, buf, size)
			require.NoError(t, err)
			assert.Equal(t, size, n)
			assert.Equal(t, payload, buf)
		})
	}
}

// TestBitmapCoherence checks that after a sequence of operations, every
// direct pointer of every allocated inode maps to a set data-bitmap bit,
// and vice versa: no set data-bitmap bit is unreferenced.
func TestBitmapCoherence(t *testing.T) {
	disk := block.NewInMemory(ufs.BlockSize, 64)
	sb, err := ufs.Format(disk, 32, 32)
	require.NoError(t, err)
	fs := ufs.New(disk)

	dirInode, err := fs.Create(ufs.RootInodeNumber, ufs.Directory, "d")
	require.NoError(t, err)
	fileInode, err := fs.Create(dirInode, ufs.RegularFile, "f")
	require.NoError(t, err)
	_, err = fs.Write(fileInode, bytes.Repeat([]byte{1}, 9000), 9000)
	require.NoError(t, err)

	referenced := make(map[int32]bool)
	for inum := int32(0); inum < sb.NumInodes; inum++ {
		inode, err := fs.Stat(int(inum))
		if errors.Is(err, ufs.EInvalidInode) {
			continue
		}
		require.NoError(t, err)
		for i := 0; i < inode.BlocksUsed(); i++ {
			referenced[inode.Direct[i]-sb.DataRegionAddr] = true
		}
	}

	dataBitmap := readBitmapForTest(t, disk, sb)
	for j := 0; j < int(sb.NumData); j++ {
		if dataBitmap[j] {
			assert.True(t, referenced[int32(j)], "data bit %d set but not referenced by any inode", j)
		} else {
			assert.False(t, referenced[int32(j)], "data bit %d referenced but not set", j)
		}
	}
}

// readBitmapForTest reads the data bitmap directly off the device for
// assertions, bypassing the engine's public API.
func readBitmapForTest(t *testing.T, disk *block.Disk, sb ufs.Superblock) []bool {
	t.Helper()
	bits := make([]bool, sb.NumData)
	buf := make([]byte, ufs.BlockSize)
	for i := int32(0); i < sb.DataBitmapLen; i++ {
		require.NoError(t, disk.ReadBlock(int(sb.DataBitmapAddr+i), buf))
		for bit := 0; bit < ufs.BlockSize*8; bit++ {
			idx := int(i)*ufs.BlockSize*8 + bit
			if idx >= int(sb.NumData) {
				break
			}
			bits[idx] = buf[bit/8]>>(bit%8)&1 != 0
		}
	}
	return bits
}

func TestDirectoryMinimums(t *testing.T) {
	fs := newTestVolume(t)
	newInode, err := fs.Create(ufs.RootInodeNumber, ufs.Directory, "a")
	require.NoError(t, err)

	inode, err := fs.Stat(newInode)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, inode.Size, int32(64))
	assert.Zero(t, inode.Size%32)

	buf := make([]byte, inode.Size)
	_, err = fs.Read(newInode, buf, int(inode.Size))
	require.NoError(t, err)
	assert.Equal(t, ".", string(bytes.TrimRight(buf[0:28], "\x00")))
	assert.Equal(t, "..", string(bytes.TrimRight(buf[32:60], "\x00")))
}
