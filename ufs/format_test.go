package ufs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gunrock-fs/ds3fs/block"
	"github.com/gunrock-fs/ds3fs/ufs"
)

func TestFormatLaysOutRootDirectory(t *testing.T) {
	disk := block.NewInMemory(ufs.BlockSize, 64)
	sb, err := ufs.Format(disk, 32, 32)
	require.NoError(t, err)

	assert.EqualValues(t, 32, sb.NumInodes)
	assert.EqualValues(t, 32, sb.NumData)

	fs := ufs.New(disk)
	root, err := fs.Stat(ufs.RootInodeNumber)
	require.NoError(t, err)
	assert.Equal(t, ufs.Directory, root.Type)
	assert.EqualValues(t, 64, root.Size)

	self, err := fs.Lookup(ufs.RootInodeNumber, ".")
	require.NoError(t, err)
	assert.Equal(t, ufs.RootInodeNumber, self)

	parent, err := fs.Lookup(ufs.RootInodeNumber, "..")
	require.NoError(t, err)
	assert.Equal(t, ufs.RootInodeNumber, parent)
}

func TestFormatRejectsTooFewInodes(t *testing.T) {
	disk := block.NewInMemory(ufs.BlockSize, 8)
	_, err := ufs.Format(disk, 1, 4)
	assert.Error(t, err)
}

func TestFormatRejectsNoDataBlocks(t *testing.T) {
	disk := block.NewInMemory(ufs.BlockSize, 8)
	_, err := ufs.Format(disk, 4, 0)
	assert.Error(t, err)
}
