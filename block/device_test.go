package block_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gunrock-fs/ds3fs/block"
)

func TestReadWriteBlockRoundTrip(t *testing.T) {
	disk := block.NewInMemory(4096, 4)

	payload := bytes.Repeat([]byte{0x42}, 4096)
	require.NoError(t, disk.WriteBlock(2, payload))

	out := make([]byte, 4096)
	require.NoError(t, disk.ReadBlock(2, out))
	assert.Equal(t, payload, out)
}

func TestReadBlockOutOfRange(t *testing.T) {
	disk := block.NewInMemory(4096, 4)
	buf := make([]byte, 4096)
	assert.Error(t, disk.ReadBlock(4, buf))
	assert.Error(t, disk.ReadBlock(-1, buf))
}

func TestWriteBlockWrongSize(t *testing.T) {
	disk := block.NewInMemory(4096, 4)
	assert.Error(t, disk.WriteBlock(0, make([]byte, 10)))
}
