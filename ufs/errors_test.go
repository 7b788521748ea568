package ufs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gunrock-fs/ds3fs/ufs"
)

func TestErrnoWithMessage(t *testing.T) {
	err := ufs.ENotFound.WithMessage("looking for \"frob\"")
	assert.Equal(t, `not found: looking for "frob"`, err.Error())
	assert.ErrorIs(t, err, ufs.ENotFound)
	assert.NotErrorIs(t, err, ufs.EInvalidInode)
}
