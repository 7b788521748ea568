// Command cp copies a host file's bytes into an existing regular-file
// inode inside a ds3fs image, per spec.md §6.
package main

import (
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/gunrock-fs/ds3fs/block"
	"github.com/gunrock-fs/ds3fs/ufs"
)

func main() {
	app := &cli.App{
		Name:      "cp",
		Usage:     "Copy a host file's contents into a ds3fs inode",
		ArgsUsage: "imageFile srcFile dstInode",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("cp: %s", err)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.Exit("usage: cp imageFile srcFile dstInode", 1)
	}

	dstInode, err := strconv.Atoi(c.Args().Get(2))
	if err != nil {
		return cli.Exit("Could not write to dst_file", 1)
	}

	data, err := os.ReadFile(c.Args().Get(1))
	if err != nil {
		return cli.Exit("Could not write to dst_file", 1)
	}

	disk, err := block.Open(c.Args().Get(0), ufs.BlockSize)
	if err != nil {
		return cli.Exit("Could not write to dst_file", 1)
	}
	defer disk.Close()

	fs := ufs.New(disk)
	if _, err := fs.Write(dstInode, data, len(data)); err != nil {
		return cli.Exit("Could not write to dst_file", 1)
	}

	return nil
}
