// Command mkdir creates a subdirectory inside an existing directory inode
// of a ds3fs image, per spec.md §6.
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
		Name:      "mkdir",
		Usage:     "Create a directory inside a ds3fs image",
		ArgsUsage: "imageFile parentInode directoryName",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("mkdir: %s", err)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 3 {
		return cli.Exit("usage: mkdir imageFile parentInode directoryName", 1)
	}

	parentInode, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return cli.Exit("Error creating directory", 1)
	}
	name := c.Args().Get(2)

	disk, err := block.Open(c.Args().Get(0), ufs.BlockSize)
	if err != nil {
		return cli.Exit("Error creating directory", 1)
	}
	defer disk.Close()

	fs := ufs.New(disk)
	if _, err := fs.Create(parentInode, ufs.Directory, name); err != nil {
		return cli.Exit("Error creating directory", 1)
	}

	return nil
}
