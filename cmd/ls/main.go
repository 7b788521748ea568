// Command ls resolves a slash-delimited path and lists a directory's
// entries, or prints a single file's own inode and the path as given, per
// spec.md §6.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/gunrock-fs/ds3fs/block"
	"github.com/gunrock-fs/ds3fs/fspath"
	"github.com/gunrock-fs/ds3fs/ufs"
)

func main() {
	app := &cli.App{
		Name:      "ls",
		Usage:     "List a ds3fs directory or show a file's inode",
		ArgsUsage: "imageFile path",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("ls: %s", err)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: ls imageFile path", 1)
	}
	path := c.Args().Get(1)

	disk, err := block.Open(c.Args().Get(0), ufs.BlockSize)
	if err != nil {
		return cli.Exit("Directory not found", 1)
	}
	defer disk.Close()

	fs := ufs.New(disk)
	inodeNumber, err := fspath.Resolve(fs, path)
	if err != nil {
		return cli.Exit("Directory not found", 1)
	}

	inode, err := fs.Stat(inodeNumber)
	if err != nil {
		return cli.Exit("Directory not found", 1)
	}

	switch inode.Type {
	case ufs.Directory:
		buffer := make([]byte, inode.Size)
		n, err := fs.Read(inodeNumber, buffer, int(inode.Size))
		if err != nil {
			return cli.Exit("Directory not found", 1)
		}
		entries, err := ufs.DecodeDirEntries(buffer[:n])
		if err != nil {
			return cli.Exit("Directory not found", 1)
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].NameString() < entries[j].NameString()
		})
		for _, entry := range entries {
			fmt.Printf("%d\t%s\n", entry.Inum, entry.NameString())
		}
	case ufs.RegularFile:
		fmt.Printf("%d\t%s\n", inodeNumber, path)
	default:
		return cli.Exit("Invalid directory or file type", 1)
	}

	return nil
}
