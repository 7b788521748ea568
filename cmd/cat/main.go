// Command cat prints the allocated blocks and raw contents of a regular
// file inode, in the two-section format spec.md §6 describes.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/gunrock-fs/ds3fs/block"
	"github.com/gunrock-fs/ds3fs/ufs"
)

func main() {
	app := &cli.App{
		Name:      "cat",
		Usage:     "Print the blocks and data of a ds3fs file",
		ArgsUsage: "imageFile inodeNumber",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("cat: %s", err)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: cat imageFile inodeNumber", 1)
	}

	inodeNumber, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return cli.Exit("Error reading file", 1)
	}

	disk, err := block.Open(c.Args().Get(0), ufs.BlockSize)
	if err != nil {
		return cli.Exit("Error reading file", 1)
	}
	defer disk.Close()

	fs := ufs.New(disk)
	inode, err := fs.Stat(inodeNumber)
	if err != nil {
		return cli.Exit("Error reading file", 1)
	}
	if inode.Type == ufs.Directory {
		return cli.Exit("Error reading file", 1)
	}

	sb, err := ufs.ReadSuperblock(disk)
	if err != nil {
		return cli.Exit("Error reading file", 1)
	}
	dataBitmap, err := ufs.ReadDataBitmap(disk, sb)
	if err != nil {
		return cli.Exit("Error reading file", 1)
	}

	fmt.Println("File blocks")
	for i := 0; i < inode.BlocksUsed(); i++ {
		absolute := inode.Direct[i]
		relative := absolute - sb.DataRegionAddr
		if relative < 0 || relative >= sb.NumData {
			continue
		}
		if dataBitmap[relative/8]&(1<<uint(relative%8)) == 0 {
			continue
		}
		fmt.Println(absolute)
	}
	fmt.Println()

	fmt.Println("File data")
	buffer := make([]byte, inode.Size)
	n, err := fs.Read(inodeNumber, buffer, int(inode.Size))
	if err != nil {
		return cli.Exit("Error reading file", 1)
	}
	os.Stdout.Write(buffer[:n])

	return nil
}
