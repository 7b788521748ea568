// Command bits prints the superblock fields and both allocation bitmaps of
// a ds3fs image, in the format spec.md §6 describes.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gunrock-fs/ds3fs/block"
	"github.com/gunrock-fs/ds3fs/ufs"
)

func main() {
	app := &cli.App{
		Name:      "bits",
		Usage:     "Print the superblock and allocation bitmaps of a ds3fs image",
		ArgsUsage: "imageFile",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("bits: %s", err)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: bits imageFile", 1)
	}

	disk, err := block.Open(c.Args().Get(0), ufs.BlockSize)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer disk.Close()

	sb, err := ufs.ReadSuperblock(disk)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Println("Super")
	fmt.Println("inode_region_addr", sb.InodeRegionAddr)
	fmt.Println("inode_region_len", sb.InodeRegionLen)
	fmt.Println("num_inodes", sb.NumInodes)
	fmt.Println("data_region_addr", sb.DataRegionAddr)
	fmt.Println("data_region_len", sb.DataRegionLen)
	fmt.Println("num_data", sb.NumData)
	fmt.Println()

	inodeBitmap, err := readRawBitmap(disk, sb.InodeBitmapAddr, sb.InodeBitmapLen, sb.NumInodes)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Println("Inode bitmap")
	printBytes(inodeBitmap)
	fmt.Println()

	dataBitmap, err := readRawBitmap(disk, sb.DataBitmapAddr, sb.DataBitmapLen, sb.NumData)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Println("Data bitmap")
	printBytes(dataBitmap)

	return nil
}

func printBytes(data []byte) {
	for i, b := range data {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(uint(b))
	}
	fmt.Println()
}

func readRawBitmap(disk *block.Disk, addr, length, numBits int32) ([]byte, error) {
	numBytes := (numBits + 7) / 8
	out := make([]byte, 0, numBytes)
	buf := make([]byte, ufs.BlockSize)
	for i := int32(0); i < length && int32(len(out)) < numBytes; i++ {
		if err := disk.ReadBlock(int(addr+i), buf); err != nil {
			return nil, err
		}
		remaining := numBytes - int32(len(out))
		chunk := buf
		if int32(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}
		out = append(out, chunk...)
	}
	return out, nil
}
