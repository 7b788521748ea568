// Command mkfs creates a fresh ds3fs disk image, either from a named size
// preset or from explicit inode/data-block counts.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gunrock-fs/ds3fs/block"
	"github.com/gunrock-fs/ds3fs/geometry"
	"github.com/gunrock-fs/ds3fs/ufs"
)

func main() {
	app := &cli.App{
		Name:      "mkfs",
		Usage:     "Format a new ds3fs disk image",
		ArgsUsage: "imageFile",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "preset",
				Usage: fmt.Sprintf("named image size (%v)", geometry.PresetNames()),
			},
			&cli.IntFlag{Name: "inodes", Usage: "number of inodes"},
			&cli.IntFlag{Name: "data-blocks", Usage: "number of data blocks"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("mkfs: %s", err)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: mkfs [--preset NAME | --inodes N --data-blocks N] imageFile", 1)
	}
	imagePath := c.Args().Get(0)

	layout, err := resolveLayout(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if err := geometry.Validate(layout); err != nil {
		return cli.Exit(fmt.Sprintf("invalid layout: %s", err), 1)
	}

	totalBlocks := estimateTotalBlocks(layout)
	disk, err := block.Create(imagePath, ufs.BlockSize, totalBlocks)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer disk.Close()

	if _, err := ufs.Format(disk, int(layout.NumInodes), int(layout.NumData)); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Printf("formatted %s: %d inodes, %d data blocks\n", imagePath, layout.NumInodes, layout.NumData)
	return nil
}

func resolveLayout(c *cli.Context) (geometry.Layout, error) {
	if preset := c.String("preset"); preset != "" {
		return geometry.Named(preset)
	}
	inodes, data := c.Int("inodes"), c.Int("data-blocks")
	if inodes == 0 || data == 0 {
		return geometry.Layout{}, fmt.Errorf("must specify either --preset or both --inodes and --data-blocks")
	}
	return geometry.Layout{NumInodes: int32(inodes), NumData: int32(data)}, nil
}

// estimateTotalBlocks computes an upper bound on the number of blocks the
// formatted image will occupy: one superblock, the two bitmaps, the inode
// region, and the data region.
func estimateTotalBlocks(layout geometry.Layout) int {
	inodeBitmapBytes := (int(layout.NumInodes) + 7) / 8
	inodeBitmapBlocks := (inodeBitmapBytes + ufs.BlockSize - 1) / ufs.BlockSize

	dataBitmapBytes := (int(layout.NumData) + 7) / 8
	dataBitmapBlocks := (dataBitmapBytes + ufs.BlockSize - 1) / ufs.BlockSize

	inodeRegionBlocks := (int(layout.NumInodes) + ufs.InodesPerBlock - 1) / ufs.InodesPerBlock

	return 1 + inodeBitmapBlocks + dataBitmapBlocks + inodeRegionBlocks + int(layout.NumData)
}
