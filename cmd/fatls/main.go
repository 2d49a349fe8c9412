package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/vfskit/fatfs"
)

// main mounts a FAT32 image read-only, lists the whole tree and optionally
// prints a single file to stdout.
func main() {
	args := os.Args[1:]
	if len(args) < 1 {
		fmt.Println("Usage: fatls <image> [file]")
		os.Exit(1)
	}

	image, err := os.Open(args[0])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	defer image.Close()

	fat, err := fatfs.New(image)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Printf("Opened volume '%v' with type %v\n\n", fat.Label(), fat.FSType())

	err = afero.Walk(fat, "", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			fmt.Println(err)
			return err
		}
		fmt.Println(path, info.IsDir(), info.Size(), info.ModTime())
		return nil
	})
	if err != nil {
		os.Exit(1)
	}

	if len(args) < 2 {
		return
	}

	file, err := fat.Open(args[1])
	if err != nil {
		fmt.Println("could not open the file:", err)
		os.Exit(1)
	}

	defer file.Close()

	if _, err := io.Copy(os.Stdout, file); err != nil {
		fmt.Println("could not read the file:", err)
		os.Exit(1)
	}
}
