// Command orizonvm-inspect prints the format version stamped in frame 0 of
// a physmem file, and the frame count given on the command line, for
// debugging test fixtures. It never mutates its inputs.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/orizon-lang/orizonvm/internal/vm"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: orizonvm-inspect -physmem <file> [-frames N]")
	fmt.Fprintln(os.Stderr, "       orizonvm-inspect: <physmem ファイル> のフレーム状態を表示します")
	flag.PrintDefaults()
}

func main() {
	physmemPath := flag.String("physmem", "", "path to a physmem dump written by vm.New")
	numFrames := flag.Uint("frames", 0, "number of frames in the dump (required)")
	flag.Usage = usage
	flag.Parse()

	if *physmemPath == "" || *numFrames == 0 {
		usage()
		os.Exit(2)
	}

	if err := run(*physmemPath, uint32(*numFrames)); err != nil {
		fmt.Fprintln(os.Stderr, "orizonvm-inspect:", err)
		os.Exit(1)
	}
}

func run(path string, numFrames uint32) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	want := uint64(numFrames) * vm.FrameSize
	if uint64(len(data)) < want {
		return fmt.Errorf("%s is %d bytes, want at least %d for %d frames", path, len(data), want, numFrames)
	}

	version, err := vm.FormatVersion(data)
	if err != nil {
		return err
	}

	fmt.Printf("format version: %s\n", version)
	fmt.Printf("frames:         %d\n", numFrames)

	return nil
}
