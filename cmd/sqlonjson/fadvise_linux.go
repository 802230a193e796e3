package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel f is read once from start to end.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
