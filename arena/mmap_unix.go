//go:build linux || darwin

package arena

import (
	"golang.org/x/sys/unix"
)

func pageSize() int {
	return unix.Getpagesize()
}

// reserveRange reserves size bytes of address space with PROT_NONE so no
// physical memory is committed until commitMemory is called.
func reserveRange(size, _ int) (vmRange, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return vmRange{}, err
	}
	return vmRange{mem: mem, reserved: size, pageSize: pageSize()}, nil
}

func commitMemory(mem []byte, offset, size int) error {
	return unix.Mprotect(mem[offset:offset+size], unix.PROT_READ|unix.PROT_WRITE)
}

func decommitMemory(mem []byte, size int) error {
	if size == 0 {
		return nil
	}
	return unix.Mprotect(mem[:size], unix.PROT_NONE)
}

func protectNoAccess(mem []byte, size int) error {
	return unix.Mprotect(mem[:size], unix.PROT_NONE)
}

func protectReadWrite(mem []byte, size int) error {
	return unix.Mprotect(mem[:size], unix.PROT_READ|unix.PROT_WRITE)
}
