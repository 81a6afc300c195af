//go:build !linux && !darwin

package arena

// The teacher application is Linux-only (see rlimit_linux.go/capability.go
// in the original tree); this fallback keeps the package buildable elsewhere
// by trading the mprotect debug guard for a no-op, since there is no portable
// third-party mmap/mprotect binding in the retrieved pack for non-unix
// targets. Production builds of this runtime are unix-only.
func pageSize() int { return 4096 }

func reserveRange(size, _ int) (vmRange, error) {
	return vmRange{mem: make([]byte, size), reserved: size, pageSize: pageSize()}, nil
}

func commitMemory(mem []byte, offset, size int) error { return nil }

func decommitMemory(mem []byte, size int) error { return nil }

func protectNoAccess(mem []byte, size int) error { return nil }

func protectReadWrite(mem []byte, size int) error { return nil }
