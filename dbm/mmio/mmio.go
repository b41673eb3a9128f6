//go:build linux

package mmio

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/softdbm/pkg"
)

// DevMem is the physical memory device used for live register windows.
const DevMem = "/dev/mem"

// Window is a memory-mapped register window. It implements
// dbm.RegisterSpace with single 32-bit loads and stores.
type Window struct {
	file *os.File
	page []byte // whole mapping, page aligned
	regs []byte // the requested window inside page
}

// Open maps size bytes at byte offset base of the file at path. For
// DevMem, base is a physical address. base need not be page aligned but
// must be 32-bit aligned.
func Open(path string, base int64, size int) (*Window, error) {
	if size <= 0 || base < 0 || base&3 != 0 {
		return nil, fmt.Errorf("map %s at 0x%x size %d: %w", path, base, size, pkg.ErrInvalidParameter)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	pageSize := int64(unix.Getpagesize())
	aligned := base &^ (pageSize - 1)
	skip := int(base - aligned)

	page, err := unix.Mmap(int(f.Fd()), aligned, skip+size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		pkg.LogError(pkg.ComponentMMIO, "mmap failed", "path", path, "base", base, "size", size, "err", err)
		return nil, fmt.Errorf("map %s at 0x%x: %w: %w", path, base, pkg.ErrAllocationFailure, err)
	}

	pkg.LogDebug(pkg.ComponentMMIO, "window mapped", "path", path, "base", base, "size", size)
	return &Window{file: f, page: page, regs: page[skip : skip+size]}, nil
}

// Len returns the window size in bytes.
func (w *Window) Len() int { return len(w.regs) }

func (w *Window) addr(offset uint32) *uint32 {
	if w.regs == nil {
		panic("mmio: access to closed window")
	}
	if offset&3 != 0 || int(offset)+4 > len(w.regs) {
		panic(fmt.Sprintf("mmio: register offset 0x%x outside window of 0x%x bytes", offset, len(w.regs)))
	}
	return (*uint32)(unsafe.Pointer(&w.regs[offset]))
}

// Read32 loads the register at offset.
func (w *Window) Read32(offset uint32) uint32 {
	return atomic.LoadUint32(w.addr(offset))
}

// Write32 stores value to the register at offset.
func (w *Window) Write32(offset uint32, value uint32) {
	atomic.StoreUint32(w.addr(offset), value)
}

// Close unmaps the window and closes the backing file.
func (w *Window) Close() error {
	if w.page == nil {
		return nil
	}
	err := unix.Munmap(w.page)
	w.page, w.regs = nil, nil
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}
