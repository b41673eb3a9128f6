package dbm

import (
	"encoding/binary"
	"fmt"
)

// MemSpace is an in-memory RegisterSpace. It stands in for a mapped
// register window in tests and tools that work on register images.
type MemSpace struct {
	buf    []byte
	writes int
}

// NewMemSpace returns a zeroed register space of size bytes.
// size is rounded up to a multiple of 4.
func NewMemSpace(size int) *MemSpace {
	if size < 0 {
		size = 0
	}
	return &MemSpace{buf: make([]byte, (size+3)&^3)}
}

// NewMemSpaceFrom wraps an existing register image without copying it.
func NewMemSpaceFrom(image []byte) *MemSpace {
	return &MemSpace{buf: image[:len(image)&^3]}
}

func (m *MemSpace) check(offset uint32) {
	if offset&3 != 0 || int(offset)+4 > len(m.buf) {
		panic(fmt.Sprintf("dbm: register offset 0x%x outside window of 0x%x bytes", offset, len(m.buf)))
	}
}

// Read32 returns the register at offset.
func (m *MemSpace) Read32(offset uint32) uint32 {
	m.check(offset)
	return binary.LittleEndian.Uint32(m.buf[offset:])
}

// Write32 stores value at offset.
func (m *MemSpace) Write32(offset uint32, value uint32) {
	m.check(offset)
	binary.LittleEndian.PutUint32(m.buf[offset:], value)
	m.writes++
}

// Len returns the window size in bytes.
func (m *MemSpace) Len() int { return len(m.buf) }

// Writes returns the number of Write32 calls made so far.
func (m *MemSpace) Writes() int { return m.writes }

// Bytes returns the backing register image.
func (m *MemSpace) Bytes() []byte { return m.buf }

// Snapshot returns every non-zero register keyed by offset.
func (m *MemSpace) Snapshot() map[uint32]uint32 {
	regs := make(map[uint32]uint32)
	for off := 0; off+4 <= len(m.buf); off += 4 {
		if v := binary.LittleEndian.Uint32(m.buf[off:]); v != 0 {
			regs[uint32(off)] = v
		}
	}
	return regs
}
