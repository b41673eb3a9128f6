package dbm

import "math/bits"

// RegisterSpace is a window of 32-bit little-endian registers addressed by
// byte offset from the window base.
//
// Implementations are not required to be safe for concurrent use. Accesses
// outside the window are a programming error and may panic.
type RegisterSpace interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)
}

// writeField performs a read-modify-write of the bits selected by mask.
// value is shifted to the lowest set bit of mask; the caller guarantees the
// shifted value fits inside mask. A zero mask leaves the register untouched.
func writeField(regs RegisterSpace, offset, mask, value uint32) {
	if mask == 0 {
		return
	}
	shift := bits.TrailingZeros32(mask)
	v := regs.Read32(offset)
	v &^= mask
	regs.Write32(offset, v|value<<shift)
}

// readField returns the bits selected by mask shifted down to bit 0.
func readField(regs RegisterSpace, offset, mask uint32) uint32 {
	if mask == 0 {
		return 0
	}
	return (regs.Read32(offset) & mask) >> bits.TrailingZeros32(mask)
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
