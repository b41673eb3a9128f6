// Package mmio maps a DBM register window from /dev/mem or from a register
// image file, for use as a dbm.RegisterSpace.
//
//	w, err := mmio.Open(mmio.DevMem, 0x0a8f8000, dbm.WindowSize)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	d, err := dbm.NewV15(w)
//
// Registers are accessed with single aligned 32-bit loads and stores. The
// host byte order must be little endian, as it is on every platform that
// carries a DBM.
package mmio
