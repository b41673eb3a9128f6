package dbm

import (
	"fmt"

	"github.com/ardnew/softdbm/pkg"
)

// Per-channel register offsets.
func RegEPCfg(n int) uint32        { return 0x000 + 4*uint32(n) } // channel configuration
func RegDataFIFOSize(n int) uint32 { return 0x080 + 4*uint32(n) } // FIFO size
func RegDataFIFOLSB(n int) uint32  { return 0x100 + 8*uint32(n) } // FIFO address, low word
func RegDataFIFOMSB(n int) uint32  { return 0x104 + 8*uint32(n) } // FIFO address, high word
func RegDataFIFO(n int) uint32     { return 0x280 + 4*uint32(n) } // FIFO address, 32-bit (v1.4)

// Controller-wide register offsets.
const (
	RegDataFIFOAddrEn = 0x200 // FIFO address register enables, one bit per channel
	RegDataFIFOSizeEn = 0x204 // FIFO size register enables, one bit per channel
	RegDbgCnfg        = 0x208 // debug config, holds per-channel IOC enables
	RegSoftReset      = 0x20C // controller and per-channel soft reset
	RegGenCfg         = 0x210 // general config, speed select
	RegGEvntAdrLSB    = 0x260 // event buffer address, low word
	RegGEvntAdrMSB    = 0x264 // event buffer address, high word
	RegGEvntSiz       = 0x268 // event buffer size
	RegDataFIFOEn     = 0x26C // FIFO enable
	RegGEvntAdr       = 0x270 // event buffer address, 32-bit (v1.4)
	RegPipeCfg        = 0x274 // BAM pipe mapping
)

// WindowSize is the smallest register window that covers every register of
// every supported revision.
const WindowSize = 0x300

// RegEPCfg fields.
const (
	EPCfgEnable    = 0x00000001 // channel enable
	EPCfgEPNum     = 0x0000003E // USB physical endpoint number
	EPCfgBAMPipe   = 0x000000C0 // BAM pipe number (v1.4)
	EPCfgProducer  = 0x00000100 // producer (IN) direction
	EPCfgDisableWB = 0x00000200 // disable write back
	EPCfgIntRAMAcc = 0x00000400 // FIFO in internal RAM
)

// Field masks for the remaining registers.
const (
	DataFIFOSizeMask = 0x0000FFFF
	GEvntSizMask     = 0x0000FFFF
	EnableIOCMask    = 0x000000FF
	SoftResetEPsMask = 0x000000FF
	SoftResetMask    = 0x80000000
	PipeCfgMask      = 0x000000FF
)

// allChannels sets the address and size enable bit of all eight channels.
const allChannels = 0x000000FF

// pipeCfgDefault is the identity mapping of BAM pipes 0-3 written by v1.4.
const pipeCfgDefault = 0xE4

// Revision identifies a DBM hardware revision.
type Revision int

// Supported revisions.
const (
	RevUnknown Revision = iota
	Rev14
	Rev15
)

// MaxChannels is the largest channel count of any revision.
const MaxChannels = 8

// MaxEndpoint is the largest endpoint id the EP_CFG number field holds.
const MaxEndpoint = EPCfgEPNum >> 1

// String returns the revision number, e.g. "1.5".
func (r Revision) String() string {
	switch r {
	case Rev14:
		return "1.4"
	case Rev15:
		return "1.5"
	default:
		return "unknown"
	}
}

// Channels returns the number of hardware channels, or 0 for an unknown revision.
func (r Revision) Channels() int {
	switch r {
	case Rev14:
		return 4
	case Rev15:
		return 8
	default:
		return 0
	}
}

// Compatible returns the device-tree compatible string of the revision.
func (r Revision) Compatible() string {
	switch r {
	case Rev14:
		return "qcom,usb-dbm-1p4"
	case Rev15:
		return "qcom,usb-dbm-1p5"
	default:
		return ""
	}
}

// LastChannelConsumerOnly reports whether the highest channel refuses the
// producer direction. DBM 1.5 has this erratum on channel 7.
func (r Revision) LastChannelConsumerOnly() bool {
	return r == Rev15
}

// ParseRevision parses "1.4"/"1.5" (also "1p4"/"1p5") into a Revision.
func ParseRevision(s string) (Revision, error) {
	switch s {
	case "1.4", "1p4":
		return Rev14, nil
	case "1.5", "1p5":
		return Rev15, nil
	}
	return RevUnknown, fmt.Errorf("revision %q: %w", s, pkg.ErrNotSupported)
}

// RevisionForCompatible maps a device-tree compatible string to a Revision.
func RevisionForCompatible(compatible string) (Revision, error) {
	for _, r := range []Revision{Rev14, Rev15} {
		if r.Compatible() == compatible {
			return r, nil
		}
	}
	return RevUnknown, fmt.Errorf("compatible %q: %w", compatible, pkg.ErrNoDevice)
}
