package dbm

import (
	"fmt"

	"github.com/ardnew/softdbm/pkg"
)

// ChannelStatus is the register view of one channel.
type ChannelStatus struct {
	Channel             int
	Enabled             bool
	Endpoint            uint8
	Pipe                uint8
	Producer            bool
	DisableWriteback    bool
	InternalMemory      bool
	CompletionInterrupt bool
	InReset             bool
	FIFOAddress         uint64
	FIFOSize            uint32
}

// Status is the register view of a whole controller.
type Status struct {
	Revision       Revision
	InReset        bool
	HighSpeed      bool
	EventAddress   uint64
	EventSize      uint32
	FIFOAddrEnable uint32
	FIFOSizeEnable uint32
	Channels       []ChannelStatus
}

// Inspect decodes the registers of a controller of revision rev. It only
// reads regs and does not need the channel table, so it works on a live
// window owned by another driver as well as on a saved register image.
func Inspect(regs RegisterSpace, rev Revision) (Status, error) {
	n := rev.Channels()
	if n == 0 {
		return Status{}, fmt.Errorf("inspect revision %v: %w", rev, pkg.ErrNotSupported)
	}

	s := Status{
		Revision:  rev,
		InReset:   readField(regs, RegSoftReset, SoftResetMask) != 0,
		EventSize: readField(regs, RegGEvntSiz, GEvntSizMask),
		Channels:  make([]ChannelStatus, n),
	}
	if rev == Rev14 {
		s.EventAddress = uint64(regs.Read32(RegGEvntAdr))
	} else {
		s.HighSpeed = regs.Read32(RegGenCfg) != 0
		s.EventAddress = uint64(regs.Read32(RegGEvntAdrMSB))<<32 | uint64(regs.Read32(RegGEvntAdrLSB))
		s.FIFOAddrEnable = regs.Read32(RegDataFIFOAddrEn)
		s.FIFOSizeEnable = regs.Read32(RegDataFIFOSizeEn)
	}

	reset := readField(regs, RegSoftReset, SoftResetEPsMask)
	ioc := readField(regs, RegDbgCnfg, EnableIOCMask)
	for ch := range s.Channels {
		cfg := regs.Read32(RegEPCfg(ch))
		cs := ChannelStatus{
			Channel:             ch,
			Enabled:             cfg&EPCfgEnable != 0,
			Endpoint:            uint8((cfg & EPCfgEPNum) >> 1),
			Producer:            cfg&EPCfgProducer != 0,
			DisableWriteback:    cfg&EPCfgDisableWB != 0,
			InternalMemory:      cfg&EPCfgIntRAMAcc != 0,
			CompletionInterrupt: ioc&(1<<uint(ch)) != 0,
			InReset:             reset&(1<<uint(ch)) != 0,
			FIFOSize:            readField(regs, RegDataFIFOSize(ch), DataFIFOSizeMask),
		}
		if rev == Rev14 {
			cs.Pipe = uint8((cfg & EPCfgBAMPipe) >> 6)
			cs.FIFOAddress = uint64(regs.Read32(RegDataFIFO(ch)))
		} else {
			cs.FIFOAddress = uint64(regs.Read32(RegDataFIFOMSB(ch)))<<32 | uint64(regs.Read32(RegDataFIFOLSB(ch)))
		}
		s.Channels[ch] = cs
	}
	return s, nil
}
