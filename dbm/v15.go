package dbm

import (
	"fmt"

	"github.com/ardnew/softdbm/pkg"
)

// V15 drives a DBM 1.5: eight channels, 64-bit FIFO and event buffer
// addresses, and a consumer-only channel 7.
type V15 struct {
	core
}

var _ DBM = (*V15)(nil)

// NewV15 returns a DBM 1.5 controller that owns regs. Every channel starts
// unbound.
func NewV15(regs RegisterSpace, opts ...Option) (*V15, error) {
	c, err := newCore(Rev15, regs, opts)
	if err != nil {
		return nil, err
	}
	return &V15{core: c}, nil
}

// ConfigureEndpoint programs the channel bound to ep and enables it.
// pipe is unused on this revision.
func (d *V15) ConfigureEndpoint(ep, pipe uint8, cfg EndpointConfig) (int, error) {
	ch, err := d.lookup("configure", ep)
	if err != nil {
		return 0, err
	}
	if ch == d.table.Len()-1 && cfg.Producer {
		d.epLog.Error("configure", "endpoint", ep, "channel", ch, "err", pkg.ErrUnsupportedDirection)
		return 0, fmt.Errorf("configure endpoint %d: channel %d is consumer only: %w",
			ep, ch, pkg.ErrUnsupportedDirection)
	}
	d.configure(ch, ep, cfg, nil)
	return ch, nil
}

// ConfigureEventBuffer programs the event buffer address and size.
// A negative size fails without touching any register.
func (d *V15) ConfigureEventBuffer(addrLo, addrHi uint32, size int) error {
	if err := d.checkEventSize(size); err != nil {
		return err
	}
	d.regs.Write32(RegGEvntAdrLSB, addrLo)
	d.regs.Write32(RegGEvntAdrMSB, addrHi)
	writeField(d.regs, RegGEvntSiz, GEvntSizMask, uint32(size))
	d.log.Debug("event buffer configured", "lo", addrLo, "hi", addrHi, "size", size)
	return nil
}

// ConfigureDataFIFO binds ep to ch, then programs the FIFO address and size.
// This is the step that assigns channels; ConfigureEndpoint only finds them.
func (d *V15) ConfigureDataFIFO(ep uint8, addr uint64, size uint32, ch int) error {
	if err := d.bind(ep, ch); err != nil {
		return err
	}
	d.regs.Write32(RegDataFIFOLSB(ch), uint32(addr))
	d.regs.Write32(RegDataFIFOMSB(ch), uint32(addr>>32))
	writeField(d.regs, RegDataFIFOSize(ch), DataFIFOSizeMask, size)
	d.chLog.Debug("data fifo configured", "endpoint", ep, "channel", ch, "addr", addr, "size", size)
	return nil
}

// SetSpeed writes the speed select register.
func (d *V15) SetSpeed(highSpeed bool) error {
	d.regs.Write32(RegGenCfg, boolBit(highSpeed))
	return nil
}

// Enable sets the FIFO address and size enables of all channels.
func (d *V15) Enable() error {
	d.regs.Write32(RegDataFIFOAddrEn, allChannels)
	d.regs.Write32(RegDataFIFOSizeEn, allChannels)
	return nil
}
