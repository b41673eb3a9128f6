package dbm

import (
	"fmt"

	"github.com/ardnew/softdbm/pkg"
)

// V14 drives a DBM 1.4: four channels, 32-bit FIFO and event buffer
// addresses, and a BAM pipe number programmed per channel.
type V14 struct {
	core
}

var _ DBM = (*V14)(nil)

// NewV14 returns a DBM 1.4 controller that owns regs.
func NewV14(regs RegisterSpace, opts ...Option) (*V14, error) {
	c, err := newCore(Rev14, regs, opts)
	if err != nil {
		return nil, err
	}
	return &V14{core: c}, nil
}

// ConfigureEndpoint programs the channel bound to ep, routes it to BAM pipe
// pipe, and enables it.
func (d *V14) ConfigureEndpoint(ep, pipe uint8, cfg EndpointConfig) (int, error) {
	ch, err := d.lookup("configure", ep)
	if err != nil {
		return 0, err
	}
	if uint32(pipe) > EPCfgBAMPipe>>6 {
		d.epLog.Error("configure", "endpoint", ep, "pipe", pipe, "err", pkg.ErrInvalidParameter)
		return 0, fmt.Errorf("configure endpoint %d: pipe %d: %w", ep, pipe, pkg.ErrInvalidParameter)
	}
	d.configure(ch, ep, cfg, func(ch int) {
		writeField(d.regs, RegEPCfg(ch), EPCfgBAMPipe, uint32(pipe))
		writeField(d.regs, RegPipeCfg, PipeCfgMask, pipeCfgDefault)
	})
	return ch, nil
}

// ConfigureEventBuffer programs the 32-bit event buffer address and size.
// addrHi must be zero.
func (d *V14) ConfigureEventBuffer(addrLo, addrHi uint32, size int) error {
	if err := d.checkEventSize(size); err != nil {
		return err
	}
	if addrHi != 0 {
		d.log.Error("event buffer", "hi", addrHi, "err", pkg.ErrInvalidParameter)
		return fmt.Errorf("event buffer address 0x%x%08x beyond 32 bits: %w",
			addrHi, addrLo, pkg.ErrInvalidParameter)
	}
	d.regs.Write32(RegGEvntAdr, addrLo)
	writeField(d.regs, RegGEvntSiz, GEvntSizMask, uint32(size))
	return nil
}

// ConfigureDataFIFO binds ep to ch, then programs the 32-bit FIFO address
// and size.
func (d *V14) ConfigureDataFIFO(ep uint8, addr uint64, size uint32, ch int) error {
	if addr>>32 != 0 {
		d.chLog.Error("data fifo", "endpoint", ep, "addr", addr, "err", pkg.ErrInvalidParameter)
		return fmt.Errorf("data fifo address 0x%x beyond 32 bits: %w", addr, pkg.ErrInvalidParameter)
	}
	if err := d.bind(ep, ch); err != nil {
		return err
	}
	d.regs.Write32(RegDataFIFO(ch), uint32(addr))
	writeField(d.regs, RegDataFIFOSize(ch), DataFIFOSizeMask, size)
	return nil
}

// SetSpeed is not available on DBM 1.4.
func (d *V14) SetSpeed(bool) error {
	return fmt.Errorf("set speed on dbm %v: %w", d.rev, pkg.ErrNotSupported)
}

// Enable is not available on DBM 1.4.
func (d *V14) Enable() error {
	return fmt.Errorf("enable on dbm %v: %w", d.rev, pkg.ErrNotSupported)
}
