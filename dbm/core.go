package dbm

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ardnew/softdbm/pkg"
)

// core holds the state and operations shared by every revision.
type core struct {
	regs   RegisterSpace
	rev    Revision
	table  *ChannelTable
	base   *slog.Logger
	log    *slog.Logger // dbm component
	chLog  *slog.Logger // channel component
	epLog  *slog.Logger // endpoint component
	delay  func(time.Duration)
	settle time.Duration
}

func newCore(rev Revision, regs RegisterSpace, opts []Option) (core, error) {
	if regs == nil {
		return core{}, fmt.Errorf("dbm %v: nil register window: %w", rev, pkg.ErrAllocationFailure)
	}
	table, err := NewChannelTable(rev.Channels())
	if err != nil {
		return core{}, fmt.Errorf("dbm %v: %w", rev, err)
	}
	c := core{
		regs:   regs,
		rev:    rev,
		table:  table,
		delay:  time.Sleep,
		settle: DefaultSettleTime,
	}
	for _, opt := range opts {
		opt(&c)
	}
	c.log = pkg.Tag(c.base, pkg.ComponentDBM).With("revision", rev.String())
	c.chLog = pkg.Tag(c.base, pkg.ComponentChannel).With("revision", rev.String())
	c.epLog = pkg.Tag(c.base, pkg.ComponentEndpoint).With("revision", rev.String())
	return c, nil
}

func (c *core) Revision() Revision { return c.rev }

func (c *core) Channels() int { return c.table.Len() }

func (c *core) ConfiguredCount() int { return c.table.CountBound() }

func (c *core) FindChannel(ep uint8) (int, error) {
	ch, err := c.table.Find(ep)
	if err != nil {
		return 0, fmt.Errorf("endpoint %d: %w", ep, err)
	}
	return ch, nil
}

func (c *core) SoftReset(enter bool) {
	c.log.Debug("controller reset", "enter", enter)
	writeField(c.regs, RegSoftReset, SoftResetMask, boolBit(enter))
}

func (c *core) ResetChannel(ch int, enter bool) error {
	if !c.table.Valid(ch) {
		c.chLog.Error("reset channel", "channel", ch, "err", pkg.ErrInvalidChannel)
		return fmt.Errorf("reset channel %d: %w", ch, pkg.ErrInvalidChannel)
	}
	c.chLog.Debug("channel reset", "channel", ch, "enter", enter)
	writeField(c.regs, RegSoftReset, SoftResetEPsMask&(1<<uint(ch)), boolBit(enter))
	return nil
}

func (c *core) ChannelState(ch int) (pkg.ChannelState, error) {
	ep, err := c.table.Endpoint(ch)
	if err != nil {
		return pkg.ChannelUnbound, fmt.Errorf("channel %d: %w", ch, err)
	}
	switch {
	case ep == 0:
		return pkg.ChannelUnbound, nil
	case c.enabled(ch):
		return pkg.ChannelActive, nil
	default:
		return pkg.ChannelBound, nil
	}
}

// enabled reports whether EN_EP is set on ch.
func (c *core) enabled(ch int) bool {
	return c.regs.Read32(RegEPCfg(ch))&EPCfgEnable != 0
}

// bind records ep on ch. An endpoint already bound elsewhere is moved so
// that no endpoint ever occupies two channels. Neither a move away from an
// enabled channel nor a takeover of an enabled channel held by another
// endpoint is allowed; the endpoint must be unconfigured first.
func (c *core) bind(ep uint8, ch int) error {
	if !c.table.Valid(ch) {
		c.chLog.Error("bind", "endpoint", ep, "channel", ch, "err", pkg.ErrInvalidChannel)
		return fmt.Errorf("bind endpoint %d to channel %d: %w", ep, ch, pkg.ErrInvalidChannel)
	}
	if ep == 0 || ep > MaxEndpoint {
		c.chLog.Error("bind", "endpoint", ep, "channel", ch, "err", pkg.ErrInvalidEndpoint)
		return fmt.Errorf("bind endpoint %d to channel %d: %w", ep, ch, pkg.ErrInvalidEndpoint)
	}

	prev, err := c.table.Find(ep)
	moved := err == nil && prev != ch
	if moved && c.enabled(prev) {
		c.chLog.Error("bind", "endpoint", ep, "channel", ch, "active", prev, "err", pkg.ErrChannelActive)
		return fmt.Errorf("bind endpoint %d to channel %d: endpoint enabled on channel %d: %w",
			ep, ch, prev, pkg.ErrChannelActive)
	}
	old, _ := c.table.Endpoint(ch)
	taken := old != 0 && old != ep
	if taken && c.enabled(ch) {
		c.chLog.Error("bind", "endpoint", ep, "channel", ch, "owner", old, "err", pkg.ErrChannelActive)
		return fmt.Errorf("bind endpoint %d to channel %d: channel enabled for endpoint %d: %w",
			ep, ch, old, pkg.ErrChannelActive)
	}

	if moved {
		c.chLog.Warn("endpoint moved", "endpoint", ep, "from", prev, "to", ch)
		_ = c.table.Unbind(prev)
	}
	if taken {
		c.chLog.Warn("channel reassigned", "channel", ch, "from", old, "to", ep)
	}
	return c.table.Bind(ch, ep)
}

// lookup resolves the channel of ep for op, logging a miss.
func (c *core) lookup(op string, ep uint8) (int, error) {
	ch, err := c.table.Find(ep)
	if err != nil {
		c.epLog.Error(op, "endpoint", ep, "err", err)
		return 0, fmt.Errorf("%s endpoint %d: %w", op, ep, err)
	}
	return ch, nil
}

// configure runs the register sequence shared by all revisions. extra, if
// non-nil, programs revision-specific fields before the channel is enabled.
func (c *core) configure(ch int, ep uint8, cfg EndpointConfig, extra func(ch int)) {
	// Take the channel out of reset before touching its configuration.
	_ = c.ResetChannel(ch, false)

	writeField(c.regs, RegDbgCnfg, EnableIOCMask&(1<<uint(ch)), boolBit(cfg.CompletionInterrupt))

	if cfg.InternalMemory {
		c.epLog.Debug("internal memory not supported, using system memory", "channel", ch)
		cfg.InternalMemory = false
	}

	var word uint32
	if cfg.Producer {
		word |= EPCfgProducer
	}
	if cfg.DisableWriteback {
		word |= EPCfgDisableWB
	}
	if cfg.InternalMemory {
		word |= EPCfgIntRAMAcc
	}
	writeField(c.regs, RegEPCfg(ch), EPCfgProducer|EPCfgDisableWB|EPCfgIntRAMAcc, word>>8)
	writeField(c.regs, RegEPCfg(ch), EPCfgEPNum, uint32(ep))

	if extra != nil {
		extra(ch)
	}

	// Enable last so a partially programmed channel never runs.
	writeField(c.regs, RegEPCfg(ch), EPCfgEnable, 1)

	c.epLog.Debug("endpoint configured", "endpoint", ep, "channel", ch,
		"producer", cfg.Producer, "ioc", cfg.CompletionInterrupt)
}

func (c *core) UnconfigureEndpoint(ep uint8) error {
	ch, err := c.lookup("unconfigure", ep)
	if err != nil {
		return err
	}

	// Release the binding before the hardware so a lookup never finds a
	// channel that is being torn down.
	_ = c.table.Unbind(ch)

	v := c.regs.Read32(RegEPCfg(ch))
	c.regs.Write32(RegEPCfg(ch), v&^EPCfgEnable)

	_ = c.ResetChannel(ch, true)
	c.delay(c.settle)
	_ = c.ResetChannel(ch, false)

	c.epLog.Debug("endpoint unconfigured", "endpoint", ep, "channel", ch)
	return nil
}

func (c *core) checkEventSize(size int) error {
	if size < 0 {
		c.log.Error("event buffer", "size", size, "err", pkg.ErrInvalidSize)
		return fmt.Errorf("event buffer size %d: %w", size, pkg.ErrInvalidSize)
	}
	return nil
}
