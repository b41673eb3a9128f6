package dbm

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ardnew/softdbm/pkg"
)

// DBM is the operation set a USB device controller driver uses to route
// endpoints through a Data Buffer Manager. Each hardware revision provides
// its own implementation; see [New].
//
// Implementations hold no locks. All calls on one instance must be
// serialized by the caller.
type DBM interface {
	// Revision returns the hardware revision driven by this instance.
	Revision() Revision

	// Channels returns the number of hardware channels.
	Channels() int

	// SoftReset enters or leaves the controller-wide soft reset.
	SoftReset(enter bool)

	// ResetChannel enters or leaves the soft reset of a single channel.
	ResetChannel(ch int, enter bool) error

	// ConfigureEndpoint programs and enables the channel previously bound
	// to ep by ConfigureDataFIFO, returning its index.
	ConfigureEndpoint(ep, pipe uint8, cfg EndpointConfig) (int, error)

	// UnconfigureEndpoint releases the channel bound to ep, disables it and
	// pulses its reset.
	UnconfigureEndpoint(ep uint8) error

	// ConfiguredCount returns the number of bound channels.
	ConfiguredCount() int

	// FindChannel returns the channel bound to ep.
	FindChannel(ep uint8) (int, error)

	// ChannelState returns the lifecycle state of ch.
	ChannelState(ch int) (pkg.ChannelState, error)

	// ConfigureEventBuffer programs the shared event buffer.
	ConfigureEventBuffer(addrLo, addrHi uint32, size int) error

	// ConfigureDataFIFO binds ep to ch and programs the channel's FIFO.
	ConfigureDataFIFO(ep uint8, addr uint64, size uint32, ch int) error

	// SetSpeed selects the operating speed.
	SetSpeed(highSpeed bool) error

	// Enable turns on the FIFO address and size registers of all channels.
	Enable() error
}

// EndpointConfig holds the per-channel options of ConfigureEndpoint.
type EndpointConfig struct {
	Producer            bool // channel moves data device to host (IN)
	DisableWriteback    bool // no write back to system memory
	InternalMemory      bool // FIFO in USB internal RAM; not supported, always cleared
	CompletionInterrupt bool // interrupt on completion
}

// DefaultSettleTime is the minimum time a channel reset is held during
// UnconfigureEndpoint.
const DefaultSettleTime = 10 * time.Microsecond

// Option configures a controller at construction.
type Option func(*core)

// WithLogger sets the logger. Records are tagged with the dbm, channel or
// endpoint component. The default logs through pkg.
func WithLogger(logger *slog.Logger) Option {
	return func(c *core) {
		if logger != nil {
			c.base = logger
		}
	}
}

// WithDelay replaces the function used to wait for the reset settle time.
func WithDelay(delay func(time.Duration)) Option {
	return func(c *core) {
		if delay != nil {
			c.delay = delay
		}
	}
}

// WithSettleTime overrides DefaultSettleTime. Shorter values are rejected
// by the hardware programming guide and are ignored.
func WithSettleTime(d time.Duration) Option {
	return func(c *core) {
		if d >= DefaultSettleTime {
			c.settle = d
		}
	}
}

// New returns the DBM implementation for rev.
func New(rev Revision, regs RegisterSpace, opts ...Option) (DBM, error) {
	switch rev {
	case Rev14:
		d, err := NewV14(regs, opts...)
		if err != nil {
			return nil, err
		}
		return d, nil
	case Rev15:
		d, err := NewV15(regs, opts...)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("revision %v: %w", rev, pkg.ErrNotSupported)
}
