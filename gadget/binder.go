package gadget

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardnew/softdbm/dbm"
	"github.com/ardnew/softdbm/pkg"
)

// EventBuffer locates the device controller's event buffer.
type EventBuffer struct {
	Address uint64
	Size    int
}

// Binder routes function endpoints through a DBM. It allocates channels,
// programs their FIFOs, configures them, and tears them down again.
//
// A Binder serializes its own calls, which makes it the single caller the
// DBM requires. Nothing else may drive the same DBM while a Binder owns it.
type Binder struct {
	dbm   dbm.DBM
	bound map[uint8]int // physical endpoint -> channel
	mutex sync.Mutex
}

// NewBinder returns a Binder that owns d.
func NewBinder(d dbm.DBM) *Binder {
	return &Binder{
		dbm:   d,
		bound: make(map[uint8]int),
	}
}

// Start resets the DBM and programs the controller-wide registers. Speed
// selection and FIFO enables are skipped on revisions without them.
func (b *Binder) Start(evt EventBuffer, highSpeed bool) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.dbm.SoftReset(true)
	b.dbm.SoftReset(false)

	if err := b.dbm.ConfigureEventBuffer(uint32(evt.Address), uint32(evt.Address>>32), evt.Size); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := b.dbm.SetSpeed(highSpeed); err != nil && !errors.Is(err, pkg.ErrNotSupported) {
		return fmt.Errorf("start: %w", err)
	}
	if err := b.dbm.Enable(); err != nil && !errors.Is(err, pkg.ErrNotSupported) {
		return fmt.Errorf("start: %w", err)
	}

	pkg.LogInfo(pkg.ComponentGadget, "dbm started",
		"revision", b.dbm.Revision().String(), "highSpeed", highSpeed)
	return nil
}

// Bind routes every endpoint in eps through a free channel and returns the
// channels in the same order. Either all endpoints are bound or none are.
func (b *Binder) Bind(eps ...Endpoint) ([]int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	channels := make([]int, 0, len(eps))
	var done []uint8

	rollback := func(err error) ([]int, error) {
		for _, p := range done {
			if uerr := b.release(p); uerr != nil {
				pkg.LogWarn(pkg.ComponentGadget, "rollback failed", "endpoint", p, "err", uerr)
			}
		}
		return nil, err
	}

	for i := range eps {
		ep := &eps[i]
		ch, err := b.bind(ep)
		if err != nil {
			pkg.LogError(pkg.ComponentGadget, "bind failed", "address", ep.Address, "err", err)
			return rollback(fmt.Errorf("bind endpoint 0x%02x: %w", ep.Address, err))
		}
		done = append(done, ep.Physical())
		channels = append(channels, ch)
	}
	return channels, nil
}

func (b *Binder) bind(ep *Endpoint) (int, error) {
	if ep.Number() == 0 {
		return 0, pkg.ErrInvalidEndpoint
	}
	phys := ep.Physical()
	if _, ok := b.bound[phys]; ok {
		return 0, fmt.Errorf("already bound: %w", pkg.ErrInvalidParameter)
	}

	ch, err := b.allocate(ep.IsIn())
	if err != nil {
		return 0, err
	}
	if err := b.dbm.ConfigureDataFIFO(phys, ep.FIFO, ep.FIFOSize, ch); err != nil {
		return 0, err
	}
	b.bound[phys] = ch

	cfg := dbm.EndpointConfig{
		Producer:            ep.IsIn(),
		DisableWriteback:    ep.DisableWriteback,
		CompletionInterrupt: ep.CompletionInterrupt,
	}
	if _, err := b.dbm.ConfigureEndpoint(phys, ep.Pipe, cfg); err != nil {
		_ = b.release(phys)
		return 0, err
	}

	pkg.LogDebug(pkg.ComponentGadget, "endpoint bound", "address", ep.Address, "channel", ch)
	return ch, nil
}

// allocate returns the lowest unbound channel usable in the given direction.
func (b *Binder) allocate(producer bool) (int, error) {
	n := b.dbm.Channels()
	if producer && b.dbm.Revision().LastChannelConsumerOnly() {
		n--
	}
	for ch := 0; ch < n; ch++ {
		state, err := b.dbm.ChannelState(ch)
		if err != nil {
			return 0, err
		}
		if state == pkg.ChannelUnbound {
			return ch, nil
		}
	}
	return 0, pkg.ErrNoResources
}

// Release tears down the channel of the endpoint with the given address.
func (b *Binder) Release(address uint8) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ep := Endpoint{Address: address}
	if err := b.release(ep.Physical()); err != nil {
		return fmt.Errorf("release endpoint 0x%02x: %w", address, err)
	}
	return nil
}

func (b *Binder) release(phys uint8) error {
	if _, ok := b.bound[phys]; !ok {
		return pkg.ErrNoSuchEndpoint
	}
	delete(b.bound, phys)
	return b.dbm.UnconfigureEndpoint(phys)
}

// ReleaseAll tears down every endpoint bound through b.
func (b *Binder) ReleaseAll() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	var errs []error
	for phys := range b.bound {
		if err := b.release(phys); err != nil {
			errs = append(errs, fmt.Errorf("release physical endpoint %d: %w", phys, err))
		}
	}
	return errors.Join(errs...)
}

// Channel returns the channel carrying the endpoint with the given address.
func (b *Binder) Channel(address uint8) (int, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ep := Endpoint{Address: address}
	ch, ok := b.bound[ep.Physical()]
	return ch, ok
}

// Bound returns the number of endpoints bound through b.
func (b *Binder) Bound() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.bound)
}
