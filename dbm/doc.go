// Package dbm drives the USB Data Buffer Manager (DBM), the block that
// routes USB device controller endpoints to BAM data-mover pipes.
//
// A controller owns a [RegisterSpace] and a [ChannelTable] that records which
// logical endpoint is bound to each hardware channel. One implementation of
// the [DBM] interface exists per hardware revision:
//
//   - [V15]: DBM 1.5, eight channels, channel 7 consumer only
//   - [V14]: DBM 1.4, four channels, 32-bit addresses, BAM pipe field
//
// # Channel lifecycle
//
// Each channel moves through three states:
//
//	unbound --ConfigureDataFIFO--> bound --ConfigureEndpoint--> active
//	   ^                                                          |
//	   +------------------- UnconfigureEndpoint ------------------+
//
// ConfigureDataFIFO assigns the channel; ConfigureEndpoint only finds it.
// The channel enable bit is always written last, so a failed configuration
// never leaves a running channel.
//
// # Concurrency
//
// Controllers hold no locks. The device controller driver that owns a
// controller must serialize every call on it.
//
// # Example
//
//	regs := dbm.NewMemSpace(dbm.WindowSize)
//	d, _ := dbm.NewV15(regs)
//	d.SoftReset(true)
//	d.SoftReset(false)
//	_ = d.ConfigureEventBuffer(0x8000_0000, 0, 0x1000)
//	_ = d.ConfigureDataFIFO(5, 0x9000_0000, 0x2000, 3)
//	ch, err := d.ConfigureEndpoint(5, 0, dbm.EndpointConfig{})
package dbm
