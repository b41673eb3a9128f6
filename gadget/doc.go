// Package gadget is the device-controller side of the DBM: it decides which
// hardware channel carries each USB function endpoint and drives the DBM
// through the bind, configure, and release sequence.
//
// A typical function driver does:
//
//	b := gadget.NewBinder(d)
//	if err := b.Start(gadget.EventBuffer{Address: evt, Size: 4096}, true); err != nil {
//	    return err
//	}
//	channels, err := b.Bind(
//	    gadget.Endpoint{Address: 0x81, FIFO: inFIFO, FIFOSize: 0x2000},
//	    gadget.Endpoint{Address: 0x01, FIFO: outFIFO, FIFOSize: 0x2000},
//	)
//	...
//	defer b.ReleaseAll()
//
// Endpoints are keyed by the controller's physical endpoint number
// ((number << 1) | direction), the value the DBM stores per channel.
package gadget
