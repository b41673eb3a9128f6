package gadget

// Endpoint directions.
const (
	EndpointDirectionOut = 0x00 // Host to device
	EndpointDirectionIn  = 0x80 // Device to host
)

// Endpoint describes a function endpoint whose data path runs through the
// DBM.
type Endpoint struct {
	Address             uint8  // Endpoint address including direction bit
	FIFO                uint64 // Physical address of the data FIFO
	FIFOSize            uint32 // Data FIFO size in bytes
	Pipe                uint8  // BAM pipe (DBM 1.4 only)
	DisableWriteback    bool   // Skip write back to system memory
	CompletionInterrupt bool   // Interrupt on transfer completion
}

// Number returns the endpoint number (0-15).
func (e *Endpoint) Number() uint8 {
	return e.Address & 0x0F
}

// IsIn returns true if this is an IN endpoint (device to host). IN
// endpoints are DBM producers.
func (e *Endpoint) IsIn() bool {
	return e.Address&EndpointDirectionIn != 0
}

// Physical returns the controller's physical endpoint number: the endpoint
// number shifted left once, with the direction in bit 0. This is the value
// the DBM matches against.
func (e *Endpoint) Physical() uint8 {
	p := e.Number() << 1
	if e.IsIn() {
		p |= 1
	}
	return p
}
