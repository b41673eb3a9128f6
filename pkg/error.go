package pkg

import "errors"

// DBM errors.
var (
	// ErrNoSuchEndpoint indicates no channel is bound to the endpoint.
	ErrNoSuchEndpoint = errors.New("no channel bound to endpoint")

	// ErrInvalidChannel indicates a channel index outside the controller's range.
	ErrInvalidChannel = errors.New("invalid channel index")

	// ErrUnsupportedDirection indicates a channel cannot be used in the
	// requested direction.
	ErrUnsupportedDirection = errors.New("unsupported channel direction")

	// ErrInvalidSize indicates a negative or oversized size argument.
	ErrInvalidSize = errors.New("invalid size")

	// ErrAllocationFailure indicates the platform could not allocate a
	// controller or map its register window.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrNotSupported indicates an operation absent on this hardware revision.
	ErrNotSupported = errors.New("not supported")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidEndpoint indicates an endpoint that cannot be routed through
	// the DBM (for example, the control endpoint).
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrNoDevice indicates no matching DBM device was found.
	ErrNoDevice = errors.New("device not present")

	// ErrNoResources indicates every usable channel is already bound.
	ErrNoResources = errors.New("no free channel")

	// ErrChannelActive indicates a channel is enabled and its binding cannot
	// change until the endpoint is unconfigured.
	ErrChannelActive = errors.New("channel active")
)

// ChannelState is the lifecycle state of a DBM channel.
type ChannelState int

// Channel states.
const (
	ChannelUnbound ChannelState = iota // No endpoint assigned
	ChannelBound                       // Endpoint assigned, FIFO programmed, not enabled
	ChannelActive                      // Configured and enabled
)

// String returns a string representation of the channel state.
func (s ChannelState) String() string {
	switch s {
	case ChannelUnbound:
		return "unbound"
	case ChannelBound:
		return "bound"
	case ChannelActive:
		return "active"
	default:
		return "unknown"
	}
}
