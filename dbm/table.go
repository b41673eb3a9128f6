package dbm

import (
	"fmt"

	"github.com/ardnew/softdbm/pkg"
)

// ChannelTable maps hardware channel index to the logical endpoint bound to
// it. Endpoint 0 marks a free channel.
//
// The table performs bounds checks only; keeping endpoints unique is the
// caller's job.
type ChannelTable struct {
	eps [MaxChannels]uint8
	n   int
}

// NewChannelTable returns an empty table of n channels.
func NewChannelTable(n int) (*ChannelTable, error) {
	if n <= 0 || n > MaxChannels {
		return nil, fmt.Errorf("channel count %d: %w", n, pkg.ErrInvalidParameter)
	}
	return &ChannelTable{n: n}, nil
}

// Len returns the number of channels.
func (t *ChannelTable) Len() int { return t.n }

// Valid reports whether ch is a channel index of this table.
func (t *ChannelTable) Valid(ch int) bool { return ch >= 0 && ch < t.n }

// Find returns the channel bound to ep.
func (t *ChannelTable) Find(ep uint8) (int, error) {
	if ep != 0 {
		for ch := 0; ch < t.n; ch++ {
			if t.eps[ch] == ep {
				return ch, nil
			}
		}
	}
	return 0, pkg.ErrNoSuchEndpoint
}

// CountBound returns the number of channels holding an endpoint.
func (t *ChannelTable) CountBound() int {
	count := 0
	for _, ep := range t.eps[:t.n] {
		if ep != 0 {
			count++
		}
	}
	return count
}

// Endpoint returns the endpoint bound to ch, or 0 if ch is free.
func (t *ChannelTable) Endpoint(ch int) (uint8, error) {
	if !t.Valid(ch) {
		return 0, pkg.ErrInvalidChannel
	}
	return t.eps[ch], nil
}

// Bind assigns ep to ch, replacing any previous assignment.
func (t *ChannelTable) Bind(ch int, ep uint8) error {
	if !t.Valid(ch) {
		return pkg.ErrInvalidChannel
	}
	t.eps[ch] = ep
	return nil
}

// Unbind frees ch.
func (t *ChannelTable) Unbind(ch int) error {
	return t.Bind(ch, 0)
}
