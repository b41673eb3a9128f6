package gadget

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/softdbm/dbm"
	"github.com/ardnew/softdbm/pkg"
)

func newTestBinder(t *testing.T, rev dbm.Revision) (*Binder, dbm.DBM, *dbm.MemSpace) {
	t.Helper()
	regs := dbm.NewMemSpace(dbm.WindowSize)
	d, err := dbm.New(rev, regs, dbm.WithDelay(func(time.Duration) {}))
	if err != nil {
		t.Fatalf("dbm.New(%v) error = %v", rev, err)
	}
	return NewBinder(d), d, regs
}

func TestBinderStart(t *testing.T) {
	b, _, regs := newTestBinder(t, dbm.Rev15)

	if err := b.Start(EventBuffer{Address: 0x1_8000_0000, Size: 0x1000}, true); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	want := map[uint32]uint32{
		dbm.RegGEvntAdrLSB:    0x80000000,
		dbm.RegGEvntAdrMSB:    0x1,
		dbm.RegGEvntSiz:       0x1000,
		dbm.RegGenCfg:         1,
		dbm.RegDataFIFOAddrEn: 0xFF,
		dbm.RegDataFIFOSizeEn: 0xFF,
	}
	if diff := cmp.Diff(want, regs.Snapshot()); diff != "" {
		t.Errorf("registers mismatch (-want +got):\n%s", diff)
	}
}

func TestBinderStartV14(t *testing.T) {
	b, _, regs := newTestBinder(t, dbm.Rev14)

	if err := b.Start(EventBuffer{Address: 0x8000_0000, Size: 0x100}, false); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := regs.Read32(dbm.RegGEvntAdr); got != 0x80000000 {
		t.Errorf("GEVNTADR = 0x%x, want 0x80000000", got)
	}
	if err := b.Start(EventBuffer{Size: -1}, false); !errors.Is(err, pkg.ErrInvalidSize) {
		t.Errorf("Start(size=-1) error = %v, want ErrInvalidSize", err)
	}
}

func TestBinderBind(t *testing.T) {
	b, d, regs := newTestBinder(t, dbm.Rev15)

	channels, err := b.Bind(
		Endpoint{Address: 0x81, FIFO: 0x9000_0000, FIFOSize: 0x2000, CompletionInterrupt: true},
		Endpoint{Address: 0x01, FIFO: 0x9000_2000, FIFOSize: 0x2000},
	)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if diff := cmp.Diff([]int{0, 1}, channels); diff != "" {
		t.Errorf("channels mismatch (-want +got):\n%s", diff)
	}
	if d.ConfiguredCount() != 2 || b.Bound() != 2 {
		t.Errorf("ConfiguredCount(), Bound() = %d, %d, want 2, 2", d.ConfiguredCount(), b.Bound())
	}
	if ch, ok := b.Channel(0x01); !ok || ch != 1 {
		t.Errorf("Channel(0x01) = %d, %v, want 1, true", ch, ok)
	}

	s, _ := dbm.Inspect(regs, dbm.Rev15)
	in, out := s.Channels[0], s.Channels[1]
	if !in.Enabled || !in.Producer || in.Endpoint != 3 || !in.CompletionInterrupt {
		t.Errorf("IN channel = %+v, want enabled producer endpoint 3 with ioc", in)
	}
	if !out.Enabled || out.Producer || out.Endpoint != 2 || out.FIFOAddress != 0x9000_2000 {
		t.Errorf("OUT channel = %+v, want enabled consumer endpoint 2", out)
	}

	if err := b.Release(0x81); err != nil {
		t.Fatalf("Release(0x81) error = %v", err)
	}
	if state, _ := d.ChannelState(0); state != pkg.ChannelUnbound {
		t.Errorf("ChannelState(0) = %v, want unbound", state)
	}
	if err := b.Release(0x81); !errors.Is(err, pkg.ErrNoSuchEndpoint) {
		t.Errorf("second Release(0x81) error = %v, want ErrNoSuchEndpoint", err)
	}
	if err := b.ReleaseAll(); err != nil {
		t.Fatalf("ReleaseAll() error = %v", err)
	}
	if d.ConfiguredCount() != 0 || b.Bound() != 0 {
		t.Errorf("ConfiguredCount(), Bound() = %d, %d, want 0, 0", d.ConfiguredCount(), b.Bound())
	}
}

func TestBinderProducerSkipsLastChannel(t *testing.T) {
	b, d, _ := newTestBinder(t, dbm.Rev15)

	var ins []Endpoint
	for n := uint8(1); n <= 7; n++ {
		ins = append(ins, Endpoint{Address: 0x80 | n, FIFOSize: 0x100})
	}
	if _, err := b.Bind(ins...); err != nil {
		t.Fatalf("Bind(7 IN) error = %v", err)
	}

	_, err := b.Bind(Endpoint{Address: 0x88, FIFOSize: 0x100})
	if !errors.Is(err, pkg.ErrNoResources) {
		t.Fatalf("Bind(8th IN) error = %v, want ErrNoResources", err)
	}

	channels, err := b.Bind(Endpoint{Address: 0x08, FIFOSize: 0x100})
	if err != nil || len(channels) != 1 || channels[0] != 7 {
		t.Errorf("Bind(OUT) = %v, %v, want [7], nil", channels, err)
	}
	if d.ConfiguredCount() != 8 {
		t.Errorf("ConfiguredCount() = %d, want 8", d.ConfiguredCount())
	}
}

func TestBinderBindRollback(t *testing.T) {
	b, d, _ := newTestBinder(t, dbm.Rev14)

	_, err := b.Bind(
		Endpoint{Address: 0x81},
		Endpoint{Address: 0x02},
		Endpoint{Address: 0x83, FIFO: 1 << 32},
	)
	if !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Fatalf("Bind() error = %v, want ErrInvalidParameter", err)
	}
	if d.ConfiguredCount() != 0 || b.Bound() != 0 {
		t.Errorf("after rollback ConfiguredCount(), Bound() = %d, %d, want 0, 0",
			d.ConfiguredCount(), b.Bound())
	}
}

func TestBinderBindErrors(t *testing.T) {
	tests := []struct {
		name    string
		eps     []Endpoint
		wantErr error
	}{
		{"control endpoint", []Endpoint{{Address: 0x80}}, pkg.ErrInvalidEndpoint},
		{"duplicate", []Endpoint{{Address: 0x81}, {Address: 0x81}}, pkg.ErrInvalidParameter},
		{"too many", []Endpoint{{Address: 0x01}, {Address: 0x02}, {Address: 0x03}, {Address: 0x04}, {Address: 0x05}}, pkg.ErrNoResources},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, d, _ := newTestBinder(t, dbm.Rev14)
			if _, err := b.Bind(tt.eps...); !errors.Is(err, tt.wantErr) {
				t.Errorf("Bind() error = %v, want %v", err, tt.wantErr)
			}
			if d.ConfiguredCount() != 0 {
				t.Errorf("ConfiguredCount() = %d, want 0", d.ConfiguredCount())
			}
		})
	}
}
