package dbm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/softdbm/pkg"
)

func newTestV14(t *testing.T) (*V14, *MemSpace) {
	t.Helper()
	regs := NewMemSpace(WindowSize)
	d, err := NewV14(regs, WithDelay(noDelay))
	if err != nil {
		t.Fatalf("NewV14() error = %v", err)
	}
	return d, regs
}

func TestV14ConfigureEndpoint(t *testing.T) {
	d, regs := newTestV14(t)
	if d.Channels() != 4 {
		t.Fatalf("Channels() = %d, want 4", d.Channels())
	}

	if err := d.ConfigureDataFIFO(3, 0x9000_0000, 0x200, 2); err != nil {
		t.Fatalf("ConfigureDataFIFO() error = %v", err)
	}
	ch, err := d.ConfigureEndpoint(3, 2, EndpointConfig{Producer: true, CompletionInterrupt: true})
	if err != nil || ch != 2 {
		t.Fatalf("ConfigureEndpoint() = %d, %v, want 2, nil", ch, err)
	}

	want := map[uint32]uint32{
		RegDataFIFO(2):     0x90000000,
		RegDataFIFOSize(2): 0x200,
		RegDbgCnfg:         1 << 2,
		RegEPCfg(2):        EPCfgProducer | 2<<6 | 3<<1 | EPCfgEnable,
		RegPipeCfg:         pipeCfgDefault,
	}
	if diff := cmp.Diff(want, regs.Snapshot()); diff != "" {
		t.Errorf("registers mismatch (-want +got):\n%s", diff)
	}
}

func TestV14LastChannelProducer(t *testing.T) {
	d, _ := newTestV14(t)
	_ = d.ConfigureDataFIFO(7, 0, 0x100, 3)
	if ch, err := d.ConfigureEndpoint(7, 0, EndpointConfig{Producer: true}); err != nil || ch != 3 {
		t.Errorf("ConfigureEndpoint() = %d, %v, want 3, nil", ch, err)
	}
}

func TestV14Rejects(t *testing.T) {
	d, regs := newTestV14(t)

	tests := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{"channel beyond 4", func() error { return d.ConfigureDataFIFO(1, 0, 0x100, 4) }, pkg.ErrInvalidChannel},
		{"64-bit fifo", func() error { return d.ConfigureDataFIFO(1, 1<<32, 0x100, 0) }, pkg.ErrInvalidParameter},
		{"64-bit event buffer", func() error { return d.ConfigureEventBuffer(0, 1, 0x100) }, pkg.ErrInvalidParameter},
		{"negative event size", func() error { return d.ConfigureEventBuffer(0, 0, -4) }, pkg.ErrInvalidSize},
		{"set speed", func() error { return d.SetSpeed(true) }, pkg.ErrNotSupported},
		{"enable", func() error { return d.Enable() }, pkg.ErrNotSupported},
		{"pipe out of range", func() error {
			_ = d.table.Bind(1, 9)
			defer d.table.Unbind(1)
			_, err := d.ConfigureEndpoint(9, 4, EndpointConfig{})
			return err
		}, pkg.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if regs.Writes() != 0 {
		t.Errorf("rejected calls wrote %d registers, want 0", regs.Writes())
	}
}

func TestV14EventBuffer(t *testing.T) {
	d, regs := newTestV14(t)
	if err := d.ConfigureEventBuffer(0x8000_1000, 0, 0x40); err != nil {
		t.Fatalf("ConfigureEventBuffer() error = %v", err)
	}
	want := map[uint32]uint32{RegGEvntAdr: 0x80001000, RegGEvntSiz: 0x40}
	if diff := cmp.Diff(want, regs.Snapshot()); diff != "" {
		t.Errorf("registers mismatch (-want +got):\n%s", diff)
	}
}
