package probe

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/platinasystems/fdt"

	"github.com/ardnew/softdbm/dbm"
	"github.com/ardnew/softdbm/pkg"
)

// DefaultDTB is where the running kernel exposes its flattened device tree.
const DefaultDTB = "/sys/firmware/fdt"

// Device is a DBM instance found in a device tree.
type Device struct {
	Name     string       // node name, e.g. "dbm@a8f8000"
	Revision dbm.Revision // from the compatible property
	Base     uint64       // physical base address of the register window
	Size     uint64       // register window size in bytes
}

// Load reads a flattened device tree blob from path and returns its DBM
// devices.
func Load(path string) ([]Device, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read device tree: %w", err)
	}
	return Parse(b)
}

// Parse returns the DBM devices described by a flattened device tree blob,
// ordered by base address. It fails with pkg.ErrNoDevice when there are none
// and with pkg.ErrInvalidParameter when blob is not a device tree.
func Parse(blob []byte) ([]Device, error) {
	t, err := parseTree(blob)
	if err != nil {
		pkg.LogError(pkg.ComponentProbe, "parse device tree", "size", len(blob), "err", err)
		return nil, fmt.Errorf("probe: %w", err)
	}

	var (
		devs []Device
		errs []error
	)
	t.EachProperty("compatible", "", func(n *fdt.Node, _ string, _ string) {
		dev, ok, err := fromProperties(n.Name, n.Properties)
		switch {
		case err != nil:
			pkg.LogWarn(pkg.ComponentProbe, "skipping node", "node", n.Name, "err", err)
			errs = append(errs, err)
		case ok:
			pkg.LogDebug(pkg.ComponentProbe, "found dbm", "node", dev.Name,
				"revision", dev.Revision.String(), "base", dev.Base, "size", dev.Size)
			devs = append(devs, dev)
		}
	})

	if len(devs) == 0 {
		if len(errs) > 0 {
			return nil, fmt.Errorf("probe: %w", errs[0])
		}
		return nil, fmt.Errorf("probe: no dbm node: %w", pkg.ErrNoDevice)
	}
	slices.SortFunc(devs, func(a, b Device) int { return cmp.Compare(a.Base, b.Base) })
	return devs, nil
}

// Flattened device tree header fields, all big-endian.
const (
	fdtMagic     = 0xd00dfeed
	fdtHeaderLen = 40
)

// parseTree checks the blob header and parses it. A structure block that
// makes fdt panic is returned as an error.
func parseTree(blob []byte) (t *fdt.Tree, err error) {
	if len(blob) < fdtHeaderLen || binary.BigEndian.Uint32(blob) != fdtMagic {
		return nil, fmt.Errorf("bad device tree header: %w", pkg.ErrInvalidParameter)
	}
	total := binary.BigEndian.Uint32(blob[4:])
	structs := binary.BigEndian.Uint32(blob[8:])
	strs := binary.BigEndian.Uint32(blob[12:])
	if int(total) > len(blob) || structs >= total || strs > total {
		return nil, fmt.Errorf("device tree of %d bytes truncated from %d: %w",
			len(blob), total, pkg.ErrInvalidParameter)
	}

	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("corrupt device tree: %v: %w", r, pkg.ErrInvalidParameter)
		}
	}()
	t = &fdt.Tree{Debug: false, IsLittleEndian: false}
	if err := t.Parse(blob[:total]); err != nil {
		return nil, fmt.Errorf("device tree: %v: %w", err, pkg.ErrInvalidParameter)
	}
	if t.RootNode == nil {
		return nil, fmt.Errorf("device tree has no root: %w", pkg.ErrInvalidParameter)
	}
	return t, nil
}

// fromProperties builds a Device from a node's properties. ok is false for
// nodes that are not a supported DBM.
func fromProperties(name string, props map[string][]byte) (dev Device, ok bool, err error) {
	rev := dbm.RevUnknown
	for _, c := range compatibles(props["compatible"]) {
		if r, err := dbm.RevisionForCompatible(c); err == nil {
			rev = r
			break
		}
	}
	if rev == dbm.RevUnknown {
		return Device{}, false, nil
	}

	base, size, err := decodeReg(props["reg"])
	if err != nil {
		return Device{}, false, fmt.Errorf("node %s: %w", name, err)
	}
	if size < dbm.WindowSize {
		return Device{}, false, fmt.Errorf("node %s: window 0x%x smaller than 0x%x: %w",
			name, size, dbm.WindowSize, pkg.ErrInvalidSize)
	}
	return Device{Name: name, Revision: rev, Base: base, Size: size}, true, nil
}

// compatibles splits a NUL-separated string list property.
func compatibles(prop []byte) []string {
	var list []string
	for _, s := range strings.Split(string(prop), "\x00") {
		if s != "" {
			list = append(list, s)
		}
	}
	return list
}

// decodeReg decodes the first (address, size) pair of a reg property. The
// cell counts are inferred from its length: 8 bytes for one address and one
// size cell, 16 bytes for two of each. Longer properties use the first pair
// of two-cell entries.
func decodeReg(prop []byte) (base, size uint64, err error) {
	switch {
	case len(prop) == 8:
		return uint64(binary.BigEndian.Uint32(prop)), uint64(binary.BigEndian.Uint32(prop[4:])), nil
	case len(prop) >= 16 && len(prop)%16 == 0:
		return binary.BigEndian.Uint64(prop), binary.BigEndian.Uint64(prop[8:]), nil
	}
	return 0, 0, fmt.Errorf("reg property of %d bytes: %w", len(prop), pkg.ErrInvalidParameter)
}
