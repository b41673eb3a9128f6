//go:build linux

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/softdbm/dbm"
	"github.com/ardnew/softdbm/pkg"
)

func imageWindow(t *testing.T, rev dbm.Revision) window {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regs.bin")
	image := make([]byte, dbm.WindowSize)
	regs := dbm.NewMemSpaceFrom(image)
	regs.Write32(dbm.RegEPCfg(3), dbm.EPCfgProducer|5<<1|dbm.EPCfgEnable)
	regs.Write32(dbm.RegSoftReset, 0x80000004)
	if err := os.WriteFile(path, image, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return window{path: path, size: dbm.WindowSize, rev: rev}
}

func TestRunStatus(t *testing.T) {
	var out bytes.Buffer
	if err := run(&out, imageWindow(t, dbm.Rev15), "status"); err != nil {
		t.Fatalf("run(status) error = %v", err)
	}
	lines := strings.Split(out.String(), "\n")
	if !strings.Contains(lines[0], "1.5") || !strings.Contains(lines[1], "true") {
		t.Errorf("status header = %q, want revision 1.5 in reset", lines[:2])
	}
	var row string
	for _, l := range lines {
		if strings.HasPrefix(l, "3 ") {
			row = l
		}
	}
	if fields := strings.Fields(row); len(fields) != 10 || fields[1] != "true" || fields[2] != "5" || fields[4] != "in" {
		t.Errorf("channel 3 row = %q, want enabled IN endpoint 5", row)
	}
}

func TestRunReset(t *testing.T) {
	w := imageWindow(t, dbm.Rev15)
	if err := run(&bytes.Buffer{}, w, "reset"); err != nil {
		t.Fatalf("run(reset) error = %v", err)
	}
	image, err := os.ReadFile(w.path)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if got := dbm.NewMemSpaceFrom(image).Read32(dbm.RegSoftReset); got != 0 {
		t.Errorf("SOFT_RESET after reset = 0x%08x, want 0", got)
	}
}

func TestRunEnable(t *testing.T) {
	if err := run(&bytes.Buffer{}, imageWindow(t, dbm.Rev14), "enable"); !errors.Is(err, pkg.ErrNotSupported) {
		t.Errorf("run(enable) on 1.4 error = %v, want ErrNotSupported", err)
	}

	w := imageWindow(t, dbm.Rev15)
	if err := run(&bytes.Buffer{}, w, "enable"); err != nil {
		t.Fatalf("run(enable) error = %v", err)
	}
	image, _ := os.ReadFile(w.path)
	if got := dbm.NewMemSpaceFrom(image).Read32(dbm.RegDataFIFOAddrEn); got != 0xFF {
		t.Errorf("FIFO_ADDR_EN = 0x%x, want 0xff", got)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := run(&bytes.Buffer{}, imageWindow(t, dbm.Rev15), "frobnicate"); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("run(frobnicate) error = %v, want ErrInvalidParameter", err)
	}
}

func TestFromDeviceTreeMissing(t *testing.T) {
	if _, err := fromDeviceTree(window{}, filepath.Join(t.TempDir(), "none.dtb"), 0); err == nil {
		t.Error("fromDeviceTree() of missing file succeeded")
	}
}
