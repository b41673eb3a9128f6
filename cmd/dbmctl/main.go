//go:build linux

// Command dbmctl inspects and resets a USB DBM register window.
//
// Usage:
//
//	dbmctl [options] status|reset|enable
//
// The register window is taken from the device tree (-dtb) or given
// explicitly with -base, -size, and -rev. By default it is mapped from
// /dev/mem; -mem selects a register image file instead.
//
// Options:
//
//	-dtb path     Flattened device tree to probe (default: none)
//	-index n      Which DBM node of the device tree to use (default: 0)
//	-mem path     File to map the window from (default: /dev/mem)
//	-base addr    Window base address (default: 0)
//	-size bytes   Window size (default: 0x300)
//	-rev 1.4|1.5  Hardware revision (default: 1.5)
//	-v            Enable verbose (debug) logging
//	-json         Use JSON log format
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/ardnew/softdbm/dbm"
	"github.com/ardnew/softdbm/dbm/mmio"
	"github.com/ardnew/softdbm/dbm/probe"
	"github.com/ardnew/softdbm/pkg"
)

// component identifies this executable for structured logging.
const component = pkg.ComponentDBM

// window selects the register window to operate on.
type window struct {
	path string
	base int64
	size int
	rev  dbm.Revision
}

func main() {
	dtb := flag.String("dtb", "", "flattened device tree to probe")
	index := flag.Int("index", 0, "which DBM node of the device tree to use")
	mem := flag.String("mem", mmio.DevMem, "file to map the register window from")
	base := flag.Uint64("base", 0, "register window base address")
	size := flag.Int("size", dbm.WindowSize, "register window size in bytes")
	revName := flag.String("rev", "1.5", "hardware revision (1.4 or 1.5)")
	verbose := flag.Bool("v", false, "enable verbose (debug) logging")
	jsonLog := flag.Bool("json", false, "use JSON log format")
	flag.Parse()

	if *verbose {
		pkg.SetLogLevel(slog.LevelDebug)
	}
	if *jsonLog {
		pkg.SetLogFormat(pkg.LogFormatJSON)
	}

	if flag.NArg() != 1 {
		pkg.LogError(component, "missing command", "usage", "dbmctl [options] status|reset|enable")
		os.Exit(2)
	}

	w := window{path: *mem, base: int64(*base), size: *size}
	rev, err := dbm.ParseRevision(*revName)
	if err != nil {
		pkg.LogError(component, "bad revision", "err", err)
		os.Exit(2)
	}
	w.rev = rev

	if *dtb != "" {
		if w, err = fromDeviceTree(w, *dtb, *index); err != nil {
			pkg.LogError(component, "device tree probe failed", "err", err)
			os.Exit(1)
		}
	}

	if err := run(os.Stdout, w, flag.Arg(0)); err != nil {
		pkg.LogError(component, "command failed", "command", flag.Arg(0), "err", err)
		os.Exit(1)
	}
}

func fromDeviceTree(w window, path string, index int) (window, error) {
	devs, err := probe.Load(path)
	if err != nil {
		return w, err
	}
	if index < 0 || index >= len(devs) {
		return w, fmt.Errorf("index %d of %d devices: %w", index, len(devs), pkg.ErrNoDevice)
	}
	dev := devs[index]
	pkg.LogInfo(component, "using device", "node", dev.Name, "revision", dev.Revision.String())
	w.base, w.size, w.rev = int64(dev.Base), int(dev.Size), dev.Revision
	return w, nil
}

func run(out io.Writer, w window, cmd string) error {
	regs, err := mmio.Open(w.path, w.base, w.size)
	if err != nil {
		return err
	}
	defer regs.Close()

	switch cmd {
	case "status":
		s, err := dbm.Inspect(regs, w.rev)
		if err != nil {
			return err
		}
		return printStatus(out, s)
	case "reset":
		d, err := dbm.New(w.rev, regs)
		if err != nil {
			return err
		}
		d.SoftReset(true)
		d.SoftReset(false)
		for ch := 0; ch < d.Channels(); ch++ {
			if err := d.ResetChannel(ch, true); err != nil {
				return err
			}
		}
		for ch := 0; ch < d.Channels(); ch++ {
			if err := d.ResetChannel(ch, false); err != nil {
				return err
			}
		}
		return nil
	case "enable":
		d, err := dbm.New(w.rev, regs)
		if err != nil {
			return err
		}
		return d.Enable()
	}
	return fmt.Errorf("command %q: %w", cmd, pkg.ErrInvalidParameter)
}

func printStatus(out io.Writer, s dbm.Status) error {
	fmt.Fprintf(out, "revision      %v\n", s.Revision)
	fmt.Fprintf(out, "in reset      %v\n", s.InReset)
	fmt.Fprintf(out, "high speed    %v\n", s.HighSpeed)
	fmt.Fprintf(out, "event buffer  0x%x (%d bytes)\n", s.EventAddress, s.EventSize)
	fmt.Fprintf(out, "fifo enables  addr=0x%02x size=0x%02x\n\n", s.FIFOAddrEnable, s.FIFOSizeEnable)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CH\tEN\tEP\tPIPE\tDIR\tWB\tIOC\tRESET\tFIFO\tSIZE")
	for _, c := range s.Channels {
		dir := "out"
		if c.Producer {
			dir = "in"
		}
		fmt.Fprintf(tw, "%d\t%v\t%d\t%d\t%s\t%v\t%v\t%v\t0x%x\t%d\n",
			c.Channel, c.Enabled, c.Endpoint, c.Pipe, dir,
			!c.DisableWriteback, c.CompletionInterrupt, c.InReset,
			c.FIFOAddress, c.FIFOSize)
	}
	return tw.Flush()
}
