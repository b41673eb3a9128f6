// Package probe finds DBM controllers in a flattened device tree.
//
// Nodes whose compatible list names "qcom,usb-dbm-1p4" or
// "qcom,usb-dbm-1p5" are reported with their revision and the register
// window from their reg property, ready to be mapped with package mmio:
//
//	devs, err := probe.Load(probe.DefaultDTB)
//	if err != nil {
//	    return err
//	}
//	w, err := mmio.Open(mmio.DevMem, int64(devs[0].Base), int(devs[0].Size))
package probe
