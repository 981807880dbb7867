// Package engine contains the region-locating core of entroscan. It gallops
// across a device to bracket runs of high-entropy sectors, homes in on each
// bracket's exact boundary sector, and drives both steps across the device to
// collect every qualifying region. This package is internal; external
// consumers should use the stable facade in pkg/core.
package engine
