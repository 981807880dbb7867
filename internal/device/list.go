package device

import (
	"context"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// Info describes a local device or partition.
type Info struct {
	Device     string `json:"device"`
	Mountpoint string `json:"mountpoint,omitempty"`
	Fstype     string `json:"fstype,omitempty"`
	Size       int64  `json:"size"`
}

// List returns the local devices backing known partitions, sorted by name.
// Sizes come from opening each device; unreadable devices report zero.
func List(ctx context.Context) ([]Info, error) {
	parts, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []Info
	for _, p := range parts {
		if !strings.HasPrefix(p.Device, "/dev/") || seen[p.Device] {
			continue
		}
		seen[p.Device] = true
		info := Info{Device: p.Device, Mountpoint: p.Mountpoint, Fstype: p.Fstype}
		if b, err := openLocal(p.Device); err == nil {
			info.Size = b.Size()
			_ = b.Close()
		} else if u, err := disk.UsageWithContext(ctx, p.Mountpoint); err == nil {
			info.Size = int64(u.Total)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out, nil
}
