// Package core provides a small, stable facade over entroscan's internal
// engine for external integrations. It re-exports a narrow API surface so
// other tools can depend on a stable import path without importing internal
// packages.
//
// Example:
//
//	f, _ := os.Open("disk.img")
//	info, _ := f.Stat()
//	regions, err := core.FindRegions(ctx, f, info.Size(), 0, 1<<30, 0)
//	if err != nil { /* handle */ }
//	_ = core.MarshalRegions(os.Stdout, regions)
package core
