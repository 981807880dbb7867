// Package entroscan provides the command-line interface for entroscan. It
// configures subcommands (scan, probe, devices, baseline, history, config),
// parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/varalys/entroscan/cmd/entroscan"
//	func main() { entroscan.Execute() }
package entroscan
