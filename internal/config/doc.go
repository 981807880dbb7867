// Package config loads entroscan configuration from local and global YAML
// files. Precedence (CLI > local > global) is applied by the CLI.
package config
