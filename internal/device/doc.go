// Package device opens the things entroscan scans: local images and block
// devices, and disk images stored as objects in S3 or MinIO. Every device is
// exposed read-only as an io.ReaderAt of known size.
package device
