// Package entropy scores how uniformly the byte values of a sample are
// distributed and classifies sectors as random-looking or structured.
//
// Scores use Shannon entropy in base 256, so a sample whose 256 byte values
// occur equally often scores exactly 1.0 and a sample of one repeated value
// scores 0.
package entropy
