package core

import (
	"encoding/json"
	"io"
)

// MarshalRegions pretty-prints regions as JSON (start, end, size) triples.
func MarshalRegions(w io.Writer, regions []Region) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(regions)
}

// UnmarshalRegions decodes regions JSON, useful for ingestion tests.
func UnmarshalRegions(r io.Reader) ([]Region, error) {
	var rs []Region
	if err := json.NewDecoder(r).Decode(&rs); err != nil {
		return nil, err
	}
	return rs, nil
}
