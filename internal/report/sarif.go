package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/varalys/entroscan/internal/types"
)

// RuleID identifies high-entropy region results in SARIF output.
const RuleID = "high-entropy-region"

type sarif struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	ByteOffset int64 `json:"byteOffset"`
	ByteLength int64 `json:"byteLength"`
}

// WriteSARIF writes regions as SARIF 2.1.0 results with binary regions.
func WriteSARIF(w io.Writer, devices []types.DeviceResult) error {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    "entroscan",
			Version: time.Now().Format("2006.01.02"),
			Rules: []sarifRule{{
				ID:               RuleID,
				ShortDescription: sarifMessage{Text: "Contiguous high-entropy data"},
			}},
		}},
		Results: []sarifResult{},
	}
	for _, d := range devices {
		for _, m := range d.Matches {
			r := m.Region
			run.Results = append(run.Results, sarifResult{
				RuleID:  RuleID,
				Level:   "warning",
				Message: sarifMessage{Text: fmt.Sprintf("%s of high-entropy data", humanize.IBytes(uint64(r.Size())))},
				Locations: []sarifLoc{{
					PhysicalLocation: sarifPhys{
						ArtifactLocation: sarifArt{URI: d.Device},
						Region:           sarifRegion{ByteOffset: r.Start, ByteLength: r.Size()},
					},
				}},
			})
		}
	}
	doc := sarif{
		Version: "2.1.0",
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
