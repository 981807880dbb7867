package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleJSONKeepsHead(t *testing.T) {
	in := Sample{Sector: 4000, Entropy: 0.97, Matches: true}
	copy(in.Head[:], []byte{0xde, 0xad, 0xbe, 0xef, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"head":"deadbeef0102030405060708090a0b0c"`)

	var out Sample
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestMatchJSONKeepsEdges(t *testing.T) {
	m := Match{
		Region:       Region{Start: 512, End: 4096},
		StartBracket: Bracket{Low: 0, High: 1},
		EndBracket:   Bracket{Low: 7, High: 8},
		StartEdge:    Sample{Sector: 1, Entropy: 0.95, Matches: true, Head: [HeadLen]byte{0xff}},
		EndEdge:      Sample{Sector: 7, Entropy: 0.93, Matches: true, Head: [HeadLen]byte{15: 0xaa}},
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)

	var out Match
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, m, out)
}

func TestSampleJSONRejectsBadHead(t *testing.T) {
	var s Sample
	assert.Error(t, json.Unmarshal([]byte(`{"sector":1,"head":"zz"}`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"sector":1,"head":"abcd"}`), &s))

	require.NoError(t, json.Unmarshal([]byte(`{"sector":3,"entropy":0.5,"matches":false}`), &s))
	assert.Equal(t, Sample{Sector: 3, Entropy: 0.5}, s)
}
