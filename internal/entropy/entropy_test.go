package entropy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformSector() []byte {
	b := make([]byte, 512)
	for i := range b {
		b[i] = byte(i % 256)
	}
	return b
}

func TestScore_RepeatedValueIsZero(t *testing.T) {
	for _, v := range []byte{0x00, 0x41, 0xff} {
		data := make([]byte, 512)
		for i := range data {
			data[i] = v
		}
		s, err := Score(data)
		require.NoError(t, err)
		assert.Equal(t, 0.0, s)

		ok, err := Default().Matches(data)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestScore_EveryValueTwiceIsOne(t *testing.T) {
	s, err := Score(uniformSector())
	require.NoError(t, err)
	assert.Equal(t, 1.0, s)
}

func TestScore_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	data := make([]byte, 512)
	rng.Read(data[:300])
	want, err := Score(data)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		shuffled := append([]byte(nil), data...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := Score(shuffled)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-12)
	}
}

func TestScore_Empty(t *testing.T) {
	_, err := Score(nil)
	assert.ErrorIs(t, err, ErrEmptySample)

	_, err = Default().Classify(3, []byte{})
	assert.ErrorIs(t, err, ErrEmptySample)
}

func TestScore_TwoValues(t *testing.T) {
	data := make([]byte, 512)
	for i := 256; i < 512; i++ {
		data[i] = 1
	}
	s, err := Score(data)
	require.NoError(t, err)
	// two equally likely symbols carry one bit out of eight
	assert.InDelta(t, 0.125, s, 1e-12)
}

func TestClassifier_RandomSectorMatches(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, 512)
	rng.Read(data)

	c := Default()
	smp, err := c.Classify(99, data)
	require.NoError(t, err)
	assert.True(t, smp.Matches)
	assert.Equal(t, int64(99), smp.Sector)
	assert.Greater(t, smp.Entropy, 0.9)
	assert.Equal(t, data[:16], smp.Head[:])
}

func TestClassifier_ThresholdIsStrict(t *testing.T) {
	c := &Classifier{Threshold: 1.0 - 1e-9}
	ok, err := c.Matches(uniformSector())
	require.NoError(t, err)
	assert.True(t, ok)

	c = &Classifier{Threshold: 1.0}
	ok, err = c.Matches(uniformSector())
	require.NoError(t, err)
	assert.False(t, ok, "a score equal to the threshold must not match")
}

func TestNew_ValidatesThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		wantErr   bool
	}{
		{name: "default", threshold: 0.9},
		{name: "zero", threshold: 0},
		{name: "negative", threshold: -0.1, wantErr: true},
		{name: "one", threshold: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.threshold)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.threshold, c.Threshold)
		})
	}
}
