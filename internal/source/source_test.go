package source

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guidellm/guidellm-go/internal/model"
)

func items(n int) []model.Payload {
	out := make([]model.Payload, n)
	for i := range out {
		out[i] = model.Payload{DatasetIndex: i}
	}
	return out
}

func TestStaticSequentialEndsAfterOneCycle(t *testing.T) {
	s := NewStatic(items(3), Sequential, nil)

	var seen []int
	for {
		p, ok := s.Next()
		if !ok {
			break
		}
		seen = append(seen, p.DatasetIndex)
	}
	require.Equal(t, []int{0, 1, 2}, seen)

	_, ok := s.Next()
	require.False(t, ok)
}

func TestStaticResetReplaysFromStart(t *testing.T) {
	s := NewStatic(items(2), Sequential, nil)
	s.Next()
	s.Next()
	_, ok := s.Next()
	require.False(t, ok)

	s.Reset()
	p, ok := s.Next()
	require.True(t, ok)
	require.Equal(t, 0, p.DatasetIndex)
}

func TestStaticShuffledIsReproducibleWithSameSeed(t *testing.T) {
	s1 := NewStatic(items(20), Shuffled, rand.New(rand.NewSource(7)))
	s2 := NewStatic(items(20), Shuffled, rand.New(rand.NewSource(7)))

	var order1, order2 []int
	for {
		p, ok := s1.Next()
		if !ok {
			break
		}
		order1 = append(order1, p.DatasetIndex)
	}
	for {
		p, ok := s2.Next()
		if !ok {
			break
		}
		order2 = append(order2, p.DatasetIndex)
	}
	require.Equal(t, order1, order2)
}

func TestSyntheticNeverEnds(t *testing.T) {
	s := NewSynthetic(model.Payload{Prompt: "hi"})
	for i := 0; i < 1000; i++ {
		p, ok := s.Next()
		require.True(t, ok)
		require.Equal(t, i, p.DatasetIndex)
	}
}

func TestSyntheticResetRestartsDatasetIndex(t *testing.T) {
	s := NewSynthetic(model.Payload{Prompt: "hi"})
	s.Next()
	s.Next()
	s.Reset()
	p, _ := s.Next()
	require.Equal(t, 0, p.DatasetIndex)
}
