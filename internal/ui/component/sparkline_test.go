package component

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparklineKeepsWidth(t *testing.T) {
	s := NewSparkline(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		s.Push(v)
	}
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{3, 4, 5}, s.data)
}

func TestSparklineBlocks(t *testing.T) {
	s := NewSparkline(4)
	assert.Equal(t, "▁▁▁▁", s.blocks())

	s.Push(1)
	s.Push(1)
	assert.Equal(t, "▅▅  ", s.blocks())

	s.Push(0)
	s.Push(2)
	assert.Equal(t, "▄▄▁█", s.blocks())
}

func TestSparklineTrend(t *testing.T) {
	s := NewSparkline(5)
	s.Push(1)
	assert.True(t, strings.Contains(s.View(), "→"))
	s.Push(2)
	assert.True(t, strings.Contains(s.View(), "↗"))
	s.Push(0.5)
	assert.True(t, strings.Contains(s.View(), "↘"))
}
