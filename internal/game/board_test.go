package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoard_CapturesSingleFlank(t *testing.T) {
	var b Board
	b.set(5, 5, MarkerHost)
	b.set(5, 6, MarkerJoiner)
	b.set(5, 7, MarkerJoiner)
	b.set(5, 8, MarkerHost)

	hits := b.captures(5, 5, MarkerHost)
	require.Len(t, hits, 1)
	require.Equal(t, direction{0, 1}, hits[0])

	n := b.applyCaptures(5, 5, hits)
	require.Equal(t, 1, n)
	require.Equal(t, MarkerEmpty, b.At(5, 6))
	require.Equal(t, MarkerEmpty, b.At(5, 7))
	require.Equal(t, MarkerHost, b.At(5, 8))
}

func TestBoard_CapturesMultipleDirectionsSinglePass(t *testing.T) {
	var b Board
	// Horizontal flank to the east and vertical flank to the south,
	// both resolved off the same placed stone in one pass.
	b.set(5, 6, MarkerJoiner)
	b.set(5, 7, MarkerJoiner)
	b.set(5, 8, MarkerHost)
	b.set(6, 5, MarkerJoiner)
	b.set(7, 5, MarkerJoiner)
	b.set(8, 5, MarkerHost)

	b.set(5, 5, MarkerHost)
	hits := b.captures(5, 5, MarkerHost)
	require.Len(t, hits, 2)

	n := b.applyCaptures(5, 5, hits)
	require.Equal(t, 2, n)
	require.Equal(t, MarkerEmpty, b.At(5, 6))
	require.Equal(t, MarkerEmpty, b.At(6, 5))
}

func TestBoard_NoCaptureWithoutTrailingFlank(t *testing.T) {
	var b Board
	b.set(5, 6, MarkerJoiner)
	b.set(5, 7, MarkerJoiner)
	// No host stone at (5, 8): not a flank.

	b.set(5, 5, MarkerHost)
	hits := b.captures(5, 5, MarkerHost)
	require.Empty(t, hits)
}

func TestBoard_NoCaptureOfThreeInARow(t *testing.T) {
	var b Board
	b.set(5, 6, MarkerJoiner)
	b.set(5, 7, MarkerJoiner)
	b.set(5, 8, MarkerJoiner)
	b.set(5, 9, MarkerHost)

	b.set(5, 5, MarkerHost)
	hits := b.captures(5, 5, MarkerHost)
	require.Empty(t, hits, "three-in-a-row is never flanked, only exactly two")
}

func TestBoard_CaptureRespectsBoardEdge(t *testing.T) {
	var b Board
	b.set(0, 17, MarkerJoiner)
	b.set(0, 18, MarkerJoiner)
	// A mover stone one step further east would complete the flank, but
	// it falls off the 19-wide board, so no capture is reported.
	b.set(0, 16, MarkerHost)
	hits := b.captures(0, 16, MarkerHost)
	require.Empty(t, hits)
}

func TestBoard_AlignedFiveHorizontal(t *testing.T) {
	var b Board
	for col := 3; col <= 6; col++ {
		b.set(9, col, MarkerHost)
	}
	require.False(t, b.alignedFiveExists(9, 6, MarkerHost), "only four placed so far")

	b.set(9, 7, MarkerHost)
	require.True(t, b.alignedFiveExists(9, 7, MarkerHost))
}

func TestBoard_AlignedFiveDiagonal(t *testing.T) {
	var b Board
	b.set(0, 0, MarkerJoiner)
	b.set(1, 1, MarkerJoiner)
	b.set(2, 2, MarkerJoiner)
	b.set(3, 3, MarkerJoiner)
	require.False(t, b.alignedFiveExists(3, 3, MarkerJoiner))

	b.set(4, 4, MarkerJoiner)
	require.True(t, b.alignedFiveExists(4, 4, MarkerJoiner))
}

func TestBoard_AlignedFiveDoesNotCrossMarkers(t *testing.T) {
	var b Board
	b.set(9, 3, MarkerHost)
	b.set(9, 4, MarkerHost)
	b.set(9, 5, MarkerJoiner)
	b.set(9, 6, MarkerHost)
	b.set(9, 7, MarkerHost)

	require.False(t, b.alignedFiveExists(9, 7, MarkerHost))
}
