package dat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetLandscapeUnsafe_OutOfRange(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	_, err := c.GetLandscapeUnsafe(99)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	img, err := c.GetLandscapeUnsafe(0)
	require.NoError(t, err)
	require.Equal(t, f.landscapeValues[0], img.Image.(uint32))
}

func TestGetGui_EmptyTableIsAlwaysNull(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	require.Equal(t, 0, c.SequenceCount(CategoryGui))
	require.True(t, c.GetGui(0).Null)

	_, err := c.GetGuiUnsafe(0)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestRawPointers_ReturnsFrameOffsets(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	ptrs, err := c.RawPointers(CategoryBody, 0)
	require.NoError(t, err)
	require.Len(t, ptrs, 2)

	_, err = c.RawPointers(CategoryLandscape, 0)
	require.Error(t, err)

	_, err = c.RawPointers(CategoryBody, 99)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestFrameChecksum_RecordedOnlyWhenEnabled(t *testing.T) {
	f := buildFixture(t)

	c := openFixture(t, f)
	c.GetLandscape(0)
	_, ok := c.FrameChecksum(CategoryLandscape, 0, 0)
	require.False(t, ok, "checksums disabled by default")

	c2 := openFixture(t, f, WithChecksums(true))
	c2.GetLandscape(0)
	sum, ok := c2.FrameChecksum(CategoryLandscape, 0, 0)
	require.True(t, ok)
	require.NotZero(t, sum)
}

func TestDiagnose_SummarizesCategoriesAndWarnings(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	d := c.Diagnose()
	require.Equal(t, 0, d.WarningCount)
	require.True(t, d.HasAnimationScripts)
	require.Equal(t, 1, d.SequenceCounts[CategoryBody])
	require.Equal(t, 2, d.SequenceCounts[CategoryLandscape])
}
