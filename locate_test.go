package dat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocateOffset_FindsOwningSequenceAndFrame(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	landscapeOffset := uint64(c.tables[CategoryLandscape][1])
	cat, seq, frame, ok := c.LocateOffset(landscapeOffset)
	require.True(t, ok)
	require.Equal(t, CategoryLandscape, cat)
	require.Equal(t, 1, seq)
	require.Equal(t, 0, frame)

	bodySeqOffset := uint64(c.tables[CategoryBody][0])
	cat, seq, frame, ok = c.LocateOffset(bodySeqOffset)
	require.True(t, ok)
	require.Equal(t, CategoryBody, cat)
	require.Equal(t, 0, seq)
	require.Equal(t, -1, frame)

	ptrs, err := c.RawPointers(CategoryBody, 0)
	require.NoError(t, err)
	cat, seq, frame, ok = c.LocateOffset(ptrs[1])
	require.True(t, ok)
	require.Equal(t, CategoryBody, cat)
	require.Equal(t, 0, seq)
	require.Equal(t, 1, frame)
}

func TestLocateOffset_FindsAnimationScriptAndRecords(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	scriptOffset := uint64(c.tables[CategoryAnimationScript][0])
	cat, seq, frame, ok := c.LocateOffset(scriptOffset)
	require.True(t, ok)
	require.Equal(t, CategoryAnimationScript, cat)
	require.Equal(t, 0, seq)
	require.Equal(t, -1, frame)

	// The fixture writes animRecordA then animRecordB on disk; since
	// GetAnimationScript reverses them, animRecordA's on-disk bytes should
	// resolve to returned index 1, and animRecordB's to returned index 0.
	recordA := scriptOffset + 4
	recordB := scriptOffset + 4 + uint64(animationRecordSize)

	_, _, frame, ok = c.LocateOffset(recordA)
	require.True(t, ok)
	require.Equal(t, 1, frame)

	_, _, frame, ok = c.LocateOffset(recordB)
	require.True(t, ok)
	require.Equal(t, 0, frame)
}

func TestLocateOffset_BeforeFirstOffsetIsNotFound(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	_, _, _, ok := c.LocateOffset(0)
	require.False(t, ok)
}

func TestLocateOffset_IsBuiltOnceAndCached(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	c.LocateOffset(uint64(c.tables[CategoryLandscape][0]))
	first := c.index
	c.LocateOffset(uint64(c.tables[CategoryLandscape][1]))
	require.Same(t, first, c.index)
}
