package dat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetAnimationScript_ReversesOnDiskOrder(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	records := c.GetAnimationScript(0)
	require.Len(t, records, 2)

	// f.animRecordA was written first on disk, f.animRecordB second; §4.7
	// says playback order is the reverse of on-disk order.
	require.Equal(t, f.animRecordB.PosX, records[0].PosX)
	require.Equal(t, f.animRecordA.PosX, records[1].PosX)

	require.Nil(t, c.GetAnimationScript(99))
}

// selfResolver resolves every FileId to the same Container, for testing
// ResolveAnimationFrame without needing multiple files on disk.
type selfResolver struct {
	c *Container
}

func (r selfResolver) Resolve(uint16) (*Container, error) { return r.c, nil }

func TestResolveAnimationFrame_ComposesActorWithoutOverlays(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)
	// A Container can act as its own FileResolver target for tests: every
	// FileId resolves back to the same file.
	c.opts.resolver = selfResolver{c: c}

	rec := AnimationRecord{
		ObjectID:    0,
		ObjectFile:  1,
		ObjectFrame: 0,
		TorsoID:     0, // absent: 0 is a no-overlay sentinel, §4.7
		ShadowID:    0, // absent: must be >0 to resolve
	}

	frame, err := c.ResolveAnimationFrame(rec)
	require.NoError(t, err)
	require.Equal(t, f.bodyFrames[0], frame.Body.(uint32))
	require.Nil(t, frame.Torso)
	require.Nil(t, frame.Shadow)
}

func TestResolveAnimationFrame_TorsoSentinelsAreSkipped(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)
	c.opts.resolver = selfResolver{c: c}

	for _, torsoID := range []uint16{0, 0xFFFF} {
		rec := AnimationRecord{ObjectFile: 1, TorsoID: torsoID, TorsoFile: 1}
		frame, err := c.ResolveAnimationFrame(rec)
		require.NoError(t, err)
		require.Nil(t, frame.Torso, "torsoId %d must never attempt a resolve", torsoID)
	}
}

func TestResolveAnimationFrame_NoResolverConfigured(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	_, err := c.ResolveAnimationFrame(AnimationRecord{})
	require.Error(t, err)
}
