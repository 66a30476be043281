package dat

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// checksumKey identifies one decoded frame for the optional checksum cache.
type checksumKey struct {
	cat         Category
	seq, frame int
}

// SequenceCount returns the number of sequences (or, for Landscape/Gui, the
// number of direct images) in category cat.
func (c *Container) SequenceCount(cat Category) int {
	if cat < 0 || cat >= categoryCount {
		return 0
	}
	return len(c.tables[cat])
}

// GetLandscape returns the Landscape image at index i, decoding and caching
// it on first access. Out-of-range indices return NullImage rather than an
// error (§4.8's "safe" getter contract).
func (c *Container) GetLandscape(i int) ImageResult {
	img, _ := c.getDirectImage(CategoryLandscape, i)
	return img
}

// GetLandscapeUnsafe is GetLandscape's unsafe counterpart: an out-of-range
// index returns ErrIndexOutOfRange instead of NullImage.
func (c *Container) GetLandscapeUnsafe(i int) (ImageResult, error) {
	if i < 0 || i >= c.SequenceCount(CategoryLandscape) {
		return ImageResult{}, fmt.Errorf("landscape[%d]: %w", i, ErrIndexOutOfRange)
	}
	img, _ := c.getDirectImage(CategoryLandscape, i)
	return img, nil
}

// GetGui returns the Gui image at index i, with the same safe-getter
// contract as GetLandscape.
func (c *Container) GetGui(i int) ImageResult {
	img, _ := c.getDirectImage(CategoryGui, i)
	return img
}

// GetGuiUnsafe is GetGui's unsafe counterpart.
func (c *Container) GetGuiUnsafe(i int) (ImageResult, error) {
	if i < 0 || i >= c.SequenceCount(CategoryGui) {
		return ImageResult{}, fmt.Errorf("gui[%d]: %w", i, ErrIndexOutOfRange)
	}
	img, _ := c.getDirectImage(CategoryGui, i)
	return img, nil
}

func (c *Container) getDirectImage(cat Category, i int) (ImageResult, bool) {
	var slots []cacheSlot[imageSlot]
	switch cat {
	case CategoryLandscape:
		slots = c.landscapeCache
	case CategoryGui:
		slots = c.guiCache
	default:
		return NullImage, false
	}
	if i < 0 || i >= len(slots) {
		return NullImage, false
	}

	offset := c.tables[cat][i]
	slot := slots[i].get(func() imageSlot {
		c.mu.Lock()
		defer c.mu.Unlock()
		img, err := c.decodeFrameLocked(cat, i, 0, offset)
		if err != nil {
			c.opts.logger.Debug("translator failed, caching NullImage",
				zap.Stringer("category", cat), zap.Int("index", i), zap.Error(err))
			return imageSlot{result: NullImage}
		}
		return imageSlot{result: ImageOf(img)}
	})
	return slot.result, true
}

// GetSettlerSequence runs the CompositeAssembler (§4.6) for Body sequence
// index i and caches the result; concurrent callers observe at-most-once
// construction.
func (c *Container) GetSettlerSequence(i int) CompositeSequence {
	seq, _ := c.getSettlerSequence(i)
	return seq
}

// GetSettlerSequenceUnsafe is GetSettlerSequence's unsafe counterpart.
func (c *Container) GetSettlerSequenceUnsafe(i int) (CompositeSequence, error) {
	if i < 0 || i >= c.SequenceCount(CategoryBody) {
		return nil, fmt.Errorf("settler sequence %d: %w", i, ErrIndexOutOfRange)
	}
	seq, _ := c.getSettlerSequence(i)
	return seq, nil
}

func (c *Container) getSettlerSequence(i int) (CompositeSequence, bool) {
	if i < 0 || i >= len(c.settlerCache) {
		return CompositeSequence{}, false
	}
	return c.settlerCache[i].get(func() CompositeSequence {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.buildCompositeSequence(i)
	}), true
}

// RawPointers exposes the frame-offset vector for a sequence category
// (Body/Torso/Shadow), for tools, §4.5.
func (c *Container) RawPointers(cat Category, seq int) ([]uint64, error) {
	var entry sequenceEntry
	var ok bool
	switch cat {
	case CategoryBody:
		entry, ok = c.sequenceEntry(&c.bodyCache, CategoryBody, seq)
	case CategoryTorso:
		entry, ok = c.sequenceEntry(&c.torsoCache, CategoryTorso, seq)
	case CategoryShadow:
		entry, ok = c.sequenceEntry(&c.shadowCache, CategoryShadow, seq)
	default:
		return nil, fmt.Errorf("raw_pointers: category %s has no frame-offset table", cat)
	}
	if !ok {
		return nil, fmt.Errorf("raw_pointers: %s[%d]: %w", cat, seq, ErrIndexOutOfRange)
	}
	out := make([]uint64, len(entry.frameOffsets))
	for i, v := range entry.frameOffsets {
		out[i] = uint64(v)
	}
	return out, nil
}

func (c *Container) sequenceEntry(slots *[]cacheSlot[sequenceEntry], cat Category, seq int) (sequenceEntry, bool) {
	s := *slots
	if seq < 0 || seq >= len(s) {
		return sequenceEntry{}, false
	}
	offset := c.tables[cat][seq]
	return s[seq].get(func() sequenceEntry {
		if offset < 0 {
			return sequenceEntry{}
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		offsets, err := parseSequenceHeader(c.cur, offset)
		if err != nil {
			c.opts.logger.Warn("failed to parse sequence header",
				zap.Stringer("category", cat), zap.Int("index", seq), zap.Error(err))
			return sequenceEntry{}
		}
		return sequenceEntry{frameOffsets: offsets}
	}), true
}

// FrameChecksum returns the xxhash checksum recorded for a previously
// decoded frame when the Container was opened with WithChecksums. The
// second return is false if the frame has not been decoded yet or
// checksums are disabled.
func (c *Container) FrameChecksum(cat Category, seq, frame int) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checksums == nil {
		return 0, false
	}
	v, ok := c.checksums[checksumKey{cat, seq, frame}]
	return v, ok
}

// Diagnostics is a read-only summary of a Container, useful for a host
// tool's "is this a usable DAT file" check. It never mutates cache state.
type Diagnostics struct {
	SequenceCounts  map[Category]int
	WarningCount    int
	HasAnimationScripts bool
}

// Diagnose produces a Diagnostics summary.
func (c *Container) Diagnose() Diagnostics {
	counts := make(map[Category]int, categoryCount)
	for cat := Category(0); cat < categoryCount; cat++ {
		counts[cat] = c.SequenceCount(cat)
	}
	warnings := len(multierr.Errors(c.warnings))
	return Diagnostics{
		SequenceCounts:      counts,
		WarningCount:        warnings,
		HasAnimationScripts: c.SequenceCount(CategoryAnimationScript) > 0,
	}
}
