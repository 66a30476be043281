package dat

import "github.com/google/btree"

// offsetEntry is one leaf of the reverse byte-offset index used by
// LocateOffset, grounded on the teacher's FrameOffsetEntry/btree index
// (decoder.go's GetIndexByDecompOffset).
type offsetEntry struct {
	offset   uint64
	category Category
	seq      int
	frame    int
}

func lessOffsetEntry(a, b *offsetEntry) bool {
	return a.offset < b.offset
}

type offsetIndex struct {
	tree *btree.BTreeG[*offsetEntry]
}

// buildOffsetIndex walks every absolute offset recorded in the Container's
// category tables (including per-sequence frame offsets, which requires
// parsing every sequence header once) and returns a sorted index over them.
func (c *Container) buildOffsetIndex() *offsetIndex {
	t := btree.NewG(8, lessOffsetEntry)

	insert := func(off int64, cat Category, seq, frame int) {
		if off <= 0 {
			return
		}
		t.ReplaceOrInsert(&offsetEntry{offset: uint64(off), category: cat, seq: seq, frame: frame})
	}

	for _, cat := range []Category{CategoryLandscape, CategoryGui} {
		for seq, off := range c.tables[cat] {
			insert(off, cat, seq, 0)
		}
	}

	for _, cat := range []Category{CategoryBody, CategoryTorso, CategoryShadow} {
		for seq, off := range c.tables[cat] {
			if off < 0 {
				continue
			}
			insert(off, cat, seq, -1)
			entry, ok := c.sequenceEntry(sequenceCacheFor(c, cat), cat, seq)
			if !ok {
				continue
			}
			for frame, fo := range entry.frameOffsets {
				insert(fo, cat, seq, frame)
			}
		}
	}

	for seq, off := range c.tables[CategoryAnimationScript] {
		if off < 0 {
			continue
		}
		insert(off, CategoryAnimationScript, seq, -1)

		// GetAnimationScript returns records in reversed (playback) order;
		// recover each record's on-disk byte offset by undoing that
		// reversal, so a raw file offset still resolves to the right
		// (seq, frame) pair.
		records := c.GetAnimationScript(seq)
		n := len(records)
		for i := range records {
			onDiskIndex := n - 1 - i
			recordOffset := off + 4 + int64(onDiskIndex)*int64(animationRecordSize)
			insert(recordOffset, CategoryAnimationScript, seq, i)
		}
	}

	return &offsetIndex{tree: t}
}

func sequenceCacheFor(c *Container, cat Category) *[]cacheSlot[sequenceEntry] {
	switch cat {
	case CategoryBody:
		return &c.bodyCache
	case CategoryTorso:
		return &c.torsoCache
	case CategoryShadow:
		return &c.shadowCache
	default:
		return nil
	}
}

// LocateOffset answers "which (category, sequence, frame) owns this byte
// offset", for diagnostic tooling. frame is -1 when off is a sequence
// header's own offset rather than one of its frames. The index is built
// lazily on first call and cached for the Container's lifetime.
func (c *Container) LocateOffset(off uint64) (cat Category, seq, frame int, ok bool) {
	c.indexOnce.Do(func() {
		c.index = c.buildOffsetIndex()
	})
	idx := c.index

	idx.tree.DescendLessOrEqual(&offsetEntry{offset: off}, func(item *offsetEntry) bool {
		cat, seq, frame, ok = item.category, item.seq, item.frame, true
		return false
	})
	return
}
