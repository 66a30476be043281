package dat

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/krullgor/godat-reader/cursor"
)

// AnimationRecord is one entry of an AnimationScript, §3: 12 little-endian
// integers, pure value, no ownership.
type AnimationRecord struct {
	PosX        int16
	PosY        int16
	ObjectID    uint16
	ObjectFile  uint16
	TorsoID     uint16
	TorsoFile   uint16
	ShadowID    uint16
	ShadowFile  uint16
	ObjectFrame uint16
	TorsoFrame  uint16
	SoundFlag1  int16
	SoundFlag2  int16
}

// MarshalLogObject lets an AnimationRecord be logged as a structured zap
// object instead of a formatted string, matching the teacher's
// FrameOffsetEntry/SeekTableEntry logging style.
func (r AnimationRecord) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt16("posX", r.PosX)
	enc.AddInt16("posY", r.PosY)
	enc.AddUint16("objectId", r.ObjectID)
	enc.AddUint16("objectFile", r.ObjectFile)
	enc.AddUint16("torsoId", r.TorsoID)
	enc.AddUint16("torsoFile", r.TorsoFile)
	enc.AddUint16("shadowId", r.ShadowID)
	enc.AddUint16("shadowFile", r.ShadowFile)
	enc.AddUint16("objectFrame", r.ObjectFrame)
	enc.AddUint16("torsoFrame", r.TorsoFrame)
	return nil
}

const animationRecordSize = 24

// noTorsoIDZero / noTorsoIDFF are the sentinel TorsoIDs meaning "no
// cross-file torso overlay", §4.7. Shadow has no sentinel constant: a
// ShadowID of 0 means "no shadow overlay".
const (
	noTorsoIDZero = uint16(0)
	noTorsoIDFF   = uint16(0xFFFF)
)

// parseAnimationScript parses one animation-script offset, §4.7: a u32
// frame_count followed by frame_count fixed 24-byte records. The on-disk
// order is playback-reverse, so the returned slice is the reverse of what
// was read.
func parseAnimationScript(cur *cursor.Cursor, offset int64) ([]AnimationRecord, error) {
	cur.Seek(offset)

	count, err := cur.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("animation script frame_count at %d: %w", offset, err)
	}

	records := make([]AnimationRecord, count)
	for i := range records {
		rec, err := readAnimationRecord(cur)
		if err != nil {
			return nil, fmt.Errorf("animation record %d/%d at %d: %w", i, count, offset, err)
		}
		records[i] = rec
	}

	for l, r := 0, len(records)-1; l < r; l, r = l+1, r-1 {
		records[l], records[r] = records[r], records[l]
	}

	return records, nil
}

func readAnimationRecord(cur *cursor.Cursor) (AnimationRecord, error) {
	var rec AnimationRecord
	var err error

	if rec.PosX, err = cur.ReadI16(); err != nil {
		return rec, err
	}
	if rec.PosY, err = cur.ReadI16(); err != nil {
		return rec, err
	}
	if rec.ObjectID, err = cur.ReadU16(); err != nil {
		return rec, err
	}
	if rec.ObjectFile, err = cur.ReadU16(); err != nil {
		return rec, err
	}
	if rec.TorsoID, err = cur.ReadU16(); err != nil {
		return rec, err
	}
	if rec.TorsoFile, err = cur.ReadU16(); err != nil {
		return rec, err
	}
	if rec.ShadowID, err = cur.ReadU16(); err != nil {
		return rec, err
	}
	if rec.ShadowFile, err = cur.ReadU16(); err != nil {
		return rec, err
	}
	if rec.ObjectFrame, err = cur.ReadU16(); err != nil {
		return rec, err
	}
	if rec.TorsoFrame, err = cur.ReadU16(); err != nil {
		return rec, err
	}
	if rec.SoundFlag1, err = cur.ReadI16(); err != nil {
		return rec, err
	}
	if rec.SoundFlag2, err = cur.ReadI16(); err != nil {
		return rec, err
	}
	return rec, nil
}

// GetAnimationScript returns the decoded, reversed record vector for
// AnimationScript sequence i, decoding and caching it on first access.
func (c *Container) GetAnimationScript(i int) []AnimationRecord {
	if i < 0 || i >= len(c.scriptCache) {
		return nil
	}
	offset := c.tables[CategoryAnimationScript][i]
	return c.scriptCache[i].get(func() []AnimationRecord {
		c.mu.Lock()
		defer c.mu.Unlock()
		records, err := parseAnimationScript(c.cur, offset)
		if err != nil {
			c.opts.logger.Warn("failed to parse animation script",
				zap.Int("index", i), zap.Int64("offset", offset), zap.Error(err))
			return nil
		}
		return records
	})
}

// FileResolver resolves an AnimationRecord's numeric FileId to the
// Container it refers to, §4.7/§9: "Back references across files". The
// core never imports this; it is handed an implementation via
// WithFileResolver so containers never import each other transitively.
type FileResolver interface {
	Resolve(fileID uint16) (*Container, error)
}

// ResolveAnimationFrame composes the actor frame and its torso/shadow
// overlays named by rec, §4.7. A missing actor frame or overlay is omitted,
// not an error (the miss is logged with ErrCrossReferenceMissing): the
// result's Body/Torso/Shadow fields are simply nil when they cannot be
// resolved. An error is returned only when no FileResolver is configured or
// the resolver fails for rec.ObjectFile; that error wraps the resolver's own.
func (c *Container) ResolveAnimationFrame(rec AnimationRecord) (CompositeFrame, error) {
	if c.opts.resolver == nil {
		return CompositeFrame{}, fmt.Errorf("dat: no FileResolver configured")
	}

	var out CompositeFrame

	objectContainer, err := c.opts.resolver.Resolve(rec.ObjectFile)
	if err != nil {
		return CompositeFrame{}, fmt.Errorf("resolve objectFile %d: %w", rec.ObjectFile, err)
	}
	if img, ok := objectContainer.frameAt(CategoryBody, int(rec.ObjectID), int(rec.ObjectFrame)); ok {
		out.Body = img
	} else {
		c.opts.logger.Debug("actor frame missing", zap.Object("record", rec), zap.Error(ErrCrossReferenceMissing))
	}

	if rec.TorsoID != noTorsoIDZero && rec.TorsoID != noTorsoIDFF {
		if torsoContainer, err := c.opts.resolver.Resolve(rec.TorsoFile); err != nil {
			c.opts.logger.Debug("torso file resolve failed", zap.Object("record", rec), zap.Error(err))
		} else if torsoContainer.torsoEntryPresent(int(rec.TorsoID)) {
			if img, ok := torsoContainer.frameAt(CategoryTorso, int(rec.TorsoID), int(rec.TorsoFrame)); ok {
				out.Torso = img
			} else {
				c.opts.logger.Debug("torso frame missing", zap.Object("record", rec), zap.Error(ErrCrossReferenceMissing))
			}
		}
	}

	// Shadow overlay uses the object's frame index, not a separate shadow
	// frame index: deliberate in the source format, preserved here, §4.7/§9.
	if rec.ShadowID > 0 {
		if shadowContainer, err := c.opts.resolver.Resolve(rec.ShadowFile); err != nil {
			c.opts.logger.Debug("shadow file resolve failed", zap.Object("record", rec), zap.Error(err))
		} else if shadowContainer.shadowEntryPresent(int(rec.ShadowID)) {
			if img, ok := shadowContainer.frameAt(CategoryShadow, int(rec.ShadowID), int(rec.ObjectFrame)); ok {
				out.Shadow = img
			} else {
				c.opts.logger.Debug("shadow frame missing", zap.Object("record", rec), zap.Error(ErrCrossReferenceMissing))
			}
		}
	}

	return out, nil
}

// torsoEntryPresent reports whether seq is in range and not the -1
// sentinel in this Container's Torso table, §4.7.
func (c *Container) torsoEntryPresent(seq int) bool {
	table := c.tables[CategoryTorso]
	return seq >= 0 && seq < len(table) && table[seq] >= 0
}

// shadowEntryPresent reports whether seq is in range and its sequence
// offset is nonzero in this Container's Shadow table, §4.7.
func (c *Container) shadowEntryPresent(seq int) bool {
	table := c.tables[CategoryShadow]
	return seq >= 0 && seq < len(table) && table[seq] > 0
}

// frameKey identifies one individually-decoded frame for frameAt's cache.
type frameKey struct {
	cat        Category
	seq, frame int
}

// frameAt fetches and caches a single frame's Image from a sequence
// category (Body/Torso/Shadow) without going through the composite
// assembler, for cross-file animation resolution, §4.7.
func (c *Container) frameAt(cat Category, seq, frame int) (Image, bool) {
	var slots *[]cacheSlot[sequenceEntry]
	switch cat {
	case CategoryBody:
		slots = &c.bodyCache
	case CategoryTorso:
		slots = &c.torsoCache
	case CategoryShadow:
		slots = &c.shadowCache
	default:
		return nil, false
	}

	entry, ok := c.sequenceEntry(slots, cat, seq)
	if !ok || frame < 0 || frame >= len(entry.frameOffsets) {
		return nil, false
	}
	offset := entry.frameOffsets[frame]

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frameImages == nil {
		c.frameImages = make(map[frameKey]Image)
	}
	key := frameKey{cat, seq, frame}
	if img, cached := c.frameImages[key]; cached {
		return img, img != nil
	}
	img, err := c.decodeFrameLocked(cat, seq, frame, offset)
	if err != nil {
		c.frameImages[key] = nil
		return nil, false
	}
	c.frameImages[key] = img
	return img, true
}
