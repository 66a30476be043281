package dat

import (
	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// CompositeFrame is a Body frame with optional Torso and Shadow overlays,
// §3. Torso/Shadow are nil (not NullImage) when absent: absence here is
// structural (no overlay table entry, or table too short), not a decode
// failure.
type CompositeFrame struct {
	Body   Image
	Torso  Image
	Shadow Image
}

// CompositeSequence is the result of CompositeAssembler for one Body
// sequence index, §4.6.
type CompositeSequence []CompositeFrame

// alignOverlayTables implements the §4.6 table-length alignment policy,
// invoked once at Open when WithOverrideDifferences(true) is set: shorter
// Torso/Shadow tables are right-aligned against Body by prepending -1
// sentinels, so Torso[k]/Shadow[k] keep corresponding to Body[k] for the
// trailing portion of Body.
//
// §9 Open Question 2: the original "override differences" branch appears to
// write into torsostarts while handling the shadow-mismatch case. We
// implement the apparent intent — fill shadowStarts[0:diff] with -1 — and
// log a warning whenever this branch actually fires, so a reviewer can
// confirm against the original tool.
func (c *Container) alignOverlayTables() {
	body := c.tables[CategoryBody]
	if torso := c.tables[CategoryTorso]; len(torso) < len(body) {
		diff := len(body) - len(torso)
		aligned := make([]int64, len(body))
		for i := 0; i < diff; i++ {
			aligned[i] = -1
		}
		copy(aligned[diff:], torso)
		c.tables[CategoryTorso] = aligned
	}
	if shadow := c.tables[CategoryShadow]; len(shadow) < len(body) {
		diff := len(body) - len(shadow)
		aligned := make([]int64, len(body))
		for i := 0; i < diff; i++ {
			aligned[i] = -1
		}
		copy(aligned[diff:], shadow)
		c.tables[CategoryShadow] = aligned
		c.opts.logger.Warn("shadow table shorter than body table under override-differences; "+
			"right-aligning with -1 sentinels (see DESIGN.md Open Question 2)",
			zap.Int("bodyLen", len(body)), zap.Int("shadowLen", len(shadow)))
	}
}

// buildCompositeSequence runs the CompositeAssembler for Body sequence
// index k, §4.6. Must be called with c.mu held.
func (c *Container) buildCompositeSequence(k int) CompositeSequence {
	bodyOffset := c.tables[CategoryBody][k]
	if bodyOffset < 0 {
		return CompositeSequence{}
	}

	bodyFrameOffsets, err := parseSequenceHeader(c.cur, bodyOffset)
	if err != nil {
		c.opts.logger.Warn("failed to parse body sequence header",
			zap.Int("seq", k), zap.Int64("offset", bodyOffset), zap.Error(err))
		return CompositeSequence{}
	}

	seq := make(CompositeSequence, len(bodyFrameOffsets))
	for i, off := range bodyFrameOffsets {
		img, err := c.decodeFrameLocked(CategoryBody, k, i, off)
		if err != nil {
			c.opts.logger.Debug("body frame translator failed",
				zap.Int("seq", k), zap.Int("frame", i), zap.Error(err))
			continue
		}
		seq[i].Body = img
	}

	if k < len(c.tables[CategoryTorso]) {
		if entry := c.tables[CategoryTorso][k]; entry >= 0 {
			torsoFrameOffsets, err := parseSequenceHeader(c.cur, entry)
			if err != nil {
				c.opts.logger.Warn("failed to parse torso sequence header",
					zap.Int("seq", k), zap.Int64("offset", entry), zap.Error(err))
			} else {
				n := len(bodyFrameOffsets)
				if len(torsoFrameOffsets) < n {
					n = len(torsoFrameOffsets)
				}
				for i := 0; i < n; i++ {
					img, err := c.decodeFrameLocked(CategoryTorso, k, i, torsoFrameOffsets[i])
					if err != nil {
						c.opts.logger.Debug("torso frame translator failed",
							zap.Int("seq", k), zap.Int("frame", i), zap.Error(err))
						continue
					}
					seq[i].Torso = img
				}
			}
		}
	}

	if k < len(c.tables[CategoryShadow]) {
		// A missing Shadow file offset of 0 is "no overlay", same as -1,
		// §4.6.
		if entry := c.tables[CategoryShadow][k]; entry > 0 {
			shadowFrameOffsets, err := parseSequenceHeader(c.cur, entry)
			if err != nil {
				c.opts.logger.Warn("failed to parse shadow sequence header",
					zap.Int("seq", k), zap.Int64("offset", entry), zap.Error(err))
			} else {
				n := len(bodyFrameOffsets)
				if len(shadowFrameOffsets) < n {
					n = len(shadowFrameOffsets)
				}
				for i := 0; i < n; i++ {
					img, err := c.decodeFrameLocked(CategoryShadow, k, i, shadowFrameOffsets[i])
					if err != nil {
						c.opts.logger.Debug("shadow frame translator failed",
							zap.Int("seq", k), zap.Int("frame", i), zap.Error(err))
						continue
					}
					seq[i].Shadow = img
				}
			}
		}
	}

	return seq
}

// decodeFrameLocked seeks to offset and invokes the translator for cat,
// optionally recording an xxhash checksum of the exact raw bytes the
// translator consumed (WithChecksums). Caller must hold c.mu: this is the
// "seek + read + translator callout" critical section named in §5.
func (c *Container) decodeFrameLocked(cat Category, seq, frame int, offset int64) (Image, error) {
	c.cur.Seek(offset)
	t := c.opts.translators.forCategory(cat)
	img, err := t.Translate(c.cur, c.fileType)
	if err != nil {
		return nil, err
	}

	if c.opts.checksums {
		if n := c.cur.Pos() - offset; n > 0 {
			c.cur.Seek(offset)
			if raw, rerr := c.cur.ReadBytes(int(n)); rerr == nil {
				if c.checksums == nil {
					c.checksums = make(map[checksumKey]uint64)
				}
				c.checksums[checksumKey{cat, seq, frame}] = xxhash.Sum64(raw)
			}
		}
	}

	return img, nil
}
