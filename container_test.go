package dat

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/krullgor/godat-reader/cursor"
)

// markerTranslator reads a single little-endian uint32 "pixel marker" and
// returns it as the Image, so tests can assert on decoded values without a
// real bitmap codec.
type markerTranslator struct{}

func (markerTranslator) Translate(cur *cursor.Cursor, _ FileType) (Image, error) {
	b, err := cur.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func markerTranslators() ContainerOption {
	return WithTranslators(markerTranslator{}, markerTranslator{}, markerTranslator{}, markerTranslator{}, markerTranslator{})
}

// fixture records the values planted in the file built by buildFixture, so
// tests can assert decoded content against what was actually written.
type fixture struct {
	bytes []byte

	bodyFrames, torsoFrames, shadowFrames []uint32
	landscapeValues                       []uint32
	animRecordA, animRecordB              AnimationRecord // A written first on disk, B second

	bodyTableByteCountPos int // byte offset of the Body index table's byte_count u16 field
}

// buildFixture assembles a complete, valid DAT container exercising every
// category: one Body/Torso/Shadow sequence (2 frames each), two Landscape
// images, an empty Gui table, and a one-entry AnimationScript with two
// records (to exercise the on-disk reversal).
func buildFixture(t *testing.T) fixture {
	t.Helper()
	buf := &bytes.Buffer{}

	writeU16 := func(v uint16) { require.NoError(t, binary.Write(buf, binary.LittleEndian, v)) }
	writeU32 := func(v uint32) { require.NoError(t, binary.Write(buf, binary.LittleEndian, v)) }
	writeI16 := func(v int16) { require.NoError(t, binary.Write(buf, binary.LittleEndian, v)) }

	buf.Write(fileStart1)
	buf.Write(FileTypeSettlers4.Magic)
	buf.Write(fileStart2)

	fileSizePos := buf.Len()
	writeU32(0)

	tableOffsetPos := make([]int, headerSlots)
	for i := 0; i < headerSlots; i++ {
		tableOffsetPos[i] = buf.Len()
		writeU32(0)
	}
	buf.Write(fileHeaderEnd)

	patchU32 := func(pos int, v uint32) {
		binary.LittleEndian.PutUint32(buf.Bytes()[pos:pos+4], v)
	}

	writeSequence := func(payloads []uint32) int64 {
		seqOffset := int64(buf.Len())
		buf.Write(sequenceHeaderStart)
		buf.WriteByte(byte(len(payloads)))
		headerSize := int64(len(sequenceHeaderStart) + 1 + 4*len(payloads))
		for i := range payloads {
			writeU32(uint32(headerSize + int64(4*i)))
		}
		for _, v := range payloads {
			writeU32(v)
		}
		return seqOffset
	}

	f := fixture{
		bodyFrames:       []uint32{1001, 1002},
		torsoFrames:      []uint32{2001, 2002},
		shadowFrames:     []uint32{3001, 3002},
		landscapeValues:  []uint32{4001, 4002},
	}

	bodySeq := writeSequence(f.bodyFrames)
	torsoSeq := writeSequence(f.torsoFrames)
	shadowSeq := writeSequence(f.shadowFrames)

	landscapeOffsets := make([]uint32, len(f.landscapeValues))
	for i, v := range f.landscapeValues {
		landscapeOffsets[i] = uint32(buf.Len())
		writeU32(v)
	}

	f.animRecordA = AnimationRecord{PosX: 100, ObjectID: 1, ObjectFile: 0, ObjectFrame: 0}
	f.animRecordB = AnimationRecord{PosX: 200, ObjectID: 2, ObjectFile: 0, ObjectFrame: 1}

	writeRecord := func(r AnimationRecord) {
		writeI16(r.PosX)
		writeI16(r.PosY)
		writeU16(r.ObjectID)
		writeU16(r.ObjectFile)
		writeU16(r.TorsoID)
		writeU16(r.TorsoFile)
		writeU16(r.ShadowID)
		writeU16(r.ShadowFile)
		writeU16(r.ObjectFrame)
		writeU16(r.TorsoFrame)
		writeI16(r.SoundFlag1)
		writeI16(r.SoundFlag2)
	}

	animOffset := int64(buf.Len())
	writeU32(2)
	writeRecord(f.animRecordA)
	writeRecord(f.animRecordB)

	writeTable := func(slot int, tag categoryTag, pointers []uint32) int {
		patchU32(tableOffsetPos[slot], uint32(buf.Len()))
		writeU32(uint32(tag))
		if tag == tagNone || tag == tagPalette {
			return -1
		}
		byteCountPos := buf.Len()
		writeU16(uint16(4*len(pointers) + 8))
		writeU16(uint16(len(pointers)))
		for _, p := range pointers {
			writeU32(p)
		}
		return byteCountPos
	}

	f.bodyTableByteCountPos = writeTable(0, tagSettlers, []uint32{uint32(bodySeq)})
	writeTable(1, tagTorsos, []uint32{uint32(torsoSeq)})
	writeTable(2, tagShadows, []uint32{uint32(shadowSeq)})
	writeTable(3, tagLandscape, landscapeOffsets)
	writeTable(4, tagGuis, nil)
	writeTable(5, tagAnimationInfo, []uint32{uint32(animOffset)})
	writeTable(6, tagNone, nil)
	writeTable(7, tagPalette, nil)

	patchU32(fileSizePos, uint32(buf.Len()))

	f.bytes = buf.Bytes()
	return f
}

func openFixture(t *testing.T, f fixture, extra ...ContainerOption) *Container {
	t.Helper()
	opts := append([]ContainerOption{markerTranslators()}, extra...)
	c, err := OpenReaderAt(&memoryReaderAt{r: bytes.NewReader(f.bytes)}, int64(len(f.bytes)), FileTypeSettlers4, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpen_ParsesAllCategories(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	require.NoError(t, c.Warnings())
	require.Equal(t, int64(len(f.bytes)), c.Size())
	require.Equal(t, 1, c.SequenceCount(CategoryBody))
	require.Equal(t, 1, c.SequenceCount(CategoryTorso))
	require.Equal(t, 1, c.SequenceCount(CategoryShadow))
	require.Equal(t, 2, c.SequenceCount(CategoryLandscape))
	require.Equal(t, 0, c.SequenceCount(CategoryGui))
	require.Equal(t, 1, c.SequenceCount(CategoryAnimationScript))
}

func TestOpen_LandscapeDecodesPerIndex(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)

	img := c.GetLandscape(0)
	require.False(t, img.Null)
	require.Equal(t, f.landscapeValues[0], img.Image.(uint32))

	img1 := c.GetLandscape(1)
	require.Equal(t, f.landscapeValues[1], img1.Image.(uint32))

	// Out of range is NullImage, not a panic.
	require.True(t, c.GetLandscape(5).Null)
}

func TestOpen_LengthMismatchIsFatal(t *testing.T) {
	f := buildFixture(t)
	truncated := f.bytes[:len(f.bytes)-1]
	_, err := OpenReaderAt(&memoryReaderAt{r: bytes.NewReader(truncated)}, int64(len(truncated)), FileTypeSettlers4, markerTranslators())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestOpen_WrongPixelFormatMagicIsFatal(t *testing.T) {
	f := buildFixture(t)
	_, err := OpenReaderAt(&memoryReaderAt{r: bytes.NewReader(f.bytes)}, int64(len(f.bytes)), FileTypeSettlers3, markerTranslators())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrFormatMismatch)
}

func TestOpen_MutatedByteCountDemotesSlotToWarning(t *testing.T) {
	f := buildFixture(t)
	raw := append([]byte{}, f.bytes...)

	// byte_count must equal 4*pointer_count+8; corrupt just this field and
	// leave pointer_count and the pointer vector untouched.
	original := binary.LittleEndian.Uint16(raw[f.bodyTableByteCountPos : f.bodyTableByteCountPos+2])
	binary.LittleEndian.PutUint16(raw[f.bodyTableByteCountPos:f.bodyTableByteCountPos+2], original+1)

	c, err := OpenReaderAt(&memoryReaderAt{r: bytes.NewReader(raw)}, int64(len(raw)), FileTypeSettlers4, markerTranslators())
	require.NoError(t, err, "a per-slot parse failure is demoted to a warning, not fatal")
	t.Cleanup(func() { c.Close() })

	require.Error(t, c.Warnings())
	require.ErrorIs(t, c.Warnings(), ErrFormatMismatch)
	require.Equal(t, 0, c.SequenceCount(CategoryBody))

	// Other categories parsed from unaffected slots still load.
	require.Equal(t, 1, c.SequenceCount(CategoryTorso))
	require.Equal(t, 1, c.SequenceCount(CategoryShadow))
	require.Equal(t, 2, c.SequenceCount(CategoryLandscape))
	img := c.GetLandscape(0)
	require.False(t, img.Null)
	require.Equal(t, f.landscapeValues[0], img.Image.(uint32))
}

func TestOpen_CloseIsIdempotent(t *testing.T) {
	f := buildFixture(t)
	c := openFixture(t, f)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
