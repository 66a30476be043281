// Package dat implements a reader for a proprietary legacy game-asset
// container format (the "DAT container"): a monolithic binary bundle
// carrying several categories of 2D sprites, palette data, and animation
// scripts that reference other DAT files by numeric identifier.
//
// # Format
//
// A DAT file is a fixed preamble followed by up to eight category index
// tables, whose offsets are listed in the preamble:
//
//	| FILE_START1 (33B) | pixel-format magic | FILE_START2 (10B) | file_size (u32) | 8x table offset (u32) | FILE_HEADER_END (12B) |
//
// Each category index table identifies a tag, validates its own
// byte_count/pointer_count relationship, and lists one absolute file offset
// per sequence in that category. Body/Torso/Shadow/AnimationScript offsets
// point at a further per-sequence or per-script header; Landscape/Gui
// offsets point directly at a single bitmap payload.
//
// Except through OpenZstd, which decompresses the whole file into memory
// first, the reader never loads the whole file into memory: everything past
// the index tables is decoded lazily, on first access, through a pluggable
// per-category bitmap translator, and cached for the life of the Container.
package dat

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/krullgor/godat-reader/cursor"
)

// Fixed header literals, §4.2/§6.
var (
	fileStart1     = []byte("GERMANY1996SETTLERSDATAARCHIVEV01") // 33 bytes
	fileStart2     = []byte("_FILE_BEG_")                        // 10 bytes
	fileHeaderEnd  = []byte("_DAT_HDR_END")                      // 12 bytes
	sequenceHeaderStart = []byte{0x02, 0x14, 0x00, 0x00, 0x08, 0x00, 0x00} // 7 bytes, §4.4
)

// Category tag constants, §6 (u32, little-endian on disk).
type categoryTag uint32

const (
	tagNone          categoryTag = 0x1904
	tagPalette       categoryTag = 0x2607
	tagSettlers      categoryTag = 0x106
	tagTorsos        categoryTag = 0x3112
	tagLandscape     categoryTag = 0x2412
	tagShadows       categoryTag = 0x5982
	tagGuis          categoryTag = 0x11306
	tagAnimationInfo categoryTag = 0x21702
)

// Category identifies the content category of an index table, chosen by the
// table's tag rather than by its header slot. Body, Torso, Shadow,
// Landscape, Gui and AnimationScript are named by spec.md §3; of the eight
// header slots, the two beyond these six never populate a named category.
type Category int

const (
	CategoryBody Category = iota
	CategoryTorso
	CategoryShadow
	CategoryLandscape
	CategoryGui
	CategoryAnimationScript
	categoryCount
)

func (c Category) String() string {
	switch c {
	case CategoryBody:
		return "body"
	case CategoryTorso:
		return "torso"
	case CategoryShadow:
		return "shadow"
	case CategoryLandscape:
		return "landscape"
	case CategoryGui:
		return "gui"
	case CategoryAnimationScript:
		return "animation-script"
	default:
		return "unknown"
	}
}

func categoryForTag(tag categoryTag) (Category, bool) {
	switch tag {
	case tagSettlers:
		return CategoryBody, true
	case tagTorsos:
		return CategoryTorso, true
	case tagShadows:
		return CategoryShadow, true
	case tagLandscape:
		return CategoryLandscape, true
	case tagGuis:
		return CategoryGui, true
	case tagAnimationInfo:
		return CategoryAnimationScript, true
	default:
		return 0, false
	}
}

// FileType is the pixel-format discriminator, §6: at minimum a distinguished
// variant per supported bitmap layout, each carrying the 2-byte start magic
// injected into the header literal sequence and driving translator
// selection.
type FileType struct {
	Name  string
	Magic []byte
}

var (
	// FileTypeSettlers3 is the RGB555-era bitmap layout.
	FileTypeSettlers3 = FileType{Name: "settlers3-rgb555", Magic: []byte{0x01, 0x00}}
	// FileTypeSettlers4 is the 8-bit palette-indexed bitmap layout.
	FileTypeSettlers4 = FileType{Name: "settlers4-indexed8", Magic: []byte{0x02, 0x00}}
	// FileTypeHistoryEdition is the modern re-release's truecolor layout.
	FileTypeHistoryEdition = FileType{Name: "history-edition-argb8888", Magic: []byte{0x03, 0x00}}
)

// headerSlots is the fixed number of category-table offsets in the
// preamble, §4.2.
const headerSlots = 8

// Container is a read-only, immutable-after-open view over a DAT file. It
// owns the file handle exclusively (§5) and lazily materializes sequences
// and images on demand.
type Container struct {
	path     string
	fileType FileType
	opts     containerOptions

	closer ReadAtCloser
	cur    *cursor.Cursor
	fileSize int64

	mu     sync.Mutex
	tables [categoryCount][]int64 // absolute sequence/script offsets, -1 sentinel for "absent"

	bodyCache      []cacheSlot[sequenceEntry]
	torsoCache     []cacheSlot[sequenceEntry]
	shadowCache    []cacheSlot[sequenceEntry]
	landscapeCache []cacheSlot[imageSlot]
	guiCache       []cacheSlot[imageSlot]
	settlerCache   []cacheSlot[CompositeSequence]
	scriptCache    []cacheSlot[[]AnimationRecord]

	warnings error // aggregated via multierr, §4.3/§4.8 partial-failure policy

	checksums   map[checksumKey]uint64 // populated lazily when WithChecksums is set
	frameImages map[frameKey]Image     // populated lazily by frameAt, for cross-file animation resolution

	index     *offsetIndex // lazily built by LocateOffset, §4.5 "raw_pointers ... for tools"
	indexOnce sync.Once

	closed atomic.Bool
}

// Open parses path as a DAT container of the given pixel format. Header and
// per-category-table validation happens synchronously; per-sequence and
// per-frame data is decoded lazily by the catalog getters (§4.5).
//
// Construction errors (ErrFormatMismatch, ErrLengthMismatch, ErrTruncated)
// are fatal and abort construction; per-slot index parse errors are
// demoted to an empty table with a warning recorded in Warnings() (§4.3,
// §4.8).
func Open(path string, fileType FileType, opts ...ContainerOption) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dat: open %s: %w", path, err)
	}
	c, err := newContainer(f, path, fileType, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// OpenReaderAt parses an already-open random-access source as a DAT
// container. The Container takes ownership of r: Close calls r.Close, and so
// does a failed header parse.
func OpenReaderAt(r ReadAtCloser, size int64, fileType FileType, opts ...ContainerOption) (*Container, error) {
	return newContainerFromReaderAt(r, "<reader>", size, fileType, opts...)
}

// ReadAtCloser is the minimal capability Container needs from its backing
// store: random access plus a way to release it on Close.
type ReadAtCloser interface {
	ReadAt(p []byte, off int64) (int, error)
	Close() error
}

func newContainer(f *os.File, path string, fileType FileType, opts ...ContainerOption) (*Container, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("dat: stat %s: %w", path, err)
	}
	return newContainerFromReaderAt(f, path, info.Size(), fileType, opts...)
}

func newContainerFromReaderAt(r ReadAtCloser, path string, size int64, fileType FileType, opts ...ContainerOption) (*Container, error) {
	var o containerOptions
	o.setDefault()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("dat: option: %w", err)
		}
	}

	c := &Container{
		path:     path,
		fileType: fileType,
		opts:     o,
		closer:   r,
		fileSize: size,
	}
	c.cur = cursor.New(r, size)

	hdr, err := parseHeader(c.cur, fileType, size)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("dat: %s: %w", path, err)
	}

	for slot, offset := range hdr.tableOffsets {
		tag, offsets, err := parseIndexTable(c.cur, int64(offset))
		if err != nil {
			c.warnings = multierr.Append(c.warnings, fmt.Errorf("dat: slot %d at %d: %w", slot, offset, err))
			o.logger.Warn("index table slot failed to parse, treating as empty",
				zap.Int("slot", slot), zap.Uint32("offset", offset), zap.Error(err))
			continue
		}
		if offsets == nil {
			// ID_NONE / ID_PALETTE: skip without error, §4.3 step 2.
			continue
		}
		cat, ok := categoryForTag(tag)
		if !ok {
			o.logger.Warn("unknown category tag, discarding", zap.Int("slot", slot), zap.Uint32("tag", uint32(tag)))
			continue
		}
		signed := make([]int64, len(offsets))
		for i, v := range offsets {
			signed[i] = int64(v)
		}
		c.tables[cat] = signed
	}

	// After construction, null category tables are replaced by empty
	// vectors so callers see uniform emptiness rather than absence, §4.5.
	for cat := Category(0); cat < categoryCount; cat++ {
		if c.tables[cat] == nil {
			c.tables[cat] = []int64{}
		}
	}

	if o.overrideDifferences {
		c.alignOverlayTables()
	}

	c.bodyCache = make([]cacheSlot[sequenceEntry], len(c.tables[CategoryBody]))
	c.torsoCache = make([]cacheSlot[sequenceEntry], len(c.tables[CategoryTorso]))
	c.shadowCache = make([]cacheSlot[sequenceEntry], len(c.tables[CategoryShadow]))
	c.landscapeCache = make([]cacheSlot[imageSlot], len(c.tables[CategoryLandscape]))
	c.guiCache = make([]cacheSlot[imageSlot], len(c.tables[CategoryGui]))
	c.settlerCache = make([]cacheSlot[CompositeSequence], len(c.tables[CategoryBody]))
	c.scriptCache = make([]cacheSlot[[]AnimationRecord], len(c.tables[CategoryAnimationScript]))

	return c, nil
}

// Path returns the path the Container was opened from ("<reader>" if opened
// via OpenReaderAt without a path-bearing source).
func (c *Container) Path() string { return c.path }

// FileType returns the pixel-format discriminator the Container was opened
// with.
func (c *Container) FileType() FileType { return c.fileType }

// Size returns the total file length in bytes.
func (c *Container) Size() int64 { return c.fileSize }

// Warnings returns the aggregated, non-fatal per-slot parse errors recorded
// during construction (§4.3, §4.8). A nil return means every header slot
// parsed cleanly.
func (c *Container) Warnings() error { return c.warnings }

// Close releases the underlying file handle. It is safe to call more than
// once.
func (c *Container) Close() error {
	if c.closed.CAS(false, true) {
		c.mu.Lock()
		c.index = nil
		c.mu.Unlock()
		if c.closer != nil {
			return c.closer.Close()
		}
	}
	return nil
}
