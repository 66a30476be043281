package dat

import (
	"go.uber.org/zap"

	"github.com/krullgor/godat-reader/cursor"
)

// ContainerOption configures Open/OpenReaderAt/OpenZstd, mirroring the
// teacher's functional-option pattern (ROption/WOption).
type ContainerOption func(*containerOptions) error

type containerOptions struct {
	logger               *zap.Logger
	translators          translators
	resolver             FileResolver
	overrideDifferences  bool
	checksums            bool
}

func (o *containerOptions) setDefault() {
	*o = containerOptions{
		logger: zap.NewNop(),
		translators: translators{
			settler:   noopTranslator{},
			torso:     noopTranslator{},
			landscape: noopTranslator{},
			shadow:    noopTranslator{},
			gui:       noopTranslator{},
		},
	}
}

// WithLogger injects a structured logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) ContainerOption {
	return func(o *containerOptions) error { o.logger = l; return nil }
}

// WithTranslators configures the five per-category bitmap translators. Any
// field left as the zero value keeps the built-in no-op translator, which
// always returns ErrTranslatorFailure (surfaced as NullImage by the
// catalog).
func WithTranslators(settler, torso, landscape, shadow, gui Translator) ContainerOption {
	return func(o *containerOptions) error {
		if settler != nil {
			o.translators.settler = settler
		}
		if torso != nil {
			o.translators.torso = torso
		}
		if landscape != nil {
			o.translators.landscape = landscape
		}
		if shadow != nil {
			o.translators.shadow = shadow
		}
		if gui != nil {
			o.translators.gui = gui
		}
		return nil
	}
}

// WithFileResolver injects the cross-file resolver used by the animation
// decoder (§4.7) to reach other Containers by numeric FileId.
func WithFileResolver(r FileResolver) ContainerOption {
	return func(o *containerOptions) error { o.resolver = r; return nil }
}

// WithOverrideDifferences enables the §4.6 table-length alignment policy:
// shorter Torso/Shadow tables are right-aligned against Body with -1
// sentinels prepended.
func WithOverrideDifferences(enabled bool) ContainerOption {
	return func(o *containerOptions) error { o.overrideDifferences = enabled; return nil }
}

// WithChecksums enables recording an xxhash checksum of each decoded
// frame's raw source bytes for integrity tooling (FrameChecksum).
func WithChecksums(enabled bool) ContainerOption {
	return func(o *containerOptions) error { o.checksums = enabled; return nil }
}

// noopTranslator is the built-in default: it always fails, which the
// catalog absorbs, §4.8. Containers opened without WithTranslators are
// still safe to query: every Landscape/Gui image resolves to NullImage and
// every composite or animation frame carries nil images until real
// translators are wired in.
type noopTranslator struct{}

func (noopTranslator) Translate(_ *cursor.Cursor, _ FileType) (Image, error) {
	return nil, ErrTranslatorFailure
}
