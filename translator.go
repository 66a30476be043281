package dat

import "github.com/krullgor/godat-reader/cursor"

// Image is a decoded bitmap, opaque to the core and owned by whichever
// Translator produced it. §1 places the pixel-level codec out of scope: the
// core only ever stores and returns whatever a Translator hands back.
type Image interface{}

// ImageResult is the Image-or-NullImage sum type named in §3/§9: modeled as
// a value carrying an explicit Null flag rather than a nil Image or a
// process-wide singleton.
type ImageResult struct {
	Image Image
	Null  bool
}

// NullImage is the canonical "no image" result.
var NullImage = ImageResult{Null: true}

// ImageOf wraps a successfully decoded Image.
func ImageOf(img Image) ImageResult { return ImageResult{Image: img} }

// Translator is the pluggable per-category bitmap decoder, out of THE CORE's
// scope per §1/§6. Five stateless instances are configured per Container:
// Settler, Torso, Landscape, Shadow, Gui. Given a Cursor positioned at the
// start of a frame payload and the Container's pixel-format hint, a
// Translator produces a decoded Image.
type Translator interface {
	Translate(cur *cursor.Cursor, hint FileType) (Image, error)
}

// TranslatorFunc adapts a plain function to the Translator interface.
type TranslatorFunc func(cur *cursor.Cursor, hint FileType) (Image, error)

// Translate implements Translator.
func (f TranslatorFunc) Translate(cur *cursor.Cursor, hint FileType) (Image, error) {
	return f(cur, hint)
}

// translators bundles the five per-category translator instances.
type translators struct {
	settler   Translator
	torso     Translator
	landscape Translator
	shadow    Translator
	gui       Translator
}

func (t translators) forCategory(cat Category) Translator {
	switch cat {
	case CategoryBody:
		return t.settler
	case CategoryTorso:
		return t.torso
	case CategoryLandscape:
		return t.landscape
	case CategoryShadow:
		return t.shadow
	case CategoryGui:
		return t.gui
	default:
		return nil
	}
}
