package viewer

// Metadata holds the optional capture details shown in the info panel.
// Every field is independently present or empty.
type Metadata struct {
	Camera   string
	Lens     string
	ISO      string
	Focal    string
	Aperture string
	Shutter  string
	Location string
}

// MetaField is one labelled, non-empty metadata entry
type MetaField struct {
	Key   string
	Value string
}

// Fields returns the present entries in display order
func (m Metadata) Fields() []MetaField {
	all := []MetaField{
		{"camera", m.Camera},
		{"lens", m.Lens},
		{"iso", m.ISO},
		{"focal", m.Focal},
		{"aperture", m.Aperture},
		{"shutter", m.Shutter},
		{"location", m.Location},
	}
	fields := all[:0]
	for _, f := range all {
		if f.Value != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Item is one gallery entry
type Item struct {
	Source string // path or archive entry the image is decoded from
	Alt    string
	Meta   Metadata
}

// ThumbStyle is how the page presents a thumbnail
type ThumbStyle struct {
	Radius float64
	Cover  bool // crop to fill instead of letterboxing
}

// Gallery is the ordered, fixed set of viewable images on the page
type Gallery interface {
	Len() int
	Item(i int) Item
	// ThumbnailRect returns the thumbnail's on-screen rectangle, or false
	// when it is not laid out in the visible page.
	ThumbnailRect(i int) (Rect, bool)
	ThumbnailStyle(i int) ThumbStyle
}

// ImageLoader decodes gallery images off the UI goroutine. Completion is
// reported back through Session.NotifyLoaded.
type ImageLoader interface {
	// NaturalSize reports the decoded size once it is known. A thumbnail
	// decode is enough to know it.
	NaturalSize(i int) (Size, bool)
	// Loaded reports whether the full image, or the placeholder standing
	// in for a failed decode, is ready to draw
	Loaded(i int) bool
	// Request asks for image i to be decoded
	Request(i int)
	// Prefetch warms the neighbours of i
	Prefetch(i int)
}

// ScrollLocker freezes the page underneath the viewer. Unlock restores
// exactly the state Lock found.
type ScrollLocker interface {
	LockScroll()
	UnlockScroll()
}

// Environment answers the user preference queries the transitions depend on
type Environment interface {
	ReducedMotion() bool
	CoarsePointer() bool
}

// PanelMeasurer returns the height the info panel needs at the given width
type PanelMeasurer func(fields []MetaField, width float64) float64
