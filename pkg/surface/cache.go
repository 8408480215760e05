package surface

// AttrKind enumerates the derived attributes a surface can compute. The
// set is closed: dispatch goes through a handler table and unknown kinds
// fail with ErrUnknownAttribute.
type AttrKind int

const (
	// AttrDepths is the depth value per covered trace.
	AttrDepths AttrKind = iota

	// AttrBinary is the presence indicator per trace.
	AttrBinary

	// AttrGradInline is the depth difference to the previous inline.
	AttrGradInline

	// AttrGradCrossline is the depth difference to the previous crossline.
	AttrGradCrossline

	// AttrAmplitudes is the raw amplitude window cut along the surface.
	AttrAmplitudes

	// AttrInstantAmplitude is the envelope of the analytic trace signal.
	AttrInstantAmplitude

	// AttrInstantPhase is the phase of the analytic trace signal.
	AttrInstantPhase
)

// AttrOptions parameterizes attribute computation. The zero value asks
// for a planar attribute on local (bounding box) extents.
type AttrOptions struct {
	// Window is the depth extent of windowed attributes, in samples
	Window int

	// Offset shifts the extraction window along the depth axis
	Offset int

	// OnFull places the result on the full spatial extents of the volume
	// instead of the surface bounding box
	OnFull bool
}

type cacheEntry struct {
	opts  AttrOptions
	value *Cube64
}

// AttributeCache memoizes computed attributes per kind, keyed by their
// normalized options. Each kind keeps at most capacity entries; the oldest
// entry is evicted first. Geometry mutations clear the cache wholesale.
type AttributeCache struct {
	capacity int
	entries  map[AttrKind][]cacheEntry
}

// NewAttributeCache creates a cache keeping up to capacity entries per
// kind. Capacities below one fall back to one.
func NewAttributeCache(capacity int) *AttributeCache {
	if capacity < 1 {
		capacity = 1
	}
	return &AttributeCache{
		capacity: capacity,
		entries:  make(map[AttrKind][]cacheEntry),
	}
}

// Get returns the cached value for (kind, opts). The stored buffer is
// returned as is; callers that hand it out must copy it first.
func (c *AttributeCache) Get(kind AttrKind, opts AttrOptions) (*Cube64, bool) {
	for _, e := range c.entries[kind] {
		if e.opts == opts {
			return e.value, true
		}
	}
	return nil, false
}

// Put stores a value for (kind, opts), evicting the oldest entry of the
// kind when the capacity is exceeded.
func (c *AttributeCache) Put(kind AttrKind, opts AttrOptions, value *Cube64) {
	entries := c.entries[kind]
	for i, e := range entries {
		if e.opts == opts {
			entries[i].value = value
			return
		}
	}
	entries = append(entries, cacheEntry{opts: opts, value: value})
	if len(entries) > c.capacity {
		entries = entries[len(entries)-c.capacity:]
	}
	c.entries[kind] = entries
}

// Clear drops every cached entry.
func (c *AttributeCache) Clear() {
	c.entries = make(map[AttrKind][]cacheEntry)
}

// Len returns the total number of cached entries across kinds.
func (c *AttributeCache) Len() int {
	n := 0
	for _, entries := range c.entries {
		n += len(entries)
	}
	return n
}
