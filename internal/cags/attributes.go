package cags

import (
	"sort"
	"sync"
)

// Attribute buffer names produced by decode engines.
const (
	AttrPosition      = "position"
	AttrPositionAlias = "positions"
	AttrScale         = "scale"
	AttrScaleAlias    = "scaling"
	AttrRotation      = "rotation"
	AttrOpacity       = "opacity"
	AttrFeaturesDC    = "features_dc"
	AttrFeaturesRest  = "features_rest"
)

// Attributes is a dequantized attribute set: flat float buffers keyed by
// name. A nil buffer counts as absent. Release frees any backing memory held
// by the engine and is safe to call more than once.
type Attributes struct {
	buffers map[string][]float32
	release func()
	once    sync.Once
}

// NewAttributes wraps buffers. release may be nil.
func NewAttributes(buffers map[string][]float32, release func()) *Attributes {
	if buffers == nil {
		buffers = make(map[string][]float32)
	}
	return &Attributes{buffers: buffers, release: release}
}

// Set stores or replaces a buffer.
func (a *Attributes) Set(name string, values []float32) {
	a.buffers[name] = values
}

// Get returns the named buffer.
func (a *Attributes) Get(name string) ([]float32, bool) {
	v := a.buffers[name]
	return v, v != nil
}

// Lookup returns the first present buffer among names, so a canonical name
// listed first wins over its aliases.
func (a *Attributes) Lookup(names ...string) (string, []float32) {
	for _, name := range names {
		if v := a.buffers[name]; v != nil {
			return name, v
		}
	}
	return "", nil
}

// Names lists the present buffers, sorted.
func (a *Attributes) Names() []string {
	names := make([]string, 0, len(a.buffers))
	for name, v := range a.buffers {
		if v != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Release runs the release hook once.
func (a *Attributes) Release() {
	a.once.Do(func() {
		if a.release != nil {
			a.release()
		}
	})
}
