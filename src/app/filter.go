package app

import (
	"net/url"
)

// FilterState holds the four gallery facets. Each facet is either All or one
// concrete value.
type FilterState struct {
	Category string `json:"category" form:"category"`
	Complex  string `json:"complex" form:"complex"`
	Type     string `json:"type" form:"type"`
	Space    string `json:"space" form:"space"`
}

// NewFilter returns a filter with every facet set to the wildcard.
func NewFilter() FilterState {
	return FilterState{Category: All, Complex: All, Type: All, Space: All}
}

// ParseFilter reads facets from query values. Missing or unknown values are
// treated as the wildcard.
func ParseFilter(values url.Values) FilterState {
	f := NewFilter()
	if v := values.Get("category"); ValidCategory(v) {
		f.Category = v
	}
	if v := values.Get("complex"); ValidComplex(v) {
		f.Complex = v
	}
	if v := values.Get("type"); ValidType(v) {
		f.Type = v
	}
	if v := values.Get("space"); ValidSpace(v) {
		f.Space = v
	}
	return f
}

// Normalize replaces empty facets with the wildcard.
func (f FilterState) Normalize() FilterState {
	for _, facet := range []*string{&f.Category, &f.Complex, &f.Type, &f.Space} {
		if *facet == "" {
			*facet = All
		}
	}
	return f
}

// WithComplex switches the complex facet. When the selected apartment type
// is not built in the new complex the type facet falls back to All.
func (f FilterState) WithComplex(c string) FilterState {
	f.Complex = c
	if c == All || f.Type == All {
		return f
	}
	if !TypeBelongs(Complex(c), ApartmentType(f.Type)) {
		f.Type = All
	}
	return f
}

func (f FilterState) IsAll() bool {
	return f.Category == All && f.Complex == All && f.Type == All && f.Space == All
}

// Match reports whether img passes every concrete facet.
func (f FilterState) Match(img ImageRecord) bool {
	return facetMatch(f.Category, string(img.Category)) &&
		facetMatch(f.Complex, string(img.Complex)) &&
		facetMatch(f.Type, string(img.Type)) &&
		facetMatch(f.Space, string(img.Space))
}

func facetMatch(want, got string) bool {
	return want == All || want == got
}

// Apply returns the images matching f in catalog order. The result is never
// nil so an empty gallery encodes as an empty list.
func Apply(catalog []ImageRecord, f FilterState) []ImageRecord {
	f = f.Normalize()
	result := make([]ImageRecord, 0, len(catalog))
	for _, img := range catalog {
		if f.Match(img) {
			result = append(result, img)
		}
	}
	return result
}
