package app

import (
	"sort"
)

type (
	Category      string
	Complex       string
	ApartmentType string
	Space         string
	Orientation   string
	FloorLevel    string
)

// All is the wildcard facet value, shown as "전체" in the gallery.
const All = "전체"

const (
	CategoryInterior  Category = "내부"
	CategoryExterior  Category = "외부"
	CategoryView      Category = "조망"
	CategoryCommunity Category = "커뮤니티"
)

const (
	Complex1 Complex = "1단지"
	Complex2 Complex = "2단지"
	Complex3 Complex = "3단지"
	Complex4 Complex = "4단지"
)

const (
	Type25  ApartmentType = "25ty"
	Type30  ApartmentType = "30ty"
	Type35A ApartmentType = "35Aty"
	Type35B ApartmentType = "35Bty"
	Type41  ApartmentType = "41ty"
	Type47  ApartmentType = "47ty"
	Type48  ApartmentType = "48ty"
	Type56A ApartmentType = "56Aty"
	Type56B ApartmentType = "56Bty"
)

const (
	SpaceLiving      Space = "거실"
	SpaceKitchen     Space = "주방"
	SpaceMaster      Space = "안방"
	SpaceBathLiving  Space = "욕실(거실)"
	SpaceBathMaster  Space = "욕실(안방)"
	SpaceRoom1       Space = "작은방1"
	SpaceRoom2       Space = "작은방2"
	SpaceRoom3       Space = "작은방3"
	SpaceRoom4       Space = "작은방4"
	SpaceDressRoom   Space = "드레스룸"
	SpacePantry      Space = "펜트리"
	SpaceAlphaRoom   Space = "알파룸"
	SpaceLaundry     Space = "세탁실"
	SpaceOutsideView Space = "외부뷰"
	SpaceOption      Space = "옵션"
	SpaceStructure   Space = "구조도"
	SpaceFloorPlan   Space = "평면도"
	SpaceRelated     Space = "기타관련이미지"
)

const (
	OrientationSouthEast Orientation = "남동향"
	OrientationSouthWest Orientation = "남서향"
	OrientationSouth     Orientation = "남향"
)

const (
	FloorLow  FloorLevel = "저층"
	FloorMid  FloorLevel = "중층"
	FloorHigh FloorLevel = "고층"
)

var (
	Categories   = []Category{CategoryInterior, CategoryExterior, CategoryView, CategoryCommunity}
	Complexes    = []Complex{Complex1, Complex2, Complex3, Complex4}
	Orientations = []Orientation{OrientationSouthEast, OrientationSouthWest, OrientationSouth}
	FloorLevels  = []FloorLevel{FloorLow, FloorMid, FloorHigh}
	Spaces       = []Space{
		SpaceLiving, SpaceKitchen, SpaceMaster, SpaceBathLiving, SpaceBathMaster,
		SpaceRoom1, SpaceRoom2, SpaceRoom3, SpaceRoom4, SpaceDressRoom, SpacePantry,
		SpaceAlphaRoom, SpaceLaundry, SpaceOutsideView, SpaceOption, SpaceStructure,
		SpaceFloorPlan, SpaceRelated,
	}

	// ComplexTypes lists, in display order, the apartment types built in each complex.
	ComplexTypes = map[Complex][]ApartmentType{
		Complex1: {Type25, Type30, Type35A, Type35B, Type41, Type47, Type56A, Type56B},
		Complex2: {Type25, Type30, Type35A, Type35B, Type41},
		Complex3: {Type25, Type30, Type35A, Type35B, Type41},
		Complex4: {Type25, Type30, Type35A, Type35B, Type41, Type48, Type56A, Type56B},
	}
)

var labels = map[string]string{
	All: "All",
	"내부": "Interior", "외부": "Exterior", "조망": "View", "커뮤니티": "Community",
	"거실": "Living", "주방": "Kitchen", "안방": "Master", "욕실(거실)": "Bath 1",
	"욕실(안방)": "Bath 2", "작은방1": "Room 1", "작은방2": "Room 2", "작은방3": "Room 3",
	"작은방4": "Room 4", "드레스룸": "Dress", "펜트리": "Pantry", "알파룸": "Alpha",
	"세탁실": "Laundry", "외부뷰": "View", "옵션": "Option", "구조도": "Structure",
	"평면도": "Floorplan", "기타관련이미지": "Related",
	"남동향": "South-East", "남서향": "South-West", "남향": "South",
	"저층": "Low", "중층": "Mid", "고층": "High",
	"1단지": "Complex 1", "2단지": "Complex 2", "3단지": "Complex 3", "4단지": "Complex 4",
}

// Label returns the English caption for a facet value, or the value itself.
func Label(value string) string {
	if l, ok := labels[value]; ok {
		return l
	}
	return value
}

type (
	// ImageRecord is one photo in the gallery. Records are never edited after creation.
	ImageRecord struct {
		ID          string        `json:"id" yaml:"id"`
		PropertyID  string        `json:"propertyId" yaml:"propertyId"`
		Category    Category      `json:"category" yaml:"category"`
		Complex     Complex       `json:"complex" yaml:"complex"`
		Type        ApartmentType `json:"type" yaml:"type"`
		Space       Space         `json:"space" yaml:"space"`
		Orientation Orientation   `json:"orientation" yaml:"orientation"`
		FloorLevel  FloorLevel    `json:"floorLevel" yaml:"floorLevel"`
		// ImageURL is either a remote URL or an embedded data URI.
		ImageURL  string `json:"imageUrl" yaml:"imageUrl"`
		CreatedAt string `json:"createdAt" yaml:"createdAt"`
		// ObjectKey is set when the image bytes live in object storage.
		ObjectKey string `json:"-" yaml:"objectKey,omitempty"`
	}

	Property struct {
		ID        string `json:"id" yaml:"id"`
		Name      string `json:"name" yaml:"name"`
		Complex   string `json:"complex" yaml:"complex"`
		Address   string `json:"address" yaml:"address"`
		CreatedAt string `json:"createdAt" yaml:"createdAt"`
		// YoutubeURL is the property-level video used when no category video exists.
		YoutubeURL string `json:"youtubeUrl,omitempty" yaml:"youtubeUrl,omitempty"`
	}
)

func ValidCategory(v string) bool {
	for _, c := range Categories {
		if string(c) == v {
			return true
		}
	}
	return false
}

func ValidComplex(v string) bool {
	_, ok := ComplexTypes[Complex(v)]
	return ok
}

func ValidSpace(v string) bool {
	for _, s := range Spaces {
		if string(s) == v {
			return true
		}
	}
	return false
}

func ValidOrientation(v string) bool {
	for _, o := range Orientations {
		if string(o) == v {
			return true
		}
	}
	return false
}

func ValidFloorLevel(v string) bool {
	for _, f := range FloorLevels {
		if string(f) == v {
			return true
		}
	}
	return false
}

// ValidType reports whether v is an apartment type built in any complex.
func ValidType(v string) bool {
	for _, t := range TypeCandidates(All) {
		if string(t) == v {
			return true
		}
	}
	return false
}

// TypeBelongs reports whether apartment type t exists in complex c.
func TypeBelongs(c Complex, t ApartmentType) bool {
	for _, candidate := range ComplexTypes[c] {
		if candidate == t {
			return true
		}
	}
	return false
}

// TypeCandidates returns the apartment types selectable for complexName. For the
// wildcard it returns the union over all complexes, deduplicated and sorted.
func TypeCandidates(complexName string) []ApartmentType {
	if complexName != All {
		types := ComplexTypes[Complex(complexName)]
		result := make([]ApartmentType, len(types))
		copy(result, types)
		return result
	}
	seen := make(map[ApartmentType]bool)
	result := make([]ApartmentType, 0, 9)
	for _, c := range Complexes {
		for _, t := range ComplexTypes[c] {
			if !seen[t] {
				seen[t] = true
				result = append(result, t)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
