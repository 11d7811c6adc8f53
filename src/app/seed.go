package app

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the initial content of the gallery.
type Seed struct {
	Property Property      `yaml:"property"`
	Images   []ImageRecord `yaml:"images"`
	Videos   VideoMap      `yaml:"videos"`
}

const (
	mockPropertyID = "prop-101"
	mockCreatedAt  = "2024-05-22"
	mockVideo      = "https://www.youtube.com/embed/dQw4w9WgXcQ"
)

var mockSpaces = []Space{SpaceLiving, SpaceKitchen, SpaceMaster, SpaceBathLiving}

func MockProperty() Property {
	return Property{
		ID:         mockPropertyID,
		Name:       "창원중동유니시티아파트",
		Complex:    "유니시티 3단지",
		Address:    "경상남도 창원시 의창구 중동로 59",
		CreatedAt:  mockCreatedAt,
		YoutubeURL: mockVideo,
	}
}

func MockVideos() VideoMap {
	return VideoMap{
		string(CategoryInterior):  mockVideo,
		string(CategoryExterior):  mockVideo,
		string(CategoryView):      mockVideo,
		string(CategoryCommunity): mockVideo,
	}
}

// MockImages produces one interior photo per complex, apartment type and one
// of four fixed spaces, numbered img-0 upwards in that order.
func MockImages() []ImageRecord {
	images := make([]ImageRecord, 0, 104)
	count := 0
	for _, c := range Complexes {
		for _, t := range ComplexTypes[c] {
			for _, s := range mockSpaces {
				seed := url.PathEscape(fmt.Sprintf("unicity-%s-%s-%s", c, t, s))
				images = append(images, ImageRecord{
					ID:          fmt.Sprintf("img-%d", count),
					PropertyID:  mockPropertyID,
					Category:    CategoryInterior,
					Complex:     c,
					Type:        t,
					Space:       s,
					Orientation: OrientationSouth,
					FloorLevel:  FloorMid,
					ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", seed),
					CreatedAt:   mockCreatedAt,
				})
				count++
			}
		}
	}
	return images
}

func MockSeed() Seed {
	return Seed{Property: MockProperty(), Images: MockImages(), Videos: MockVideos()}
}

// LoadSeed reads a YAML seed file. An empty path yields the mock seed.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return MockSeed(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("can not read seed %s: %w", path, err)
	}
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("can not parse seed %s: %w", path, err)
	}
	if err := seed.Check(); err != nil {
		return Seed{}, fmt.Errorf("invalid seed %s: %w", path, err)
	}
	if seed.Videos == nil {
		seed.Videos = VideoMap{}
	}
	return seed, nil
}

// Check verifies ids are unique and every apartment type belongs to its
// complex, the same rule applied to uploads.
func (s Seed) Check() error {
	seen := make(map[string]bool, len(s.Images))
	for _, img := range s.Images {
		if img.ID == "" {
			return fmt.Errorf("image without id")
		}
		if seen[img.ID] {
			return fmt.Errorf("duplicate image id %q", img.ID)
		}
		seen[img.ID] = true
		if !TypeBelongs(img.Complex, img.Type) {
			return fmt.Errorf("image %s: type %s is not built in %s", img.ID, img.Type, img.Complex)
		}
	}
	return nil
}

// WriteSeed stores s as YAML at path.
func WriteSeed(path string, s Seed) error {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("can not encode seed: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("can not write seed %s: %w", path, err)
	}
	return nil
}
