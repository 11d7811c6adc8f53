package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	app "photozone/src/app"
)

var (
	ErrNotFound    = errors.New("image not found")
	ErrDuplicateID = errors.New("image id already exists")
)

type (
	// CatalogDB owns the ordered image list and the category videos.
	CatalogDB interface {
		List() []app.ImageRecord
		Get(id string) (app.ImageRecord, error)
		Create(img app.ImageRecord) error
		Delete(id string) (app.ImageRecord, error)
		Videos() app.VideoMap
		SetVideo(category, url string) app.VideoMap
		ReplaceVideos(videos app.VideoMap) app.VideoMap
	}

	InMemoryCatalog struct {
		mu     sync.RWMutex
		images []app.ImageRecord
		videos app.VideoMap
	}
)

func NewCatalog(seed app.Seed) (*InMemoryCatalog, error) {
	if err := seed.Check(); err != nil {
		return nil, fmt.Errorf("can not load catalog: %w", err)
	}
	images := make([]app.ImageRecord, len(seed.Images))
	copy(images, seed.Images)
	videos := app.VideoMap(seed.Videos).Clone()
	slog.Info("catalog loaded", "images", len(images), "videos", len(videos))
	return &InMemoryCatalog{images: images, videos: videos}, nil
}

// List returns a snapshot of the catalog, newest uploads first.
func (c *InMemoryCatalog) List() []app.ImageRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]app.ImageRecord, len(c.images))
	copy(out, c.images)
	return out
}

func (c *InMemoryCatalog) Get(id string) (app.ImageRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, img := range c.images {
		if img.ID == id {
			return img, nil
		}
	}
	return app.ImageRecord{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}

// Create puts a new upload at the front of the catalog.
func (c *InMemoryCatalog) Create(img app.ImageRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.images {
		if existing.ID == img.ID {
			return fmt.Errorf("%s: %w", img.ID, ErrDuplicateID)
		}
	}
	c.images = append([]app.ImageRecord{img}, c.images...)
	return nil
}

func (c *InMemoryCatalog) Delete(id string) (app.ImageRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, img := range c.images {
		if img.ID == id {
			c.images = append(c.images[:i:i], c.images[i+1:]...)
			return img, nil
		}
	}
	return app.ImageRecord{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}

func (c *InMemoryCatalog) Videos() app.VideoMap {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.videos.Clone()
}

// SetVideo points category at url. An empty url removes the entry.
func (c *InMemoryCatalog) SetVideo(category, url string) app.VideoMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos = c.videos.With(category, url)
	return c.videos.Clone()
}

// ReplaceVideos swaps the whole map, normalizing every entry.
func (c *InMemoryCatalog) ReplaceVideos(videos app.VideoMap) app.VideoMap {
	next := app.VideoMap{}
	for k, v := range videos {
		next = next.With(k, v)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos = next
	return next.Clone()
}
