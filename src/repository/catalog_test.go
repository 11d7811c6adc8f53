package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "photozone/src/app"
)

func TestInMemoryCatalog(t *testing.T) {
	catalog, err := NewCatalog(app.MockSeed())
	require.NoError(t, err)

	t.Run("List", func(t *testing.T) {
		images := catalog.List()
		assert.Len(t, images, 104)
		assert.Equal(t, "img-0", images[0].ID)

		images[0].ID = "changed"
		assert.Equal(t, "img-0", catalog.List()[0].ID, "List must return a copy")
	})

	t.Run("Create prepends", func(t *testing.T) {
		img := app.ImageRecord{ID: "local-1", Complex: app.Complex1, Type: app.Type47}
		require.NoError(t, catalog.Create(img))
		assert.Equal(t, "local-1", catalog.List()[0].ID)
		assert.Len(t, catalog.List(), 105)

		err := catalog.Create(img)
		assert.True(t, errors.Is(err, ErrDuplicateID))
	})

	t.Run("Get", func(t *testing.T) {
		img, err := catalog.Get("img-5")
		require.NoError(t, err)
		assert.Equal(t, "img-5", img.ID)

		_, err = catalog.Get("missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Delete", func(t *testing.T) {
		removed, err := catalog.Delete("local-1")
		require.NoError(t, err)
		assert.Equal(t, app.Type47, removed.Type)
		assert.Len(t, catalog.List(), 104)

		_, err = catalog.Delete("local-1")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Videos", func(t *testing.T) {
		videos := catalog.SetVideo(string(app.CategoryView), "https://youtu.be/abcdefghijk")
		assert.Equal(t, "https://www.youtube.com/embed/abcdefghijk", videos[string(app.CategoryView)])

		videos = catalog.SetVideo(string(app.CategoryView), "")
		_, ok := videos[string(app.CategoryView)]
		assert.False(t, ok)

		videos["mutated"] = "x"
		_, ok = catalog.Videos()["mutated"]
		assert.False(t, ok, "Videos must return a copy")

		replaced := catalog.ReplaceVideos(app.VideoMap{app.All: "https://www.youtube.com/watch?v=abcdefghijk"})
		assert.Equal(t, app.VideoMap{app.All: "https://www.youtube.com/embed/abcdefghijk"}, replaced)
	})
}

func TestNewCatalogRejectsBadSeed(t *testing.T) {
	seed := app.Seed{Images: []app.ImageRecord{
		{ID: "a", Complex: app.Complex2, Type: app.Type47},
	}}
	_, err := NewCatalog(seed)
	assert.Error(t, err)
}
