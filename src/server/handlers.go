package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	app "photozone/src/app"
	cfg "photozone/src/configuration"
	db "photozone/src/repository"
)

type (
	AppHandler struct {
		catalog  db.CatalogDB
		sessions db.SessionDB
		s3       *app.MinioS3Client
		property app.Property
		reports  *app.ReportGenerator
		ids      *app.IDSource
		upgrader websocket.Upgrader
		now      func() time.Time

		cookieName string
		sessionTTL time.Duration
		maxBytes   int64
		maxEdge    int
	}

	// Services are the stores a handler works on. S3 is nil when uploads are
	// kept as data URIs.
	Services struct {
		Catalog  db.CatalogDB
		Sessions db.SessionDB
		S3       *app.MinioS3Client
		Property app.Property
	}

	FacetOption struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}

	FacetsResponse struct {
		Categories   []FacetOption `json:"categories"`
		Complexes    []FacetOption `json:"complexes"`
		Types        []FacetOption `json:"types"`
		Spaces       []FacetOption `json:"spaces"`
		Orientations []FacetOption `json:"orientations"`
		FloorLevels  []FacetOption `json:"floorLevels"`
	}

	GalleryResponse struct {
		Filter    app.FilterState     `json:"filter"`
		Images    []GalleryImage      `json:"images"`
		Count     int                 `json:"count"`
		Selection app.ViewerState     `json:"selection"`
		Video     string              `json:"video"`
		Types     []app.ApartmentType `json:"types"`
	}

	// GalleryImage is a catalog record with its place in the viewer's
	// selection, 0 when not selected.
	GalleryImage struct {
		app.ImageRecord
		Selected int `json:"selected"`
	}

	// FilterPatch changes only the facets present in the request.
	FilterPatch struct {
		Category *string `json:"category"`
		Complex  *string `json:"complex"`
		Type     *string `json:"type"`
		Space    *string `json:"space"`
	}

	VideoBody struct {
		Category string `json:"category" binding:"required"`
		URL      string `json:"url"`
	}
)

const viewerKey = "viewer"

func NewHandler(config *cfg.Properties, services Services) (*AppHandler, error) {
	if config == nil {
		return nil, fmt.Errorf("config is not valid")
	}
	if services.Catalog == nil || services.Sessions == nil {
		return nil, fmt.Errorf("catalog and session stores are required")
	}
	if !services.Sessions.Connect() {
		return nil, fmt.Errorf("can not connect to session store")
	}
	return &AppHandler{
		catalog:  services.Catalog,
		sessions: services.Sessions,
		s3:       services.S3,
		property: services.Property,
		reports:  app.NewReportGenerator(config.Report.Delay, config.Report.Contact),
		ids:      &app.IDSource{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now:        time.Now,
		cookieName: config.Server.SessionCookie,
		sessionTTL: config.Server.SessionIdle,
		maxBytes:   config.Upload.MaxBytes,
		maxEdge:    config.Upload.MaxEdge,
	}, nil
}

func success(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": payload})
}

func failure(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, gin.H{"status": "error", "message": err.Error()})
}

// withViewer attaches the caller's session, creating one and setting the
// cookie when the request carries none or an expired one.
func (a *AppHandler) withViewer(c *gin.Context) {
	if token, err := c.Cookie(a.cookieName); err == nil && token != "" {
		if v, ok := a.sessions.Get(token); ok {
			c.Set(viewerKey, v)
			c.Next()
			return
		}
	}
	v, err := a.sessions.Create()
	if err != nil {
		slog.Error("can not create viewer session", "error", err)
		failure(c, http.StatusInternalServerError, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.cookieName, v.Token, int(a.sessionTTL/time.Second), "/", "", false, true)
	c.Set(viewerKey, v)
	c.Next()
}

func viewerOf(c *gin.Context) *app.Viewer {
	return c.MustGet(viewerKey).(*app.Viewer)
}

func (a *AppHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (a *AppHandler) GetProperty(c *gin.Context) {
	success(c, a.property)
}

func options[T ~string](values []T, withAll bool) []FacetOption {
	out := make([]FacetOption, 0, len(values)+1)
	if withAll {
		out = append(out, FacetOption{Value: app.All, Label: app.Label(app.All)})
	}
	for _, v := range values {
		out = append(out, FacetOption{Value: string(v), Label: app.Label(string(v))})
	}
	return out
}

// GetFacets lists the selectable values of every facet. The type list is
// narrowed to the complex given in the query.
func (a *AppHandler) GetFacets(c *gin.Context) {
	complexName := c.DefaultQuery("complex", app.All)
	if complexName != app.All && !app.ValidComplex(complexName) {
		failure(c, http.StatusBadRequest, fmt.Errorf("unknown complex %q", complexName))
		return
	}
	success(c, FacetsResponse{
		Categories:   options(app.Categories, true),
		Complexes:    options(app.Complexes, true),
		Types:        options(app.TypeCandidates(complexName), true),
		Spaces:       options(app.Spaces, true),
		Orientations: options(app.Orientations, false),
		FloorLevels:  options(app.FloorLevels, false),
	})
}

// GetImages filters the catalog by the query facets without touching any
// session.
func (a *AppHandler) GetImages(c *gin.Context) {
	filter := app.ParseFilter(c.Request.URL.Query())
	images := app.Apply(a.catalog.List(), filter)
	filterQueries.WithLabelValues("query").Inc()
	filterResults.Observe(float64(len(images)))
	success(c, gin.H{"filter": filter, "images": images, "count": len(images)})
}

func (a *AppHandler) gallery(v *app.Viewer) GalleryResponse {
	var (
		filter app.FilterState
		state  app.ViewerState
		index  = map[string]int{}
	)
	v.Do(func(tx *app.ViewerTx) {
		filter = tx.Filter()
		state = tx.State()
		for _, id := range state.Selection {
			index[id] = tx.Selection().Index(id)
		}
	})
	images := app.Apply(a.catalog.List(), filter)
	filterQueries.WithLabelValues("gallery").Inc()
	filterResults.Observe(float64(len(images)))

	result := make([]GalleryImage, len(images))
	for i, img := range images {
		result[i] = GalleryImage{ImageRecord: img, Selected: index[img.ID]}
	}
	return GalleryResponse{
		Filter:    filter,
		Images:    result,
		Count:     len(result),
		Selection: state,
		Video:     a.catalog.Videos().Resolve(filter.Category, a.property.YoutubeURL),
		Types:     app.TypeCandidates(filter.Complex),
	}
}

func (a *AppHandler) GetGallery(c *gin.Context) {
	success(c, a.gallery(viewerOf(c)))
}

// PutGalleryFilter updates the viewer's facets. Switching complex drops an
// apartment type the new complex does not have.
func (a *AppHandler) PutGalleryFilter(c *gin.Context) {
	var patch FilterPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		failure(c, http.StatusBadRequest, fmt.Errorf("can not parse filter: %w", err))
		return
	}
	if err := patch.check(); err != nil {
		failure(c, http.StatusBadRequest, err)
		return
	}
	v := viewerOf(c)
	v.Do(func(tx *app.ViewerTx) {
		tx.SetFilter(patch.apply(tx.Filter()))
	})
	success(c, a.gallery(v))
}

func (p FilterPatch) check() error {
	checks := []struct {
		name  string
		value *string
		valid func(string) bool
	}{
		{"category", p.Category, app.ValidCategory},
		{"complex", p.Complex, app.ValidComplex},
		{"type", p.Type, app.ValidType},
		{"space", p.Space, app.ValidSpace},
	}
	for _, ch := range checks {
		if ch.value == nil || *ch.value == app.All || *ch.value == "" {
			continue
		}
		if !ch.valid(*ch.value) {
			return fmt.Errorf("unknown %s %q", ch.name, *ch.value)
		}
	}
	return nil
}

func (p FilterPatch) apply(f app.FilterState) app.FilterState {
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Type != nil {
		f.Type = *p.Type
	}
	if p.Space != nil {
		f.Space = *p.Space
	}
	if p.Complex != nil {
		c := *p.Complex
		if c == "" {
			c = app.All
		}
		f = f.Normalize().WithComplex(c)
	}
	return f
}

func (a *AppHandler) PostGalleryReset(c *gin.Context) {
	v := viewerOf(c)
	v.Do(func(tx *app.ViewerTx) {
		tx.SetFilter(app.NewFilter())
	})
	success(c, a.gallery(v))
}

// PostSelection toggles one image in the comparison pair.
func (a *AppHandler) PostSelection(c *gin.Context) {
	id := c.Param("id")
	if _, err := a.catalog.Get(id); err != nil {
		a.storeError(c, err)
		return
	}
	v := viewerOf(c)
	var state app.ViewerState
	v.Do(func(tx *app.ViewerTx) {
		ids := tx.Selection().Toggle(id)
		if len(ids) == app.SelectionLimit {
			tx.Slider().Attach(ids[0], ids[1])
		}
		state = tx.State()
	})
	selectionToggles.WithLabelValues(strconv.Itoa(len(state.Selection))).Inc()
	success(c, state)
}

func (a *AppHandler) DeleteSelection(c *gin.Context) {
	v := viewerOf(c)
	var state app.ViewerState
	v.Do(func(tx *app.ViewerTx) {
		tx.Selection().Clear()
		state = tx.State()
	})
	success(c, state)
}

// GetVideos resolves the video shown for a category tab, falling back to
// the All entry and then the property video.
func (a *AppHandler) GetVideos(c *gin.Context) {
	category := c.DefaultQuery("category", app.All)
	videos := a.catalog.Videos()
	success(c, gin.H{
		"category": category,
		"video":    videos.Resolve(category, a.property.YoutubeURL),
		"videos":   videos,
	})
}

func (a *AppHandler) PutVideos(c *gin.Context) {
	var videos app.VideoMap
	if err := c.ShouldBindJSON(&videos); err != nil {
		failure(c, http.StatusBadRequest, fmt.Errorf("can not parse videos: %w", err))
		return
	}
	for key := range videos {
		if !app.ValidVideoKey(key) {
			failure(c, http.StatusBadRequest, fmt.Errorf("unknown category %q", key))
			return
		}
	}
	catalogMutations.WithLabelValues("replace_videos").Inc()
	success(c, a.catalog.ReplaceVideos(videos))
}

func (a *AppHandler) PostVideo(c *gin.Context) {
	var body VideoBody
	if err := c.ShouldBindJSON(&body); err != nil {
		failure(c, http.StatusBadRequest, fmt.Errorf("can not parse video: %w", err))
		return
	}
	if !app.ValidVideoKey(body.Category) {
		failure(c, http.StatusBadRequest, fmt.Errorf("unknown category %q", body.Category))
		return
	}
	catalogMutations.WithLabelValues("set_video").Inc()
	success(c, a.catalog.SetVideo(body.Category, body.URL))
}

func (a *AppHandler) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		failure(c, http.StatusNotFound, err)
	case errors.Is(err, db.ErrDuplicateID):
		failure(c, http.StatusConflict, err)
	default:
		slog.Error("catalog operation failed", "error", err)
		failure(c, http.StatusInternalServerError, err)
	}
}
