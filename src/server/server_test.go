package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "photozone/src/app"
	cfg "photozone/src/configuration"
	db "photozone/src/repository"
)

type envelope struct {
	Status   string          `json:"status"`
	Message  string          `json:"message"`
	Redirect string          `json:"redirect"`
	Payload  json.RawMessage `json:"payload"`
}

// client replays the session cookie like a browser would.
type client struct {
	t       *testing.T
	router  http.Handler
	handler *AppHandler
	cookie  *http.Cookie
}

func newTestServer(t *testing.T) (*client, *db.InMemoryCatalog, *db.InMemorySessions) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config, err := cfg.ReadProperties()
	require.NoError(t, err)
	config.Report.Delay = 0
	config.Upload.MaxEdge = 64

	catalog, err := db.NewCatalog(app.MockSeed())
	require.NoError(t, err)
	pins := db.NewMemoryPinStore(app.DefaultPin)
	sessions, err := db.NewSessionStore(config, func() *app.PinPad {
		return app.NewPinPad(pins, app.WithScheduler(func(_ time.Duration, f func()) { f() }))
	})
	require.NoError(t, err)
	handler, err := NewHandler(config, Services{Catalog: catalog, Sessions: sessions, Property: app.MockProperty()})
	require.NoError(t, err)
	router, err := NewRouter(config, handler, nil)
	require.NoError(t, err)
	return &client{t: t, router: router, handler: handler}, catalog, sessions
}

func (c *client) do(method, path string, body any) (int, envelope) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func (c *client) send(req *http.Request) (int, envelope) {
	c.t.Helper()
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "pz_session" {
			c.cookie = ck
		}
	}
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestPublicRoutes(t *testing.T) {
	c, _, _ := newTestServer(t)

	t.Run("health", func(t *testing.T) {
		code, env := c.do(http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "success", env.Status)
	})

	t.Run("facets narrow types", func(t *testing.T) {
		code, env := c.do(http.MethodGet, "/facets?complex="+url.QueryEscape("2단지"), nil)
		require.Equal(t, http.StatusOK, code)
		facets := decode[FacetsResponse](t, env.Payload)
		assert.Len(t, facets.Types, 6)
		assert.Equal(t, app.All, facets.Types[0].Value)

		code, _ = c.do(http.MethodGet, "/facets?complex="+url.QueryEscape("9단지"), nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("stateless image filter", func(t *testing.T) {
		code, env := c.do(http.MethodGet, "/images?complex="+url.QueryEscape("4단지")+"&type=48ty", nil)
		require.Equal(t, http.StatusOK, code)
		payload := decode[struct {
			Count  int               `json:"count"`
			Images []app.ImageRecord `json:"images"`
		}](t, env.Payload)
		assert.Equal(t, 4, payload.Count)
	})

	t.Run("unknown route", func(t *testing.T) {
		code, env := c.do(http.MethodGet, "/nope", nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "error", env.Status)
	})
}

func TestGalleryFilter(t *testing.T) {
	c, _, _ := newTestServer(t)

	code, env := c.do(http.MethodGet, "/gallery", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 104, decode[GalleryResponse](t, env.Payload).Count)
	require.NotNil(t, c.cookie)

	complex1, type47 := "1단지", "47ty"
	code, env = c.do(http.MethodPut, "/gallery/filter", FilterPatch{Complex: &complex1, Type: &type47})
	require.Equal(t, http.StatusOK, code)
	gallery := decode[GalleryResponse](t, env.Payload)
	assert.Equal(t, 4, gallery.Count)

	complex2 := "2단지"
	_, env = c.do(http.MethodPut, "/gallery/filter", FilterPatch{Complex: &complex2})
	gallery = decode[GalleryResponse](t, env.Payload)
	assert.Equal(t, app.All, gallery.Filter.Type)
	assert.Equal(t, 20, gallery.Count)
	assert.Len(t, gallery.Types, 5)

	bad := "basement"
	code, _ = c.do(http.MethodPut, "/gallery/filter", FilterPatch{Space: &bad})
	assert.Equal(t, http.StatusBadRequest, code)

	_, env = c.do(http.MethodPost, "/gallery/reset", nil)
	assert.True(t, decode[GalleryResponse](t, env.Payload).Filter.IsAll())
}

func TestCompareFlow(t *testing.T) {
	c, _, _ := newTestServer(t)

	code, _ := c.do(http.MethodGet, "/compare", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	c.do(http.MethodPost, "/selection/img-3", nil)
	_, env := c.do(http.MethodPost, "/selection/img-7", nil)
	state := decode[app.ViewerState](t, env.Payload)
	assert.Equal(t, []string{"img-3", "img-7"}, state.Selection)
	assert.True(t, state.Ready)

	_, env = c.do(http.MethodPost, "/selection/img-9", nil)
	assert.Equal(t, []string{"img-3", "img-7"}, decode[app.ViewerState](t, env.Payload).Selection)

	code, _ = c.do(http.MethodPost, "/selection/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = c.do(http.MethodGet, "/compare", nil)
	require.Equal(t, http.StatusOK, code)
	cmp := decode[CompareResponse](t, env.Payload)
	assert.Equal(t, "img-3", cmp.Left.ID)
	assert.Equal(t, "img-7", cmp.Right.ID)
	assert.Equal(t, app.InitialPosition, cmp.Slider.Position)

	region := app.Region{Left: 100, Width: 400, Height: 300}
	c.do(http.MethodPost, "/compare/pointer", PointerEvent{Type: "down", X: 300, Y: 150, Region: region})
	_, env = c.do(http.MethodPost, "/compare/pointer", PointerEvent{Type: "move", X: 400, Region: region})
	view := decode[SliderView](t, env.Payload)
	assert.Equal(t, 75.0, view.Position)
	assert.Equal(t, "dragging", view.State)
	_, env = c.do(http.MethodPost, "/compare/pointer", PointerEvent{Type: "touchmove", X: 500, Region: region, Cancelable: true})
	view = decode[SliderView](t, env.Payload)
	assert.True(t, view.PreventDefault)
	assert.Equal(t, 100.0, view.Position)
	_, env = c.do(http.MethodPost, "/compare/pointer", PointerEvent{Type: "up"})
	assert.Equal(t, "idle", decode[SliderView](t, env.Payload).State)

	code, _ = c.do(http.MethodPost, "/compare/pointer", PointerEvent{Type: "wheel"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = c.do(http.MethodPost, "/compare/report", nil)
	require.Equal(t, http.StatusOK, code)
	report := decode[struct {
		Report string `json:"report"`
	}](t, env.Payload)
	assert.Contains(t, report.Report, "1단지")

	_, env = c.do(http.MethodDelete, "/selection", nil)
	assert.Empty(t, decode[app.ViewerState](t, env.Payload).Selection)
}

func TestCompareSocket(t *testing.T) {
	c, _, sessions := newTestServer(t)
	c.do(http.MethodPost, "/selection/img-3", nil)
	c.do(http.MethodPost, "/selection/img-7", nil)
	require.NotNil(t, c.cookie)

	later := time.Now().Add(time.Hour)
	c.handler.now = func() time.Time { return later }

	srv := httptest.NewServer(c.router)
	defer srv.Close()
	header := http.Header{}
	header.Add("Cookie", c.cookie.String())
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/compare/ws", header)
	require.NoError(t, err)
	defer ws.Close()

	exchange := func(ev PointerEvent) SliderView {
		t.Helper()
		require.NoError(t, ws.WriteJSON(ev))
		var view SliderView
		require.NoError(t, ws.ReadJSON(&view))
		return view
	}

	region := app.Region{Left: 100, Width: 400, Height: 300}
	view := exchange(PointerEvent{Type: "down", X: 300, Y: 150, Region: region})
	assert.Equal(t, "dragging", view.State)
	assert.Equal(t, app.InitialPosition, view.Position)

	view = exchange(PointerEvent{Type: "move", X: 50, Region: region})
	assert.Equal(t, 0.0, view.Position)

	view = exchange(PointerEvent{Type: "up"})
	assert.Equal(t, "idle", view.State)

	view = exchange(PointerEvent{Type: "move", X: 450, Region: region})
	assert.Equal(t, 0.0, view.Position)
	assert.Equal(t, "idle", view.State)

	require.NoError(t, ws.WriteJSON(PointerEvent{Type: "bogus"}))
	var reply envelope
	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Status)
	assert.Contains(t, reply.Message, "bogus")

	t.Run("events keep the session alive", func(t *testing.T) {
		sessions.Range(func(v *app.Viewer) {
			assert.Zero(t, v.IdleSince(later))
		})
		assert.Zero(t, sessions.Sweep(later.Add(time.Minute)))
		assert.Equal(t, 1, sessions.Len())
	})
}

func uploadRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, image.NewRGBA(image.Rect(0, 0, 128, 96))))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/images", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestAdminFlow(t *testing.T) {
	c, catalog, _ := newTestServer(t)
	fields := map[string]string{"category": "내부", "complex": "1단지", "type": "47ty", "space": "주방"}

	code, env := c.send(uploadRequest(t, fields))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, pinPath, env.Redirect)

	_, env = c.do(http.MethodGet, pinPath, nil)
	assert.True(t, decode[PinResponse](t, env.Payload).Pad.Open, "401 opens the pad")

	_, env = c.do(http.MethodPost, pinPath+"/digit", PinInput{Digits: "0000"})
	pin := decode[PinResponse](t, env.Payload)
	assert.Equal(t, "rejected", pin.Outcome)
	assert.False(t, pin.Admin)

	_, env = c.do(http.MethodPost, pinPath+"/digit", PinInput{Digits: "1234"})
	pin = decode[PinResponse](t, env.Payload)
	assert.Equal(t, "authenticated", pin.Outcome)
	assert.True(t, pin.Admin)

	t.Run("invalid metadata", func(t *testing.T) {
		bad := map[string]string{"category": "내부", "complex": "2단지", "type": "47ty", "space": "주방"}
		code, env := c.send(uploadRequest(t, bad))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.True(t, strings.HasPrefix(env.Message, app.ErrInvalidMetadata.Error()))
	})

	var uploaded app.ImageRecord
	t.Run("upload", func(t *testing.T) {
		code, env := c.send(uploadRequest(t, fields))
		require.Equal(t, http.StatusOK, code, env.Message)
		uploaded = decode[app.ImageRecord](t, env.Payload)
		assert.True(t, strings.HasPrefix(uploaded.ID, "local-"))
		assert.True(t, strings.HasPrefix(uploaded.ImageURL, "data:image/jpeg;base64,"))
		assert.Equal(t, app.OrientationSouth, uploaded.Orientation)
		assert.Equal(t, uploaded.ID, catalog.List()[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		c.do(http.MethodPost, "/selection/"+uploaded.ID, nil)

		code, _ := c.do(http.MethodDelete, "/images/"+uploaded.ID, nil)
		assert.Equal(t, http.StatusPreconditionRequired, code)

		code, _ = c.do(http.MethodDelete, "/images/"+uploaded.ID+"?confirm=true", nil)
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, catalog.List(), 104)

		_, env := c.do(http.MethodGet, "/gallery", nil)
		assert.Empty(t, decode[GalleryResponse](t, env.Payload).Selection.Selection)

		code, _ = c.do(http.MethodDelete, "/images/"+uploaded.ID+"?confirm=true", nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("videos", func(t *testing.T) {
		code, env := c.do(http.MethodPost, "/videos", VideoBody{Category: "조망", URL: "https://youtu.be/abcdefghijk"})
		require.Equal(t, http.StatusOK, code)
		videos := decode[app.VideoMap](t, env.Payload)
		assert.Equal(t, "https://www.youtube.com/embed/abcdefghijk", videos["조망"])

		_, env = c.do(http.MethodGet, "/videos?category="+url.QueryEscape("조망"), nil)
		resolved := decode[struct {
			Video string `json:"video"`
		}](t, env.Payload)
		assert.Equal(t, "https://www.youtube.com/embed/abcdefghijk", resolved.Video)

		code, _ = c.do(http.MethodPost, "/videos", VideoBody{Category: "basement", URL: "x"})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("logout", func(t *testing.T) {
		_, env := c.do(http.MethodPost, "/admin/logout", nil)
		assert.False(t, decode[PinResponse](t, env.Payload).Admin)
		code, _ := c.do(http.MethodPut, "/videos", app.VideoMap{})
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}

func TestPinChangeOverHTTP(t *testing.T) {
	c, _, _ := newTestServer(t)
	c.do(http.MethodPost, pinPath+"/open", nil)

	code, env := c.do(http.MethodPost, pinPath+"/change", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "enter-current", decode[PinResponse](t, env.Payload).Pad.Stage)

	code, _ = c.do(http.MethodPost, pinPath+"/change", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	c.do(http.MethodPost, pinPath+"/digit", PinInput{Digits: "1234"})
	c.do(http.MethodPost, pinPath+"/digit", PinInput{Digits: "9999"})
	_, env = c.do(http.MethodPost, pinPath+"/digit", PinInput{Digits: "9999"})
	pin := decode[PinResponse](t, env.Payload)
	assert.Equal(t, "pin_changed", pin.Outcome)
	assert.Equal(t, "verifying", pin.Pad.Stage)

	_, env = c.do(http.MethodPost, pinPath+"/digit", PinInput{Digit: "9"})
	assert.Equal(t, "pending", decode[PinResponse](t, env.Payload).Outcome)
	_, env = c.do(http.MethodPost, pinPath+"/clear", nil)
	assert.Equal(t, 0, decode[PinResponse](t, env.Payload).Pad.Filled)
	_, env = c.do(http.MethodPost, pinPath+"/digit", PinInput{Digits: "9999"})
	assert.True(t, decode[PinResponse](t, env.Payload).Admin)

	_, env = c.do(http.MethodPost, pinPath+"/cancel", nil)
	assert.False(t, decode[PinResponse](t, env.Payload).Pad.Open)
}
