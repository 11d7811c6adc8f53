package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	app "photozone/src/app"
)

type (
	// PointerEvent is one pointer or touch event on the comparison surface.
	// Region is the surface's bounding box measured when the event fired.
	PointerEvent struct {
		Type       string     `json:"type" binding:"required,oneof=down move up touchmove"`
		X          float64    `json:"x"`
		Y          float64    `json:"y"`
		Region     app.Region `json:"region"`
		Cancelable bool       `json:"cancelable"`
	}

	SliderView struct {
		Left           string  `json:"left"`
		Right          string  `json:"right"`
		Position       float64 `json:"position"`
		State          string  `json:"state"`
		PreventDefault bool    `json:"preventDefault"`
	}

	CompareResponse struct {
		Left   app.ImageRecord `json:"left"`
		Right  app.ImageRecord `json:"right"`
		Slider SliderView      `json:"slider"`
	}
)

var errNotReady = errors.New("select two images to compare")

// pair returns the two selected records, attaching the slider to them.
func (a *AppHandler) pair(v *app.Viewer) (app.ImageRecord, app.ImageRecord, SliderView, error) {
	var (
		ids  []string
		view SliderView
	)
	v.Do(func(tx *app.ViewerTx) {
		ids = tx.Selection().IDs()
		if len(ids) == app.SelectionLimit {
			tx.Slider().Attach(ids[0], ids[1])
		}
		view = sliderView(tx.Slider(), false)
	})
	if len(ids) != app.SelectionLimit {
		return app.ImageRecord{}, app.ImageRecord{}, view, errNotReady
	}
	left, err := a.catalog.Get(ids[0])
	if err != nil {
		return app.ImageRecord{}, app.ImageRecord{}, view, err
	}
	right, err := a.catalog.Get(ids[1])
	if err != nil {
		return app.ImageRecord{}, app.ImageRecord{}, view, err
	}
	return left, right, view, nil
}

func sliderView(s *app.Slider, prevent bool) SliderView {
	left, right := s.Pair()
	return SliderView{
		Left:           left,
		Right:          right,
		Position:       s.Position(),
		State:          s.State().String(),
		PreventDefault: prevent,
	}
}

func (a *AppHandler) compareError(c *gin.Context, err error) {
	if errors.Is(err, errNotReady) {
		failure(c, http.StatusBadRequest, err)
		return
	}
	a.storeError(c, err)
}

func (a *AppHandler) GetCompare(c *gin.Context) {
	left, right, view, err := a.pair(viewerOf(c))
	if err != nil {
		a.compareError(c, err)
		return
	}
	success(c, CompareResponse{Left: left, Right: right, Slider: view})
}

// applyPointer feeds one event to the viewer's slider. Events without a
// comparison pair leave the slider alone.
func applyPointer(v *app.Viewer, ev PointerEvent) SliderView {
	var view SliderView
	v.Do(func(tx *app.ViewerTx) {
		s := tx.Slider()
		prevent := false
		if tx.Selection().Ready() {
			switch ev.Type {
			case "down":
				s.PointerDown(ev.X, ev.Y, ev.Region)
			case "move":
				s.PointerMove(ev.X, ev.Region)
			case "up":
				s.PointerUp()
			case "touchmove":
				prevent = s.TouchMove(ev.X, ev.Region, ev.Cancelable)
			}
		}
		view = sliderView(s, prevent)
	})
	return view
}

func (a *AppHandler) PostComparePointer(c *gin.Context) {
	var ev PointerEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		failure(c, http.StatusBadRequest, fmt.Errorf("can not parse pointer event: %w", err))
		return
	}
	success(c, applyPointer(viewerOf(c), ev))
}

// CompareSocket streams pointer events over a websocket and answers each
// with the slider state. Unknown event types are reported and skipped.
func (a *AppHandler) CompareSocket(c *gin.Context) {
	v := viewerOf(c)
	ws, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()

	for {
		var ev PointerEvent
		if err := ws.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("slider socket closed", "error", err)
			}
			return
		}
		v.Touch(a.now())
		var reply any
		switch ev.Type {
		case "down", "move", "up", "touchmove":
			reply = applyPointer(v, ev)
		default:
			reply = gin.H{"status": "error", "message": fmt.Sprintf("unknown event %q", ev.Type)}
		}
		if err := ws.WriteJSON(reply); err != nil {
			slog.Warn("failed to write slider state", "error", err)
			return
		}
	}
}

// PostCompareReport waits for the canned analysis of the current pair. A
// client that disconnects first gets nothing.
func (a *AppHandler) PostCompareReport(c *gin.Context) {
	left, right, _, err := a.pair(viewerOf(c))
	if err != nil {
		a.compareError(c, err)
		return
	}
	start := time.Now()
	report, err := a.reports.Generate(c.Request.Context(), left, right)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			reportDuration.WithLabelValues("cancelled").Observe(time.Since(start).Seconds())
			slog.Debug("report discarded", "error", err)
			c.Abort()
			return
		}
		reportDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		failure(c, http.StatusInternalServerError, err)
		return
	}
	reportDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	success(c, gin.H{"left": left.ID, "right": right.ID, "report": report})
}
