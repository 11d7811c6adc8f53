package app

import (
	"sync"
	"time"
)

// Viewer is the state one browser session carries while browsing the
// gallery: its facets, its comparison pair, the slider and the PIN pad.
type Viewer struct {
	mu sync.Mutex

	// Token identifies the session cookie.
	Token string
	// Pad is internally synchronized and may be used without Lock.
	Pad *PinPad

	filter    FilterState
	selection Selection
	slider    Slider
	admin     bool
	createdAt time.Time
	seenAt    time.Time
}

// ViewerState is the JSON view of a viewer used by the API.
type ViewerState struct {
	Filter    FilterState `json:"filter"`
	Selection []string    `json:"selection"`
	Ready     bool        `json:"ready"`
	Saturated bool        `json:"saturated"`
	Admin     bool        `json:"admin"`
}

func NewViewer(token string, pad *PinPad, now time.Time) *Viewer {
	return &Viewer{
		Token:     token,
		Pad:       pad,
		filter:    NewFilter(),
		slider:    NewSlider(),
		createdAt: now,
		seenAt:    now,
	}
}

// Do runs fn with exclusive access to the viewer. Events of one viewer are
// applied strictly one after another.
func (v *Viewer) Do(fn func(*ViewerTx)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&ViewerTx{v: v})
}

// Touch records activity for idle expiry.
func (v *Viewer) Touch(now time.Time) {
	v.mu.Lock()
	v.seenAt = now
	v.mu.Unlock()
}

func (v *Viewer) IdleSince(now time.Time) time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.seenAt)
}

func (v *Viewer) IsAdmin() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.admin
}

func (v *Viewer) SetAdmin(admin bool) {
	v.mu.Lock()
	v.admin = admin
	v.mu.Unlock()
}

func (v *Viewer) State() ViewerState {
	var s ViewerState
	v.Do(func(tx *ViewerTx) { s = tx.State() })
	return s
}

// ViewerTx exposes the viewer's fields inside Do.
type ViewerTx struct {
	v *Viewer
}

func (tx *ViewerTx) Filter() FilterState { return tx.v.filter }
func (tx *ViewerTx) SetFilter(f FilterState) { tx.v.filter = f.Normalize() }
func (tx *ViewerTx) Selection() *Selection { return &tx.v.selection }
func (tx *ViewerTx) Slider() *Slider { return &tx.v.slider }
func (tx *ViewerTx) Admin() bool { return tx.v.admin }

func (tx *ViewerTx) State() ViewerState {
	return ViewerState{
		Filter:    tx.v.filter,
		Selection: tx.v.selection.IDs(),
		Ready:     tx.v.selection.Ready(),
		Saturated: tx.v.selection.Saturated(),
		Admin:     tx.v.admin,
	}
}
