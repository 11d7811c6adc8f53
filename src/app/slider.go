package app

type SliderState int

const (
	SliderIdle SliderState = iota
	SliderDragging
)

// InitialPosition centers the divider for every new pair.
const InitialPosition = 50.0

func (s SliderState) String() string {
	if s == SliderDragging {
		return "dragging"
	}
	return "idle"
}

// Region is the on-screen bounding box of the comparison surface, read by
// the client at the moment of each event.
type Region struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point lies inside the region. A zero height
// means the vertical extent is unknown and only x is checked.
func (r Region) Contains(x, y float64) bool {
	if x < r.Left || x > r.Left+r.Width {
		return false
	}
	if r.Height <= 0 {
		return true
	}
	return y >= r.Top && y <= r.Top+r.Height
}

// RevealFraction maps a horizontal pointer coordinate to the percentage of
// the region covered by the left image. Coordinates outside are clamped.
func RevealFraction(clientX float64, r Region) float64 {
	x := clientX
	if x < r.Left {
		x = r.Left
	}
	if x > r.Left+r.Width {
		x = r.Left + r.Width
	}
	return 100 * (x - r.Left) / r.Width
}

// Slider tracks the drag-to-reveal divider between two images.
type Slider struct {
	state    SliderState
	position float64
	left     string
	right    string
}

func NewSlider() Slider {
	return Slider{position: InitialPosition}
}

// Attach binds the slider to a pair of images. A different pair recenters
// the divider and ends any drag in progress.
func (s *Slider) Attach(left, right string) {
	if s.left == left && s.right == right && s.left != "" {
		return
	}
	s.left, s.right = left, right
	s.position = InitialPosition
	s.state = SliderIdle
}

func (s *Slider) Pair() (string, string) {
	return s.left, s.right
}

func (s *Slider) Position() float64 {
	return s.position
}

func (s *Slider) State() SliderState {
	return s.state
}

// PointerDown starts a drag when the press lands inside the region.
func (s *Slider) PointerDown(x, y float64, r Region) bool {
	if !r.Contains(x, y) {
		return false
	}
	s.state = SliderDragging
	return true
}

// PointerUp ends the drag. Releases are accepted from anywhere in the
// document, including outside the region.
func (s *Slider) PointerUp() {
	s.state = SliderIdle
}

// PointerMove recomputes the position while dragging. Moves while idle and
// regions without width are ignored.
func (s *Slider) PointerMove(clientX float64, r Region) bool {
	if s.state != SliderDragging || r.Width <= 0 {
		return false
	}
	s.position = RevealFraction(clientX, r)
	return true
}

// TouchMove behaves like PointerMove and reports whether the client should
// cancel the default scroll for the event. Cancelling is only requested
// while dragging and only for cancelable events.
func (s *Slider) TouchMove(clientX float64, r Region, cancelable bool) bool {
	if s.state != SliderDragging {
		return false
	}
	s.PointerMove(clientX, r)
	return cancelable
}
