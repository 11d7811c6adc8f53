package app

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// PinLength is the number of digits in the admin PIN.
	PinLength = 4
	// DefaultPin is written back to the store on first start.
	DefaultPin = "1234"

	defaultResetDelay = 500 * time.Millisecond
)

// PinStore keeps the admin PIN between restarts. The gate is a convenience
// lock for the gallery owner, not a credential vault.
type PinStore interface {
	Get() (string, error)
	Set(pin string) error
}

type Outcome int

const (
	// OutcomeIgnored means the input had no effect (pad closed, buffer full, not a digit).
	OutcomeIgnored Outcome = iota
	OutcomePending
	OutcomeAuthenticated
	OutcomeRejected
	OutcomeAdvanced
	OutcomePinChanged
	OutcomeConfirmMismatch
	OutcomeStoreFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeIgnored:         "ignored",
	OutcomePending:         "pending",
	OutcomeAuthenticated:   "authenticated",
	OutcomeRejected:        "rejected",
	OutcomeAdvanced:        "advanced",
	OutcomePinChanged:      "pin_changed",
	OutcomeConfirmMismatch: "confirm_mismatch",
	OutcomeStoreFailed:     "store_failed",
}

func (o Outcome) String() string {
	return outcomeNames[o]
}

const (
	noticePinChanged      = "비밀번호가 성공적으로 변경되었습니다."
	noticeConfirmMismatch = "비밀번호가 일치하지 않습니다. 다시 시도하세요."
	noticeStoreFailed     = "비밀번호를 저장하지 못했습니다."
	PromptHint            = "비밀번호 4자리를 입력하세요."
)

type (
	// pinStage is one of verifying, changeCurrent, changeNew or changeConfirm.
	// The staged candidate only exists inside changeConfirm.
	pinStage interface {
		name() string
		prompt() string
		changing() bool
		submit(p *PinPad, input string) Outcome
	}

	verifying     struct{}
	changeCurrent struct{}
	changeNew     struct{}
	changeConfirm struct{ candidate string }
)

func (verifying) name() string { return "verifying" }
func (verifying) prompt() string { return "관리자 인증" }
func (verifying) changing() bool { return false }
func (changeCurrent) name() string { return "enter-current" }
func (changeCurrent) prompt() string { return "기존 비밀번호 입력" }
func (changeCurrent) changing() bool { return true }
func (changeNew) name() string { return "enter-new" }
func (changeNew) prompt() string { return "새 비밀번호 입력" }
func (changeNew) changing() bool { return true }
func (changeConfirm) name() string { return "confirm-new" }
func (changeConfirm) prompt() string { return "비밀번호 확인" }
func (changeConfirm) changing() bool { return true }

func (verifying) submit(p *PinPad, input string) Outcome {
	if p.matchesStored(input) {
		p.close()
		return OutcomeAuthenticated
	}
	p.fail()
	return OutcomeRejected
}

func (changeCurrent) submit(p *PinPad, input string) Outcome {
	if p.matchesStored(input) {
		p.stage = changeNew{}
		p.buffer = ""
		return OutcomeAdvanced
	}
	p.fail()
	return OutcomeRejected
}

func (changeNew) submit(p *PinPad, input string) Outcome {
	p.stage = changeConfirm{candidate: input}
	p.buffer = ""
	return OutcomeAdvanced
}

func (c changeConfirm) submit(p *PinPad, input string) Outcome {
	if input != c.candidate {
		p.stage = changeNew{}
		p.buffer = ""
		p.failed = true
		p.notice = noticeConfirmMismatch
		return OutcomeConfirmMismatch
	}
	if err := p.store.Set(c.candidate); err != nil {
		slog.Error("can not persist admin pin", "error", err)
		p.stage = changeNew{}
		p.buffer = ""
		p.failed = true
		p.notice = noticeStoreFailed
		return OutcomeStoreFailed
	}
	p.stage = verifying{}
	p.buffer = ""
	p.notice = noticePinChanged
	return OutcomePinChanged
}

type (
	// PinPad is the keypad flow guarding admin actions. It is safe for
	// concurrent use; a failed attempt clears its buffer after a short delay
	// on a timer goroutine.
	PinPad struct {
		mu         sync.Mutex
		store      PinStore
		stage      pinStage
		buffer     string
		failed     bool
		notice     string
		epoch      uint64
		resetDue   bool
		resetDelay time.Duration
		afterFunc  func(time.Duration, func())
	}

	// PadState is the view of the pad rendered by the client.
	PadState struct {
		Open     bool   `json:"open"`
		Mode     string `json:"mode,omitempty"`
		Stage    string `json:"stage,omitempty"`
		Title    string `json:"title,omitempty"`
		Hint     string `json:"hint,omitempty"`
		Filled   int    `json:"filled"`
		Failed   bool   `json:"failed"`
		Notice   string `json:"notice,omitempty"`
		CanStart bool   `json:"canChangePin"`
	}

	PadOption func(*PinPad)
)

// WithResetDelay sets how long a rejected PIN stays on screen before the
// buffer is cleared.
func WithResetDelay(d time.Duration) PadOption {
	return func(p *PinPad) {
		p.resetDelay = d
	}
}

// WithScheduler replaces time.AfterFunc, mainly for tests. The pad never
// holds its lock while calling the scheduler.
func WithScheduler(after func(time.Duration, func())) PadOption {
	return func(p *PinPad) {
		p.afterFunc = after
	}
}

func NewPinPad(store PinStore, opts ...PadOption) *PinPad {
	p := &PinPad{
		store:      store,
		resetDelay: defaultResetDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open shows the pad in verifying mode. Opening an already open pad keeps
// its current stage.
func (p *PinPad) Open() PadState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage == nil {
		p.reset(verifying{})
	}
	return p.snapshot()
}

// StartChange enters the PIN rotation flow. Only allowed from the top-level
// verifying prompt.
func (p *PinPad) StartChange() (PadState, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.stage.(verifying); !ok {
		return p.snapshot(), false
	}
	p.reset(changeCurrent{})
	return p.snapshot(), true
}

// Cancel closes the pad from any stage. A staged candidate is discarded.
func (p *PinPad) Cancel() PadState {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.close()
	return p.snapshot()
}

// Clear empties the digit buffer without leaving the current stage.
func (p *PinPad) Clear() PadState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage != nil {
		p.buffer = ""
		p.failed = false
		p.epoch++
	}
	return p.snapshot()
}

// Press appends one digit. When the buffer reaches PinLength the current
// stage evaluates it.
func (p *PinPad) Press(digit rune) (Outcome, PadState) {
	p.mu.Lock()
	outcome := p.press(digit)
	state := p.snapshot()
	epoch, due := p.epoch, p.resetDue
	p.resetDue = false
	p.mu.Unlock()

	if due {
		p.afterFunc(p.resetDelay, func() { p.expire(epoch) })
	}
	return outcome, state
}

func (p *PinPad) press(digit rune) Outcome {
	if p.stage == nil || digit < '0' || digit > '9' || len(p.buffer) >= PinLength {
		return OutcomeIgnored
	}
	p.buffer += string(digit)
	p.failed = false
	p.notice = ""
	if len(p.buffer) < PinLength {
		return OutcomePending
	}
	return p.stage.submit(p, p.buffer)
}

// Enter presses each rune of digits in turn and returns the last meaningful
// outcome.
func (p *PinPad) Enter(digits string) (Outcome, PadState) {
	last := OutcomeIgnored
	var state PadState
	for _, d := range digits {
		var o Outcome
		o, state = p.Press(d)
		if o != OutcomeIgnored {
			last = o
		}
	}
	if digits == "" {
		state = p.State()
	}
	return last, state
}

func (p *PinPad) State() PadState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *PinPad) matchesStored(input string) bool {
	stored, err := p.store.Get()
	if err != nil {
		slog.Error("can not read admin pin", "error", err)
		return false
	}
	return input == stored
}

// fail marks the attempt as wrong and asks for a delayed buffer reset. The
// full buffer blocks further presses until the reset runs.
func (p *PinPad) fail() {
	p.failed = true
	p.epoch++
	p.resetDue = true
}

// expire clears the buffer of a failed attempt unless the pad moved on
// (cleared, cancelled, closed) since the failure.
func (p *PinPad) expire(epoch uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.epoch != epoch || p.stage == nil {
		return
	}
	p.buffer = ""
}

func (p *PinPad) reset(stage pinStage) {
	p.stage = stage
	p.buffer = ""
	p.failed = false
	p.notice = ""
	p.epoch++
}

func (p *PinPad) close() {
	p.reset(nil)
}

func (p *PinPad) snapshot() PadState {
	if p.stage == nil {
		return PadState{Notice: p.notice}
	}
	mode := "verifying"
	if p.stage.changing() {
		mode = "changing"
	}
	_, top := p.stage.(verifying)
	return PadState{
		Open:     true,
		Mode:     mode,
		Stage:    p.stage.name(),
		Title:    p.stage.prompt(),
		Hint:     PromptHint,
		Filled:   len(p.buffer),
		Failed:   p.failed,
		Notice:   p.notice,
		CanStart: top,
	}
}
