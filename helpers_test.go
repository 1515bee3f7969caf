package glitchreveal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeClock advances only when something waits on it.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	t := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- t
	return ch
}

type event struct {
	Kind   string
	Phase  Phase
	Slot   Slot
	Text   string
	Style  LineStyle
	Effect Effect
	On     bool
	At     time.Time
}

func (e event) String() string {
	switch e.Kind {
	case "show", "hide":
		return e.Kind + ":" + e.Phase.String()
	case "effect":
		return fmt.Sprintf("effect:%s:%v", e.Effect, e.On)
	case "text", "append":
		return fmt.Sprintf("%s:%s:%s", e.Kind, e.Slot, e.Text)
	case "cue":
		return "cue:" + e.Text
	default:
		return e.Kind
	}
}

// recordingStage records every call. onEvent runs synchronously after each
// record, on the sequencer goroutine.
type recordingStage struct {
	mu      sync.Mutex
	clock   Clock
	events  []event
	theme   Theme
	onEvent func(event)
}

func (s *recordingStage) record(e event) {
	if s.clock != nil {
		e.At = s.clock.Now()
	}
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	if s.onEvent != nil {
		s.onEvent(e)
	}
}

func (s *recordingStage) Hide(p Phase) { s.record(event{Kind: "hide", Phase: p}) }
func (s *recordingStage) Show(p Phase) { s.record(event{Kind: "show", Phase: p}) }
func (s *recordingStage) SetTheme(t Theme) {
	s.mu.Lock()
	s.theme = t
	s.mu.Unlock()
}
func (s *recordingStage) SetText(slot Slot, text string) {
	s.record(event{Kind: "text", Slot: slot, Text: text})
}
func (s *recordingStage) BeginLine(slot Slot, style LineStyle) {
	s.record(event{Kind: "line", Slot: slot, Style: style})
}
func (s *recordingStage) AppendText(slot Slot, text string) {
	s.record(event{Kind: "append", Slot: slot, Text: text})
}
func (s *recordingStage) Fade(slot Slot, visible bool, d time.Duration) {
	s.record(event{Kind: "fade", Slot: slot, On: visible})
}
func (s *recordingStage) SetEffect(e Effect, on bool) {
	s.record(event{Kind: "effect", Effect: e, On: on})
}
func (s *recordingStage) Spawn(e Effect) { s.record(event{Kind: "spawn", Effect: e}) }

func (s *recordingStage) snapshot() []event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event(nil), s.events...)
}

// shown returns the phases passed to Show, in order.
func (s *recordingStage) shown() []Phase {
	var out []Phase
	for _, e := range s.snapshot() {
		if e.Kind == "show" {
			out = append(out, e.Phase)
		}
	}
	return out
}

// texts returns the texts set on slot, in order.
func (s *recordingStage) texts(slot Slot) []string {
	var out []string
	for _, e := range s.snapshot() {
		if e.Kind == "text" && e.Slot == slot {
			out = append(out, e.Text)
		}
	}
	return out
}

// typedLines reassembles the typed glitch lines.
func (s *recordingStage) typedLines() []string {
	var out []string
	for _, e := range s.snapshot() {
		switch e.Kind {
		case "line":
			out = append(out, "")
		case "append":
			if len(out) > 0 {
				out[len(out)-1] += e.Text
			}
		}
	}
	return out
}

// firstIndex returns the index of the first event matching fn, or -1.
func firstIndex(events []event, fn func(event) bool) int {
	for i, e := range events {
		if fn(e) {
			return i
		}
	}
	return -1
}

type recordingAudio struct {
	mu      sync.Mutex
	fail    bool
	primed  int
	cues    []Cue
	music   int
	volumes []float64
	onCue   func(Cue)
}

var errAutoplay = errors.New("NotAllowedError: play() failed because the user didn't interact with the document first")

func (a *recordingAudio) err() error {
	if a.fail {
		return errAutoplay
	}
	return nil
}

func (a *recordingAudio) Prime() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.primed++
	return a.err()
}

func (a *recordingAudio) Play(c Cue) error {
	a.mu.Lock()
	a.cues = append(a.cues, c)
	a.mu.Unlock()
	if a.onCue != nil {
		a.onCue(c)
	}
	return a.err()
}

func (a *recordingAudio) PlayMusic() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.music++
	return a.err()
}

func (a *recordingAudio) SetMusicVolume(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.volumes = append(a.volumes, v)
}

// failingStore simulates unavailable storage.
type failingStore struct {
	calls int
}

var errDiskGone = errors.New("storage quota exceeded")

func (s *failingStore) Get(ctx context.Context, key string) (*Record, error) {
	s.calls++
	return nil, errDiskGone
}

func (s *failingStore) Save(ctx context.Context, key string, r *Record) error {
	s.calls++
	return errDiskGone
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	s.calls++
	return errDiskGone
}

func (s *failingStore) Close() error { return nil }

type fakeRemote struct {
	mu     sync.Mutex
	data   map[string]*RemoteData
	calls  []string
	block  bool
	called chan struct{}
}

func (r *fakeRemote) Fetch(ctx context.Context, code, userAgent string) *RemoteData {
	r.mu.Lock()
	r.calls = append(r.calls, code+"|"+userAgent)
	r.mu.Unlock()
	if r.block {
		<-ctx.Done()
		return nil
	}
	return r.data[code]
}

func (r *fakeRemote) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeNotifier struct {
	mu    sync.Mutex
	pings []Ping
	err   error
}

func (n *fakeNotifier) Notify(ctx context.Context, p Ping) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pings = append(n.pings, p)
	return n.err
}

func (n *fakeNotifier) sent() []Ping {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Ping(nil), n.pings...)
}
