package glitchreveal

import (
	"strings"
	"time"
)

// TimeOfDay buckets the local hour.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"   // [05:00, 12:00)
	Afternoon TimeOfDay = "afternoon" // [12:00, 17:00)
	Evening   TimeOfDay = "evening"   // [17:00, 05:00)
)

// ResolveTimeOfDay returns the bucket for t's hour in t's location.
func ResolveTimeOfDay(t time.Time) TimeOfDay {
	h := t.Hour()
	switch {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	default:
		return Evening
	}
}

// Theme is the reveal color triple.
type Theme struct {
	Background string
	Text       string
	Accent     string
}

var (
	darkTheme  = Theme{Background: "#1a0b14", Text: "#ffe3f1", Accent: "#ff70a6"}
	lightTheme = Theme{Background: "#fffcf2", Text: "#2c2c2c", Accent: "#d62828"}
)

// ThemeFor maps evening to the dark theme and the rest of the day to the light one.
func ThemeFor(tod TimeOfDay) Theme {
	if tod == Evening {
		return darkTheme
	}
	return lightTheme
}

// Mode selects which reveal copy applies.
type Mode string

const (
	ModeFirstRun Mode = "first_run"
	ModeReturn   Mode = "return"
	ModeGlitch   Mode = "glitch"
)

// RevealContent is the text shown in the reveal phase.
type RevealContent struct {
	MainBody string
	Footer   string
}

// ContentResolver picks text out of a Copy dictionary.
type ContentResolver struct {
	copy *Copy
}

// NewContentResolver returns a resolver over c, or over DefaultCopy when c is nil.
func NewContentResolver(c *Copy) *ContentResolver {
	if c == nil {
		c = DefaultCopy()
	}
	return &ContentResolver{copy: c}
}

func (r *ContentResolver) Copy() *Copy {
	return r.copy
}

// Resolve builds the reveal text. It never fails: unknown codes fall back to
// the default entry and an empty remote message is simply left out.
func (r *ContentResolver) Resolve(mode Mode, code string, now time.Time, remoteMessage string) RevealContent {
	if mode == ModeReturn {
		return RevealContent{MainBody: r.copy.Reveal.Return}
	}

	body, ok := r.copy.Reveal.Codes[code]
	if !ok || code == "" {
		body = r.copy.Reveal.Codes[defaultCodeKey]
	}
	if msg := strings.TrimSpace(remoteMessage); msg != "" {
		body = strings.TrimSpace(msg + " " + body)
	}

	return RevealContent{
		MainBody: body,
		Footer:   r.copy.Reveal.Footer[ResolveTimeOfDay(now)],
	}
}

// Taunt returns the locked-gate text for the given tap count. Time of day
// only affects the prefix; the body escalates with clicks and stays on the
// last tier from then on.
func (r *ContentResolver) Taunt(now time.Time, clicks int) (prefix, body string) {
	prefix = r.copy.Locked.Prefix[ResolveTimeOfDay(now)]
	attempts := r.copy.Locked.Attempts
	switch {
	case clicks <= 0 || len(attempts) == 0:
		body = r.copy.Locked.Idle
	case clicks > len(attempts):
		body = attempts[len(attempts)-1]
	default:
		body = attempts[clicks-1]
	}
	return prefix, body
}

// Quotes returns the carousel quote list.
func (r *ContentResolver) Quotes() []string {
	return r.copy.Carousel.Quotes
}

// Credits returns the one-time credits line.
func (r *ContentResolver) Credits() string {
	return r.copy.Carousel.Credits
}
