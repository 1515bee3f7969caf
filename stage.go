package glitchreveal

import "time"

// Phase is one mutually exclusive screen of the experience.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseLocked
	PhaseTapToStart
	PhaseGlitch
	PhaseReveal
)

var phases = []Phase{PhaseLocked, PhaseTapToStart, PhaseGlitch, PhaseReveal}

func (p Phase) String() string {
	switch p {
	case PhaseLocked:
		return "locked"
	case PhaseTapToStart:
		return "tap_to_start"
	case PhaseGlitch:
		return "glitch"
	case PhaseReveal:
		return "reveal"
	default:
		return "none"
	}
}

// Slot names a text area on the stage.
type Slot string

const (
	SlotLockedPrefix Slot = "locked-prefix"
	SlotLockedBody   Slot = "locked-body"
	SlotGlitch       Slot = "glitch-terminal"
	SlotRevealFooter Slot = "reveal-footer"
	SlotCarousel     Slot = "carousel"
)

// LineStyle is a rendering hint for typed glitch lines.
type LineStyle string

const (
	StyleSystem LineStyle = "system"
	StyleError  LineStyle = "error"
	StyleHuman  LineStyle = "human"
)

// Cue names an audio cue owned by the rendering layer.
type Cue string

const (
	CueFirstImpact Cue = "cue:first-impact"
	CueLoopHit     Cue = "cue:loop-hit"
	CueMeltdown    Cue = "cue:meltdown"
)

// Effect names a visual effect owned by the rendering layer.
type Effect string

const (
	EffectShake            Effect = "effect:shake"
	EffectStrobe           Effect = "effect:strobe"
	EffectBackgroundHearts Effect = "effect:background-hearts"
)

// Stage is the presentation layer. The sequencer calls it from a single
// goroutine.
type Stage interface {
	Hide(p Phase)
	Show(p Phase)
	SetTheme(t Theme)
	SetText(slot Slot, text string)
	// BeginLine starts a new typed line in slot; AppendText adds to it.
	BeginLine(slot Slot, style LineStyle)
	AppendText(slot Slot, text string)
	// Fade starts a fade of slot lasting d. The sequencer waits d itself.
	Fade(slot Slot, visible bool, d time.Duration)
	SetEffect(e Effect, on bool)
	// Spawn emits one instance of a decorative effect.
	Spawn(e Effect)
}

// Audio plays cues and music. Every error is treated as a blocked
// playback and ignored.
type Audio interface {
	// Prime plays and pauses every element once; it must run inside the
	// visitor's start gesture so later playback is allowed.
	Prime() error
	Play(c Cue) error
	PlayMusic() error
	SetMusicVolume(v float64)
}
