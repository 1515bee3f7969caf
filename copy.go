package glitchreveal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Copy is the text dictionary for every narrative point of the experience.
type Copy struct {
	Locked   LockedCopy   `yaml:"locked"`
	Glitch   GlitchCopy   `yaml:"glitch"`
	Reveal   RevealCopy   `yaml:"reveal"`
	Carousel CarouselCopy `yaml:"carousel"`
}

type LockedCopy struct {
	// Prefix is keyed by time of day.
	Prefix map[TimeOfDay]string `yaml:"prefix"`
	// Idle is shown before the first tap.
	Idle string `yaml:"idle"`
	// Attempts escalate by tap count; the last entry repeats forever.
	Attempts []string `yaml:"attempts"`
}

type GlitchCopy struct {
	Lines []string `yaml:"lines"`
	// Punchline is the last line typed before the reveal.
	Punchline string `yaml:"punchline"`
}

type RevealCopy struct {
	// Codes maps personalization codes to messages. The "default" entry is
	// used for unknown or missing codes.
	Codes  map[string]string    `yaml:"codes"`
	Footer map[TimeOfDay]string `yaml:"footer"`
	Return string               `yaml:"return"`
}

type CarouselCopy struct {
	Credits string   `yaml:"credits"`
	Quotes  []string `yaml:"quotes"`
}

const defaultCodeKey = "default"

// DefaultCopy returns the built-in dictionary. Each call returns a fresh
// value that the caller may modify.
func DefaultCopy() *Copy {
	return &Copy{
		Locked: LockedCopy{
			Prefix: map[TimeOfDay]string{
				Morning:   "Good morning.",
				Afternoon: "Good afternoon.",
				Evening:   "It's late.",
			},
			Idle: "This isn't ready for you yet.",
			Attempts: []string{
				"Not yet.",
				"Patience is a virtue.",
				"You really like pressing buttons, don't you?",
			},
		},
		Glitch: GlitchCopy{
			Lines: []string{
				"SYSTEM UNSTABLE...",
				"ERROR: HEART.EXE NOT FOUND",
				"ATTEMPTING RECOVERY...",
				"OVERLOAD IMMINENT",
			},
			Punchline: "Just kidding.",
		},
		Reveal: RevealCopy{
			Codes: map[string]string{
				"A01":          "You make rooms warmer just by being in them.",
				"A02":          "I knew you'd be curious enough to tap this.",
				defaultCodeKey: "This was meant for someone specific, but I'm glad you're here.",
			},
			Footer: map[TimeOfDay]string{
				Morning:   "Good morning. I'm glad you started your day here.",
				Afternoon: "I hope this made your afternoon a little brighter.",
				Evening:   "I'm glad you found this tonight.",
			},
			Return: "Welcome back. Tap this any time you need a reminder: the world is full of love, and it will triumph.",
		},
		Carousel: CarouselCopy{
			Credits: "Made by hand, one tap at a time.",
			Quotes: []string{
				"Love is composed of a single soul inhabiting two bodies. (Aristotle)",
				"Whatever our souls are made of, his and mine are the same. (Emily Brontë)",
				"Love all, trust a few, do wrong to none. (William Shakespeare)",
				"The heart has its reasons which reason knows nothing of. (Blaise Pascal)",
			},
		},
	}
}

// LoadCopyFile reads a YAML dictionary and overlays it on DefaultCopy.
// Fields left empty in the file keep their default value.
func LoadCopyFile(path string) (*Copy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var override Copy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse copy file: %w", err)
	}
	c := DefaultCopy()
	c.merge(&override)
	return c, nil
}

func (c *Copy) merge(o *Copy) {
	for k, v := range o.Locked.Prefix {
		if v != "" {
			c.Locked.Prefix[k] = v
		}
	}
	if o.Locked.Idle != "" {
		c.Locked.Idle = o.Locked.Idle
	}
	if len(o.Locked.Attempts) > 0 {
		c.Locked.Attempts = o.Locked.Attempts
	}
	if len(o.Glitch.Lines) > 0 {
		c.Glitch.Lines = o.Glitch.Lines
	}
	if o.Glitch.Punchline != "" {
		c.Glitch.Punchline = o.Glitch.Punchline
	}
	for k, v := range o.Reveal.Codes {
		if v != "" {
			c.Reveal.Codes[k] = v
		}
	}
	for k, v := range o.Reveal.Footer {
		if v != "" {
			c.Reveal.Footer[k] = v
		}
	}
	if o.Reveal.Return != "" {
		c.Reveal.Return = o.Reveal.Return
	}
	if o.Carousel.Credits != "" {
		c.Carousel.Credits = o.Carousel.Credits
	}
	if o.Carousel.Quotes != nil {
		c.Carousel.Quotes = o.Carousel.Quotes
	}
}
