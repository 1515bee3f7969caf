package glitchreveal

import (
	"context"
	"time"
)

// fallbackQuote keeps the carousel alive when no quotes are configured.
const fallbackQuote = "Love wins."

// Carousel shows a greeting, a credits line, then loops over quotes until
// its context ends.
type Carousel struct {
	Quotes       []string
	Credits      string
	FadeIn       time.Duration
	Hold         time.Duration
	FadeOut      time.Duration
	GreetingHold time.Duration

	// OnQuote, when set, is called with the index of each quote as it is shown.
	OnQuote func(i int)
}

func (c *Carousel) withDefaults() Carousel {
	out := *c
	if out.FadeIn <= 0 {
		out.FadeIn = time.Second
	}
	if out.Hold <= 0 {
		out.Hold = 4 * time.Second
	}
	if out.FadeOut <= 0 {
		out.FadeOut = 2 * time.Second
	}
	if out.GreetingHold <= 0 {
		out.GreetingHold = 5 * time.Second
	}
	if len(out.Quotes) == 0 {
		out.Quotes = []string{fallbackQuote}
	}
	return out
}

// run blocks until ctx ends and always returns ctx.Err().
func (c *Carousel) run(ctx context.Context, sched *scheduler, stage Stage, greeting string) error {
	cfg := c.withDefaults()

	if greeting != "" {
		if err := cfg.show(ctx, sched, stage, greeting, cfg.GreetingHold); err != nil {
			return err
		}
	}
	if cfg.Credits != "" {
		if err := cfg.show(ctx, sched, stage, cfg.Credits, cfg.GreetingHold); err != nil {
			return err
		}
	}

	for i := 0; ; i = (i + 1) % len(cfg.Quotes) {
		if cfg.OnQuote != nil {
			cfg.OnQuote(i)
		}
		if err := cfg.show(ctx, sched, stage, cfg.Quotes[i], cfg.Hold); err != nil {
			return err
		}
	}
}

// show runs one fade-in, hold, fade-out cycle.
func (c *Carousel) show(ctx context.Context, sched *scheduler, stage Stage, text string, hold time.Duration) error {
	stage.SetText(SlotCarousel, text)
	stage.Fade(SlotCarousel, true, c.FadeIn)
	if err := sched.sleep(ctx, c.FadeIn+hold); err != nil {
		return err
	}
	stage.Fade(SlotCarousel, false, c.FadeOut)
	return sched.sleep(ctx, c.FadeOut)
}
