package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/nvandessel/farg/internal/ltm"
)

// OptionSeed is the option holding the random seed for codelet selection.
const OptionSeed = "seed"

// Codelet is a small unit of work posted to the coderack. Urgency weights
// how likely it is to be picked next.
type Codelet struct {
	Family  string
	Urgency float64
	Run     func(ctx context.Context, c *Coderack) error
}

// Coderack is the reference Controller. Each step picks one pending codelet
// at random, weighted by urgency, and runs it. When nothing is pending the
// routine codelets are posted again.
type Coderack struct {
	settings Settings
	routines []Codelet
	pending  []Codelet
	rng      *rand.Rand
	memory   *ltm.Store
	logger   *slog.Logger

	steps  int
	halted bool
	last   string
}

// New creates a coderack controller. If settings name an LTM directory the
// LTM store in it is opened and available through Memory.
func New(settings Settings, routines ...Codelet) (*Coderack, error) {
	seed := uint64(time.Now().UnixNano())
	if v, ok := settings.Options[OptionSeed]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s option %q: %w", OptionSeed, v, err)
		}
		seed = uint64(n)
	}

	logger := settings.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Coderack{
		settings: settings,
		routines: routines,
		rng:      rand.New(rand.NewPCG(seed, seed>>1)),
		logger:   logger,
	}

	if settings.LTMDirectory != "" {
		store, err := ltm.Open(settings.LTMDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to open LTM: %w", err)
		}
		c.memory = store
	}

	return c, nil
}

// NewFactory returns a Factory building coderacks with the given routines.
func NewFactory(routines ...Codelet) Factory {
	return func(settings Settings) (Controller, error) {
		return New(settings, routines...)
	}
}

// Post adds a codelet to the coderack.
func (c *Coderack) Post(cl Codelet) {
	if cl.Urgency <= 0 {
		cl.Urgency = 1
	}
	c.pending = append(c.pending, cl)
}

// Halt marks the simulation as finished. Later steps do nothing.
func (c *Coderack) Halt() {
	c.halted = true
}

// Option returns an app-specific option, or "" if unset.
func (c *Coderack) Option(name string) string {
	return c.settings.Options[name]
}

// Memory returns the LTM store, or nil when LTM is disabled.
func (c *Coderack) Memory() *ltm.Store {
	return c.memory
}

// Step runs one codelet.
func (c *Coderack) Step(ctx context.Context) error {
	if c.halted {
		return nil
	}
	c.steps++

	if len(c.pending) == 0 {
		for _, r := range c.routines {
			c.Post(r)
		}
	}

	if len(c.pending) > 0 {
		cl := c.choose()
		c.last = cl.Family
		c.logger.Log(ctx, slog.LevelDebug, "running codelet", "family", cl.Family, "step", c.steps)
		if cl.Run != nil {
			if err := cl.Run(ctx, c); err != nil {
				return fmt.Errorf("codelet %s failed at step %d: %w", cl.Family, c.steps, err)
			}
		}
	}

	if c.settings.StopWhen != nil && c.settings.StopWhen(c) {
		return ErrStoppingConditionMet
	}
	return nil
}

// choose removes and returns a pending codelet, weighted by urgency.
func (c *Coderack) choose() Codelet {
	total := 0.0
	for _, cl := range c.pending {
		total += cl.Urgency
	}

	target := c.rng.Float64() * total
	idx := len(c.pending) - 1
	for i, cl := range c.pending {
		target -= cl.Urgency
		if target < 0 {
			idx = i
			break
		}
	}

	cl := c.pending[idx]
	c.pending = append(c.pending[:idx], c.pending[idx+1:]...)
	return cl
}

// Status returns the current progress.
func (c *Coderack) Status() Status {
	return Status{
		Steps:   c.steps,
		Pending: len(c.pending),
		Halted:  c.halted,
		Last:    c.last,
	}
}

// Close releases the LTM store.
func (c *Coderack) Close() error {
	if c.memory == nil {
		return nil
	}
	err := c.memory.Close()
	c.memory = nil
	return err
}
