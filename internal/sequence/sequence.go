// Package sequence is the reference app shipped with the farg binary. Its
// controller reads an integer sequence one term per codelet and stores
// what it read in LTM.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nvandessel/farg/internal/config"
	"github.com/nvandessel/farg/internal/controller"
	"github.com/nvandessel/farg/internal/ltm"
)

// AppName is the name the reference app runs under.
const AppName = "sequence"

// OptionSequence holds the terms to read, separated by spaces or commas.
const OptionSequence = "sequence"

// ErrEmptySequence is returned when the sequence option has no terms.
var ErrEmptySequence = errors.New("sequence has no terms")

// Term is one element of a sequence.
type Term struct {
	Value int `json:"value"`
}

// BriefLabel returns the term's value.
func (t *Term) BriefLabel() string { return strconv.Itoa(t.Value) }

// Sequence is a run of terms. It depends on each of its terms.
type Sequence struct {
	Terms []*Term `json:"terms"`
}

// BriefLabel returns the terms separated by spaces.
func (s *Sequence) BriefLabel() string {
	parts := make([]string, len(s.Terms))
	for i, t := range s.Terms {
		parts[i] = t.BriefLabel()
	}
	return strings.Join(parts, " ")
}

// DisplayLabel brackets the sequence.
func (s *Sequence) DisplayLabel() string { return "[" + s.BriefLabel() + "]" }

// DependentContent returns the terms in order.
func (s *Sequence) DependentContent() []ltm.Storable {
	out := make([]ltm.Storable, len(s.Terms))
	for i, t := range s.Terms {
		out[i] = t
	}
	return out
}

// Parse reads terms separated by spaces or commas.
func Parse(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) == 0 {
		return nil, ErrEmptySequence
	}
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid term %q: %w", f, err)
		}
		out[i] = n
	}
	return out, nil
}

// ProcessCustomFlags checks the sequence option when one is given.
func ProcessCustomFlags(cfg *config.Config) error {
	v, ok := cfg.Extra[OptionSequence]
	if !ok {
		return nil
	}
	if _, err := Parse(v); err != nil {
		return fmt.Errorf("invalid --set %s: %w", OptionSequence, err)
	}
	return nil
}

// Controller is a coderack reading one sequence.
type Controller struct {
	*controller.Coderack
	terms  []int
	read   []*Term
	stored bool
}

// NewController is a controller.Factory. Without a sequence option the
// controller has nothing to read and halts on its first step.
func NewController(settings controller.Settings) (controller.Controller, error) {
	var terms []int
	if v, ok := settings.Options[OptionSequence]; ok {
		parsed, err := Parse(v)
		if err != nil {
			return nil, err
		}
		terms = parsed
	}

	c := &Controller{terms: terms}
	if stop := settings.StopWhen; stop != nil {
		settings.StopWhen = func(controller.Controller) bool { return stop(c) }
	}
	rack, err := controller.New(settings, controller.Codelet{
		Family:  "reader",
		Urgency: 1,
		Run:     c.readNext,
	})
	if err != nil {
		return nil, err
	}
	c.Coderack = rack
	return c, nil
}

// Read returns the terms read so far.
func (c *Controller) Read() []*Term { return c.read }

// Done reports whether every term has been read.
func (c *Controller) Done() bool { return len(c.read) == len(c.terms) }

// Stored reports whether the whole sequence has been remembered.
func (c *Controller) Stored() bool { return c.stored }

func (c *Controller) readNext(ctx context.Context, rack *controller.Coderack) error {
	if c.Done() {
		rack.Halt()
		if err := c.remember(ctx, &Sequence{Terms: c.read}); err != nil {
			return err
		}
		c.stored = true
		return nil
	}

	term := &Term{Value: c.terms[len(c.read)]}
	c.read = append(c.read, term)
	rack.Post(controller.Codelet{
		Family:  "remember-term",
		Urgency: 0.5,
		Run: func(ctx context.Context, _ *controller.Coderack) error {
			return c.remember(ctx, term)
		},
	})
	return nil
}

func (c *Controller) remember(ctx context.Context, item ltm.Storable) error {
	store := c.Memory()
	if store == nil {
		return nil
	}
	if seq, ok := item.(*Sequence); ok && len(seq.Terms) == 0 {
		return nil
	}
	_, err := store.Put(ctx, item)
	return err
}

// Conditions returns the stopping conditions of the app.
func Conditions() map[string]controller.StopFunc {
	return map[string]controller.StopFunc{
		"sequence_read": func(c controller.Controller) bool {
			sc, ok := c.(*Controller)
			return ok && sc.Stored()
		},
	}
}
