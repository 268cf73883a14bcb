package controller

import (
	"context"
	"errors"
	"testing"
)

func counting(family string, hits *int) Codelet {
	return Codelet{
		Family:  family,
		Urgency: 1,
		Run: func(ctx context.Context, c *Coderack) error {
			*hits++
			return nil
		},
	}
}

func TestCoderack_StepRunsRoutines(t *testing.T) {
	hits := 0
	c, err := New(Settings{Options: map[string]string{OptionSeed: "1"}}, counting("reader", &hits))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	for i := 0; i < 5; i++ {
		if err := c.Step(context.Background()); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	if hits != 5 {
		t.Errorf("routine ran %d times, want 5", hits)
	}
	status := c.Status()
	if status.Steps != 5 {
		t.Errorf("Steps = %d, want 5", status.Steps)
	}
	if status.Last != "reader" {
		t.Errorf("Last = %q, want %q", status.Last, "reader")
	}
}

func TestCoderack_PostedCodeletsRunBeforeRoutines(t *testing.T) {
	routineHits, postedHits := 0, 0
	c, err := New(Settings{Options: map[string]string{OptionSeed: "7"}}, counting("routine", &routineHits))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	c.Post(counting("posted", &postedHits))
	c.Post(counting("posted", &postedHits))

	for i := 0; i < 2; i++ {
		if err := c.Step(context.Background()); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	if postedHits != 2 || routineHits != 0 {
		t.Errorf("posted=%d routine=%d, want 2 and 0", postedHits, routineHits)
	}
}

func TestCoderack_SameSeedSameOrder(t *testing.T) {
	order := func() []string {
		c, err := New(Settings{Options: map[string]string{OptionSeed: "42"}})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		var got []string
		for _, f := range []string{"a", "b", "c", "d"} {
			c.Post(Codelet{Family: f, Urgency: 1})
		}
		for i := 0; i < 4; i++ {
			_ = c.Step(context.Background())
			got = append(got, c.Status().Last)
		}
		return got
	}

	first, second := order(), order()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order differs with same seed: %v vs %v", first, second)
		}
	}
}

func TestCoderack_InvalidSeed(t *testing.T) {
	_, err := New(Settings{Options: map[string]string{OptionSeed: "abc"}})
	if err == nil {
		t.Error("expected error for non-numeric seed")
	}
}

func TestCoderack_StopWhen(t *testing.T) {
	c, err := New(Settings{
		StopWhen: func(c Controller) bool { return c.Status().Steps >= 3 },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 1; i <= 2; i++ {
		if err := c.Step(context.Background()); err != nil {
			t.Fatalf("Step() %d error = %v", i, err)
		}
	}
	if err := c.Step(context.Background()); !errors.Is(err, ErrStoppingConditionMet) {
		t.Errorf("Step() 3 error = %v, want ErrStoppingConditionMet", err)
	}
}

func TestCoderack_CodeletError(t *testing.T) {
	boom := errors.New("boom")
	c, err := New(Settings{}, Codelet{
		Family: "failing",
		Run:    func(context.Context, *Coderack) error { return boom },
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Step(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Step() error = %v, want wrapped boom", err)
	}
}

func TestCoderack_HaltStopsStepping(t *testing.T) {
	hits := 0
	c, err := New(Settings{}, Codelet{
		Family: "halter",
		Run: func(ctx context.Context, c *Coderack) error {
			hits++
			c.Halt()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_ = c.Step(context.Background())
	_ = c.Step(context.Background())

	if hits != 1 {
		t.Errorf("codelet ran %d times after halt, want 1", hits)
	}
	if !c.Status().Halted {
		t.Error("expected Halted status")
	}
}

func TestCoderack_OpensLTM(t *testing.T) {
	c, err := New(Settings{LTMDirectory: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Memory() == nil {
		t.Fatal("expected LTM store when LTMDirectory is set")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if c.Memory() != nil {
		t.Error("expected Memory() nil after Close")
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name        string
		settings    Settings
		routines    []Codelet
		maxSteps    int
		wantSteps   int
		wantStopped bool
		wantHalted  bool
	}{
		{
			name:      "runs to max steps",
			maxSteps:  25,
			wantSteps: 25,
		},
		{
			name: "stopping condition ends early",
			settings: Settings{
				StopWhen: func(c Controller) bool { return c.Status().Steps == 4 },
			},
			maxSteps:    25,
			wantSteps:   4,
			wantStopped: true,
		},
		{
			name: "halt ends early",
			routines: []Codelet{{
				Family: "halter",
				Run: func(ctx context.Context, c *Coderack) error {
					if c.Status().Steps == 2 {
						c.Halt()
					}
					return nil
				},
			}},
			maxSteps:   25,
			wantSteps:  2,
			wantHalted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.settings, tt.routines...)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			out, err := Run(context.Background(), c, tt.maxSteps)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if out.Steps != tt.wantSteps {
				t.Errorf("Steps = %d, want %d", out.Steps, tt.wantSteps)
			}
			if out.StoppedEarly != tt.wantStopped {
				t.Errorf("StoppedEarly = %v, want %v", out.StoppedEarly, tt.wantStopped)
			}
			if out.Halted != tt.wantHalted {
				t.Errorf("Halted = %v, want %v", out.Halted, tt.wantHalted)
			}
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	c, err := New(Settings{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Run(ctx, c, 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
