// Package wizard implements the linear step controller of a multi-step
// form: which step is active, which are completed and how far along the
// applicant is.
package wizard

import (
	"fmt"
	"sync"
)

// DefaultSteps is the number of steps in the application wizard.
const DefaultSteps = 5

// StepValidator validates the fields owned by a step.
type StepValidator func(step int) bool

// Reason explains the outcome of a navigation request.
type Reason string

const (
	ReasonMoved        Reason = "moved"
	ReasonInvalid      Reason = "invalid"
	ReasonOutOfRange   Reason = "out_of_range"
	ReasonSkip         Reason = "skip"
	ReasonSameStep     Reason = "same_step"
	ReasonUnconfigured Reason = "unconfigured"
)

// Transition is the result of GoToStep. Rejections are not errors: the
// controller simply stays where it is.
type Transition struct {
	From   int
	To     int
	Moved  bool
	Reason Reason
}

// Forward reports whether the transition moved to a later step.
func (t Transition) Forward() bool {
	return t.Moved && t.To > t.From
}

// Hook is called after every successful transition.
type Hook func(t Transition)

// Controller tracks the active step. Exactly one step is active at a
// time and a step counts as completed iff its index is below the active
// one.
type Controller struct {
	total    int
	current  int
	validate StepValidator
	hooks    []Hook
	mu       sync.RWMutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithSteps sets the number of steps.
func WithSteps(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.total = n
		}
	}
}

// OnTransition registers a hook run after each successful transition.
func OnTransition(h Hook) Option {
	return func(c *Controller) {
		c.hooks = append(c.hooks, h)
	}
}

// New creates a controller positioned on step 1. validate is consulted
// only for the current step when moving forward.
func New(validate StepValidator, opts ...Option) *Controller {
	c := &Controller{
		total:    DefaultSteps,
		current:  1,
		validate: validate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GoToStep moves to step n. Moving back to any earlier step always
// succeeds; moving forward is allowed only to current+1 and only when
// the current step validates. Every other request leaves the controller
// untouched.
func (c *Controller) GoToStep(n int) Transition {
	c.mu.Lock()

	t := Transition{From: c.current, To: n}
	switch {
	case n < 1 || n > c.total:
		t.Reason = ReasonOutOfRange
	case n == c.current:
		t.Reason = ReasonSameStep
	case n < c.current:
		t.Moved = true
	case n > c.current+1:
		t.Reason = ReasonSkip
	case c.validate == nil:
		t.Reason = ReasonUnconfigured
	default:
		// Validation may read form state guarded elsewhere; do not hold
		// our lock while it runs.
		cur := c.current
		c.mu.Unlock()
		ok := c.validate(cur)
		c.mu.Lock()
		if c.current != cur {
			t.Reason = ReasonSkip
			break
		}
		if !ok {
			t.Reason = ReasonInvalid
			break
		}
		t.Moved = true
	}

	if t.Moved {
		c.current = n
		t.Reason = ReasonMoved
	}
	hooks := c.hooks
	c.mu.Unlock()

	if t.Moved {
		for _, h := range hooks {
			h(t)
		}
	}
	return t
}

// Next tries to advance by one step.
func (c *Controller) Next() Transition {
	return c.GoToStep(c.Current() + 1)
}

// Prev moves back by one step.
func (c *Controller) Prev() Transition {
	return c.GoToStep(c.Current() - 1)
}

// Current returns the active step (1-based).
func (c *Controller) Current() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Total returns the number of steps.
func (c *Controller) Total() int {
	return c.total
}

// IsActive reports whether step is the active step.
func (c *Controller) IsActive(step int) bool {
	return c.Current() == step
}

// IsCompleted reports whether step lies before the active step.
func (c *Controller) IsCompleted(step int) bool {
	return step >= 1 && step < c.Current()
}

// IsLast reports whether the active step is the final one.
func (c *Controller) IsLast() bool {
	return c.Current() == c.total
}

// Progress returns current/total in (0, 1].
func (c *Controller) Progress() float64 {
	return float64(c.Current()) / float64(c.total)
}

// Percent returns the progress as a whole percentage.
func (c *Controller) Percent() int {
	return c.Current() * 100 / c.total
}

// StepLabel returns the "Step n of N" caption.
func (c *Controller) StepLabel() string {
	return fmt.Sprintf("Step %d of %d", c.Current(), c.total)
}

// PercentLabel returns the "NN% Complete" caption.
func (c *Controller) PercentLabel() string {
	return fmt.Sprintf("%d%% Complete", c.Percent())
}
