// SPDX-License-Identifier: Apache-2.0

// Package preview simulates what an end user sees when running a template:
// the parameter wizard, a review of the planned steps, and timed progress
// through the pipeline. No action is ever executed.
package preview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kusari-oss/stencil/internal/core/models"
	"github.com/kusari-oss/stencil/internal/core/parameters"
	"github.com/kusari-oss/stencil/internal/core/validator"
)

// DefaultInterval is how long each simulated step takes.
const DefaultInterval = 800 * time.Millisecond

type Phase string

const (
	PhaseForm     Phase = "form"
	PhaseReview   Phase = "review"
	PhaseRunning  Phase = "running"
	PhaseComplete Phase = "complete"
)

type StepStatus string

const (
	StatusPending StepStatus = "pending"
	StatusRunning StepStatus = "running"
	StatusDone    StepStatus = "done"
	StatusSkipped StepStatus = "skipped"
)

// ErrWrongPhase is returned when an operation is not allowed in the
// current phase.
var ErrWrongPhase = errors.New("operation not allowed in this phase")

// StepResult is the simulated outcome of one pipeline step.
type StepResult struct {
	Index  int           `json:"index"`
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Action string        `json:"action"`
	Status StepStatus    `json:"status"`
	Input  models.Values `json:"input,omitempty"`
	// Missing names parameters referenced by the input that have no value.
	Missing []string `json:"missing,omitempty"`
	Note    string   `json:"note,omitempty"`
}

type Option func(*Session)

func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithValues seeds the form on top of the property defaults.
func WithValues(values map[string]any) Option {
	return func(s *Session) {
		for k, v := range values {
			s.values[k] = v
		}
	}
}

// Session walks one template through the preview phases. It is not safe for
// concurrent use.
type Session struct {
	template *models.Template
	eval     *Evaluator
	interval time.Duration

	phase   Phase
	current int
	values  map[string]any
	results []StepResult
}

func New(t *models.Template, opts ...Option) (*Session, error) {
	if t == nil {
		return nil, errors.New("no template to preview")
	}
	eval, err := NewEvaluator()
	if err != nil {
		return nil, err
	}
	s := &Session{
		template: t.Clone(),
		eval:     eval,
		interval: DefaultInterval,
		phase:    PhaseForm,
		values:   parameters.Defaults(t.Spec.Parameters),
	}
	for _, o := range opts {
		o(s)
	}
	if len(s.template.Spec.Parameters) == 0 {
		s.phase = PhaseReview
	}
	return s, nil
}

func (s *Session) Phase() Phase { return s.phase }

// CurrentStep is the wizard page being filled, or nil outside the form.
func (s *Session) CurrentStep() *models.ParameterStep {
	if s.phase != PhaseForm || s.current >= len(s.template.Spec.Parameters) {
		return nil
	}
	return &s.template.Spec.Parameters[s.current]
}

// StepIndex is the zero-based wizard page.
func (s *Session) StepIndex() int { return s.current }

func (s *Session) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = models.CloneValue(v)
	}
	return out
}

// Set changes one form value.
func (s *Session) Set(key string, value any) error {
	if s.phase != PhaseForm {
		return ErrWrongPhase
	}
	s.values[key] = value
	return nil
}

// Next advances the wizard. Leaving a page checks its values against the
// page schema. Leaving the last page enters review.
func (s *Session) Next() error {
	if s.phase != PhaseForm {
		return ErrWrongPhase
	}
	if step := s.CurrentStep(); step != nil {
		if err := validator.ValidateValues(step, s.values); err != nil {
			return fmt.Errorf("%s: %w", step.Title, err)
		}
	}
	if s.current >= len(s.template.Spec.Parameters)-1 {
		s.phase = PhaseReview
		return nil
	}
	s.current++
	return nil
}

// Back returns to the previous page. From review it returns to the last page.
func (s *Session) Back() error {
	switch {
	case s.phase == PhaseReview && len(s.template.Spec.Parameters) > 0:
		s.phase = PhaseForm
		s.current = len(s.template.Spec.Parameters) - 1
	case s.phase == PhaseForm && s.current > 0:
		s.current--
	case s.phase == PhaseForm:
	default:
		return ErrWrongPhase
	}
	return nil
}

// Reset starts over with the property defaults.
func (s *Session) Reset() {
	s.current = 0
	s.values = parameters.Defaults(s.template.Spec.Parameters)
	s.results = nil
	s.phase = PhaseForm
	if len(s.template.Spec.Parameters) == 0 {
		s.phase = PhaseReview
	}
}

// Plan resolves each step against the current values: its condition and
// its input with parameter references substituted.
func (s *Session) Plan() []StepResult {
	plan := make([]StepResult, 0, len(s.template.Spec.Steps))
	for i, step := range s.template.Spec.Steps {
		r := StepResult{
			Index:  i,
			ID:     step.ID,
			Name:   step.Name,
			Action: step.Action,
			Status: StatusPending,
		}

		if step.If != "" {
			ok, err := s.eval.Evaluate(step.If, s.values)
			switch {
			case err != nil:
				r.Note = fmt.Sprintf("condition %q could not be evaluated, assuming true", step.If)
			case !ok:
				r.Status = StatusSkipped
				r.Note = fmt.Sprintf("condition %q is false", step.If)
			}
		}

		input, err := parameters.NewParameterProcessor().ProcessMap(step.Input, s.values)
		var missing *parameters.MissingError
		if errors.As(err, &missing) {
			r.Missing = missing.Names
		}
		r.Input = input
		plan = append(plan, r)
	}
	return plan
}

// Run simulates the pipeline, one step per interval, calling report on every
// status change. It must be called in review and ends in complete unless ctx
// is cancelled first.
func (s *Session) Run(ctx context.Context, report func(StepResult)) ([]StepResult, error) {
	if s.phase != PhaseReview {
		return nil, ErrWrongPhase
	}
	if report == nil {
		report = func(StepResult) {}
	}

	s.phase = PhaseRunning
	s.results = s.Plan()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i := range s.results {
		r := &s.results[i]
		if r.Status == StatusSkipped {
			report(*r)
			continue
		}
		r.Status = StatusRunning
		report(*r)
		select {
		case <-ctx.Done():
			return s.results, ctx.Err()
		case <-ticker.C:
		}
		r.Status = StatusDone
		report(*r)
	}

	s.phase = PhaseComplete
	return s.results, nil
}

// Results is the outcome of the last run.
func (s *Session) Results() []StepResult {
	return s.results
}

// Links returns the output links with parameter references resolved.
func (s *Session) Links() []models.OutputLink {
	p := parameters.NewParameterProcessor()
	links := make([]models.OutputLink, 0, len(s.template.Spec.Output.Links))
	for _, l := range s.template.Spec.Output.Links {
		l.Title = toString(p.SubstituteString(l.Title, s.values))
		l.URL = toString(p.SubstituteString(l.URL, s.values))
		l.EntityRef = toString(p.SubstituteString(l.EntityRef, s.values))
		links = append(links, l)
	}
	return links
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
