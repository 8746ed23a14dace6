// Package workflow implements the two-phase "preview then commit" mutations
// against the backend: apply credit, apply discount, record payment. One
// generic runner, specialized per workflow kind.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/shweproperty/buildingbooks/pkg/api"
)

// Kind identifies a workflow specialization.
type Kind string

const (
	KindCredit   Kind = "credit"
	KindDiscount Kind = "discount"
	KindPayment  Kind = "payment"
)

// State is the runner's position in the preview/commit lifecycle.
type State int

const (
	StateIdle State = iota
	StateFormEditing
	StatePreviewRequested
	StatePreviewShown
	StateCommitting
)

// ErrCommitInFlight is returned when a second commit is issued while one is
// still pending for the same runner. The latch exists to prevent duplicate
// financial postings from double-clicks or slow networks.
var ErrCommitInFlight = errors.New("a commit is already in flight")

var validate = validator.New()

// ValidationError is a pre-network failure of required-field checks. It is
// never sent to the backend.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, field+" "+msg)
	}
	sort.Strings(msgs)
	return "validation failed: " + strings.Join(msgs, "; ")
}

// validateForm runs struct validation and converts the result into a
// ValidationError with user-facing messages.
func validateForm(form interface{}) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "is required"
		case "gt":
			fields[fe.Field()] = "must be greater than " + fe.Param()
		default:
			fields[fe.Field()] = "is invalid"
		}
	}
	return &ValidationError{Fields: fields}
}

// Definition binds a runner to one workflow kind's endpoints and reset
// policy. Preview and Commit take the same form so the commit payload always
// mirrors what the user previewed.
type Definition struct {
	Kind    Kind
	Preview func(ctx context.Context, form interface{}) (*api.SplitsPreview, error)
	Commit  func(ctx context.Context, form interface{}) error
	Reset   func(form interface{})
}

// Runner orchestrates one workflow instance: local validation, the dry-run
// preview, the commit with its double-submit latch, and the post-commit
// refresh fan-out.
type Runner struct {
	def Definition
	log *slog.Logger

	committing atomic.Bool

	mu          sync.Mutex
	state       State
	preview     *api.SplitsPreview
	afterCommit []func(ctx context.Context) error
}

// NewRunner creates a runner in the form-editing state.
func NewRunner(def Definition, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{def: def, log: log, state: StateFormEditing}
}

// Kind returns the workflow kind.
func (r *Runner) Kind() Kind {
	return r.def.Kind
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Preview returns the held dry-run result, if any.
func (r *Runner) Preview() *api.SplitsPreview {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preview
}

// OnCommitted registers a refresh callback run after every successful
// commit. Callback failures are secondary: they are logged, never reported
// as a failure of the commit itself.
func (r *Runner) OnCommitted(fn func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterCommit = append(r.afterCommit, fn)
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// RequestPreview validates the form locally and, only if valid, asks the
// backend for the splits the commit would create. Validation failures make
// no network call. The form is left untouched on any failure so the user
// can correct and retry.
func (r *Runner) RequestPreview(ctx context.Context, form interface{}) (*api.SplitsPreview, error) {
	if err := validateForm(form); err != nil {
		return nil, err
	}

	r.setState(StatePreviewRequested)
	preview, err := r.def.Preview(ctx, form)
	if err != nil {
		r.setState(StateFormEditing)
		return nil, err
	}

	r.mu.Lock()
	r.preview = preview
	r.state = StatePreviewShown
	r.mu.Unlock()
	return preview, nil
}

// Commit validates and persists the mutation, then fans out the refresh
// callbacks and resets the form per the workflow's reset policy. While one
// commit is pending, further calls return ErrCommitInFlight.
func (r *Runner) Commit(ctx context.Context, form interface{}) error {
	if !r.committing.CompareAndSwap(false, true) {
		return ErrCommitInFlight
	}
	defer r.committing.Store(false)

	if err := validateForm(form); err != nil {
		return err
	}

	r.setState(StateCommitting)
	if err := r.def.Commit(ctx, form); err != nil {
		// Back to editing with the entered values intact.
		r.setState(StateFormEditing)
		return err
	}

	r.mu.Lock()
	callbacks := make([]func(ctx context.Context) error, len(r.afterCommit))
	copy(callbacks, r.afterCommit)
	r.preview = nil
	r.mu.Unlock()

	for _, fn := range callbacks {
		if err := fn(ctx); err != nil {
			r.log.Warn("post-commit refresh failed", "workflow", r.def.Kind, "error", err)
		}
	}

	if r.def.Reset != nil {
		r.def.Reset(form)
	}
	r.setState(StateFormEditing)
	return nil
}

// Discard drops any held preview, e.g. when the modal closes.
func (r *Runner) Discard() {
	r.mu.Lock()
	r.preview = nil
	r.state = StateIdle
	r.mu.Unlock()
}
