package register

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/paneron/internal/log"
	"github.com/zjrosen/paneron/internal/tracing"
)

// Persistable is implemented by Register, DataSet, ItemClass and Item.
type Persistable interface {
	// Kind names the entity kind, e.g. "Data set".
	Kind() string

	// Path returns the entity's current location, derived from its parent.
	Path() string

	// Validate checks the entity's on-disk structure and returns a
	// *ValidationError holding every problem found, or nil.
	Validate() error

	// IsValid reports whether Validate returns nil.
	IsValid() bool

	parentNode() Persistable
	root() *Register
	problems() []string
	saveTree(ctx context.Context) error
}

var (
	_ Persistable = (*Register)(nil)
	_ Persistable = (*DataSet)(nil)
	_ Persistable = (*ItemClass)(nil)
	_ Persistable = (*Item)(nil)
)

func tracer() trace.Tracer {
	return otel.Tracer(tracing.TracerName)
}

// save runs the shared save sequence for n: every strict ancestor must be
// structurally valid, n must pass in-memory validation, then n and its
// cached descendants are written and the result committed once.
func save(ctx context.Context, n Persistable) (err error) {
	ctx, span := tracer().Start(ctx, tracing.SpanSave, trace.WithAttributes(
		attribute.String(tracing.AttrEntityKind, n.Kind()),
		attribute.String(tracing.AttrEntityPath, n.Path()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	for p := n.parentNode(); p != nil; p = p.parentNode() {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("parent %s is not valid: %w", p.Kind(), err)
		}
	}

	if err := validationResult(n.Kind(), n.problems()); err != nil {
		return err
	}

	if err := n.saveTree(ctx); err != nil {
		return err
	}

	reg := n.root()
	if reg == nil {
		return nil
	}
	hash, err := reg.commitIfStaged(fmt.Sprintf("Update %s, from paneron", n.Kind()))
	if err != nil {
		return err
	}
	if hash != "" {
		span.SetAttributes(attribute.String(tracing.AttrCommitHash, hash))
	}
	log.Debug(log.CatRegister, "saved", "kind", n.Kind(), "path", n.Path(), "commit", hash)
	return nil
}

// structural runs checks and wraps any failure in a *ValidationError.
func structural(kind string, checks ...func() error) error {
	var msgs []string
	for _, check := range checks {
		if err := check(); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return validationResult(kind, msgs)
}
