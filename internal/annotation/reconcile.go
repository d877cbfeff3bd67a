package annotation

import (
	"context"
	"fmt"

	"golang.org/x/net/html"

	"github.com/dshills/glossa/internal/document"
	"github.com/dshills/glossa/internal/event"
	"github.com/dshills/glossa/internal/notes"
	"github.com/dshills/glossa/internal/storage"
)

// ReconcilePolicy decides what happens to a span that has no note.
type ReconcilePolicy string

const (
	// PolicyStrip unwraps the span, leaving its text in place.
	PolicyStrip ReconcilePolicy = "strip"
	// PolicyMaterialize keeps the span and gives it an empty note.
	PolicyMaterialize ReconcilePolicy = "materialize"
)

// ParsePolicy converts a configuration value into a ReconcilePolicy.
func ParsePolicy(s string) (ReconcilePolicy, error) {
	switch p := ReconcilePolicy(s); p {
	case PolicyStrip, PolicyMaterialize:
		return p, nil
	case "":
		return PolicyStrip, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Report summarizes what Load found and corrected.
type Report struct {
	// Defaulted is set when the store held no document.
	Defaulted bool
	// Faults lists every correction, in the order it was made.
	Faults []event.ConsistencyFault
}

// Load reads the session in repo and returns an engine over it. The stored
// markup is sanitized and reconciled with the stored notes; corrections are
// written back. A failed write-back is logged and left dirty for the next
// mutation; only a failed read is returned as an error.
func Load(ctx context.Context, repo *storage.Repository, opts ...Option) (*Engine, Report, error) {
	e := newEngine(append(opts, WithRepository(repo))...)
	var report Report

	markup, found, err := repo.LoadContent(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("load content: %w", err)
	}
	if !found {
		markup = e.defaultContent
		report.Defaulted = true
	}
	doc, err := document.Parse(document.Sanitize(markup))
	if err != nil {
		return nil, report, err
	}

	data, _, err := repo.LoadNotes(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("load notes: %w", err)
	}
	store, err := notes.Decode(data)
	if err != nil {
		f := event.ConsistencyFault{Kind: event.FaultMalformedNotes, Detail: err.Error()}
		e.fault(ctx, f)
		report.Faults = append(report.Faults, f)
		store = notes.NewStore()
	}

	e.doc, e.notes = doc, store
	faults := Reconcile(doc, store, e.policy)
	for _, f := range faults {
		e.fault(ctx, f)
	}
	report.Faults = append(report.Faults, faults...)

	if len(report.Faults) > 0 {
		e.docDirty, e.notesDirty = true, true
		if err := e.persist(ctx); err != nil {
			e.logger.Warn("could not write back reconciled session", "error", err)
		}
	}

	e.logger.Info("session loaded",
		"namespace", repo.Namespace(),
		"annotations", store.Len(),
		"faults", len(report.Faults),
		"defaulted", report.Defaulted)
	return e, report, nil
}

// Reconcile brings doc and store into one-to-one correspondence and returns
// the corrections it made. Nested spans and later duplicates of an id are
// unwrapped; notes without a span are deleted; spans without a note are
// handled according to policy.
func Reconcile(doc *document.Document, store *notes.Store, policy ReconcilePolicy) []event.ConsistencyFault {
	var (
		faults  []event.ConsistencyFault
		touched []*html.Node
	)
	unwrap := func(span *html.Node, f event.ConsistencyFault) {
		faults = append(faults, f)
		touched = append(touched, span.Parent)
		document.Unwrap(span)
	}

	seen := make(map[string]bool)
	for _, span := range doc.Find(IsSpan) {
		id := SpanID(span)
		switch {
		case id == "":
			unwrap(span, event.ConsistencyFault{Kind: event.FaultMissingID, Detail: "span without an id"})
		case document.Closest(span.Parent, IsSpan) != nil:
			unwrap(span, event.ConsistencyFault{Kind: event.FaultNestedSpan, ID: id, Detail: "span nested in another span"})
		case seen[id]:
			unwrap(span, event.ConsistencyFault{Kind: event.FaultDuplicateSpan, ID: id, Detail: "later duplicate unwrapped"})
		case !store.Has(id) && policy == PolicyMaterialize:
			seen[id] = true
			store.Put(id, "")
			faults = append(faults, event.ConsistencyFault{Kind: event.FaultOrphanSpan, ID: id, Detail: "empty note materialized"})
		case !store.Has(id):
			unwrap(span, event.ConsistencyFault{Kind: event.FaultOrphanSpan, ID: id, Detail: "span without note stripped"})
		default:
			seen[id] = true
		}
	}

	for _, id := range store.IDs() {
		if !seen[id] {
			store.Delete(id)
			faults = append(faults, event.ConsistencyFault{Kind: event.FaultOrphanNote, ID: id, Detail: "note without span dropped"})
		}
	}

	for _, parent := range touched {
		if doc.Contains(parent) {
			document.Normalize(parent)
		}
	}
	return faults
}
