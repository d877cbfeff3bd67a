package event

import (
	"time"

	"golang.org/x/net/html"

	"github.com/dshills/glossa/internal/event/topic"
)

// Topics published by glossa components.
const (
	TopicAnnotationCreated  topic.Topic = "annotation.created"
	TopicAnnotationRemoved  topic.Topic = "annotation.removed"
	TopicNoteUpdated        topic.Topic = "note.updated"
	TopicDocumentEdited     topic.Topic = "document.edited"
	TopicDocumentPersisted  topic.Topic = "document.persisted"
	TopicConsistencyFault   topic.Topic = "consistency.fault"
	TopicInteractionChanged topic.Topic = "interaction.state.changed"
)

// Event is one published occurrence.
type Event struct {
	// Topic is the hierarchical event type.
	Topic topic.Topic

	// Payload is one of the payload types below, or nil.
	Payload any

	// Source names the publishing component.
	Source string

	// Time is when the event was created.
	Time time.Time
}

// New creates an event stamped with the current time.
func New(t topic.Topic, payload any, source string) Event {
	return Event{Topic: t, Payload: payload, Source: source, Time: time.Now()}
}

// AnnotationCreated is the payload of TopicAnnotationCreated.
type AnnotationCreated struct {
	ID   string
	Text string
	Span *html.Node
}

// AnnotationRemoved is the payload of TopicAnnotationRemoved.
type AnnotationRemoved struct {
	ID string
	// Spans is the number of spans unwrapped; more than one is a fault.
	Spans int
}

// NoteUpdated is the payload of TopicNoteUpdated.
type NoteUpdated struct {
	ID      string
	Content string
}

// DocumentPersisted is the payload of TopicDocumentPersisted.
type DocumentPersisted struct {
	Namespace string
	Content   bool
	Notes     bool
}

// FaultKind classifies a consistency fault.
type FaultKind string

// Consistency fault kinds.
const (
	FaultOrphanSpan     FaultKind = "orphan-span"
	FaultOrphanNote     FaultKind = "orphan-note"
	FaultDuplicateSpan  FaultKind = "duplicate-span"
	FaultNestedSpan     FaultKind = "nested-span"
	FaultMissingID      FaultKind = "missing-id"
	FaultMalformedNotes FaultKind = "malformed-notes"
)

// ConsistencyFault is the payload of TopicConsistencyFault.
type ConsistencyFault struct {
	Kind   FaultKind
	ID     string
	Detail string
}

// InteractionChanged is the payload of TopicInteractionChanged.
type InteractionChanged struct {
	From string
	To   string
	ID   string
}
