package domain

// Operation is the kind of content write that produced a status snapshot.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Transition is the publish lifecycle change implied by a write.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionFreshPublish
	TransitionRepublish
	TransitionUnpublish
)

func (t Transition) String() string {
	switch t {
	case TransitionFreshPublish:
		return "fresh-publish"
	case TransitionRepublish:
		return "republish"
	case TransitionUnpublish:
		return "unpublish"
	}
	return "none"
}

// Classify derives the lifecycle transition from the before/after publish status.
// For creates prev is ignored; for deletes next is ignored.
func Classify(prev, next Status, op Operation) Transition {
	switch op {
	case OpCreate:
		if next == StatusPublished {
			return TransitionFreshPublish
		}
		return TransitionNone
	case OpUpdate:
		switch {
		case prev != StatusPublished && next == StatusPublished:
			return TransitionFreshPublish
		case prev == StatusPublished && next == StatusPublished:
			return TransitionRepublish
		case prev == StatusPublished && next != StatusPublished:
			return TransitionUnpublish
		}
		return TransitionNone
	case OpDelete:
		if prev == StatusPublished {
			return TransitionUnpublish
		}
	}
	return TransitionNone
}
