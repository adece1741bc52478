package messaging

import "classline/internal/models"

// Audience identifies who a message is addressed to. Exactly one of the
// target fields is set, matching the Kind.
type Audience struct {
	Kind        models.ConversationType
	RecipientID string
	ClassID     string
	CourseID    string
}

// Direct addresses a single user.
func Direct(recipientID string) Audience {
	return Audience{Kind: models.TypeDirect, RecipientID: recipientID}
}

// Class addresses everyone on a class roster.
func Class(classID string) Audience {
	return Audience{Kind: models.TypeClass, ClassID: classID}
}

// Course addresses everyone on a course roster.
func Course(courseID string) Audience {
	return Audience{Kind: models.TypeCourse, CourseID: courseID}
}

// Key derives the deterministic conversation key for this audience as seen by
// the given sender.
func (a Audience) Key(senderID string) string {
	switch a.Kind {
	case models.TypeClass:
		return ClassKey(a.ClassID)
	case models.TypeCourse:
		return CourseKey(a.CourseID)
	default:
		return DirectKey(senderID, a.RecipientID)
	}
}
