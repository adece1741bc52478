package messaging

import (
	"fmt"
	"strings"

	"classline/internal/models"
)

const (
	classKeyPrefix  = "class-"
	courseKeyPrefix = "course-"
)

// DirectKey derives the conversation key for a user pair. The pair is sorted
// first, so both directions of a conversation land on the same key.
func DirectKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "-" + b
}

// ClassKey derives the conversation key for a class audience.
func ClassKey(classID string) string {
	return classKeyPrefix + classID
}

// CourseKey derives the conversation key for a course audience.
func CourseKey(courseID string) string {
	return courseKeyPrefix + courseID
}

// ParseKey classifies a conversation key and extracts its subject: the class
// or course ID, or the raw pair portion for direct keys. User IDs are uuids
// and never start with the reserved class-/course- prefixes, so the mapping
// is unambiguous.
func ParseKey(key string) (models.ConversationType, string, error) {
	switch {
	case strings.HasPrefix(key, classKeyPrefix):
		return models.TypeClass, strings.TrimPrefix(key, classKeyPrefix), nil
	case strings.HasPrefix(key, courseKeyPrefix):
		return models.TypeCourse, strings.TrimPrefix(key, courseKeyPrefix), nil
	case strings.Contains(key, "-"):
		return models.TypeDirect, key, nil
	default:
		return "", "", fmt.Errorf("malformed conversation key %q", key)
	}
}
