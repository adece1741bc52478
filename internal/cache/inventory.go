package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix         = "user:%s"
	ClassKeyPrefix        = "class:%s"
	CourseKeyPrefix       = "course:%s"
	ClassRosterKeyPrefix  = "roster:class:%s"
	CourseRosterKeyPrefix = "roster:course:%s"
)

// Roster TTLs are short: a stale roster delays a new student's visibility in
// class threads but never corrupts message snapshots.
const (
	UserTTL   = 5 * time.Minute
	ClassTTL  = 10 * time.Minute
	CourseTTL = 10 * time.Minute
	RosterTTL = 1 * time.Minute
)

func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ClassKey(classID string) string {
	return fmt.Sprintf(ClassKeyPrefix, classID)
}

func CourseKey(courseID string) string {
	return fmt.Sprintf(CourseKeyPrefix, courseID)
}

func ClassRosterKey(classID string) string {
	return fmt.Sprintf(ClassRosterKeyPrefix, classID)
}

func CourseRosterKey(courseID string) string {
	return fmt.Sprintf(CourseRosterKeyPrefix, courseID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateClass(ctx context.Context, classID string) {
	Invalidate(ctx, ClassKey(classID))
	Invalidate(ctx, ClassRosterKey(classID))
}

func InvalidateCourse(ctx context.Context, courseID string) {
	Invalidate(ctx, CourseKey(courseID))
	Invalidate(ctx, CourseRosterKey(courseID))
}
