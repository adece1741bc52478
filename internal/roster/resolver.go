package roster

import (
	"context"
	"errors"
	"sort"

	"classline/internal/cache"
	"classline/internal/models"
	"classline/internal/observability"
	"classline/internal/repository"
)

// Resolver expands a class or course into its full participant list: the
// people who should receive a message addressed to that audience.
type Resolver interface {
	// ResolveClassRoster returns the class's students, the class teacher, and
	// the teachers of every course taught against the class. A missing class
	// resolves to an empty roster, not an error.
	ResolveClassRoster(ctx context.Context, classID string) ([]models.User, error)

	// ResolveCourseRoster returns the course teacher plus the students of all
	// classes enrolled in the course. A missing course resolves to an empty
	// roster, not an error.
	ResolveCourseRoster(ctx context.Context, courseID string) ([]models.User, error)
}

type resolver struct {
	users   repository.UserRepository
	classes repository.ClassRepository
	courses repository.CourseRepository
	log     *observability.Logger
}

// NewResolver returns a Resolver backed by the given repositories.
func NewResolver(users repository.UserRepository, classes repository.ClassRepository, courses repository.CourseRepository) Resolver {
	return &resolver{
		users:   users,
		classes: classes,
		courses: courses,
		log:     observability.GlobalLogger,
	}
}

func (r *resolver) ResolveClassRoster(ctx context.Context, classID string) ([]models.User, error) {
	var roster []models.User
	err := cache.Aside(ctx, cache.ClassRosterKey(classID), &roster, cache.RosterTTL, func() error {
		resolved, err := r.resolveClass(ctx, classID)
		if err != nil {
			return err
		}
		roster = resolved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}

func (r *resolver) resolveClass(ctx context.Context, classID string) ([]models.User, error) {
	class, err := r.classes.GetByID(ctx, classID)
	if err != nil {
		if isNotFound(err) {
			return []models.User{}, nil
		}
		return nil, err
	}

	members := map[string]models.User{}

	students, err := r.users.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	for _, u := range students {
		if u.Role == models.RoleStudent {
			members[u.ID] = u
		}
	}

	r.addUser(ctx, members, class.TeacherID)

	// Teachers of courses that include this class also belong in the class
	// audience: they message the class even without owning it.
	courses, err := r.courses.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	for _, course := range courses {
		r.addUser(ctx, members, course.TeacherID)
	}

	return flatten(members), nil
}

func (r *resolver) ResolveCourseRoster(ctx context.Context, courseID string) ([]models.User, error) {
	var roster []models.User
	err := cache.Aside(ctx, cache.CourseRosterKey(courseID), &roster, cache.RosterTTL, func() error {
		resolved, err := r.resolveCourse(ctx, courseID)
		if err != nil {
			return err
		}
		roster = resolved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}

func (r *resolver) resolveCourse(ctx context.Context, courseID string) ([]models.User, error) {
	course, err := r.courses.GetByID(ctx, courseID)
	if err != nil {
		if isNotFound(err) {
			return []models.User{}, nil
		}
		return nil, err
	}

	members := map[string]models.User{}
	r.addUser(ctx, members, course.TeacherID)

	for _, classID := range course.ClassIDs {
		students, err := r.users.ListByClass(ctx, classID)
		if err != nil {
			return nil, err
		}
		for _, u := range students {
			if u.Role == models.RoleStudent {
				members[u.ID] = u
			}
		}
	}

	return flatten(members), nil
}

// addUser fetches one user into the member set. A dangling reference (deleted
// teacher, stale ID) is skipped rather than failing the whole roster.
func (r *resolver) addUser(ctx context.Context, members map[string]models.User, userID string) {
	if userID == "" {
		return
	}
	if _, ok := members[userID]; ok {
		return
	}
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if !isNotFound(err) {
			r.log.Warn("roster member lookup failed", "user_id", userID, "error", err)
		}
		return
	}
	members[userID] = *user
}

func flatten(members map[string]models.User) []models.User {
	roster := make([]models.User, 0, len(members))
	for _, u := range members {
		roster = append(roster, u)
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID < roster[j].ID })
	return roster
}

func isNotFound(err error) bool {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Code == models.CodeNotFound
	}
	return false
}
