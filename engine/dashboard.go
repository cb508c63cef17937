package engine

import (
	"context"
	"time"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"

	"lms/models"
	courseModels "lms/models/course"
)

type StudentDashboard struct {
	Enrollments []EnrollmentSummary `json:"enrollments"`
	InProgress  int                 `json:"in_progress"`
	Completed   int                 `json:"completed"`
}

type InstructorCourse struct {
	Course          courseModels.Course `json:"course"`
	EnrollmentCount int64               `json:"enrollment_count"`
	CompletedCount  int64               `json:"completed_count"`
}

type InstructorDashboard struct {
	Courses       []InstructorCourse `json:"courses"`
	ByStatus      map[string]int     `json:"by_status"`
	TotalStudents int64              `json:"total_students"`
}

type AdminDashboard struct {
	UsersByRole          map[string]int64 `json:"users_by_role"`
	CoursesByStatus      map[string]int64 `json:"courses_by_status"`
	PendingCourses       []CatalogEntry   `json:"pending_courses"`
	EnrollmentsToday     int64            `json:"enrollments_today"`
	EnrollmentsThisWeek  int64            `json:"enrollments_this_week"`
	EnrollmentsThisMonth int64            `json:"enrollments_this_month"`
	RecentUsers          []models.User    `json:"recent_users"`
}

func (e *Engine) StudentDashboard(ctx context.Context, v Viewer) (*StudentDashboard, error) {
	enrollments, err := e.MyEnrollments(ctx, v)
	if err != nil {
		return nil, err
	}
	d := &StudentDashboard{Enrollments: enrollments}
	for _, s := range enrollments {
		if s.Enrollment.CompletedAt != nil {
			d.Completed++
		} else {
			d.InProgress++
		}
	}
	return d, nil
}

// InstructorDashboard summarizes the actor's own courses.
func (e *Engine) InstructorDashboard(ctx context.Context, v Viewer) (*InstructorDashboard, error) {
	if !v.IsInstructor() && !v.IsAdmin() {
		return nil, errors.Wrap(ErrForbidden, "instructor dashboard")
	}
	db := e.conn(ctx)
	var courses []courseModels.Course
	if err := db.Where("instructor_id = ?", v.UserID).Order("created_at DESC, id DESC").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "list own courses")
	}

	d := &InstructorDashboard{
		Courses: make([]InstructorCourse, 0, len(courses)),
		ByStatus: map[string]int{
			courseModels.StatusPending:  0,
			courseModels.StatusApproved: 0,
			courseModels.StatusRejected: 0,
		},
	}
	ids := make([]uint, 0, len(courses))
	for _, c := range courses {
		ic := InstructorCourse{Course: c}
		q := db.Model(&courseModels.Enrollment{}).Where("course_id = ?", c.ID)
		if err := q.Count(&ic.EnrollmentCount).Error; err != nil {
			return nil, errors.Wrap(err, "count enrollments")
		}
		err := db.Model(&courseModels.Enrollment{}).
			Where("course_id = ? AND completed_at IS NOT NULL", c.ID).
			Count(&ic.CompletedCount).Error
		if err != nil {
			return nil, errors.Wrap(err, "count completions")
		}
		d.Courses = append(d.Courses, ic)
		d.ByStatus[c.Status]++
		ids = append(ids, c.ID)
	}
	if len(ids) > 0 {
		err := db.Model(&courseModels.Enrollment{}).
			Where("course_id IN ?", ids).
			Distinct("student_id").
			Count(&d.TotalStudents).Error
		if err != nil {
			return nil, errors.Wrap(err, "count students")
		}
	}
	return d, nil
}

func (e *Engine) AdminDashboard(ctx context.Context, v Viewer) (*AdminDashboard, error) {
	if !v.IsAdmin() {
		return nil, errors.Wrap(ErrForbidden, "admin dashboard")
	}
	db := e.conn(ctx)
	d := &AdminDashboard{
		UsersByRole:     map[string]int64{},
		CoursesByStatus: map[string]int64{},
	}

	for _, role := range []string{models.RoleStudent, models.RoleInstructor, models.RoleAdmin} {
		var n int64
		if err := db.Model(&models.User{}).Where("role = ?", role).Count(&n).Error; err != nil {
			return nil, errors.Wrap(err, "count users")
		}
		d.UsersByRole[role] = n
	}
	for _, status := range []string{courseModels.StatusPending, courseModels.StatusApproved, courseModels.StatusRejected} {
		var n int64
		if err := db.Model(&courseModels.Course{}).Where("status = ?", status).Count(&n).Error; err != nil {
			return nil, errors.Wrap(err, "count courses")
		}
		d.CoursesByStatus[status] = n
	}

	pending, err := e.ListCourses(ctx, v, courseModels.StatusPending)
	if err != nil {
		return nil, err
	}
	d.PendingCourses = pending

	t := now.With(e.timestamp())
	windows := []struct {
		since time.Time
		into  *int64
	}{
		{t.BeginningOfDay(), &d.EnrollmentsToday},
		{t.BeginningOfWeek(), &d.EnrollmentsThisWeek},
		{t.BeginningOfMonth(), &d.EnrollmentsThisMonth},
	}
	for _, w := range windows {
		if err := db.Model(&courseModels.Enrollment{}).Where("enrolled_at >= ?", w.since).Count(w.into).Error; err != nil {
			return nil, errors.Wrap(err, "count enrollments")
		}
	}

	if err := db.Order("created_at DESC, id DESC").Limit(5).Find(&d.RecentUsers).Error; err != nil {
		return nil, errors.Wrap(err, "recent users")
	}
	return d, nil
}
