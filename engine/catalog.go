package engine

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"lms/models"
	courseModels "lms/models/course"
)

const DefaultPageSize = 9

type CatalogQuery struct {
	Search   string
	Category string
	Sort     string // newest (default) or title
	Page     int
	Limit    int
}

// CatalogEntry is a course as shown in listings.
type CatalogEntry struct {
	courseModels.Course
	InstructorName string `json:"instructor_name"`
}

type CoursePage struct {
	Items []CatalogEntry `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// EnrollmentSummary is one enrollment with the course and its progress.
type EnrollmentSummary struct {
	Enrollment     courseModels.Enrollment `json:"enrollment"`
	Course         courseModels.Course     `json:"course"`
	Percent        int                     `json:"percent"`
	ResumeLessonID *uint                   `json:"resume_lesson_id"`
}

func (q *CatalogQuery) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = DefaultPageSize
	}
	if q.Sort != "title" {
		q.Sort = "newest"
	}
}

// ListCatalog pages through catalog-visible courses.
func (e *Engine) ListCatalog(ctx context.Context, q CatalogQuery) (*CoursePage, error) {
	q.normalize()
	db := e.conn(ctx)

	base := db.Model(&courseModels.Course{}).
		Where("status = ? AND is_published = ?", courseModels.StatusApproved, true)
	if cat := strings.TrimSpace(q.Category); cat != "" {
		base = base.Where("LOWER(category) = ?", strings.ToLower(cat))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		names := db.Model(&models.User{}).Select("id").Where("LOWER(name) LIKE ?", like)
		base = base.Where(
			db.Where("LOWER(title) LIKE ?", like).
				Or("LOWER(description) LIKE ?", like).
				Or("instructor_id IN (?)", names),
		)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "count catalog")
	}

	order := "created_at DESC, id DESC"
	if q.Sort == "title" {
		order = "title ASC, id ASC"
	}
	var courses []courseModels.Course
	err := base.Session(&gorm.Session{}).
		Order(order).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&courses).Error
	if err != nil {
		return nil, errors.Wrap(err, "list catalog")
	}

	items, err := withInstructorNames(db, courses)
	if err != nil {
		return nil, err
	}
	return &CoursePage{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// ListCourses returns every course for the admin panel, optionally
// filtered by moderation status.
func (e *Engine) ListCourses(ctx context.Context, actor Viewer, status string) ([]CatalogEntry, error) {
	if !actor.IsAdmin() {
		return nil, errors.Wrap(ErrForbidden, "only admins may list all courses")
	}
	db := e.conn(ctx)
	query := db.Order("created_at DESC, id DESC")
	switch status {
	case "":
	case courseModels.StatusPending, courseModels.StatusApproved, courseModels.StatusRejected:
		query = query.Where("status = ?", status)
	default:
		return nil, errors.Wrapf(ErrValidation, "unknown status %q", status)
	}
	var courses []courseModels.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	return withInstructorNames(db, courses)
}

func withInstructorNames(tx *gorm.DB, courses []courseModels.Course) ([]CatalogEntry, error) {
	out := make([]CatalogEntry, 0, len(courses))
	if len(courses) == 0 {
		return out, nil
	}
	ids := make([]uint, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.InstructorID)
	}
	var users []models.User
	if err := tx.Select("id", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "load instructors")
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	for _, c := range courses {
		out = append(out, CatalogEntry{Course: c, InstructorName: names[c.InstructorID]})
	}
	return out, nil
}

// MyEnrollments lists the student's enrollments, newest first.
func (e *Engine) MyEnrollments(ctx context.Context, v Viewer) ([]EnrollmentSummary, error) {
	if !v.IsStudent() {
		return nil, errors.Wrap(ErrForbidden, "only students have enrollments")
	}
	db := e.conn(ctx)
	var enrollments []courseModels.Enrollment
	err := db.Preload("Course").
		Where("student_id = ?", v.UserID).
		Order("enrolled_at DESC, id DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, errors.Wrap(err, "list enrollments")
	}

	out := make([]EnrollmentSummary, 0, len(enrollments))
	for _, enr := range enrollments {
		if enr.Course == nil {
			continue
		}
		_, done, total, err := courseCounts(db, v.UserID, enr.CourseID)
		if err != nil {
			return nil, err
		}
		s := EnrollmentSummary{Course: *enr.Course, Percent: Percent(done, total)}
		next, err := firstIncomplete(db, v.UserID, enr.CourseID)
		if err != nil {
			return nil, err
		}
		if next != nil {
			s.ResumeLessonID = &next.ID
		}
		enr.Course = nil
		s.Enrollment = enr
		out = append(out, s)
	}
	return out, nil
}

// ListUsers returns users for the admin panel, optionally by role.
func (e *Engine) ListUsers(ctx context.Context, actor Viewer, role string) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, errors.Wrap(ErrForbidden, "only admins may list users")
	}
	query := e.conn(ctx).Order("id")
	if role != "" {
		if !models.IsValidRole(role) {
			return nil, errors.Wrapf(ErrValidation, "unknown role %q", role)
		}
		query = query.Where("role = ?", role)
	}
	users := make([]models.User, 0)
	if err := query.Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return users, nil
}
