package engine

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	courseModels "lms/models/course"
)

// Visibility is the access gate's answer for one viewer and one course.
type Visibility struct {
	CatalogVisible bool `json:"catalog_visible"`
	ContentVisible bool `json:"content_visible"`
	Enrolled       bool `json:"enrolled"`
}

// Evaluate applies the gate rules to an already loaded course. enrolled
// only counts for viewers with the student role.
func Evaluate(c courseModels.Course, v Viewer, enrolled bool) Visibility {
	vis := Visibility{
		CatalogVisible: c.IsCatalogVisible(),
		Enrolled:       enrolled && v.IsStudent(),
	}
	switch {
	case v.IsAnonymous():
	case c.InstructorID == v.UserID:
		vis.ContentVisible = true
	case v.IsAdmin():
		vis.ContentVisible = true
	case vis.Enrolled:
		vis.ContentVisible = true
	}
	return vis
}

// CanView reports catalog and content visibility of a course for v.
func (e *Engine) CanView(ctx context.Context, v Viewer, courseID uint) (Visibility, error) {
	db := e.conn(ctx)
	c, err := loadCourse(db, courseID)
	if err != nil {
		return Visibility{}, err
	}
	return e.evaluate(db, c, v)
}

func (e *Engine) evaluate(tx *gorm.DB, c *courseModels.Course, v Viewer) (Visibility, error) {
	enrolled := false
	if v.IsStudent() {
		var err error
		if enrolled, err = isEnrolled(tx, v.UserID, c.ID); err != nil {
			return Visibility{}, err
		}
	}
	return Evaluate(*c, v, enrolled), nil
}

// RequireContent returns the course when v may see its content and
// ErrAccessDenied otherwise.
func (e *Engine) RequireContent(ctx context.Context, v Viewer, courseID uint) (*courseModels.Course, error) {
	db := e.conn(ctx)
	c, err := loadCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	if err := e.requireContent(db, c, v); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Engine) requireContent(tx *gorm.DB, c *courseModels.Course, v Viewer) error {
	vis, err := e.evaluate(tx, c, v)
	if err != nil {
		return err
	}
	if !vis.ContentVisible {
		return errors.Wrapf(ErrAccessDenied, "course %d content requires enrollment", c.ID)
	}
	return nil
}

// IsEnrolled reports whether an enrollment exists for (studentID, courseID).
func (e *Engine) IsEnrolled(ctx context.Context, studentID, courseID uint) (bool, error) {
	db := e.conn(ctx)
	if _, err := loadCourse(db, courseID); err != nil {
		return false, err
	}
	return isEnrolled(db, studentID, courseID)
}

func isEnrolled(tx *gorm.DB, studentID, courseID uint) (bool, error) {
	var n int64
	err := tx.Model(&courseModels.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "check enrollment")
	}
	return n > 0, nil
}

// Enroll binds a student to a catalog-visible course. Enrolling twice
// returns the existing record with created=false.
func (e *Engine) Enroll(ctx context.Context, v Viewer, courseID uint) (*courseModels.Enrollment, bool, error) {
	if !v.IsStudent() {
		return nil, false, errors.Wrap(ErrForbidden, "only students may enroll")
	}

	var out courseModels.Enrollment
	created := false
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCourse(tx, courseID)
		if err != nil {
			return err
		}
		err = tx.Where("student_id = ? AND course_id = ?", v.UserID, c.ID).First(&out).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "load enrollment")
		}
		if !c.IsCatalogVisible() {
			return errors.Wrapf(ErrNotFound, "course %d is not open for enrollment", c.ID)
		}

		now := e.timestamp()
		out = courseModels.Enrollment{StudentID: v.UserID, CourseID: c.ID, EnrolledAt: now}
		res := tx.Clauses(onConflictDoNothing).Create(&out)
		if res.Error != nil {
			return errors.Wrap(res.Error, "create enrollment")
		}
		created = res.RowsAffected == 1
		return tx.Where("student_id = ? AND course_id = ?", v.UserID, c.ID).First(&out).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &out, created, nil
}
