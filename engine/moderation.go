package engine

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"lms/models"
	courseModels "lms/models/course"
)

// Approve moves a pending course to approved and publishes it.
func (e *Engine) Approve(ctx context.Context, actor Viewer, courseID uint) (*courseModels.Course, error) {
	if !actor.IsAdmin() {
		return nil, errors.Wrap(ErrForbidden, "only admins may approve courses")
	}

	var out *courseModels.Course
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCourse(tx, courseID)
		if err != nil {
			return err
		}
		if c.Status != courseModels.StatusPending {
			return errors.Wrapf(ErrInvalidTransition, "cannot approve course %d in status %s", c.ID, c.Status)
		}
		updates := map[string]interface{}{
			"status":           courseModels.StatusApproved,
			"is_published":     true,
			"rejection_reason": "",
			"updated_at":       e.timestamp(),
		}
		if err := transition(tx, c.ID, courseModels.StatusPending, updates); err != nil {
			return err
		}
		c.Status = courseModels.StatusApproved
		c.IsPublished = true
		c.RejectionReason = ""
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reject moves a pending course to rejected. reason must not be blank.
func (e *Engine) Reject(ctx context.Context, actor Viewer, courseID uint, reason string) (*courseModels.Course, error) {
	if !actor.IsAdmin() {
		return nil, errors.Wrap(ErrForbidden, "only admins may reject courses")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.Wrap(ErrValidation, "rejection reason is required")
	}

	var out *courseModels.Course
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCourse(tx, courseID)
		if err != nil {
			return err
		}
		if c.Status != courseModels.StatusPending {
			return errors.Wrapf(ErrInvalidTransition, "cannot reject course %d in status %s", c.ID, c.Status)
		}
		updates := map[string]interface{}{
			"status":           courseModels.StatusRejected,
			"is_published":     false,
			"rejection_reason": reason,
			"updated_at":       e.timestamp(),
		}
		if err := transition(tx, c.ID, courseModels.StatusPending, updates); err != nil {
			return err
		}
		c.Status = courseModels.StatusRejected
		c.IsPublished = false
		c.RejectionReason = reason
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Resubmit sends a rejected course back to moderation. Only the owning
// instructor or an admin may do it.
func (e *Engine) Resubmit(ctx context.Context, actor Viewer, courseID uint) (*courseModels.Course, error) {
	var out *courseModels.Course
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCourse(tx, courseID)
		if err != nil {
			return err
		}
		if !canAuthor(actor, c) {
			return errors.Wrapf(ErrForbidden, "course %d belongs to another instructor", c.ID)
		}
		if err := resubmitTx(tx, c, e.timestamp()); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func resubmitTx(tx *gorm.DB, c *courseModels.Course, at time.Time) error {
	if c.Status != courseModels.StatusRejected {
		return errors.Wrapf(ErrInvalidTransition, "cannot resubmit course %d in status %s", c.ID, c.Status)
	}
	updates := map[string]interface{}{
		"status":           courseModels.StatusPending,
		"is_published":     false,
		"rejection_reason": "",
		"updated_at":       at,
	}
	if err := transition(tx, c.ID, courseModels.StatusRejected, updates); err != nil {
		return err
	}
	c.Status = courseModels.StatusPending
	c.IsPublished = false
	c.RejectionReason = ""
	return nil
}

// transition applies updates only while the course is still in status from.
// A concurrent writer that got there first leaves zero affected rows.
func transition(tx *gorm.DB, courseID uint, from string, updates map[string]interface{}) error {
	res := tx.Model(&courseModels.Course{}).
		Where("id = ? AND status = ?", courseID, from).
		Updates(updates)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update course %d", courseID)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrInvalidTransition, "course %d is no longer %s", courseID, from)
	}
	return nil
}

// DeleteCourse removes a course and everything it owns. Admin only.
func (e *Engine) DeleteCourse(ctx context.Context, actor Viewer, courseID uint) error {
	if !actor.IsAdmin() {
		return errors.Wrap(ErrForbidden, "only admins may delete courses")
	}
	return e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadCourse(tx, courseID); err != nil {
			return err
		}
		return deleteCourseTx(tx, courseID)
	})
}

// DeleteUser removes a user and every row that references them as student
// or instructor. Admin accounts cannot be deleted.
func (e *Engine) DeleteUser(ctx context.Context, actor Viewer, userID uint) error {
	if !actor.IsAdmin() {
		return errors.Wrap(ErrForbidden, "only admins may delete users")
	}
	return e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		if u.Role == models.RoleAdmin {
			return errors.Wrapf(ErrForbidden, "user %d is an admin", u.ID)
		}

		var owned []uint
		if err := tx.Model(&courseModels.Course{}).Where("instructor_id = ?", u.ID).Pluck("id", &owned).Error; err != nil {
			return errors.Wrap(err, "list owned courses")
		}
		for _, id := range owned {
			if err := deleteCourseTx(tx, id); err != nil {
				return err
			}
		}

		studentRows := []interface{}{
			&courseModels.Submission{},
			&courseModels.QuizAttempt{},
			&courseModels.LessonProgress{},
			&courseModels.Enrollment{},
		}
		for _, model := range studentRows {
			if err := tx.Where("student_id = ?", u.ID).Delete(model).Error; err != nil {
				return errors.Wrapf(err, "delete %T of user %d", model, u.ID)
			}
		}
		if err := tx.Where("user_id = ?", u.ID).Delete(&models.LoginTracking{}).Error; err != nil {
			return errors.Wrap(err, "delete login history")
		}
		if err := tx.Delete(&models.User{}, u.ID).Error; err != nil {
			return errors.Wrapf(err, "delete user %d", u.ID)
		}
		return nil
	})
}

// deleteCourseTx deletes children before parents so foreign keys hold at
// every step.
func deleteCourseTx(tx *gorm.DB, courseID uint) error {
	var moduleIDs, lessonIDs, assignmentIDs []uint
	if err := tx.Model(&courseModels.Module{}).Where("course_id = ?", courseID).Pluck("id", &moduleIDs).Error; err != nil {
		return errors.Wrap(err, "list modules")
	}
	if len(moduleIDs) > 0 {
		if err := tx.Model(&courseModels.Lesson{}).Where("module_id IN ?", moduleIDs).Pluck("id", &lessonIDs).Error; err != nil {
			return errors.Wrap(err, "list lessons")
		}
	}
	if len(lessonIDs) > 0 {
		if err := tx.Model(&courseModels.Assignment{}).Where("lesson_id IN ?", lessonIDs).Pluck("id", &assignmentIDs).Error; err != nil {
			return errors.Wrap(err, "list assignments")
		}
	}

	steps := []struct {
		cond  string
		ids   interface{}
		model interface{}
		skip  bool
	}{
		{"assignment_id IN ?", assignmentIDs, &courseModels.Submission{}, len(assignmentIDs) == 0},
		{"id IN ?", assignmentIDs, &courseModels.Assignment{}, len(assignmentIDs) == 0},
		{"lesson_id IN ?", lessonIDs, &courseModels.QuizAttempt{}, len(lessonIDs) == 0},
		{"lesson_id IN ?", lessonIDs, &courseModels.LessonProgress{}, len(lessonIDs) == 0},
		{"id IN ?", lessonIDs, &courseModels.Lesson{}, len(lessonIDs) == 0},
		{"course_id = ?", courseID, &courseModels.Module{}, false},
		{"course_id = ?", courseID, &courseModels.Enrollment{}, false},
		{"id = ?", courseID, &courseModels.Course{}, false},
	}
	for _, s := range steps {
		if s.skip {
			continue
		}
		if err := tx.Where(s.cond, s.ids).Delete(s.model).Error; err != nil {
			return errors.Wrapf(err, "delete %T of course %d", s.model, courseID)
		}
	}
	return nil
}

// canAuthor reports whether actor may edit the course's content.
func canAuthor(actor Viewer, c *courseModels.Course) bool {
	if actor.IsAnonymous() {
		return false
	}
	return actor.IsAdmin() || c.InstructorID == actor.UserID
}
