package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	courseModels "lms/models/course"
)

// ProgressReport is a student's standing in one course.
type ProgressReport struct {
	CourseID    uint       `json:"course_id"`
	Total       int64      `json:"total_lessons"`
	Completed   int64      `json:"completed_lessons"`
	Percent     int        `json:"percent"`
	Enrolled    bool       `json:"enrolled"`
	CompletedAt *time.Time `json:"completed_at"`
}

// CompletionResult is returned by MarkLessonComplete.
type CompletionResult struct {
	Progress        courseModels.LessonProgress `json:"progress"`
	CourseID        uint                        `json:"course_id"`
	Percent         int                         `json:"percent"`
	CourseCompleted bool                        `json:"course_completed"`
	// JustCompleted is true only for the call that stamped the enrollment.
	JustCompleted bool  `json:"just_completed"`
	NextLessonID  *uint `json:"next_lesson_id"`
}

// LessonView is a lesson with its navigation context.
type LessonView struct {
	Lesson       courseModels.Lesson   `json:"lesson"`
	CourseID     uint                  `json:"course_id"`
	ModuleTitle  string                `json:"module_title"`
	Siblings     []courseModels.Lesson `json:"siblings"`
	NextLessonID *uint                 `json:"next_lesson_id"`
	Completed    bool                  `json:"completed"`
}

// ComputeProgress returns floor(100 * completed / total) for the student.
func (e *Engine) ComputeProgress(ctx context.Context, studentID, courseID uint) (int, error) {
	db := e.conn(ctx)
	if _, err := loadUser(db, studentID); err != nil {
		return 0, err
	}
	if _, err := loadCourse(db, courseID); err != nil {
		return 0, err
	}
	_, done, total, err := courseCounts(db, studentID, courseID)
	if err != nil {
		return 0, err
	}
	return Percent(done, total), nil
}

// Progress is the gated report behind GET /courses/:id/progress.
func (e *Engine) Progress(ctx context.Context, v Viewer, courseID uint) (*ProgressReport, error) {
	db := e.conn(ctx)
	c, err := loadCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	if err := e.requireContent(db, c, v); err != nil {
		return nil, err
	}
	_, done, total, err := courseCounts(db, v.UserID, c.ID)
	if err != nil {
		return nil, err
	}
	report := &ProgressReport{CourseID: c.ID, Total: total, Completed: done, Percent: Percent(done, total)}

	var enr courseModels.Enrollment
	err = db.Where("student_id = ? AND course_id = ?", v.UserID, c.ID).First(&enr).Error
	switch {
	case err == nil:
		report.Enrolled = true
		report.CompletedAt = enr.CompletedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.Wrap(err, "load enrollment")
	}
	return report, nil
}

func courseCounts(tx *gorm.DB, studentID, courseID uint) ([]courseModels.Lesson, int64, int64, error) {
	lessons, err := courseLessons(tx, courseID)
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "load lessons of course %d", courseID)
	}
	done, err := completedCount(tx, studentID, lessonIDs(lessons))
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "count completed lessons")
	}
	return lessons, done, int64(len(lessons)), nil
}

// MarkLessonComplete records the lesson as completed for the viewer and
// stamps the enrollment when the last lesson of the course is done. Calling
// it again changes nothing.
func (e *Engine) MarkLessonComplete(ctx context.Context, v Viewer, lessonID uint) (*CompletionResult, error) {
	if v.IsAnonymous() {
		return nil, errors.Wrap(ErrAccessDenied, "login required")
	}

	var out CompletionResult
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		lesson, _, c, err := courseOfLesson(tx, lessonID)
		if err != nil {
			return err
		}
		if err := e.requireContent(tx, c, v); err != nil {
			return err
		}

		// Lock the enrollment first so two completions racing on the last
		// lessons of a course serialize on it.
		var enr courseModels.Enrollment
		enrolled := true
		err = tx.Clauses(forUpdate).
			Where("student_id = ? AND course_id = ?", v.UserID, c.ID).
			First(&enr).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			enrolled = false
		} else if err != nil {
			return errors.Wrap(err, "lock enrollment")
		}

		now := e.timestamp()
		if err := upsertProgress(tx, v.UserID, lesson.ID, now); err != nil {
			return err
		}
		if err := tx.Where("student_id = ? AND lesson_id = ?", v.UserID, lesson.ID).First(&out.Progress).Error; err != nil {
			return errors.Wrap(err, "reload progress")
		}

		lessons, done, total, err := courseCounts(tx, v.UserID, c.ID)
		if err != nil {
			return err
		}
		out.CourseID = c.ID
		out.Percent = Percent(done, total)
		if next, ok := NextAfter(lessons, lesson.ID); ok {
			out.NextLessonID = &next
		}

		if !enrolled {
			return nil
		}
		if enr.CompletedAt != nil {
			out.CourseCompleted = true
			return nil
		}
		if total > 0 && done == total {
			res := tx.Model(&courseModels.Enrollment{}).
				Where("id = ? AND completed_at IS NULL", enr.ID).
				Updates(map[string]interface{}{"completed_at": now, "updated_at": now})
			if res.Error != nil {
				return errors.Wrap(res.Error, "stamp enrollment")
			}
			out.CourseCompleted = true
			out.JustCompleted = res.RowsAffected == 1
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// upsertProgress converges concurrent callers on one row per
// (student, lesson). completed only moves false -> true.
func upsertProgress(tx *gorm.DB, studentID, lessonID uint, now time.Time) error {
	p := courseModels.LessonProgress{
		StudentID:   studentID,
		LessonID:    lessonID,
		Completed:   true,
		CompletedAt: &now,
	}
	res := tx.Clauses(onConflictDoNothing).Create(&p)
	if res.Error != nil {
		return errors.Wrap(res.Error, "insert progress")
	}
	if res.RowsAffected == 1 {
		return nil
	}
	err := tx.Model(&courseModels.LessonProgress{}).
		Where("student_id = ? AND lesson_id = ? AND completed = ?", studentID, lessonID, false).
		Updates(map[string]interface{}{"completed": true, "completed_at": now, "updated_at": now}).Error
	return errors.Wrap(err, "update progress")
}

// NextLesson returns the lesson after currentLessonID in the course's
// traversal order. ok is false on the last lesson.
func (e *Engine) NextLesson(ctx context.Context, courseID, currentLessonID uint) (uint, bool, error) {
	db := e.conn(ctx)
	if _, err := loadCourse(db, courseID); err != nil {
		return 0, false, err
	}
	lessons, err := courseLessons(db, courseID)
	if err != nil {
		return 0, false, errors.Wrap(err, "load lessons")
	}
	for _, l := range lessons {
		if l.ID == currentLessonID {
			next, ok := NextAfter(lessons, currentLessonID)
			return next, ok, nil
		}
	}
	return 0, false, errors.Wrapf(ErrNotFound, "lesson %d in course %d", currentLessonID, courseID)
}

// ResumeLesson returns the first lesson the viewer has not completed, or
// nil when every lesson is done.
func (e *Engine) ResumeLesson(ctx context.Context, v Viewer, courseID uint) (*courseModels.Lesson, error) {
	db := e.conn(ctx)
	c, err := loadCourse(db, courseID)
	if err != nil {
		return nil, err
	}
	if err := e.requireContent(db, c, v); err != nil {
		return nil, err
	}
	return firstIncomplete(db, v.UserID, c.ID)
}

func firstIncomplete(tx *gorm.DB, studentID, courseID uint) (*courseModels.Lesson, error) {
	lessons, err := courseLessons(tx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "load lessons")
	}
	if len(lessons) == 0 {
		return nil, nil
	}
	var done []uint
	err = tx.Model(&courseModels.LessonProgress{}).
		Where("student_id = ? AND completed = ? AND lesson_id IN ?", studentID, true, lessonIDs(lessons)).
		Pluck("lesson_id", &done).Error
	if err != nil {
		return nil, errors.Wrap(err, "load progress")
	}
	seen := make(map[uint]bool, len(done))
	for _, id := range done {
		seen[id] = true
	}
	for i := range lessons {
		if !seen[lessons[i].ID] {
			return &lessons[i], nil
		}
	}
	return nil, nil
}

// LessonDetail returns the lesson, its ordered module siblings and the
// next lesson of the course.
func (e *Engine) LessonDetail(ctx context.Context, v Viewer, lessonID uint) (*LessonView, error) {
	db := e.conn(ctx)
	lesson, module, c, err := courseOfLesson(db, lessonID)
	if err != nil {
		return nil, err
	}
	if err := e.requireContent(db, c, v); err != nil {
		return nil, err
	}

	lessons, err := courseLessons(db, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load lessons")
	}
	view := &LessonView{
		Lesson:      *lesson,
		CourseID:    c.ID,
		ModuleTitle: module.Title,
		Siblings:    make([]courseModels.Lesson, 0),
	}
	for _, l := range lessons {
		if l.ModuleID == module.ID {
			view.Siblings = append(view.Siblings, l)
		}
	}
	if next, ok := NextAfter(lessons, lesson.ID); ok {
		view.NextLessonID = &next
	}

	if !v.IsAnonymous() {
		var n int64
		err := db.Model(&courseModels.LessonProgress{}).
			Where("student_id = ? AND lesson_id = ? AND completed = ?", v.UserID, lesson.ID, true).
			Count(&n).Error
		if err != nil {
			return nil, errors.Wrap(err, "load progress")
		}
		view.Completed = n > 0
	}
	return view, nil
}

// ReconcileCompletion recomputes the completed stamp of every enrollment
// in the course and returns how many rows changed.
func (e *Engine) ReconcileCompletion(ctx context.Context, courseID uint) (int, error) {
	changed := 0
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadCourse(tx, courseID); err != nil {
			return err
		}
		lessons, err := courseLessons(tx, courseID)
		if err != nil {
			return errors.Wrap(err, "load lessons")
		}
		ids := lessonIDs(lessons)
		total := int64(len(ids))

		var enrollments []courseModels.Enrollment
		if err := tx.Clauses(forUpdate).Where("course_id = ?", courseID).Find(&enrollments).Error; err != nil {
			return errors.Wrap(err, "load enrollments")
		}
		now := e.timestamp()
		for _, enr := range enrollments {
			done, err := completedCount(tx, enr.StudentID, ids)
			if err != nil {
				return errors.Wrap(err, "count completed lessons")
			}
			complete := total > 0 && done == total
			var stamp interface{}
			switch {
			case complete && enr.CompletedAt == nil:
				stamp = now
			case !complete && enr.CompletedAt != nil:
				stamp = nil
			default:
				continue
			}
			err = tx.Model(&courseModels.Enrollment{}).
				Where("id = ?", enr.ID).
				Updates(map[string]interface{}{"completed_at": stamp, "updated_at": now}).Error
			if err != nil {
				return errors.Wrapf(err, "update enrollment %d", enr.ID)
			}
			changed++
		}
		return nil
	})
	return changed, err
}

// ReconcileAll runs ReconcileCompletion over every course.
func (e *Engine) ReconcileAll(ctx context.Context) (int, error) {
	var ids []uint
	if err := e.conn(ctx).Model(&courseModels.Course{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, errors.Wrap(err, "list courses")
	}
	total := 0
	for _, id := range ids {
		n, err := e.ReconcileCompletion(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
