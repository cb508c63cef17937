package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	courseModels "lms/models/course"
)

type AssignmentState string

const (
	AssignmentNotSubmitted AssignmentState = "not_submitted"
	AssignmentSubmitted    AssignmentState = "submitted"
	AssignmentGraded       AssignmentState = "graded"
)

// AssignmentStatus pairs an assignment with the student's submission.
type AssignmentStatus struct {
	Assignment courseModels.Assignment  `json:"assignment"`
	Submission *courseModels.Submission `json:"submission"`
	State      AssignmentState          `json:"state"`
	Grade      *float64                 `json:"grade,omitempty"`
}

// QuizStatus pairs a quiz lesson with the student's attempt.
type QuizStatus struct {
	Lesson   courseModels.Lesson       `json:"lesson"`
	Attempt  *courseModels.QuizAttempt `json:"attempt"`
	Score    *float64                  `json:"score"`
	Attempts int                       `json:"attempts"`
}

// JoinAssignments left-joins assignments against submissions. Assignments
// keep the order of lessons in ordered, then their id.
func JoinAssignments(ordered []courseModels.Lesson, assignments []courseModels.Assignment, subs []courseModels.Submission) []AssignmentStatus {
	rank := make(map[uint]int, len(ordered))
	for i, l := range ordered {
		rank[l.ID] = i
	}
	sorted := append([]courseModels.Assignment(nil), assignments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rank[sorted[i].LessonID], rank[sorted[j].LessonID]
		if ri != rj {
			return ri < rj
		}
		return sorted[i].ID < sorted[j].ID
	})

	byAssignment := make(map[uint]courseModels.Submission, len(subs))
	for _, s := range subs {
		byAssignment[s.AssignmentID] = s
	}

	out := make([]AssignmentStatus, 0, len(sorted))
	for _, a := range sorted {
		st := AssignmentStatus{Assignment: a, State: AssignmentNotSubmitted}
		if s, ok := byAssignment[a.ID]; ok {
			sub := s
			st.Submission = &sub
			st.State = AssignmentSubmitted
			if sub.IsGraded() {
				st.State = AssignmentGraded
				st.Grade = sub.Grade
			}
		}
		out = append(out, st)
	}
	return out
}

// JoinQuizzes left-joins the quiz lessons of ordered against attempts.
func JoinQuizzes(ordered []courseModels.Lesson, attempts []courseModels.QuizAttempt) []QuizStatus {
	byLesson := make(map[uint]courseModels.QuizAttempt, len(attempts))
	for _, a := range attempts {
		byLesson[a.LessonID] = a
	}
	out := make([]QuizStatus, 0)
	for _, l := range ordered {
		if l.ContentType != courseModels.ContentQuiz {
			continue
		}
		st := QuizStatus{Lesson: l}
		if a, ok := byLesson[l.ID]; ok {
			att := a
			st.Attempt = &att
			st.Score = att.Score
			st.Attempts = att.AttemptNumber
		}
		out = append(out, st)
	}
	return out
}

// AggregateAssignmentState lists every assignment of the course with the
// viewer's submission state.
func (e *Engine) AggregateAssignmentState(ctx context.Context, v Viewer, courseID uint) ([]AssignmentStatus, error) {
	db := e.conn(ctx)
	c, err := loadCourse(db, courseID)
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
	return assignmentStates(db, v.UserID, lessons)
}

// AssignmentsForLesson is AggregateAssignmentState narrowed to one lesson.
func (e *Engine) AssignmentsForLesson(ctx context.Context, v Viewer, lessonID uint) ([]AssignmentStatus, error) {
	db := e.conn(ctx)
	lesson, _, c, err := courseOfLesson(db, lessonID)
	if err != nil {
		return nil, err
	}
	if err := e.requireContent(db, c, v); err != nil {
		return nil, err
	}
	return assignmentStates(db, v.UserID, []courseModels.Lesson{*lesson})
}

func assignmentStates(tx *gorm.DB, studentID uint, lessons []courseModels.Lesson) ([]AssignmentStatus, error) {
	if len(lessons) == 0 {
		return []AssignmentStatus{}, nil
	}
	var assignments []courseModels.Assignment
	if err := tx.Where("lesson_id IN ?", lessonIDs(lessons)).Find(&assignments).Error; err != nil {
		return nil, errors.Wrap(err, "load assignments")
	}
	var subs []courseModels.Submission
	if len(assignments) > 0 && studentID != 0 {
		ids := make([]uint, len(assignments))
		for i, a := range assignments {
			ids[i] = a.ID
		}
		err := tx.Where("student_id = ? AND assignment_id IN ?", studentID, ids).Find(&subs).Error
		if err != nil {
			return nil, errors.Wrap(err, "load submissions")
		}
	}
	return JoinAssignments(lessons, assignments, subs), nil
}

// AggregateQuizState lists the quiz lessons of the course with the viewer's
// recorded score.
func (e *Engine) AggregateQuizState(ctx context.Context, v Viewer, courseID uint) ([]QuizStatus, error) {
	db := e.conn(ctx)
	c, err := loadCourse(db, courseID)
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
	var attempts []courseModels.QuizAttempt
	if ids := lessonIDs(lessons); len(ids) > 0 && !v.IsAnonymous() {
		if err := db.Where("student_id = ? AND lesson_id IN ?", v.UserID, ids).Find(&attempts).Error; err != nil {
			return nil, errors.Wrap(err, "load quiz attempts")
		}
	}
	return JoinQuizzes(lessons, attempts), nil
}

// SubmitAssignment stores the student's submission. A resubmission
// replaces the content and drops any earlier grade.
func (e *Engine) SubmitAssignment(ctx context.Context, v Viewer, assignmentID uint, content string) (*courseModels.Submission, error) {
	if !v.IsStudent() {
		return nil, errors.Wrap(ErrForbidden, "only students may submit assignments")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.Wrap(ErrValidation, "submission content is required")
	}

	var out courseModels.Submission
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var a courseModels.Assignment
		if err := tx.First(&a, assignmentID).Error; err != nil {
			return notFoundOr(err, "assignment %d", assignmentID)
		}
		_, _, c, err := courseOfLesson(tx, a.LessonID)
		if err != nil {
			return err
		}
		if err := e.requireContent(tx, c, v); err != nil {
			return err
		}

		now := e.timestamp()
		sub := courseModels.Submission{AssignmentID: a.ID, StudentID: v.UserID, Content: content, SubmittedAt: now}
		res := tx.Clauses(onConflictDoNothing).Create(&sub)
		if res.Error != nil {
			return errors.Wrap(res.Error, "insert submission")
		}
		if res.RowsAffected == 0 {
			err := tx.Model(&courseModels.Submission{}).
				Where("assignment_id = ? AND student_id = ?", a.ID, v.UserID).
				Updates(map[string]interface{}{
					"content":      content,
					"grade":        nil,
					"graded_at":    nil,
					"submitted_at": now,
					"updated_at":   now,
				}).Error
			if err != nil {
				return errors.Wrap(err, "overwrite submission")
			}
		}
		return tx.Where("assignment_id = ? AND student_id = ?", a.ID, v.UserID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GradeSubmission sets a grade between 0 and 100. Only the course owner or
// an admin may grade.
func (e *Engine) GradeSubmission(ctx context.Context, v Viewer, submissionID uint, grade float64) (*courseModels.Submission, error) {
	if grade < 0 || grade > 100 {
		return nil, errors.Wrapf(ErrValidation, "grade %.2f out of range 0-100", grade)
	}

	var out courseModels.Submission
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, submissionID).Error; err != nil {
			return notFoundOr(err, "submission %d", submissionID)
		}
		var a courseModels.Assignment
		if err := tx.First(&a, out.AssignmentID).Error; err != nil {
			return notFoundOr(err, "assignment %d", out.AssignmentID)
		}
		_, _, c, err := courseOfLesson(tx, a.LessonID)
		if err != nil {
			return err
		}
		if !canAuthor(v, c) {
			return errors.Wrapf(ErrForbidden, "cannot grade submissions of course %d", c.ID)
		}
		now := e.timestamp()
		err = tx.Model(&out).Updates(map[string]interface{}{
			"grade":      grade,
			"graded_at":  now,
			"updated_at": now,
		}).Error
		if err != nil {
			return errors.Wrap(err, "store grade")
		}
		out.Grade = &grade
		out.GradedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordQuizAttempt stores a quiz score for the student. The kept score
// follows the engine's retake policy; every call counts as an attempt.
func (e *Engine) RecordQuizAttempt(ctx context.Context, v Viewer, lessonID uint, score float64) (*courseModels.QuizAttempt, error) {
	if !v.IsStudent() {
		return nil, errors.Wrap(ErrForbidden, "only students may attempt quizzes")
	}
	if score < 0 || score > 100 {
		return nil, errors.Wrapf(ErrValidation, "score %.2f out of range 0-100", score)
	}

	var out courseModels.QuizAttempt
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		lesson, _, c, err := courseOfLesson(tx, lessonID)
		if err != nil {
			return err
		}
		if lesson.ContentType != courseModels.ContentQuiz {
			return errors.Wrapf(ErrValidation, "lesson %d is not a quiz", lesson.ID)
		}
		if err := e.requireContent(tx, c, v); err != nil {
			return err
		}

		first := courseModels.QuizAttempt{
			LessonID:      lesson.ID,
			StudentID:     v.UserID,
			Score:         &score,
			LastScore:     &score,
			AttemptNumber: 1,
		}
		res := tx.Clauses(onConflictDoNothing).Create(&first)
		if res.Error != nil {
			return errors.Wrap(res.Error, "insert quiz attempt")
		}
		if res.RowsAffected == 1 {
			return tx.First(&out, first.ID).Error
		}

		if err := tx.Clauses(forUpdate).Where("lesson_id = ? AND student_id = ?", lesson.ID, v.UserID).First(&out).Error; err != nil {
			return errors.Wrap(err, "lock quiz attempt")
		}
		kept := e.keptScore(out.Score, score)
		err = tx.Model(&out).Updates(map[string]interface{}{
			"score":          kept,
			"last_score":     score,
			"attempt_number": out.AttemptNumber + 1,
			"updated_at":     e.timestamp(),
		}).Error
		if err != nil {
			return errors.Wrap(err, "update quiz attempt")
		}
		return tx.First(&out, out.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Engine) keptScore(prev *float64, score float64) float64 {
	if e.quizPolicy == QuizPolicyBest && prev != nil && *prev > score {
		return *prev
	}
	return score
}
