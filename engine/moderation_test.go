package engine

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms/models"
	courseModels "lms/models/course"
)

func TestApprovePublishesCourse(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, f.instructor, "Pending")

	vis, err := f.e.CanView(f.ctx, Viewer{}, c.ID)
	require.NoError(t, err)
	assert.False(t, vis.CatalogVisible)

	got, err := f.e.Approve(f.ctx, f.admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.StatusApproved, got.Status)
	assert.True(t, got.IsPublished)

	vis, err = f.e.CanView(f.ctx, Viewer{}, c.ID)
	require.NoError(t, err)
	assert.True(t, vis.CatalogVisible)
	assert.False(t, vis.ContentVisible)
}

func TestModerationRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, f.instructor, "Pending")

	_, err := f.e.Approve(f.ctx, f.instructor, c.ID)
	assert.True(t, errors.Is(err, ErrForbidden))
	_, err = f.e.Reject(f.ctx, f.student, c.ID, "nope")
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = f.e.Approve(f.ctx, f.admin, 9999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, f.instructor, "Pending")

	_, err := f.e.Reject(f.ctx, f.admin, c.ID, "   ")
	assert.True(t, errors.Is(err, ErrValidation))

	var stored courseModels.Course
	require.NoError(t, f.db.First(&stored, c.ID).Error)
	assert.Equal(t, courseModels.StatusPending, stored.Status)
	assert.Empty(t, stored.RejectionReason)
}

func TestTerminalStatesRejectTransitions(t *testing.T) {
	f := newFixture(t)

	approved := f.course(t, f.instructor, "A")
	_, err := f.e.Approve(f.ctx, f.admin, approved.ID)
	require.NoError(t, err)
	_, err = f.e.Reject(f.ctx, f.admin, approved.ID, "too late")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	_, err = f.e.Approve(f.ctx, f.admin, approved.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	rejected := f.course(t, f.instructor, "R")
	got, err := f.e.Reject(f.ctx, f.admin, rejected.ID, "needs more lessons")
	require.NoError(t, err)
	assert.Equal(t, "needs more lessons", got.RejectionReason)
	assert.False(t, got.IsPublished)
	_, err = f.e.Approve(f.ctx, f.admin, rejected.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestTransitionLosesRace(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, f.instructor, "Raced")

	// a writer that read "pending" before another approved it
	require.NoError(t, f.db.Model(&courseModels.Course{}).Where("id = ?", c.ID).Update("status", courseModels.StatusApproved).Error)
	err := transition(f.db, c.ID, courseModels.StatusPending, map[string]interface{}{"status": courseModels.StatusRejected})
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestOwnerEditResubmitsRejectedCourse(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, f.instructor, "Draft")
	_, err := f.e.Reject(f.ctx, f.admin, c.ID, "title is vague")
	require.NoError(t, err)

	title := "Concurrency in Go"
	got, err := f.e.UpdateCourse(f.ctx, f.instructor, c.ID, CoursePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, courseModels.StatusPending, got.Status)
	assert.Empty(t, got.RejectionReason)
	assert.Equal(t, title, got.Title)

	// pending courses cannot be resubmitted
	_, err = f.e.Resubmit(f.ctx, f.instructor, c.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	// and now approve works again
	_, err = f.e.Approve(f.ctx, f.admin, c.ID)
	assert.NoError(t, err)
}

func TestUpdateCourseByStranger(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, f.instructor, "Mine")
	other := f.user(t, "Olga Other", models.RoleInstructor)

	title := "Theirs"
	_, err := f.e.UpdateCourse(f.ctx, other, c.ID, CoursePatch{Title: &title})
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestDeleteAdminForbidden(t *testing.T) {
	f := newFixture(t)
	other := f.user(t, "Root", models.RoleAdmin)

	err := f.e.DeleteUser(f.ctx, f.admin, other.UserID)
	assert.True(t, errors.Is(err, ErrForbidden))

	var n int64
	f.db.Model(&models.User{}).Where("id = ?", other.UserID).Count(&n)
	assert.Equal(t, int64(1), n)

	err = f.e.DeleteUser(f.ctx, f.instructor, f.student.UserID)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestDeleteStudentCascades(t *testing.T) {
	f := newFixture(t)
	c, lessons := f.threeLessonCourse(t)
	_, _, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	_, err = f.e.MarkLessonComplete(f.ctx, f.student, lessons[0].ID)
	require.NoError(t, err)
	_, err = f.e.RecordQuizAttempt(f.ctx, f.student, lessons[2].ID, 80)
	require.NoError(t, err)

	require.NoError(t, f.e.DeleteUser(f.ctx, f.admin, f.student.UserID))

	for _, model := range []interface{}{
		&courseModels.Enrollment{},
		&courseModels.LessonProgress{},
		&courseModels.QuizAttempt{},
	} {
		var n int64
		require.NoError(t, f.db.Model(model).Where("student_id = ?", f.student.UserID).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
	err = f.e.DeleteUser(f.ctx, f.admin, f.student.UserID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDeleteInstructorRemovesCourses(t *testing.T) {
	f := newFixture(t)
	c, lessons := f.threeLessonCourse(t)
	a, err := f.e.CreateAssignment(f.ctx, f.instructor, lessons[0].ID, AssignmentInput{Title: "Essay"})
	require.NoError(t, err)
	_, _, err = f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	_, err = f.e.SubmitAssignment(f.ctx, f.student, a.ID, "my essay")
	require.NoError(t, err)

	require.NoError(t, f.e.DeleteUser(f.ctx, f.admin, f.instructor.UserID))

	for _, model := range []interface{}{
		&courseModels.Course{},
		&courseModels.Module{},
		&courseModels.Lesson{},
		&courseModels.Assignment{},
		&courseModels.Submission{},
		&courseModels.Enrollment{},
	} {
		var n int64
		require.NoError(t, f.db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
	// the student survives
	_, err = loadUser(f.db, f.student.UserID)
	assert.NoError(t, err)
}

func TestDeleteCourse(t *testing.T) {
	f := newFixture(t)
	c, lessons := f.threeLessonCourse(t)
	_, _, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	_, err = f.e.MarkLessonComplete(f.ctx, f.student, lessons[1].ID)
	require.NoError(t, err)

	err = f.e.DeleteCourse(f.ctx, f.instructor, c.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	require.NoError(t, f.e.DeleteCourse(f.ctx, f.admin, c.ID))
	_, err = loadCourse(f.db, c.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	var n int64
	f.db.Model(&courseModels.LessonProgress{}).Count(&n)
	assert.Zero(t, n)

	err = f.e.DeleteCourse(f.ctx, f.admin, c.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
