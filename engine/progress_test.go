package engine

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	courseModels "lms/models/course"
)

func TestCompletionScenario(t *testing.T) {
	f := newFixture(t)
	c, lessons := f.threeLessonCourse(t)
	l1, l2, l3 := lessons[0], lessons[1], lessons[2]

	_, _, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)

	res, err := f.e.MarkLessonComplete(f.ctx, f.student, l1.ID)
	require.NoError(t, err)
	assert.Equal(t, 33, res.Percent)
	require.NotNil(t, res.NextLessonID)
	assert.Equal(t, l2.ID, *res.NextLessonID)

	res, err = f.e.MarkLessonComplete(f.ctx, f.student, l2.ID)
	require.NoError(t, err)
	assert.False(t, res.CourseCompleted)

	pct, err := f.e.ComputeProgress(f.ctx, f.student.UserID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 66, pct)

	next, ok, err := f.e.NextLesson(f.ctx, c.ID, l2.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, l3.ID, next)

	res, err = f.e.MarkLessonComplete(f.ctx, f.student, l3.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Percent)
	assert.True(t, res.CourseCompleted)
	assert.True(t, res.JustCompleted)
	assert.Nil(t, res.NextLessonID)

	var enr courseModels.Enrollment
	require.NoError(t, f.db.Where("student_id = ? AND course_id = ?", f.student.UserID, c.ID).First(&enr).Error)
	require.NotNil(t, enr.CompletedAt)

	_, ok, err = f.e.NextLesson(f.ctx, c.ID, l3.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkLessonCompleteIdempotent(t *testing.T) {
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f := newFixture(t, WithClock(func() time.Time { return clock }))
	c, lessons := f.threeLessonCourse(t)
	_, _, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)

	for _, l := range lessons {
		_, err := f.e.MarkLessonComplete(f.ctx, f.student, l.ID)
		require.NoError(t, err)
	}
	var before courseModels.Enrollment
	require.NoError(t, f.db.Where("course_id = ?", c.ID).First(&before).Error)
	require.NotNil(t, before.CompletedAt)

	clock = clock.Add(48 * time.Hour)
	res, err := f.e.MarkLessonComplete(f.ctx, f.student, lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, res.CourseCompleted)
	assert.False(t, res.JustCompleted)
	require.NotNil(t, res.Progress.CompletedAt)
	assert.True(t, res.Progress.CompletedAt.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))

	var after courseModels.Enrollment
	require.NoError(t, f.db.Where("course_id = ?", c.ID).First(&after).Error)
	assert.True(t, before.CompletedAt.Equal(*after.CompletedAt))

	var rows int64
	f.db.Model(&courseModels.LessonProgress{}).Where("student_id = ? AND lesson_id = ?", f.student.UserID, lessons[0].ID).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestProgressMonotonic(t *testing.T) {
	f := newFixture(t)
	c := f.approvedCourse(t, "Long")
	var lessons []*courseModels.Lesson
	for _, title := range []string{"A", "B"} {
		m := f.module(t, c.ID, title)
		for i := 0; i < 3; i++ {
			lessons = append(lessons, f.lesson(t, m.ID, title, courseModels.ContentText))
		}
	}
	_, _, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)

	last := 0
	for i, l := range lessons {
		_, err := f.e.MarkLessonComplete(f.ctx, f.student, l.ID)
		require.NoError(t, err)
		pct, err := f.e.ComputeProgress(f.ctx, f.student.UserID, c.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, pct, last)
		if i < len(lessons)-1 {
			assert.Less(t, pct, 100)
		}
		last = pct
	}
	assert.Equal(t, 100, last)
}

func TestComputeProgressEmptyCourse(t *testing.T) {
	f := newFixture(t)
	c := f.approvedCourse(t, "Empty")

	pct, err := f.e.ComputeProgress(f.ctx, f.student.UserID, c.ID)
	require.NoError(t, err)
	assert.Zero(t, pct)

	_, err = f.e.ComputeProgress(f.ctx, f.student.UserID, 404)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = f.e.ComputeProgress(f.ctx, 404, c.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNextLessonCollidingPositions(t *testing.T) {
	f := newFixture(t)
	c := f.approvedCourse(t, "Collisions")
	zero := 0
	m1, err := f.e.CreateModule(f.ctx, f.instructor, c.ID, ModuleInput{Title: "first", Position: &zero})
	require.NoError(t, err)
	m2, err := f.e.CreateModule(f.ctx, f.instructor, c.ID, ModuleInput{Title: "second", Position: &zero})
	require.NoError(t, err)

	add := func(moduleID uint) uint {
		l, err := f.e.CreateLesson(f.ctx, f.instructor, moduleID, LessonInput{Title: "x", Position: &zero})
		require.NoError(t, err)
		return l.ID
	}
	a, b := add(m1.ID), add(m1.ID)
	d := add(m2.ID)

	next, ok, err := f.e.NextLesson(f.ctx, c.ID, a)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b, next)

	next, ok, err = f.e.NextLesson(f.ctx, c.ID, b)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, d, next)

	_, _, err = f.e.NextLesson(f.ctx, c.ID, 12345)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMarkLessonCompleteGated(t *testing.T) {
	f := newFixture(t)
	_, lessons := f.threeLessonCourse(t)

	_, err := f.e.MarkLessonComplete(f.ctx, f.student, lessons[0].ID)
	assert.True(t, errors.Is(err, ErrAccessDenied))

	_, err = f.e.MarkLessonComplete(f.ctx, f.student, 9999)
	assert.True(t, errors.Is(err, ErrNotFound))

	// the owner can tick lessons while previewing, without an enrollment
	res, err := f.e.MarkLessonComplete(f.ctx, f.instructor, lessons[0].ID)
	require.NoError(t, err)
	assert.False(t, res.CourseCompleted)
}

func TestAddingLessonReopensCompletion(t *testing.T) {
	f := newFixture(t)
	c, lessons := f.threeLessonCourse(t)
	_, _, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	for _, l := range lessons {
		_, err := f.e.MarkLessonComplete(f.ctx, f.student, l.ID)
		require.NoError(t, err)
	}

	extra := f.lesson(t, lessons[2].ModuleID, "Bonus", courseModels.ContentText)

	var enr courseModels.Enrollment
	require.NoError(t, f.db.Where("course_id = ?", c.ID).First(&enr).Error)
	assert.Nil(t, enr.CompletedAt)

	resume, err := f.e.ResumeLesson(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	require.NotNil(t, resume)
	assert.Equal(t, extra.ID, resume.ID)

	res, err := f.e.MarkLessonComplete(f.ctx, f.student, extra.ID)
	require.NoError(t, err)
	assert.True(t, res.JustCompleted)

	resume, err = f.e.ResumeLesson(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.Nil(t, resume)
}

func TestReconcileCompletion(t *testing.T) {
	f := newFixture(t)
	c, lessons := f.threeLessonCourse(t)
	_, _, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	for _, l := range lessons {
		_, err := f.e.MarkLessonComplete(f.ctx, f.student, l.ID)
		require.NoError(t, err)
	}

	// drift: stamp removed behind the engine's back
	require.NoError(t, f.db.Model(&courseModels.Enrollment{}).Where("course_id = ?", c.ID).Update("completed_at", nil).Error)

	n, err := f.e.ReconcileAll(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.e.ReconcileCompletion(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// and the other direction
	require.NoError(t, f.db.Where("lesson_id = ?", lessons[1].ID).Delete(&courseModels.LessonProgress{}).Error)
	n, err = f.e.ReconcileCompletion(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var enr courseModels.Enrollment
	require.NoError(t, f.db.Where("course_id = ?", c.ID).First(&enr).Error)
	assert.Nil(t, enr.CompletedAt)
}

func TestLessonDetail(t *testing.T) {
	f := newFixture(t)
	c, lessons := f.threeLessonCourse(t)
	_, _, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	_, err = f.e.MarkLessonComplete(f.ctx, f.student, lessons[0].ID)
	require.NoError(t, err)

	view, err := f.e.LessonDetail(f.ctx, f.student, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "M1", view.ModuleTitle)
	assert.Equal(t, c.ID, view.CourseID)
	assert.True(t, view.Completed)
	require.Len(t, view.Siblings, 2)
	assert.Equal(t, lessons[1].ID, view.Siblings[1].ID)
	require.NotNil(t, view.NextLessonID)
	assert.Equal(t, lessons[1].ID, *view.NextLessonID)

	// module boundary
	view, err = f.e.LessonDetail(f.ctx, f.student, lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, lessons[2].ID, *view.NextLessonID)

	_, err = f.e.LessonDetail(f.ctx, Viewer{}, lessons[0].ID)
	assert.True(t, errors.Is(err, ErrAccessDenied))
}

func TestProgressReport(t *testing.T) {
	f := newFixture(t)
	c, lessons := f.threeLessonCourse(t)
	_, _, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	_, err = f.e.MarkLessonComplete(f.ctx, f.student, lessons[2].ID)
	require.NoError(t, err)

	report, err := f.e.Progress(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.Total)
	assert.Equal(t, int64(1), report.Completed)
	assert.Equal(t, 33, report.Percent)
	assert.True(t, report.Enrolled)
	assert.Nil(t, report.CompletedAt)
}
