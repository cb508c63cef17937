package engine

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms/models"
	courseModels "lms/models/course"
)

func TestEvaluate(t *testing.T) {
	pending := courseModels.Course{ID: 1, InstructorID: 10, Status: courseModels.StatusPending}
	live := courseModels.Course{ID: 2, InstructorID: 10, Status: courseModels.StatusApproved, IsPublished: true}
	unpublished := courseModels.Course{ID: 3, InstructorID: 10, Status: courseModels.StatusApproved}

	owner := Viewer{UserID: 10, Role: models.RoleInstructor}
	admin := Viewer{UserID: 1, Role: models.RoleAdmin}
	student := Viewer{UserID: 20, Role: models.RoleStudent}
	stranger := Viewer{UserID: 30, Role: models.RoleInstructor}

	tests := []struct {
		name     string
		course   courseModels.Course
		viewer   Viewer
		enrolled bool
		want     Visibility
	}{
		{"anonymous live", live, Viewer{}, false, Visibility{CatalogVisible: true}},
		{"anonymous pending", pending, Viewer{}, false, Visibility{}},
		{"owner previews pending", pending, owner, false, Visibility{ContentVisible: true}},
		{"admin pending", pending, admin, false, Visibility{ContentVisible: true}},
		{"student not enrolled", live, student, false, Visibility{CatalogVisible: true}},
		{"student enrolled", live, student, true, Visibility{CatalogVisible: true, ContentVisible: true, Enrolled: true}},
		{"enrolled after unpublish", unpublished, student, true, Visibility{ContentVisible: true, Enrolled: true}},
		{"other instructor", live, stranger, false, Visibility{CatalogVisible: true}},
		{"enrollment flag ignored for non-students", live, stranger, true, Visibility{CatalogVisible: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.course, tt.viewer, tt.enrolled))
		})
	}
}

func TestCatalogVisibleMatchesStatus(t *testing.T) {
	for _, status := range []string{courseModels.StatusPending, courseModels.StatusApproved, courseModels.StatusRejected} {
		for _, published := range []bool{false, true} {
			c := courseModels.Course{Status: status, IsPublished: published}
			vis := Evaluate(c, Viewer{}, false)
			assert.Equal(t, status == courseModels.StatusApproved && published, vis.CatalogVisible, "%s/%v", status, published)
		}
	}
}

func TestPendingCourseGate(t *testing.T) {
	f := newFixture(t)
	c := f.course(t, f.instructor, "Preview")

	vis, err := f.e.CanView(f.ctx, f.instructor, c.ID)
	require.NoError(t, err)
	assert.True(t, vis.ContentVisible)

	vis, err = f.e.CanView(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.False(t, vis.ContentVisible)

	_, err = f.e.RequireContent(f.ctx, f.student, c.ID)
	assert.True(t, errors.Is(err, ErrAccessDenied))

	// not in the catalog yet, so the student cannot enroll
	_, _, err = f.e.Enroll(f.ctx, f.student, c.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = f.e.Approve(f.ctx, f.admin, c.ID)
	require.NoError(t, err)
	_, created, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.True(t, created)

	got, err := f.e.RequireContent(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestEnrollIdempotent(t *testing.T) {
	f := newFixture(t)
	c := f.approvedCourse(t, "Live")

	first, created, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.EnrolledAt.Equal(second.EnrolledAt))

	ok, err := f.e.IsEnrolled(f.ctx, f.student.UserID, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = f.e.Enroll(f.ctx, f.instructor, c.ID)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestEnrolledStudentKeepsAccessAfterUnpublish(t *testing.T) {
	f := newFixture(t)
	c := f.approvedCourse(t, "Live")
	_, _, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&courseModels.Course{}).Where("id = ?", c.ID).Update("is_published", false).Error)

	vis, err := f.e.CanView(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.False(t, vis.CatalogVisible)
	assert.True(t, vis.ContentVisible)

	// re-enrolling an existing enrollment still answers with the record
	_, created, err := f.e.Enroll(f.ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestGetCourseOutline(t *testing.T) {
	f := newFixture(t)
	c, lessons := f.threeLessonCourse(t)
	require.NoError(t, f.db.Model(&courseModels.Lesson{}).Where("id = ?", lessons[0].ID).
		Update("payload", `{"url":"https://videos.example.com/1"}`).Error)

	got, vis, err := f.e.GetCourse(f.ctx, Viewer{}, c.ID)
	require.NoError(t, err)
	assert.False(t, vis.ContentVisible)
	require.Len(t, got.Modules, 2)
	require.Len(t, got.Modules[0].Lessons, 2)
	assert.Nil(t, got.Modules[0].Lessons[0].Payload)

	got, _, err = f.e.GetCourse(f.ctx, f.instructor, c.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Modules[0].Lessons[0].Payload)

	hidden := f.course(t, f.instructor, "Hidden")
	_, _, err = f.e.GetCourse(f.ctx, f.student, hidden.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
