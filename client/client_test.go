package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(w http.ResponseWriter, status int, ok bool, msg string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": ok, "message": msg, "data": data})
}

func TestLoginStoresToken(t *testing.T) {
	var seenAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "s@example.com", body["email"])
			respond(w, http.StatusOK, true, "Login successful.", map[string]interface{}{"token": "tok-1", "user": map[string]interface{}{"id": 3}})
		case "/enrollments/mine":
			seenAuth = r.Header.Get("Authorization")
			respond(w, http.StatusOK, true, "ok", []interface{}{})
		default:
			respond(w, http.StatusNotFound, false, "Not found", nil)
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	token, err := c.Login(context.Background(), "s@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	list, err := c.MyEnrollments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, "Bearer tok-1", seenAuth)
}

func TestErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/courses/1":
			respond(w, http.StatusNotFound, false, "course 1 not found", nil)
		case "/lessons/2/complete":
			respond(w, http.StatusForbidden, false, "enroll first", map[string]bool{"enroll_required": true})
		case "/courses/3/approve":
			respond(w, http.StatusConflict, false, "course is not pending", nil)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "t"})
	ctx := context.Background()

	_, err := c.GetCourse(ctx, 1)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "course 1 not found")

	_, err = c.CompleteLesson(ctx, 2)
	assert.True(t, IsAccessDenied(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.JSONEq(t, `{"enroll_required":true}`, string(apiErr.Data))

	_, err = c.ApproveCourse(ctx, 3)
	assert.True(t, IsConflict(err))

	// no envelope at all
	err = c.DeleteUser(ctx, 4)
	require.Error(t, err)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestTypedResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/courses" || r.URL.Path == "/courses/":
			assert.Equal(t, "go", r.URL.Query().Get("search"))
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			respond(w, http.StatusOK, true, "ok", map[string]interface{}{
				"courses":    []map[string]interface{}{{"id": 7, "title": "Go 101", "instructor_name": "Ada"}},
				"pagination": map[string]interface{}{"total": 10, "page": 2, "limit": 9},
			})
		case r.URL.Path == "/lessons/5" && r.Method == http.MethodGet:
			respond(w, http.StatusOK, true, "ok", map[string]interface{}{
				"lesson":         map[string]interface{}{"id": 5, "title": "Intro"},
				"course_id":      7,
				"next_lesson_id": 6,
				"completed":      true,
			})
		case r.URL.Path == "/courses/7" && r.Method == http.MethodPatch:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "rejected", body["status"])
			assert.Equal(t, "needs work", body["rejection_reason"])
			respond(w, http.StatusOK, true, "Course rejected!", map[string]interface{}{"id": 7, "status": "rejected", "rejection_reason": "needs work"})
		case r.URL.Path == "/enrollments/check/7":
			respond(w, http.StatusOK, true, "ok", map[string]bool{"enrolled": true, "catalog_visible": true, "content_visible": true})
		case r.URL.Path == "/quizzes/course/7":
			respond(w, http.StatusOK, true, "ok", map[string]interface{}{"policy": "best", "quizzes": []interface{}{}})
		case r.URL.Path == "/courses/7" && r.Method == http.MethodDelete:
			respond(w, http.StatusOK, true, "Course deleted successfully!", nil)
		default:
			respond(w, http.StatusNotFound, false, "no route", nil)
		}
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/", Token: "t"})
	ctx := context.Background()

	page, err := c.ListCourses(ctx, CatalogParams{Search: "go", Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Courses, 1)
	assert.Equal(t, uint(7), page.Courses[0].ID)
	assert.Equal(t, "Ada", page.Courses[0].InstructorName)
	assert.Equal(t, int64(10), page.Pagination.Total)

	view, err := c.Lesson(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Intro", view.Lesson.Title)
	require.NotNil(t, view.NextLessonID)
	assert.Equal(t, uint(6), *view.NextLessonID)
	assert.True(t, view.Completed)

	course, err := c.RejectCourse(ctx, 7, "needs work")
	require.NoError(t, err)
	assert.Equal(t, "rejected", course.Status)

	vis, err := c.CheckEnrollment(ctx, 7)
	require.NoError(t, err)
	assert.True(t, vis.Enrolled)

	quizzes, err := c.CourseQuizzes(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, "best", quizzes.Policy)

	require.NoError(t, c.DeleteCourse(ctx, 7))
}
