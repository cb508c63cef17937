// Package client is a typed HTTP client for the LMS REST API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"lms/engine"
	courseModels "lms/models/course"
)

// Config is everything the client needs; nothing is read from the
// environment.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type Client struct {
	http *resty.Client
}

// envelope mirrors the server's {status, message, data} response body.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
	Data    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lms api: %d %s", e.Status, e.Message)
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool     { return statusOf(err) == http.StatusNotFound }
func IsAccessDenied(err error) bool { return statusOf(err) == http.StatusForbidden }
func IsConflict(err error) bool     { return statusOf(err) == http.StatusConflict }

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	h := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		h.SetAuthToken(cfg.Token)
	}
	return &Client{http: h}
}

// SetToken replaces the bearer token used on later calls.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}

	var env envelope
	if len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), &env); err != nil && resp.IsSuccess() {
			return errors.Wrapf(err, "decode %s %s", method, path)
		}
	}
	if resp.IsError() {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{Status: resp.StatusCode(), Message: msg, Data: env.Data}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(env.Data, out), "decode data of %s %s", method, path)
}

type LoginResult struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// Login authenticates and keeps the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var res LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return "", err
	}
	c.SetToken(res.Token)
	return res.Token, nil
}

type CatalogParams struct {
	Search   string
	Category string
	Sort     string
	Page     int
	Limit    int
}

type CatalogPage struct {
	Courses    []engine.CatalogEntry `json:"courses"`
	Pagination struct {
		Total int64 `json:"total"`
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
	} `json:"pagination"`
}

func (c *Client) ListCourses(ctx context.Context, p CatalogParams) (*CatalogPage, error) {
	q := url.Values{}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}

	path := "/courses"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var page CatalogPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type CourseDetail struct {
	Course courseModels.Course `json:"course"`
	Access engine.Visibility   `json:"access"`
}

func (c *Client) GetCourse(ctx context.Context, id uint) (*CourseDetail, error) {
	var d CourseDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d", id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ApproveCourse(ctx context.Context, id uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/courses/%d/approve", id), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *Client) RejectCourse(ctx context.Context, id uint, reason string) (*courseModels.Course, error) {
	body := map[string]string{"status": courseModels.StatusRejected, "rejection_reason": reason}
	var course courseModels.Course
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/courses/%d", id), body, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *Client) DeleteCourse(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/courses/%d", id), nil, nil)
}

func (c *Client) Enroll(ctx context.Context, courseID uint) (*courseModels.Enrollment, error) {
	var e courseModels.Enrollment
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/courses/%d/enroll", courseID), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) MyEnrollments(ctx context.Context) ([]engine.EnrollmentSummary, error) {
	var out []engine.EnrollmentSummary
	if err := c.do(ctx, http.MethodGet, "/enrollments/mine", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CheckEnrollment(ctx context.Context, courseID uint) (*engine.Visibility, error) {
	var v engine.Visibility
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/enrollments/check/%d", courseID), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) Progress(ctx context.Context, courseID uint) (*engine.ProgressReport, error) {
	var r engine.ProgressReport
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d/progress", courseID), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) Lesson(ctx context.Context, id uint) (*engine.LessonView, error) {
	var v engine.LessonView
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/lessons/%d", id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) CompleteLesson(ctx context.Context, id uint) (*engine.CompletionResult, error) {
	var r engine.CompletionResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/lessons/%d/complete", id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) CourseAssignments(ctx context.Context, courseID uint) ([]engine.AssignmentStatus, error) {
	var out []engine.AssignmentStatus
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/assignments/course/%d", courseID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LessonAssignments(ctx context.Context, lessonID uint) ([]engine.AssignmentStatus, error) {
	var out []engine.AssignmentStatus
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/assignments/lesson/%d", lessonID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type QuizState struct {
	Policy  engine.QuizPolicy   `json:"policy"`
	Quizzes []engine.QuizStatus `json:"quizzes"`
}

func (c *Client) CourseQuizzes(ctx context.Context, courseID uint) (*QuizState, error) {
	var s QuizState
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/quizzes/course/%d", courseID), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) DeleteUser(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil)
}
