package engine

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lms/models"
)

// QuizPolicy decides which score a retaken quiz keeps.
type QuizPolicy string

const (
	QuizPolicyLatest QuizPolicy = "latest"
	QuizPolicyBest   QuizPolicy = "best"
)

// Viewer identifies who is asking. The zero Viewer is an anonymous visitor.
type Viewer struct {
	UserID uint
	Role   string
}

func (v Viewer) IsAnonymous() bool  { return v.UserID == 0 }
func (v Viewer) IsAdmin() bool      { return !v.IsAnonymous() && v.Role == models.RoleAdmin }
func (v Viewer) IsStudent() bool    { return !v.IsAnonymous() && v.Role == models.RoleStudent }
func (v Viewer) IsInstructor() bool { return !v.IsAnonymous() && v.Role == models.RoleInstructor }

// Engine owns the course moderation state machine, the access gate and the
// progression tracker. Every write runs in its own transaction.
type Engine struct {
	db         *gorm.DB
	quizPolicy QuizPolicy
	now        func() time.Time
}

type Option func(*Engine)

// WithQuizPolicy sets the retake policy. Unknown values keep the default.
func WithQuizPolicy(p QuizPolicy) Option {
	return func(e *Engine) {
		if p == QuizPolicyLatest || p == QuizPolicyBest {
			e.quizPolicy = p
		}
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{db: db, quizPolicy: QuizPolicyLatest, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) QuizPolicy() QuizPolicy { return e.quizPolicy }

func (e *Engine) conn(ctx context.Context) *gorm.DB {
	return e.db.WithContext(ctx)
}

func (e *Engine) timestamp() time.Time {
	return e.now().UTC()
}
