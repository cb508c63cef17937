package engine

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	courseModels "lms/models/course"
)

type CourseInput struct {
	Title        string
	Description  string
	Category     string
	ThumbnailURL string
}

// CoursePatch carries the fields of an owner edit. Nil fields are left alone.
type CoursePatch struct {
	Title        *string
	Description  *string
	Category     *string
	ThumbnailURL *string
}

type ModuleInput struct {
	Title    string
	Position *int
}

type LessonInput struct {
	Title       string
	Position    *int
	ContentType string
	Payload     datatypes.JSON
}

type AssignmentInput struct {
	Title       string
	Description string
}

// CreateCourse stores a new pending course owned by the actor.
func (e *Engine) CreateCourse(ctx context.Context, actor Viewer, in CourseInput) (*courseModels.Course, error) {
	if !actor.IsInstructor() && !actor.IsAdmin() {
		return nil, errors.Wrap(ErrForbidden, "only instructors may create courses")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.Wrap(ErrValidation, "course title is required")
	}
	c := courseModels.Course{
		Title:        title,
		Description:  in.Description,
		InstructorID: actor.UserID,
		Category:     strings.TrimSpace(in.Category),
		ThumbnailURL: in.ThumbnailURL,
		Status:       courseModels.StatusPending,
	}
	if err := e.conn(ctx).Create(&c).Error; err != nil {
		return nil, errors.Wrap(err, "create course")
	}
	return &c, nil
}

// UpdateCourse applies an edit by the owner or an admin. When the owner
// edits a rejected course it goes back to pending.
func (e *Engine) UpdateCourse(ctx context.Context, actor Viewer, courseID uint, patch CoursePatch) (*courseModels.Course, error) {
	var out *courseModels.Course
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCourse(tx, courseID)
		if err != nil {
			return err
		}
		if !canAuthor(actor, c) {
			return errors.Wrapf(ErrForbidden, "course %d belongs to another instructor", c.ID)
		}

		updates := map[string]interface{}{}
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return errors.Wrap(ErrValidation, "course title cannot be blank")
			}
			updates["title"] = title
			c.Title = title
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
			c.Description = *patch.Description
		}
		if patch.Category != nil {
			updates["category"] = strings.TrimSpace(*patch.Category)
			c.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.ThumbnailURL != nil {
			updates["thumbnail_url"] = *patch.ThumbnailURL
			c.ThumbnailURL = *patch.ThumbnailURL
		}
		now := e.timestamp()
		if len(updates) > 0 {
			updates["updated_at"] = now
			if err := tx.Model(&courseModels.Course{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
				return errors.Wrapf(err, "update course %d", c.ID)
			}
		}
		if c.Status == courseModels.StatusRejected && c.InstructorID == actor.UserID {
			if err := resubmitTx(tx, c, now); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateModule appends a module to the course unless a position is given.
func (e *Engine) CreateModule(ctx context.Context, actor Viewer, courseID uint, in ModuleInput) (*courseModels.Module, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.Wrap(ErrValidation, "module title is required")
	}

	var m courseModels.Module
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := loadCourse(tx, courseID)
		if err != nil {
			return err
		}
		if !canAuthor(actor, c) {
			return errors.Wrapf(ErrForbidden, "course %d belongs to another instructor", c.ID)
		}
		pos, err := nextPosition(tx, &courseModels.Module{}, "course_id = ?", c.ID, in.Position)
		if err != nil {
			return err
		}
		m = courseModels.Module{CourseID: c.ID, Title: title, Position: pos}
		return errors.Wrap(tx.Create(&m).Error, "create module")
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateLesson adds a lesson to a module. Enrollments of the course that
// were complete are reopened, since the new lesson is not done yet.
func (e *Engine) CreateLesson(ctx context.Context, actor Viewer, moduleID uint, in LessonInput) (*courseModels.Lesson, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.Wrap(ErrValidation, "lesson title is required")
	}
	kind := in.ContentType
	if kind == "" {
		kind = courseModels.ContentText
	}
	if !courseModels.IsValidContentType(kind) {
		return nil, errors.Wrapf(ErrValidation, "unknown content type %q", kind)
	}

	var l courseModels.Lesson
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := loadModule(tx, moduleID)
		if err != nil {
			return err
		}
		c, err := loadCourse(tx, m.CourseID)
		if err != nil {
			return err
		}
		if !canAuthor(actor, c) {
			return errors.Wrapf(ErrForbidden, "course %d belongs to another instructor", c.ID)
		}
		pos, err := nextPosition(tx, &courseModels.Lesson{}, "module_id = ?", m.ID, in.Position)
		if err != nil {
			return err
		}
		l = courseModels.Lesson{ModuleID: m.ID, Title: title, Position: pos, ContentType: kind, Payload: in.Payload}
		if err := tx.Create(&l).Error; err != nil {
			return errors.Wrap(err, "create lesson")
		}
		err = tx.Model(&courseModels.Enrollment{}).
			Where("course_id = ? AND completed_at IS NOT NULL", c.ID).
			Updates(map[string]interface{}{"completed_at": nil, "updated_at": e.timestamp()}).Error
		return errors.Wrap(err, "reopen enrollments")
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateAssignment attaches an assignment to a lesson.
func (e *Engine) CreateAssignment(ctx context.Context, actor Viewer, lessonID uint, in AssignmentInput) (*courseModels.Assignment, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.Wrap(ErrValidation, "assignment title is required")
	}

	var a courseModels.Assignment
	err := e.conn(ctx).Transaction(func(tx *gorm.DB) error {
		l, _, c, err := courseOfLesson(tx, lessonID)
		if err != nil {
			return err
		}
		if !canAuthor(actor, c) {
			return errors.Wrapf(ErrForbidden, "course %d belongs to another instructor", c.ID)
		}
		a = courseModels.Assignment{LessonID: l.ID, Title: title, Description: in.Description}
		return errors.Wrap(tx.Create(&a).Error, "create assignment")
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// nextPosition returns want when set, otherwise max(position)+1 among the
// parent's children.
func nextPosition(tx *gorm.DB, model interface{}, cond string, parentID uint, want *int) (int, error) {
	if want != nil {
		if *want < 0 {
			return 0, errors.Wrap(ErrValidation, "position cannot be negative")
		}
		return *want, nil
	}
	var maxPos int
	if err := tx.Model(model).Where(cond, parentID).Select("COALESCE(MAX(position), 0)").Scan(&maxPos).Error; err != nil {
		return 0, errors.Wrap(err, "find last position")
	}
	return maxPos + 1, nil
}

// GetCourse returns a course with its outline. Viewers who cannot see the
// content get the outline without lesson payloads; courses that are neither
// in the catalog nor visible to the viewer are reported missing.
func (e *Engine) GetCourse(ctx context.Context, v Viewer, courseID uint) (*courseModels.Course, Visibility, error) {
	db := e.conn(ctx)
	c, err := loadCourse(db, courseID)
	if err != nil {
		return nil, Visibility{}, err
	}
	vis, err := e.evaluate(db, c, v)
	if err != nil {
		return nil, Visibility{}, err
	}
	if !vis.CatalogVisible && !vis.ContentVisible {
		return nil, vis, errors.Wrapf(ErrNotFound, "course %d", courseID)
	}

	var modules []courseModels.Module
	if err := db.Where("course_id = ?", c.ID).Order("position, id").Find(&modules).Error; err != nil {
		return nil, vis, errors.Wrap(err, "load modules")
	}
	lessons, err := courseLessons(db, c.ID)
	if err != nil {
		return nil, vis, errors.Wrap(err, "load lessons")
	}
	byModule := make(map[uint][]courseModels.Lesson, len(modules))
	for _, l := range lessons {
		if !vis.ContentVisible {
			l.Payload = nil
		}
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}
	for i := range modules {
		modules[i].Lessons = byModule[modules[i].ID]
	}
	c.Modules = modules
	return c, vis, nil
}
