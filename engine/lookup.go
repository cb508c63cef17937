package engine

import (
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms/models"
	courseModels "lms/models/course"
)

var (
	onConflictDoNothing = clause.OnConflict{DoNothing: true}
	forUpdate           = clause.Locking{Strength: "UPDATE"}
)

func loadCourse(tx *gorm.DB, courseID uint) (*courseModels.Course, error) {
	var c courseModels.Course
	if err := tx.First(&c, courseID).Error; err != nil {
		return nil, notFoundOr(err, "course %d", courseID)
	}
	return &c, nil
}

func loadUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var u models.User
	if err := tx.First(&u, userID).Error; err != nil {
		return nil, notFoundOr(err, "user %d", userID)
	}
	return &u, nil
}

// loadLesson returns the lesson together with its owning module.
func loadLesson(tx *gorm.DB, lessonID uint) (*courseModels.Lesson, *courseModels.Module, error) {
	var l courseModels.Lesson
	if err := tx.First(&l, lessonID).Error; err != nil {
		return nil, nil, notFoundOr(err, "lesson %d", lessonID)
	}
	var m courseModels.Module
	if err := tx.First(&m, l.ModuleID).Error; err != nil {
		return nil, nil, notFoundOr(err, "module %d of lesson %d", l.ModuleID, lessonID)
	}
	return &l, &m, nil
}

func loadModule(tx *gorm.DB, moduleID uint) (*courseModels.Module, error) {
	var m courseModels.Module
	if err := tx.First(&m, moduleID).Error; err != nil {
		return nil, notFoundOr(err, "module %d", moduleID)
	}
	return &m, nil
}

// FlattenLessons orders a course's lessons for traversal: modules by
// (position, id), then lessons inside each module by (position, id).
// Lessons whose module is not in modules are dropped.
func FlattenLessons(modules []courseModels.Module, lessons []courseModels.Lesson) []courseModels.Lesson {
	mods := append([]courseModels.Module(nil), modules...)
	sort.SliceStable(mods, func(i, j int) bool {
		if mods[i].Position != mods[j].Position {
			return mods[i].Position < mods[j].Position
		}
		return mods[i].ID < mods[j].ID
	})
	rank := make(map[uint]int, len(mods))
	for i, m := range mods {
		rank[m.ID] = i
	}

	out := make([]courseModels.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if _, ok := rank[l.ModuleID]; ok {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank[out[i].ModuleID], rank[out[j].ModuleID]
		if ri != rj {
			return ri < rj
		}
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// courseLessons loads every lesson of a course in traversal order.
func courseLessons(tx *gorm.DB, courseID uint) ([]courseModels.Lesson, error) {
	var modules []courseModels.Module
	if err := tx.Where("course_id = ?", courseID).Find(&modules).Error; err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, nil
	}
	moduleIDs := make([]uint, len(modules))
	for i, m := range modules {
		moduleIDs[i] = m.ID
	}
	var lessons []courseModels.Lesson
	if err := tx.Where("module_id IN ?", moduleIDs).Find(&lessons).Error; err != nil {
		return nil, err
	}
	return FlattenLessons(modules, lessons), nil
}

func lessonIDs(lessons []courseModels.Lesson) []uint {
	ids := make([]uint, len(lessons))
	for i, l := range lessons {
		ids[i] = l.ID
	}
	return ids
}

// completedCount counts the student's completed lessons among ids.
func completedCount(tx *gorm.DB, studentID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := tx.Model(&courseModels.LessonProgress{}).
		Where("student_id = ? AND completed = ? AND lesson_id IN ?", studentID, true, ids).
		Count(&n).Error
	return n, err
}

// Percent is floor(100*done/total), or 0 for an empty course.
func Percent(done, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(done * 100 / total)
}

// NextAfter returns the id of the lesson that follows lessonID in ordered.
func NextAfter(ordered []courseModels.Lesson, lessonID uint) (uint, bool) {
	for i, l := range ordered {
		if l.ID != lessonID {
			continue
		}
		if i+1 < len(ordered) {
			return ordered[i+1].ID, true
		}
		return 0, false
	}
	return 0, false
}

// courseOfLesson resolves the lesson, its module and the owning course.
func courseOfLesson(tx *gorm.DB, lessonID uint) (*courseModels.Lesson, *courseModels.Module, *courseModels.Course, error) {
	l, m, err := loadLesson(tx, lessonID)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := loadCourse(tx, m.CourseID)
	if err != nil {
		return nil, nil, nil, err
	}
	return l, m, c, nil
}
