package chapter

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/course"
	"github.com/mo-amir99/course-server-go/internal/features/language"
	"github.com/mo-amir99/course-server-go/internal/features/unlock"
	"github.com/mo-amir99/course-server-go/internal/testutil"
	"github.com/mo-amir99/course-server-go/pkg/logger"
)

type lessonRow struct {
	ID              uint
	CourseChapterID uint
}

func (lessonRow) TableName() string { return "course_chapter_lessons" }

func setup(t *testing.T) (*gorm.DB, course.Course) {
	t.Helper()

	db := testutil.NewDB(t, &language.Language{}, &course.Course{}, &Chapter{}, &lessonRow{},
		&unlock.Record{}, &unlock.Progress{})
	lang, err := language.Create(db, "Go")
	require.NoError(t, err)

	crs, err := course.Create(db, course.CreateInput{
		Name: "Go basics", Description: "d", Duration: "2h",
		ProgrammingLanguageID: lang.ID, Image: "courseImages/a.png",
	})
	require.NoError(t, err)
	return db, crs
}

func TestNextChapterByID(t *testing.T) {
	db, crs := setup(t)

	first, err := Create(db, crs.ID, "One")
	require.NoError(t, err)
	second, err := Create(db, crs.ID, "Two")
	require.NoError(t, err)

	next, ok, err := Next(db, first)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second.ID, next.ID)

	_, ok, err = Next(db, second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteRemovesLessonsAndProgress(t *testing.T) {
	db, crs := setup(t)

	ch, err := Create(db, crs.ID, "One")
	require.NoError(t, err)
	l := lessonRow{CourseChapterID: ch.ID}
	require.NoError(t, db.Create(&l).Error)
	require.NoError(t, db.Create(&unlock.Progress{UserID: 1, CourseChapterLessonID: l.ID, Completed: true}).Error)

	require.NoError(t, Delete(db, ch))

	var lessons, progress int64
	require.NoError(t, db.Model(&lessonRow{}).Count(&lessons).Error)
	require.NoError(t, db.Model(&unlock.Progress{}).Count(&progress).Error)
	assert.Zero(t, lessons)
	assert.Zero(t, progress)
}

func TestDeleteRecountsUnlockRecords(t *testing.T) {
	db, crs := setup(t)

	var lessons []lessonRow
	var chapters []Chapter
	for _, name := range []string{"One", "Two"} {
		ch, err := Create(db, crs.ID, name)
		require.NoError(t, err)
		chapters = append(chapters, ch)
		l := lessonRow{CourseChapterID: ch.ID}
		require.NoError(t, db.Create(&l).Error)
		lessons = append(lessons, l)
	}
	for _, l := range lessons {
		require.NoError(t, db.Create(&unlock.Progress{UserID: 1, CourseChapterLessonID: l.ID, Completed: true}).Error)
	}
	rec := unlock.Record{UserID: 1, CourseID: crs.ID, AmountOfCompletedLessons: 2, AmountOfLessons: 2}
	require.NoError(t, db.Create(&rec).Error)

	require.NoError(t, Delete(db, chapters[0]))

	rec, err := unlock.Find(db, 1, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.AmountOfCompletedLessons)
	assert.Equal(t, int64(1), rec.AmountOfLessons)
	assert.Equal(t, 100.0, unlock.ProgressPercentage(rec, rec.AmountOfLessons))
}

func TestHandlerCRUD(t *testing.T) {
	db, crs := setup(t)

	router := testutil.Router()
	RegisterRoutes(router.Group("/api"), NewHandler(db, logger.Discard()), nil)

	rec := testutil.JSON(router, http.MethodPost, "/api/courses/1/chapters", `{"name":"Intro"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = testutil.JSON(router, http.MethodPut, "/api/courses/1/chapters/1", `{"name":"Basics"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Basics"`)

	rec = testutil.JSON(router, http.MethodGet, "/api/courses/1/chapters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Basics")

	rec = testutil.JSON(router, http.MethodPost, "/api/courses/1/chapters", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.JSON(router, http.MethodPost, "/api/courses/99/chapters", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.JSON(router, http.MethodDelete, "/api/courses/1/chapters/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	chapters, err := ListByCourse(db, crs.ID)
	require.NoError(t, err)
	assert.Empty(t, chapters)
}
