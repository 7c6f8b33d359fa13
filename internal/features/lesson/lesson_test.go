package lesson

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/chapter"
	"github.com/mo-amir99/course-server-go/internal/features/course"
	"github.com/mo-amir99/course-server-go/internal/features/language"
	"github.com/mo-amir99/course-server-go/internal/features/unlock"
	"github.com/mo-amir99/course-server-go/internal/features/user"
	"github.com/mo-amir99/course-server-go/internal/middleware"
	"github.com/mo-amir99/course-server-go/internal/testutil"
	"github.com/mo-amir99/course-server-go/pkg/email"
	"github.com/mo-amir99/course-server-go/pkg/logger"
	"github.com/mo-amir99/course-server-go/pkg/socketio"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

type world struct {
	db       *gorm.DB
	course   course.Course
	chapters []chapter.Chapter
	lessons  [][]Lesson
	student  *middleware.User
}

// newWorld seeds a course with one chapter per entry of perChapter.
func newWorld(t *testing.T, perChapter ...int) world {
	t.Helper()

	db := testutil.NewDB(t, &user.User{}, &language.Language{}, &course.Course{},
		&chapter.Chapter{}, &Lesson{}, &unlock.Record{}, &unlock.Progress{})

	lang, err := language.Create(db, "Go")
	require.NoError(t, err)
	crs, err := course.Create(db, course.CreateInput{
		Name: "Go basics", Description: "d", Duration: "3h",
		ProgrammingLanguageID: lang.ID, Image: "courseImages/a.png",
	})
	require.NoError(t, err)

	usr, err := user.Create(db, user.CreateInput{Name: "Ada", Email: "ada@example.com", Password: "password1"})
	require.NoError(t, err)

	w := world{db: db, course: crs, student: testutil.Student(usr.ID, "Ada")}
	for i, n := range perChapter {
		ch, err := chapter.Create(db, crs.ID, "Chapter")
		require.NoError(t, err)
		w.chapters = append(w.chapters, ch)
		w.lessons = append(w.lessons, nil)
		for j := 0; j < n; j++ {
			l, err := Create(db, ch.ID, Input{Name: "Lesson", Assignment: "print 42", OutputCheck: "42"})
			require.NoError(t, err)
			w.lessons[i] = append(w.lessons[i], l)
		}
	}
	return w
}

func TestNextLessonWithinChapter(t *testing.T) {
	w := newWorld(t, 3)

	next, err := NextLesson(w.db, w.lessons[0][0])
	require.NoError(t, err)
	assert.Equal(t, Next{Kind: NextLessonKind, ID: w.lessons[0][1].ID}, next)
	assert.Greater(t, next.ID, w.lessons[0][0].ID)
}

func TestNextLessonMovesToNextChapter(t *testing.T) {
	w := newWorld(t, 1, 2)

	next, err := NextLesson(w.db, w.lessons[0][0])
	require.NoError(t, err)
	assert.Equal(t, Next{Kind: NextChapterKind, ID: w.chapters[1].ID}, next)
}

func TestNextLessonFinishedOnLastLesson(t *testing.T) {
	w := newWorld(t, 1, 2)

	next, err := NextLesson(w.db, w.lessons[1][1])
	require.NoError(t, err)
	assert.Equal(t, NextFinished, next.Kind)
	assert.Zero(t, next.ID)
}

func TestMatchesTrimsWhitespace(t *testing.T) {
	l := Lesson{OutputCheck: "Hello\n"}
	assert.True(t, Matches(l, "  Hello "))
	assert.False(t, Matches(l, "hello"))
}

func newRouter(w world, notifier socketio.Notifier, mailer email.Mailer) http.Handler {
	h := NewHandler(w.db, logger.Discard(), notifier, mailer, "https://courses.example.com/")
	router := testutil.Router()
	RegisterRoutes(router.Group("/api"), h,
		[]gin.HandlerFunc{testutil.AsUser(w.student)}, []gin.HandlerFunc{testutil.AsUser(testutil.Admin(99))})
	return router
}

func TestShowRequiresUnlock(t *testing.T) {
	w := newWorld(t, 1)
	router := newRouter(w, nil, nil)

	rec := testutil.JSON(router, http.MethodGet, "/api/courses/1/lessons/1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, err := unlock.Unlock(w.db, w.student.ID, w.course.ID, types.NewMoneyFromInt(0))
	require.NoError(t, err)

	rec = testutil.JSON(router, http.MethodGet, "/api/courses/1/lessons/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "outputCheck")
	assert.Contains(t, rec.Body.String(), `"kind":"finished"`)
}

func TestCompleteFlow(t *testing.T) {
	w := newWorld(t, 2)
	_, err := unlock.Unlock(w.db, w.student.ID, w.course.ID, types.NewMoneyFromInt(0))
	require.NoError(t, err)

	notifier := &testutil.Notifier{}
	mailer := testutil.NewMailer()
	router := newRouter(w, notifier, mailer)

	rec := testutil.JSON(router, http.MethodPost, "/api/courses/1/lessons/1/complete", `{"output":"41"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"output"`)

	for i := 0; i < 2; i++ {
		rec = testutil.JSON(router, http.MethodPost, "/api/courses/1/lessons/1/complete", `{"output":" 42\n"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec1, err := unlock.Find(w.db, w.student.ID, w.course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec1.AmountOfCompletedLessons)
	assert.Len(t, notifier.Events(socketio.EventProgressUpdated), 1)
	assert.Empty(t, notifier.Events(socketio.EventCourseCompleted))

	rec = testutil.JSON(router, http.MethodPost, "/api/courses/1/lessons/2/complete", `{"output":"42"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"finished":true`)

	completed := notifier.Events(socketio.EventCourseCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "user_1", completed[0].Room)

	select {
	case <-mailer.Sent:
	case <-time.After(2 * time.Second):
		t.Fatal("completion email was not sent")
	}
	msgs := mailer.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ada@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Text, "https://courses.example.com/api/courses/1/certificate")
}

func TestCompleteWithoutUnlockIsForbidden(t *testing.T) {
	w := newWorld(t, 1)
	router := newRouter(w, nil, nil)

	rec := testutil.JSON(router, http.MethodPost, "/api/courses/1/lessons/1/complete", `{"output":"42"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminCompleteDoesNotRecord(t *testing.T) {
	w := newWorld(t, 2)
	admin := testutil.Admin(99)
	notifier := &testutil.Notifier{}

	h := NewHandler(w.db, logger.Discard(), notifier, nil, "")
	router := testutil.Router()
	RegisterRoutes(router.Group("/api"), h,
		[]gin.HandlerFunc{testutil.AsUser(admin)}, []gin.HandlerFunc{testutil.AsUser(admin)})

	rec := testutil.JSON(router, http.MethodPost, "/api/courses/1/lessons/1/complete", `{"output":"42"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"kind":"lesson"`)

	var progress int64
	require.NoError(t, w.db.Model(&unlock.Progress{}).Count(&progress).Error)
	assert.Zero(t, progress)
	assert.Empty(t, notifier.Events(socketio.EventProgressUpdated))
}

func TestDeleteRecountsProgress(t *testing.T) {
	t.Run("completed lesson removed", func(t *testing.T) {
		w := newWorld(t, 2)
		_, err := unlock.Unlock(w.db, w.student.ID, w.course.ID, types.NewMoneyFromInt(0))
		require.NoError(t, err)
		_, err = unlock.RecordCompletion(w.db, w.student.ID, w.lessons[0][0].ID)
		require.NoError(t, err)

		require.NoError(t, Delete(w.db, w.lessons[0][0]))

		rec, err := unlock.Find(w.db, w.student.ID, w.course.ID)
		require.NoError(t, err)
		assert.Zero(t, rec.AmountOfCompletedLessons)
		assert.Equal(t, int64(1), rec.AmountOfLessons)
		finished, err := unlock.IsFinished(w.db, rec)
		require.NoError(t, err)
		assert.False(t, finished)
	})

	t.Run("all completed then one removed", func(t *testing.T) {
		w := newWorld(t, 2)
		_, err := unlock.Unlock(w.db, w.student.ID, w.course.ID, types.NewMoneyFromInt(0))
		require.NoError(t, err)
		for _, l := range w.lessons[0] {
			_, err = unlock.RecordCompletion(w.db, w.student.ID, l.ID)
			require.NoError(t, err)
		}

		require.NoError(t, Delete(w.db, w.lessons[0][1]))

		rec, err := unlock.Find(w.db, w.student.ID, w.course.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rec.AmountOfCompletedLessons)
		assert.Equal(t, 100.0, unlock.ProgressPercentage(rec, rec.AmountOfLessons))
	})
}

func TestLessonFromOtherCourseIsNotFound(t *testing.T) {
	w := newWorld(t, 1)
	other, err := course.Create(w.db, course.CreateInput{
		Name: "Other", Description: "d", Duration: "1h",
		ProgrammingLanguageID: w.course.ProgrammingLanguageID, Image: "courseImages/b.png",
	})
	require.NoError(t, err)
	router := newRouter(w, nil, nil)

	rec := testutil.JSON(router, http.MethodGet, "/api/courses/2/lessons/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, uint(2), other.ID)
}

func TestAdminLessonCRUD(t *testing.T) {
	w := newWorld(t, 0)
	router := newRouter(w, nil, nil)

	rec := testutil.JSON(router, http.MethodPost, "/api/courses/1/chapters/1/lessons",
		`{"name":"Hello","description":"Say hi","assignment":"print hi","output_check":"hi"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = testutil.JSON(router, http.MethodPost, "/api/courses/1/chapters/1/lessons", `{"name":"Hello"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "output_check")

	rec = testutil.JSON(router, http.MethodPut, "/api/courses/1/chapters/1/lessons/1",
		`{"name":"Hello again","description":"Say hi","assignment":"print hi","output_check":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello again")

	rec = testutil.JSON(router, http.MethodGet, "/api/courses/1/chapters/1/lessons", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outputCheck":"hi"`)

	rec = testutil.JSON(router, http.MethodDelete, "/api/courses/1/chapters/1/lessons/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.JSON(router, http.MethodDelete, "/api/courses/1/chapters/1/lessons/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
