package unlock

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mo-amir99/course-server-go/internal/features/user"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

// assignmentCountSQL counts the lessons across a course's chapters.
const assignmentCountSQL = `SELECT COUNT(*) FROM course_chapter_lessons l
	JOIN course_chapters ch ON ch.id = l.course_chapter_id
	WHERE ch.course_id = ?`

// AssignmentCount returns the number of lessons in the course.
func AssignmentCount(db *gorm.DB, courseID uint) (int64, error) {
	var total int64
	err := db.Raw(assignmentCountSQL, courseID).Scan(&total).Error
	return total, err
}

// Find returns the user's record for a course.
func Find(db *gorm.DB, userID, courseID uint) (Record, error) {
	var rec Record
	err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, ErrNotUnlocked
	}
	return rec, err
}

// IsFinished resolves the record's course and compares against its
// assignment count. A record whose course is gone is never finished.
func IsFinished(db *gorm.DB, rec Record) (bool, error) {
	var courses int64
	if err := db.Table("courses").Where("id = ?", rec.CourseID).Count(&courses).Error; err != nil {
		return false, err
	}
	if courses == 0 {
		return false, nil
	}

	total, err := AssignmentCount(db, rec.CourseID)
	if err != nil {
		return false, err
	}
	return Finished(rec, total), nil
}

// CanView reports whether the user may see a course. It never writes.
func CanView(db *gorm.DB, userID uint, admin bool, courseID uint) (bool, error) {
	if admin {
		return true, nil
	}

	var count int64
	err := db.Model(&Record{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// Unlock pays price from the user's credits and creates the record in one
// transaction. A concurrent duplicate rolls the debit back and returns
// ErrAlreadyUnlocked.
func Unlock(db *gorm.DB, userID, courseID uint, price types.Money) (Record, error) {
	var rec Record

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := user.Debit(tx, userID, price); err != nil {
			return err
		}

		total, err := AssignmentCount(tx, courseID)
		if err != nil {
			return err
		}

		rec = Record{UserID: userID, CourseID: courseID, AmountOfLessons: total}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyUnlocked
		}
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Completion is the outcome of RecordCompletion.
type Completion struct {
	Record  Record
	Total   int64
	Counted bool // false when the lesson had already been completed
}

// RecordCompletion marks a lesson completed for the user and advances the
// course counter once per lesson, never past the assignment count.
func RecordCompletion(db *gorm.DB, userID, lessonID uint) (Completion, error) {
	var out Completion

	err := db.Transaction(func(tx *gorm.DB) error {
		var courseID uint
		row := tx.Raw(`SELECT ch.course_id FROM course_chapter_lessons l
			JOIN course_chapters ch ON ch.id = l.course_chapter_id
			WHERE l.id = ?`, lessonID).Row()
		if err := row.Scan(&courseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLessonMissing
			}
			return err
		}

		rec, err := Find(tx, userID, courseID)
		if err != nil {
			return err
		}

		total, err := AssignmentCount(tx, courseID)
		if err != nil {
			return err
		}

		progress := Progress{UserID: userID, CourseChapterLessonID: lessonID, Completed: true}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&progress)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 1 {
			advanced := tx.Model(&Record{}).
				Where("id = ? AND amount_of_completed_lessons < ?", rec.ID, total).
				Updates(map[string]interface{}{
					"amount_of_completed_lessons": gorm.Expr("amount_of_completed_lessons + 1"),
					"amount_of_lessons":           total,
				})
			if advanced.Error != nil {
				return advanced.Error
			}
			out.Counted = advanced.RowsAffected == 1
		}

		if err := tx.First(&rec, rec.ID).Error; err != nil {
			return err
		}
		out.Record = rec
		out.Total = total
		return nil
	})
	return out, err
}

// Completed reports whether the user has a completed progress row for the lesson.
func Completed(db *gorm.DB, userID, lessonID uint) (bool, error) {
	var count int64
	err := db.Model(&Progress{}).
		Where("user_id = ? AND course_chapter_lesson_id = ? AND completed = ?", userID, lessonID, true).
		Count(&count).Error
	return count > 0, err
}

// RecountCourse rebuilds every record of a course from the remaining
// completed progress rows and lesson count. Call it after lessons are removed.
func RecountCourse(db *gorm.DB, courseID uint) error {
	const completed = `(SELECT COUNT(*) FROM user_progress p
		JOIN course_chapter_lessons l ON l.id = p.course_chapter_lesson_id
		JOIN course_chapters ch ON ch.id = l.course_chapter_id
		WHERE ch.course_id = user_course_unlocks.course_id
		AND p.user_id = user_course_unlocks.user_id
		AND p.completed = ?)`

	total, err := AssignmentCount(db, courseID)
	if err != nil {
		return err
	}

	return db.Exec(`UPDATE user_course_unlocks
		SET amount_of_completed_lessons = `+completed+`, amount_of_lessons = ?
		WHERE course_id = ?`, true, total, courseID).Error
}

// SyncLessonCounts refreshes AmountOfLessons on every stale record and
// returns how many rows changed.
func SyncLessonCounts(ctx context.Context, db *gorm.DB) (int64, error) {
	const counted = `(SELECT COUNT(*) FROM course_chapter_lessons l
		JOIN course_chapters ch ON ch.id = l.course_chapter_id
		WHERE ch.course_id = user_course_unlocks.course_id)`

	result := db.WithContext(ctx).Exec(
		`UPDATE user_course_unlocks SET amount_of_lessons = ` + counted +
			` WHERE amount_of_lessons <> ` + counted)
	return result.RowsAffected, result.Error
}
