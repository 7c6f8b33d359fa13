package forum

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mo-amir99/course-server-go/pkg/types"
)

// Reaction records that a user reacted to a forum post.
type Reaction struct {
	types.BaseModel

	UserID      uint `gorm:"not null;uniqueIndex:idx_reaction_user_post,priority:1" json:"userId"`
	ForumPostID uint `gorm:"not null;uniqueIndex:idx_reaction_user_post,priority:2;index;column:forum_post_id" json:"forumPostId"`
}

// TableName overrides the default table name.
func (Reaction) TableName() string { return "forum_post_reactions" }

// ReactionState is the result of a toggle.
type ReactionState struct {
	PostID  uint  `json:"postId"`
	Reacted bool  `json:"reacted"`
	Count   int64 `json:"count"`
}

// Toggle adds the user's reaction to the post or removes an existing one.
func Toggle(db *gorm.DB, userID, postID uint) (ReactionState, error) {
	state := ReactionState{PostID: postID}

	err := db.Transaction(func(tx *gorm.DB) error {
		removed := tx.Where("user_id = ? AND forum_post_id = ?", userID, postID).Delete(&Reaction{})
		if removed.Error != nil {
			return removed.Error
		}

		if removed.RowsAffected == 0 {
			added := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&Reaction{UserID: userID, ForumPostID: postID})
			if added.Error != nil {
				return added.Error
			}
			state.Reacted = true
		}

		count, err := Count(tx, postID)
		state.Count = count
		return err
	})
	return state, err
}

// Count returns the number of reactions on a post.
func Count(db *gorm.DB, postID uint) (int64, error) {
	var count int64
	err := db.Model(&Reaction{}).Where("forum_post_id = ?", postID).Count(&count).Error
	return count, err
}

// HasReacted reports whether the user reacted to the post.
func HasReacted(db *gorm.DB, userID, postID uint) (bool, error) {
	var count int64
	err := db.Model(&Reaction{}).Where("user_id = ? AND forum_post_id = ?", userID, postID).Count(&count).Error
	return count > 0, err
}
