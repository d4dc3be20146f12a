package models

import "time"

// Like represents a like on a post. A user likes a post at most once.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"size:64;index;uniqueIndex:idx_like_post_user"` // MongoDB ObjectID hex
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_like_post_user"`
	CreatedAt time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// LikeSummary is the like state of a post as seen by the caller.
type LikeSummary struct {
	PostID string `json:"post_id"`
	Count  int64  `json:"count"`
	Liked  bool   `json:"liked"`
}
