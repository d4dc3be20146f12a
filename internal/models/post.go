package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a social media post stored in MongoDB
type Post struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    uint                `json:"user_id" bson:"user_id"` // author
	Message   string              `json:"message" bson:"message"`
	FileURLs  []string            `json:"file_urls,omitempty" bson:"file_urls,omitempty"`
	ParentID  *primitive.ObjectID `json:"parent_id,omitempty" bson:"parent_id,omitempty"` // set on shared posts
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" bson:"updated_at"`
}

// CreatePostRequest defines the JSON body for creating a new post
type CreatePostRequest struct {
	Message string `json:"message" form:"message" validate:"max=2000"`
}

// SharePostRequest defines the body for sharing an existing post
type SharePostRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

// UpdatePostRequest edits a post. An empty message keeps the current one;
// files sent with a multipart request replace the current files.
type UpdatePostRequest struct {
	Message string `json:"message" form:"message" validate:"max=2000"`
}

// DeletePostFileRequest names one attachment to drop from a post.
type DeletePostFileRequest struct {
	URL string `json:"url" validate:"required"`
}
