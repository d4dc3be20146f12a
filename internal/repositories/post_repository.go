package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error)
	GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

func parsePostID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.Validation("invalid post ID format %q", id)
	}
	return objID, nil
}

func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return apperrors.Persistence("create post", err)
	}
	return nil
}

func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := parsePostID(id)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("post", id)
	}
	if err != nil {
		return nil, apperrors.Persistence("get post", err)
	}
	return &post, nil
}

func (r *MongoPostRepository) GetPostsByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.M{"user_id": userID}, skip, limit)
}

func (r *MongoPostRepository) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.D{}, skip, limit)
}

func (r *MongoPostRepository) find(ctx context.Context, filter any, skip, limit int64) ([]models.Post, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, apperrors.Persistence("find posts", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, apperrors.Persistence("decode posts", err)
	}
	return posts, nil
}

// UpdatePost replaces the message and file list of an existing post.
func (r *MongoPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"message":    post.Message,
		"file_urls":  post.FileURLs,
		"updated_at": post.UpdatedAt,
	}}

	res, err := r.collection.UpdateByID(ctx, post.ID, update)
	if err != nil {
		return apperrors.Persistence("update post", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("post", post.ID.Hex())
	}
	return nil
}

func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := parsePostID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return apperrors.Persistence("delete post", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("post", id)
	}
	return nil
}
