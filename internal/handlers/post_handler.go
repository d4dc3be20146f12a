package handlers

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/anonto42/nano-midea/social/internal/repositories"
	"github.com/anonto42/nano-midea/social/internal/services"
	"github.com/anonto42/nano-midea/social/internal/storage"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxFilesPerPost = 10

// PostNotifier announces new and shared posts.
type PostNotifier interface {
	OnPostCreated(ctx context.Context, actorID uint, postID string) ([]models.Notification, error)
	OnPostShared(ctx context.Context, actorID uint, original services.PostRef) ([]models.Notification, error)
}

type PostHandler struct {
	postRepository repositories.PostRepository
	attachments    storage.AttachmentStore
	notifier       PostNotifier
	log            *zap.SugaredLogger
}

// NewPostHandler creates a PostHandler. attachments may be nil, in which case
// posts with files are rejected.
func NewPostHandler(postRepo repositories.PostRepository, attachments storage.AttachmentStore, notifier PostNotifier, log *zap.SugaredLogger) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		attachments:    attachments,
		notifier:       notifier,
		log:            log,
	}
}

func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.POST("/posts/:id/share", h.SharePost)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts", h.GetPosts) // Get all posts or posts by user (with query param)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.DELETE("/posts/:id/files", h.DeletePostFile)
}

// CreatePost accepts JSON or a multipart form whose "files" parts are uploaded
// before the post is stored.
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	urls, err := h.uploadFiles(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Message) == "" && len(urls) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "A post needs a message or at least one file")
	}

	post := &models.Post{UserID: userID, Message: req.Message, FileURLs: urls}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return httpError(err)
	}

	notified, err := h.notifier.OnPostCreated(ctx, userID, post.ID.Hex())
	if err != nil {
		return httpError(err)
	}
	h.log.Debugw("post created", "post_id", post.ID.Hex(), "user_id", userID, "notified", len(notified))

	return respond(c, http.StatusCreated, "Post created successfully", post)
}

func (h *PostHandler) uploadFiles(c echo.Context) ([]string, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart form")
	}

	files := form.File["files"]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > maxFilesPerPost {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Too many files, at most "+strconv.Itoa(maxFilesPerPost))
	}
	if h.attachments == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "File uploads are not configured")
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Unreadable file "+fh.Filename)
		}
		url, err := h.attachments.Upload(c.Request().Context(), storage.Attachment{
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		})
		_ = f.Close()
		if err != nil {
			return nil, httpError(err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// SharePost re-posts an existing post and tells its author.
func (h *PostHandler) SharePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.SharePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	original, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	parentID := original.ID
	shared := &models.Post{UserID: userID, Message: req.Message, ParentID: &parentID}
	if err := h.postRepository.CreatePost(ctx, shared); err != nil {
		return httpError(err)
	}

	_, err = h.notifier.OnPostShared(ctx, userID, services.PostRef{ID: original.ID.Hex(), AuthorID: original.UserID})
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusCreated, "Post shared successfully", shared)
}

func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Post retrieved successfully", post)
}

// GetPosts lists posts newest first, optionally filtered by ?user_id=.
func (h *PostHandler) GetPosts(c echo.Context) error {
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	ctx := c.Request().Context()
	var (
		posts []models.Post
		err   error
	)
	if raw := c.QueryParam("user_id"); raw != "" {
		userID, perr := parseUserID(raw)
		if perr != nil {
			return perr
		}
		posts, err = h.postRepository.GetPostsByUserID(ctx, userID, skip, limit)
	} else {
		posts, err = h.postRepository.GetAllPosts(ctx, skip, limit)
	}
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Posts retrieved successfully", posts)
}

// UpdatePost edits the caller's post. Files sent as multipart replace the
// current files, whose objects are then removed from storage.
func (h *PostHandler) UpdatePost(c echo.Context) error {
	post, err := h.ownPost(c)
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	urls, err := h.uploadFiles(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Message) == "" && len(urls) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Nothing to update, send a message or files")
	}

	var replaced []string
	if len(urls) > 0 {
		replaced = post.FileURLs
		post.FileURLs = urls
	}
	if strings.TrimSpace(req.Message) != "" {
		post.Message = req.Message
	}

	if err := h.postRepository.UpdatePost(ctx, post); err != nil {
		h.removeAttachments(ctx, urls)
		return httpError(err)
	}
	h.removeAttachments(ctx, replaced)
	return respond(c, http.StatusOK, "Post updated successfully", post)
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	post, err := h.ownPost(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.postRepository.DeletePost(ctx, post.ID.Hex()); err != nil {
		return httpError(err)
	}
	h.removeAttachments(ctx, post.FileURLs)
	return respond(c, http.StatusOK, "Post deleted successfully", nil)
}

// DeletePostFile drops one attachment from the caller's post.
func (h *PostHandler) DeletePostFile(c echo.Context) error {
	post, err := h.ownPost(c)
	if err != nil {
		return err
	}

	var req models.DeletePostFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	i := slices.Index(post.FileURLs, req.URL)
	if i < 0 {
		return echo.NewHTTPError(http.StatusNotFound, "File not found on this post")
	}
	post.FileURLs = slices.Delete(slices.Clone(post.FileURLs), i, i+1)

	ctx := c.Request().Context()
	if err := h.postRepository.UpdatePost(ctx, post); err != nil {
		return httpError(err)
	}
	h.removeAttachments(ctx, []string{req.URL})
	return respond(c, http.StatusOK, "File deleted successfully", post)
}

func (h *PostHandler) ownPost(c echo.Context) (*models.Post, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, httpError(err)
	}
	if post.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You can only change your own posts")
	}
	return post, nil
}

// removeAttachments deletes stored objects the post no longer references.
// The post itself is already consistent, so failures are only logged.
func (h *PostHandler) removeAttachments(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	if h.attachments == nil {
		h.log.Warnw("attachments left in storage, uploads are not configured", "count", len(urls))
		return
	}
	for _, url := range urls {
		if err := h.attachments.Delete(ctx, url); err != nil {
			h.log.Warnw("delete attachment", "url", url, "error", err)
		}
	}
}
