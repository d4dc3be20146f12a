// Package storage uploads post attachments to S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxAttachmentSize bounds a single uploaded file.
const MaxAttachmentSize = 50 << 20

var allowedTypes = map[string]struct {
	dir string
	ext string
}{
	"image/png":  {"post-image", ".png"},
	"image/jpg":  {"post-image", ".jpg"},
	"image/jpeg": {"post-image", ".jpg"},
	"image/webp": {"post-image", ".webp"},
	"video/mp4":  {"post-video", ".mp4"},
}

// Attachment is one file to upload.
type Attachment struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachmentStore persists files and returns their public URLs.
type AttachmentStore interface {
	Upload(ctx context.Context, file Attachment) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

// KeyFor validates the content type and returns a fresh object key for it.
func KeyFor(contentType string) (string, error) {
	kind, ok := allowedTypes[strings.ToLower(contentType)]
	if !ok {
		return "", apperrors.Validation("unsupported file type %q", contentType)
	}
	return path.Join(kind.dir, uuid.NewString()+kind.ext), nil
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Store struct {
	uploader uploader
	objects  objectDeleter
	bucket   string
	baseURL  string
}

// NewS3Store loads the default AWS credential chain. A non-empty endpoint
// targets an S3-compatible server (MinIO) with path-style addressing.
func NewS3Store(ctx context.Context, region, bucket, endpoint string) (*S3Store, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	if endpoint != "" {
		baseURL = strings.TrimRight(endpoint, "/") + "/" + bucket
	}
	return &S3Store{uploader: manager.NewUploader(client), objects: client, bucket: bucket, baseURL: baseURL}, nil
}

func (s *S3Store) Upload(ctx context.Context, file Attachment) (string, error) {
	if file.Size > MaxAttachmentSize {
		return "", apperrors.Validation("file exceeds %d bytes", MaxAttachmentSize)
	}
	key, err := KeyFor(file.ContentType)
	if err != nil {
		return "", err
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file.Body,
		ContentType: aws.String(file.ContentType),
	})
	if err != nil {
		return "", apperrors.Persistence("upload attachment", err)
	}
	return s.baseURL + "/" + (&url.URL{Path: key}).EscapedPath(), nil
}

// Delete removes the object behind a URL returned by Upload.
func (s *S3Store) Delete(ctx context.Context, fileURL string) error {
	key, err := s.keyFromURL(fileURL)
	if err != nil {
		return err
	}

	_, err = s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperrors.Persistence("delete attachment", err)
	}
	return nil
}

func (s *S3Store) keyFromURL(fileURL string) (string, error) {
	escaped, ok := strings.CutPrefix(fileURL, s.baseURL+"/")
	if !ok || escaped == "" {
		return "", apperrors.Validation("%q is not an attachment of this store", fileURL)
	}
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return "", apperrors.Validation("malformed attachment url %q", fileURL)
	}
	return key, nil
}
