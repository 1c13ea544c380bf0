// Package storage persists photo uploads and hands back a URL path the
// frontend can use. The default backend is the local uploads directory;
// an S3 bucket takes over when one is configured. Callers only ever see
// the returned path string.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"dojoadmin_go/config"
	"dojoadmin_go/models"
)

type StorageService struct {
	s3Client *s3.S3 // nil means local disk
	bucket   string
	localDir string
}

// NewStorageService creates a storage service. With S3_BUCKET_NAME set it
// targets S3; otherwise files land in the local uploads directory.
func NewStorageService() (*StorageService, error) {
	cfg := config.AppConfig

	if cfg.S3BucketName != "" {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWSRegion),
			Credentials: credentials.NewStaticCredentials(
				cfg.AWSAccessKeyID,
				cfg.AWSSecretAccessKey,
				"",
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %v", err)
		}
		return &StorageService{
			s3Client: s3.New(sess),
			bucket:   cfg.S3BucketName,
		}, nil
	}

	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %v", err)
	}
	return &StorageService{localDir: cfg.UploadsDir}, nil
}

// SaveUpload stores an uploaded file and returns the URL path to persist
// on the record (e.g. students.picture_path).
func (s *StorageService) SaveUpload(file *multipart.FileHeader, folder string) (string, error) {
	if file.Size > config.AppConfig.MaxFileSize {
		return "", &models.ValidationError{Field: "file", Message: "file too large"}
	}
	ext := fileExtension(file.Filename)
	if !allowedExtension(ext) {
		return "", &models.ValidationError{Field: "file", Message: fmt.Sprintf("extension %q not allowed", ext)}
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	now := time.Now()
	name := fmt.Sprintf("%s/%d/%02d/%s.%s",
		folder, now.Year(), now.Month(), uuid.New().String()[:16], ext)

	if s.s3Client != nil {
		return s.uploadS3(src, name, ext)
	}
	return s.uploadLocal(src, name)
}

func (s *StorageService) uploadLocal(src io.Reader, name string) (string, error) {
	target := filepath.Join(s.localDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %v", err)
	}

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to write file: %v", err)
	}

	return "/uploads/" + name, nil
}

func (s *StorageService) uploadS3(src io.Reader, name, ext string) (string, error) {
	body, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}

	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        strings.NewReader(string(body)),
		ContentType: aws.String(contentType(ext)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %v", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.bucket, config.AppConfig.AWSRegion, name), nil
}

// DeleteFile removes a previously stored file by its URL path. Missing
// files are not an error.
func (s *StorageService) DeleteFile(fileURL string) error {
	if s.s3Client != nil {
		key := extractS3Key(fileURL)
		if key == "" {
			return fmt.Errorf("invalid file URL")
		}
		_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	}

	rel := strings.TrimPrefix(fileURL, "/uploads/")
	if rel == fileURL || rel == "" || strings.Contains(rel, "..") {
		return fmt.Errorf("invalid file URL")
	}
	err := os.Remove(filepath.Join(s.localDir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func fileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 1 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

func allowedExtension(ext string) bool {
	for _, allowed := range strings.Split(config.AppConfig.AllowedExtensions, ",") {
		if ext == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

func contentType(extension string) string {
	switch strings.ToLower(extension) {
	case "webp":
		return "image/webp"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// extractS3Key extracts the S3 key from a full URL
func extractS3Key(url string) string {
	parts := strings.Split(url, ".amazonaws.com/")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
