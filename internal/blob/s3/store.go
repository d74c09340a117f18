package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/UkralStul/x-clone-service/internal/blob"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Config - параметры бакета.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string // пусто для AWS, адрес для MinIO и совместимых
	// PublicURL - базовый адрес, по которому объекты доступны на чтение.
	// Пусто: адрес строится из endpoint и бакета.
	PublicURL string
}

// Store хранит объекты в S3-совместимом бакете.
type Store struct {
	client    *s3.S3
	bucket    string
	publicURL string
}

// New создает клиент S3 по конфигурации.
func New(cfg Config) (*Store, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		if cfg.Endpoint != "" {
			public = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			public = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return &Store{client: s3.New(sess), bucket: cfg.Bucket, publicURL: public}, nil
}

func (s *Store) Upload(ctx context.Context, path string, data []byte, contentType string) (blob.Ref, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return blob.Ref{}, fmt.Errorf("failed to put object %s: %w", path, err)
	}
	return blob.Ref{Path: path}, nil
}

func (s *Store) DownloadURL(ctx context.Context, ref blob.Ref) (string, error) {
	head, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref.Path),
	})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%s: %w", ref.Path, blob.ErrNotFound)
		}
		return "", fmt.Errorf("failed to head object %s: %w", ref.Path, err)
	}
	url := s.publicURL + "/" + ref.Path
	if head.ETag != nil {
		url += "?v=" + strings.Trim(*head.ETag, `"`)
	}
	return url, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	// S3 не сообщает об отсутствии объекта при удалении, проверяем заранее
	if _, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%s: %w", path, blob.ErrNotFound)
		}
		return fmt.Errorf("failed to head object %s: %w", path, err)
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
