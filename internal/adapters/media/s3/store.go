package s3

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Options struct {
	Region        string
	Bucket        string
	BaseEndpoint  string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// Store кладёт файлы в S3-совместимое хранилище (AWS, MinIO) и отдаёт
// публичный URL вида <PublicBaseURL>/<key>.
type Store struct {
	client  objectAPI
	bucket  string
	baseURL string
	now     func() time.Time
}

func New(ctx context.Context, o Options) (*Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(o.Region)}
	if o.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
			so.UsePathStyle = true
		}
	})
	return newStore(client, o), nil
}

func newStore(client objectAPI, o Options) *Store {
	base := o.PublicBaseURL
	if base == "" {
		if o.BaseEndpoint != "" {
			base = strings.TrimRight(o.BaseEndpoint, "/") + "/" + o.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", o.Bucket, o.Region)
		}
	}
	return &Store{
		client:  client,
		bucket:  o.Bucket,
		baseURL: strings.TrimRight(base, "/"),
		now:     time.Now,
	}
}

func (s *Store) objectKey(folder, localPath string) string {
	d := s.now().UTC()
	key := fmt.Sprintf("%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), strings.ToLower(filepath.Ext(localPath)))
	if folder = strings.Trim(folder, "/"); folder != "" {
		key = folder + "/" + key
	}
	return key
}

func (s *Store) Upload(ctx context.Context, localPath, folder string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	key := s.objectKey(folder, localPath)
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *Store) Delete(ctx context.Context, assetURL string) error {
	key, err := s.KeyFromURL(assetURL)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *Store) KeyFromURL(assetURL string) (string, error) {
	key, ok := strings.CutPrefix(assetURL, s.baseURL+"/")
	if !ok || key == "" {
		return "", errors.New("url does not belong to this bucket")
	}
	return key, nil
}
