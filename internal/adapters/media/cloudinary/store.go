package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type Store struct {
	api uploadAPI
}

func New(cloudName, apiKey, apiSecret string) (*Store, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &Store{api: &cld.Upload}, nil
}

func (s *Store) Upload(ctx context.Context, localPath, folder string) (string, error) {
	if localPath == "" {
		return "", errors.New("empty local path")
	}

	res, err := s.api.Upload(ctx, localPath, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary: empty secure url")
	}
	return res.SecureURL, nil
}

func (s *Store) Delete(ctx context.Context, assetURL string) error {
	publicID, resourceType, err := PublicIDFromURL(assetURL)
	if err != nil {
		return err
	}

	res, err := s.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("failed to delete from Cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	// "not found" тоже успех: удалять уже нечего.
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicIDFromURL разбирает delivery URL вида
// https://res.cloudinary.com/<cloud>/<type>/upload/[v123/]<folder>/<name>.<ext>.
func PublicIDFromURL(assetURL string) (publicID, resourceType string, err error) {
	u, err := url.Parse(assetURL)
	if err != nil || u.Path == "" {
		return "", "", fmt.Errorf("invalid cloudinary url %q", assetURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	idx := -1
	for i, p := range parts {
		if p == "upload" {
			idx = i
			break
		}
	}
	if idx < 1 || idx == len(parts)-1 {
		return "", "", fmt.Errorf("invalid cloudinary url %q", assetURL)
	}
	resourceType = parts[idx-1]

	rest := parts[idx+1:]
	if len(rest) > 1 && versionSegment.MatchString(rest[0]) {
		rest = rest[1:]
	}
	id := strings.Join(rest, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	if id == "" {
		return "", "", fmt.Errorf("invalid cloudinary url %q", assetURL)
	}
	return id, resourceType, nil
}
