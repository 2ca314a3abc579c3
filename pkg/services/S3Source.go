package services

import (
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/getoptions"
	"github.com/adampresley/adamgokit/s3/listoptions"
	"github.com/adampresley/randomgallery/pkg/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3SourceConfig struct {
	Bucket   string
	Prefix   string
	S3Client s3.S3Client
}

type S3Source struct {
	bucket   string
	prefix   string
	s3Client s3.S3Client
}

func NewS3Source(config S3SourceConfig) S3Source {
	return S3Source{
		bucket:   config.Bucket,
		prefix:   strings.Trim(config.Prefix, "/"),
		s3Client: config.S3Client,
	}
}

func (s S3Source) Name() string {
	return fmt.Sprintf("s3:%s/%s", s.bucket, s.prefix)
}

func (s S3Source) Delete(key string) error {
	var (
		err error
	)

	if !isCleanKey(key) {
		return fmt.Errorf("'%s': %w", key, models.ErrInvalidKey)
	}

	if _, err = s.s3Client.Delete(s.bucket, []string{s.objectKey(key)}); err != nil {
		return fmt.Errorf("error deleting '%s' from bucket '%s': %w", key, s.bucket, err)
	}

	return nil
}

func (s S3Source) List() ([]models.SourceObject, error) {
	return s.list(s.prefix, func(string) bool { return true })
}

func (s S3Source) Open(key string) (io.ReadCloser, error) {
	var (
		err    error
		object s3.GetObjectResponse
	)

	if !isCleanKey(key) {
		return nil, fmt.Errorf("'%s': %w", key, models.ErrInvalidKey)
	}

	object, err = s.s3Client.Get(
		s.bucket,
		s.objectKey(key),
		getoptions.WithTimeout(time.Minute*5),
	)

	if err != nil {
		return nil, fmt.Errorf("error getting '%s' from bucket '%s': %w", key, s.bucket, err)
	}

	return object.Body, nil
}

func (s S3Source) Stat(key string) (*models.SourceObject, error) {
	var (
		err     error
		objects []models.SourceObject
	)

	if !isCleanKey(key) {
		return nil, fmt.Errorf("'%s': %w", key, models.ErrInvalidKey)
	}

	objects, err = s.list(s.objectKey(key), func(candidate string) bool {
		return candidate == key
	})

	if err != nil {
		return nil, err
	}

	if len(objects) == 0 {
		return nil, fmt.Errorf("error reading '%s': %w", key, models.ErrPhotoNotFound)
	}

	return &objects[0], nil
}

/*
list walks every object under prefix. Sizes only come through on the
raw SDK objects, so they are captured while filtering.
*/
func (s S3Source) list(prefix string, match func(key string) bool) ([]models.SourceObject, error) {
	var (
		err      error
		response s3.ListResponse
		mu       sync.Mutex
	)

	sizes := map[string]int64{}

	response, err = s.s3Client.List(
		s.bucket,
		prefix,
		listoptions.WithGetAll(),
		listoptions.WithFilter(func(obj types.Object) bool {
			objectKey := aws.ToString(obj.Key)

			if !IsImageKey(objectKey) || !match(s.relativeKey(objectKey)) {
				return false
			}

			mu.Lock()
			sizes[objectKey] = aws.ToInt64(obj.Size)
			mu.Unlock()

			return true
		}),
	)

	if err != nil {
		return nil, fmt.Errorf("error listing bucket '%s' prefix '%s': %w", s.bucket, prefix, err)
	}

	result := make([]models.SourceObject, 0, len(response.Objects))

	for _, obj := range response.Objects {
		result = append(result, models.SourceObject{
			Key:          s.relativeKey(obj.Key),
			Size:         sizes[obj.Key],
			LastModified: obj.LastModified,
		})
	}

	return result, nil
}

func (s S3Source) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}

	return s.prefix + "/" + key
}

func (s S3Source) relativeKey(objectKey string) string {
	if s.prefix == "" {
		return objectKey
	}

	return strings.TrimPrefix(objectKey, s.prefix+"/")
}

func isCleanKey(key string) bool {
	return key != "" && !strings.HasPrefix(key, "/") && path.Clean(key) == key && !strings.HasPrefix(key, "../") && key != ".."
}
