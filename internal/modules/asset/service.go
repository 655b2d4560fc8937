package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	appcfg "github.com/kurz-app/kurz-go/internal/config"
)

// ErrNotFound reports that no object exists under the given identifier.
var ErrNotFound = errors.New("asset not found")

// Object is a stored binary on the asset host.
type Object struct {
	PublicID  string    // full object key, e.g. "kurz/<hash>.mp4"
	URL       string
	CreatedAt time.Time
	Size      int64
}

// Store is the asset host contract consumed by the handlers.
type Store interface {
	// FindByHash returns the existing object whose key starts with the
	// content hash, or ErrNotFound.
	FindByHash(ctx context.Context, hash string) (*Object, error)
	// Upload stores payload under the content hash and returns its locator.
	Upload(ctx context.Context, hash, ext, contentType, originalName string, payload []byte) (*Object, error)
	// List returns stored objects, newest first, capped at max.
	List(ctx context.Context, max int) ([]Object, error)
	// Delete removes an object by its public id. ErrNotFound when absent.
	Delete(ctx context.Context, publicID string) error
	// PublicURL resolves the externally reachable URL of an object key.
	PublicURL(key string) string
}

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Store implements Store against any S3-compatible asset host.
type s3Store struct {
	api          s3API
	bucket       string
	prefix       string
	customDomain string
	endpoint     string
	pathStyle    bool
	region       string
}

// NewS3Store builds the asset store from startup configuration. Credentials
// are not validated here; a missing key fails on the first provider call.
func NewS3Store(opts appcfg.S3Options) Store {
	clientOpts := s3.Options{
		Region: strings.TrimSpace(opts.Region),
		Credentials: credentials.NewStaticCredentialsProvider(
			strings.TrimSpace(opts.AccessKeyID),
			strings.TrimSpace(opts.SecretAccessKey),
			"",
		),
		UsePathStyle: opts.PathStyleAccess,
	}
	if clientOpts.Region == "" {
		clientOpts.Region = "us-east-1"
	}
	endpoint := normalizeEndpoint(opts.Endpoint)
	if endpoint != "" {
		clientOpts.BaseEndpoint = awssdk.String(endpoint)
		// Custom endpoints are virtually always path-style hosts.
		clientOpts.UsePathStyle = true
	}

	return &s3Store{
		api:          s3.New(clientOpts),
		bucket:       strings.TrimSpace(opts.Bucket),
		prefix:       strings.Trim(strings.TrimSpace(opts.Prefix), "/"),
		customDomain: strings.TrimRight(strings.TrimSpace(opts.CustomDomain), "/"),
		endpoint:     endpoint,
		pathStyle:    clientOpts.UsePathStyle,
		region:       clientOpts.Region,
	}
}

func (s *s3Store) FindByHash(ctx context.Context, hash string) (*Object, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, ErrNotFound
	}

	out, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  awssdk.String(s.bucket),
		Prefix:  awssdk.String(s.objectKey(hash)),
		MaxKeys: awssdk.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("asset lookup failed: %w", err)
	}
	if len(out.Contents) == 0 {
		return nil, ErrNotFound
	}
	return s.objectFromListing(out.Contents[0]), nil
}

func (s *s3Store) Upload(ctx context.Context, hash, ext, contentType, originalName string, payload []byte) (*Object, error) {
	key := s.objectKey(hash) + strings.ToLower(strings.TrimSpace(ext))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:      awssdk.String(s.bucket),
		Key:         awssdk.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: awssdk.String(contentType),
	}
	if name := strings.TrimSpace(originalName); name != "" {
		input.Metadata = map[string]string{"original-name": name}
	}

	if _, err := s.api.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("asset upload failed: %w", err)
	}

	return &Object{
		PublicID:  key,
		URL:       s.PublicURL(key),
		CreatedAt: time.Now(),
		Size:      int64(len(payload)),
	}, nil
}

func (s *s3Store) List(ctx context.Context, max int) ([]Object, error) {
	out, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: awssdk.String(s.bucket),
		Prefix: awssdk.String(s.prefix + "/"),
	})
	if err != nil {
		return nil, fmt.Errorf("asset listing failed: %w", err)
	}

	objects := make([]Object, 0, len(out.Contents))
	for _, item := range out.Contents {
		obj := s.objectFromListing(item)
		if obj == nil {
			continue
		}
		objects = append(objects, *obj)
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].CreatedAt.After(objects[j].CreatedAt)
	})
	if max > 0 && len(objects) > max {
		objects = objects[:max]
	}
	return objects, nil
}

func (s *s3Store) Delete(ctx context.Context, publicID string) error {
	key := strings.TrimSpace(publicID)
	if key == "" || !strings.HasPrefix(key, s.prefix+"/") {
		return ErrNotFound
	}

	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: awssdk.String(s.bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("asset lookup failed: %w", err)
	}

	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: awssdk.String(s.bucket),
		Key:    awssdk.String(key),
	}); err != nil {
		return fmt.Errorf("asset deletion failed: %w", err)
	}
	return nil
}

// PublicURL builds the externally reachable URL for an object key.
func (s *s3Store) PublicURL(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.customDomain != "" {
		return s.customDomain + "/" + key
	}
	if s.endpoint != "" {
		if s.pathStyle {
			return s.endpoint + "/" + s.bucket + "/" + key
		}
		return s.endpoint + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func (s *s3Store) objectKey(hash string) string {
	if s.prefix == "" {
		return hash
	}
	return s.prefix + "/" + hash
}

func (s *s3Store) objectFromListing(item s3types.Object) *Object {
	if item.Key == nil {
		return nil
	}
	key := *item.Key
	if strings.HasSuffix(key, "/") {
		return nil
	}

	obj := &Object{
		PublicID: key,
		URL:      s.PublicURL(key),
	}
	if item.LastModified != nil {
		obj.CreatedAt = *item.LastModified
	}
	if item.Size != nil {
		obj.Size = *item.Size
	}
	return obj
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}

func normalizeEndpoint(raw string) string {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return ""
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return strings.TrimSuffix(endpoint, "/")
}

// BaseName returns the object key's file name without its extension.
func BaseName(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}
