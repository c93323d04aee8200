// Package s3 provides a datastore backed by an S3-compatible bucket,
// one JSON object per node with node attributes stored as S3 user
// metadata.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithy "github.com/aws/smithy-go"

	"gravcore/internal/datastore/core"
)

const frameContentType = "application/json"

// Config controls the S3-backed datastore. When AccessKeyID or
// SecretAccessKey is set the client uses static credentials; otherwise
// it falls back to the SDK's default chain.
type Config struct {
	Region          string
	Bucket          string
	Endpoint        string // optional custom endpoint (MinIO etc.)
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	UsePathStyle    bool
	Prefix          string // optional key prefix inside the bucket
}

// Store implements core.Store on an S3 bucket.
//
// S3 lowercases user metadata keys, so node attribute keys should be
// lowercase to read back identically across backends.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ core.Store = (*Store)(nil)

// New constructs an S3-backed store from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 datastore: bucket required")
	}
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &Store{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

// OpenFromEnv constructs the store from environment variables:
//
//	GRAVCORE_DATA_S3_BUCKET (required)
//	GRAVCORE_DATA_S3_REGION
//	GRAVCORE_DATA_S3_ENDPOINT
//	GRAVCORE_DATA_S3_ACCESS_KEY / _SECRET_KEY / _SESSION_TOKEN
//	GRAVCORE_DATA_S3_PATH_STYLE (any non-empty value enables path style)
//	GRAVCORE_DATA_S3_PREFIX
func OpenFromEnv(ctx context.Context) (*Store, error) {
	cfg := Config{
		Region:          os.Getenv("GRAVCORE_DATA_S3_REGION"),
		Bucket:          os.Getenv("GRAVCORE_DATA_S3_BUCKET"),
		Endpoint:        os.Getenv("GRAVCORE_DATA_S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("GRAVCORE_DATA_S3_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("GRAVCORE_DATA_S3_SECRET_KEY"),
		SessionToken:    os.Getenv("GRAVCORE_DATA_S3_SESSION_TOKEN"),
		UsePathStyle:    os.Getenv("GRAVCORE_DATA_S3_PATH_STYLE") != "",
		Prefix:          os.Getenv("GRAVCORE_DATA_S3_PREFIX"),
	}
	return New(ctx, cfg)
}

func (s *Store) Driver() core.Driver { return core.DriverS3 }

func (s *Store) keyFor(node string) (key, clean string, err error) {
	clean, err = core.CleanNode(node)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimPrefix(clean, "/")
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key, clean, nil
}

func (s *Store) nodeFor(key string) string {
	if s.prefix != "" {
		key = strings.TrimPrefix(key, s.prefix+"/")
	}
	return "/" + key
}

func (s *Store) Put(ctx context.Context, node string, frame *core.Frame) error {
	key, _, err := s.keyFor(node)
	if err != nil {
		return err
	}
	payload, err := core.MarshalFrame(frame)
	if err != nil {
		return err
	}
	// Overwriting the object also drops its metadata, which is exactly
	// the attribute-reset Put promises.
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(frameContentType),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, node string) (*core.Frame, error) {
	key, clean, err := s.keyFor(node)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundErr(err) {
			return nil, core.NodeNotFoundError{Node: clean}
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer func() { _ = out.Body.Close() }()
	payload, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return core.UnmarshalFrame(payload)
}

func (s *Store) Delete(ctx context.Context, node string) (bool, error) {
	key, _, err := s.keyFor(node)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundErr(err) {
			return false, nil
		}
		return false, fmt.Errorf("head object: %w", err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return false, fmt.Errorf("delete object: %w", err)
	}
	return true, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := s.prefix
	if prefix != "" {
		trimmed := strings.TrimPrefix(prefix, "/")
		if s.prefix != "" {
			keyPrefix = s.prefix + "/" + trimmed
		} else {
			keyPrefix = trimmed
		}
	}
	var nodes []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(keyPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			nodes = append(nodes, s.nodeFor(*obj.Key))
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	sort.Strings(nodes)
	return nodes, nil
}

func (s *Store) SetNodeAttr(ctx context.Context, node, key, value string) error {
	objKey, clean, err := s.keyFor(node)
	if err != nil {
		return err
	}
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		if isNotFoundErr(err) {
			return core.NodeNotFoundError{Node: clean}
		}
		return fmt.Errorf("head object: %w", err)
	}
	attrs := make(map[string]string, len(head.Metadata)+1)
	for k, v := range head.Metadata {
		attrs[k] = v
	}
	attrs[key] = value
	// S3 user metadata is immutable in place; replacing it means copying
	// the object onto itself with a metadata replace directive.
	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(objKey),
		CopySource:        aws.String(s.bucket + "/" + objKey),
		Metadata:          attrs,
		MetadataDirective: types.MetadataDirectiveReplace,
		ContentType:       aws.String(frameContentType),
	})
	if err != nil {
		return fmt.Errorf("copy object: %w", err)
	}
	return nil
}

func (s *Store) NodeAttrs(ctx context.Context, node string) (map[string]string, error) {
	objKey, clean, err := s.keyFor(node)
	if err != nil {
		return nil, err
	}
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		if isNotFoundErr(err) {
			return nil, core.NodeNotFoundError{Node: clean}
		}
		return nil, fmt.Errorf("head object: %w", err)
	}
	attrs := make(map[string]string, len(head.Metadata))
	for k, v := range head.Metadata {
		attrs[k] = v
	}
	return attrs, nil
}

func (s *Store) Close() error { return nil }

func isNotFoundErr(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
