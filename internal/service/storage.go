package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/platebook/platebook-go/internal/model"
)

const presignExpiry = 15 * time.Minute

var (
	ErrUnknownBucket        = errors.New("unknown storage bucket")
	ErrUnsupportedImageType = errors.New("only images are allowed")
)

// StorageService vends presigned upload URLs for an S3-compatible object
// store. Clients upload avatars and recipe images directly; the API never
// proxies image bytes.
type StorageService struct {
	region    string
	endpoint  string
	accessKey string
	secretKey string
	buckets   map[string]string // logical name -> bucket name
}

// NewStorageService creates a StorageService for the given S3-compatible
// endpoint. Logical bucket names ("avatars", "recipe-images") map to the
// configured bucket names.
func NewStorageService(region, endpoint, accessKey, secretKey, avatarBucket, recipeImageBucket string) *StorageService {
	return &StorageService{
		region:    region,
		endpoint:  endpoint,
		accessKey: accessKey,
		secretKey: secretKey,
		buckets: map[string]string{
			"avatars":       avatarBucket,
			"recipe-images": recipeImageBucket,
		},
	}
}

func (s *StorageService) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.accessKey, s.secretKey, "",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.endpoint)
		o.UsePathStyle = true
	})

	return s3.NewPresignClient(client), nil
}

// storageKey returns a date-partitioned random object key, e.g.
// "2026/8/30/9f1c...".
func storageKey() string {
	d := time.Now()
	return fmt.Sprintf("%d/%d/%d/%v", d.Year(), int(d.Month()), d.Day(), uuid.New())
}

// PresignUpload validates the request and returns a presigned PUT URL the
// client can upload the image to, plus the public URL to store on the
// profile or recipe afterwards.
func (s *StorageService) PresignUpload(ctx context.Context, req model.PresignRequest) (*model.PresignResponse, error) {
	bucket, ok := s.buckets[req.Bucket]
	if !ok {
		return nil, ErrUnknownBucket
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		return nil, ErrUnsupportedImageType
	}

	client, err := s.presignClient(ctx)
	if err != nil {
		return nil, err
	}

	key := storageKey()
	presigned, err := client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(req.ContentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, err
	}

	return &model.PresignResponse{
		Key:       key,
		UploadURL: presigned.URL,
		PublicURL: fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.endpoint, "/"), bucket, key),
	}, nil
}
