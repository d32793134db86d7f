package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Operator stores image bytes in one bucket and hands out public URLs for them.
type S3Operator struct {
	Client         *s3.Client
	Bucket         string
	PublicEndpoint *url.URL
}

// NewClient builds an S3 client for an S3 compatible endpoint with static credentials.
func NewClient(ctx context.Context, endpoint, region, accessKeyID, secretAccessKey string, usePathStyle bool) (*s3.Client, error) {
	const op = "NewClient"
	if region == "" {
		region = "auto"
	}
	opts := []func(*awsCfg.LoadOptions) error{
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
		awsCfg.WithRegion(region),
	}
	if endpoint != "" {
		opts = append(opts, awsCfg.WithBaseEndpoint(endpoint))
	}
	cfg, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load AWS config, err=%w", op, err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = usePathStyle
	}), nil
}

func NewS3Operator(client *s3.Client, bucket, publicBaseURL string) (*S3Operator, error) {
	const op = "NewS3Operator"
	publicEndpoint, err := url.Parse(publicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to parse public base URL, err=%w", op, err)
	}
	return &S3Operator{Client: client, Bucket: bucket, PublicEndpoint: publicEndpoint}, nil
}

// UploadFileToS3 puts the content under key and returns its public URL.
func (s *S3Operator) UploadFileToS3(ctx context.Context, key, contentType string, fileContent []byte) (string, error) {
	const op = "UploadFileToS3"
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(fileContent),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to upload file to S3, err=%w", op, err)
	}
	return s.PublicURL(key), nil
}

// DeleteObject removes the object behind a URL returned by UploadFileToS3.
// URLs outside the public endpoint are ignored.
func (s *S3Operator) DeleteObject(ctx context.Context, publicURL string) error {
	const op = "DeleteObject"
	key, ok := s.KeyFromURL(publicURL)
	if !ok {
		return nil
	}
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("[%s] Fail to delete object %s, err=%w", op, key, err)
	}
	return nil
}

func (s *S3Operator) PublicURL(key string) string {
	uri := *s.PublicEndpoint
	uri.Path = strings.TrimSuffix(uri.Path, "/") + "/" + strings.TrimPrefix(key, "/")
	return uri.String()
}

func (s *S3Operator) KeyFromURL(publicURL string) (string, bool) {
	uri, err := url.Parse(publicURL)
	if err != nil || uri.Host != s.PublicEndpoint.Host {
		return "", false
	}
	prefix := strings.TrimSuffix(s.PublicEndpoint.Path, "/") + "/"
	if !strings.HasPrefix(uri.Path, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(uri.Path, prefix)
	return key, key != ""
}
