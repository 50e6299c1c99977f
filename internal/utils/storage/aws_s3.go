package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const s3Folder = "uploads/"

type (
	S3API interface {
		PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
		DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
		HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	}

	awsS3 struct {
		client S3API
		bucket string
		region string
	}
)

func NewAwsS3(ctx context.Context, bucket, region, accessKey, secretKey string) (ImageStore, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewAwsS3WithClient(s3.NewFromConfig(cfg), bucket, region), nil
}

func NewAwsS3WithClient(client S3API, bucket, region string) ImageStore {
	return &awsS3{client: client, bucket: bucket, region: region}
}

func (s *awsS3) UploadFile(ctx context.Context, objectKey string, data []byte) error {
	if err := validKey(objectKey); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Folder + objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType(data)),
	})
	return err
}

func (s *awsS3) DeleteFile(ctx context.Context, objectKey string) error {
	if err := validKey(objectKey); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3Folder + objectKey),
	})
	return err
}

func (s *awsS3) FileExists(ctx context.Context, objectKey string) (bool, error) {
	if err := validKey(objectKey); err != nil {
		return false, err
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3Folder + objectKey),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
		return false, nil
	}
	return false, err
}

func (s *awsS3) GetPublicLinkKey(objectKey string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s%s", s.bucket, s.region, s3Folder, objectKey)
}

func (s *awsS3) GetObjectKeyFromLink(link string) string {
	idx := strings.LastIndex(link, "/")
	if idx < 0 {
		return link
	}
	return link[idx+1:]
}
