// Package storage lists and fetches the PDF documents kept in an S3 bucket
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// API is the subset of the S3 client the bucket needs
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Bucket gives access to the documents under one prefix of a bucket
type Bucket struct {
	api    API
	name   string
	prefix string
}

// NewBucket wraps an S3 client for the given bucket and key prefix
func NewBucket(api API, name, prefix string) *Bucket {
	return &Bucket{api: api, name: name, prefix: prefix}
}

// Name returns the bucket name
func (b *Bucket) Name() string {
	return b.name
}

// ListDocuments returns the keys of every PDF under the prefix, in the
// order S3 lists them. The ".pdf" suffix is matched case-insensitively.
func (b *Bucket) ListDocuments(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(b.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
		Prefix: aws.String(b.prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", b.name, b.prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(strings.ToLower(key), ".pdf") {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

// Fetch downloads the object stored under key
func (b *Bucket) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := b.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", b.name, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", b.name, key, err)
	}
	return data, nil
}
