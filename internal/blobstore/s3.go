package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"recipeforge/internal/services"
)

// S3Options configures NewS3.
type S3Options struct {
	Bucket string
	Prefix string
	Region string
	// Endpoint targets S3-compatible services (MinIO, R2). Path-style
	// addressing is enabled when set.
	Endpoint string
}

// S3Store keeps one object per blob under "{prefix}/{partition}/{key}".
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 builds a store from the default AWS credential chain.
func NewS3(ctx context.Context, opts S3Options) (*S3Store, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "open s3", "bucket is required", nil)
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "blobstore", "load aws config", "", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, bucket: opts.Bucket, prefix: strings.Trim(opts.Prefix, "/")}, nil
}

func (s *S3Store) objectKey(partition, key string) string {
	if s.prefix == "" {
		return partition + "/" + key
	}
	return s.prefix + "/" + partition + "/" + key
}

func (s *S3Store) partitionPrefix(partition string) string {
	return s.objectKey(partition, "")
}

func (s *S3Store) Save(ctx context.Context, partition, key string, data []byte) error {
	if err := validateKey(partition, key); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(partition, key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType(key)),
	})
	if err != nil {
		return services.Wrap(services.ErrStorage, "blobstore", "save", partition+"/"+key, err)
	}
	return nil
}

func (s *S3Store) Load(ctx context.Context, partition, key string) ([]byte, bool, error) {
	if err := validateKey(partition, key); err != nil {
		return nil, false, err
	}
	data, ok, err := s.get(ctx, s.objectKey(partition, key))
	if err != nil {
		return nil, false, services.Wrap(services.ErrStorage, "blobstore", "load", partition+"/"+key, err)
	}
	return data, ok, nil
}

func (s *S3Store) get(ctx context.Context, objectKey string) ([]byte, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *S3Store) List(ctx context.Context, partition string) ([]string, error) {
	if err := validatePartition(partition); err != nil {
		return nil, err
	}
	base := s.partitionPrefix(partition)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(base),
		Delimiter: aws.String("/"),
	})
	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "blobstore", "list", partition, err)
		}
		for _, common := range page.CommonPrefixes {
			keys = append(keys, strings.TrimPrefix(aws.ToString(common.Prefix), base))
		}
		for _, object := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(object.Key), base))
		}
	}
	return topLevelNames(keys), nil
}

func (s *S3Store) Find(ctx context.Context, partition, prefix string) (map[string][]byte, error) {
	if err := validatePrefix(partition, prefix); err != nil {
		return nil, err
	}
	base := s.partitionPrefix(partition)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(base + prefix),
	})
	out := make(map[string][]byte)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "blobstore", "find", partition+"/"+prefix, err)
		}
		for _, object := range page.Contents {
			objectKey := aws.ToString(object.Key)
			data, ok, err := s.get(ctx, objectKey)
			if err != nil {
				return nil, services.Wrap(services.ErrStorage, "blobstore", "find", objectKey, err)
			}
			if ok {
				out[strings.TrimPrefix(objectKey, base)] = data
			}
		}
	}
	return out, nil
}

func (s *S3Store) Close() error { return nil }
