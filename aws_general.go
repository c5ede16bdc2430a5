package lblannotate

// AWS session bootstrap and S3 object retrieval.

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AWSSession holds the resolved AWS configuration for a run.
type AWSSession struct {
	Config  aws.Config
	Session Session
}

// NewAWSSession resolves the AWS configuration through the SDK's default chain, applying the
// profile and region overrides of s.
//
// Credentials are retrieved immediately, so that missing or incomplete credentials are reported
// before any service is called.
func NewAWSSession(ctx context.Context, s Session) (*AWSSession, error) {
	var opts []func(*config.LoadOptions) error
	if s.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(s.Profile))
	}
	if s.Region != "" {
		opts = append(opts, config.WithRegion(s.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load the AWS configuration: %v",
			credentialsError(os.Getenv), err)
	}
	if cfg.Credentials == nil {
		return nil, credentialsError(os.Getenv)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", credentialsError(os.Getenv), err)
	}

	return &AWSSession{Config: cfg, Session: s}, nil
}

// EffectiveRegion returns the region used by the service clients and where it came from.
func (s *AWSSession) EffectiveRegion() (string, RegionSource) {
	if s.Session.Region != "" {
		return s.Session.Region, RegionSpecified
	}
	if s.Config.Region != "" {
		return s.Config.Region, RegionResolved
	}
	return "", RegionUnresolved
}

// credentialsError tells incomplete static credentials in the environment apart from absent
// credentials.
func credentialsError(getenv func(string) string) error {
	hasID := getenv("AWS_ACCESS_KEY_ID") != ""
	hasSecret := getenv("AWS_SECRET_ACCESS_KEY") != ""
	if hasID != hasSecret {
		return ErrPartialCredentials
	}
	return ErrNoCredentials
}

// s3GetObjectAPI is the subset of the S3 client used by S3Store.
type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (
		*s3.GetObjectOutput, error)
}

// S3Store reads objects from Amazon S3.
type S3Store struct {
	client s3GetObjectAPI
}

// NewS3Store creates an S3Store using the configuration of s.
func NewS3Store(s *AWSSession) *S3Store {
	return &S3Store{client: s3.NewFromConfig(s.Config)}
}

// GetObject returns the content of the object key in bucket.
func (s *S3Store) GetObject(ctx context.Context, bucket, key string) (data []byte, err error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer closeWithErrCheck(out.Body, &err)

	return readAll(out.Body)
}
