package lblannotate

// Google Cloud session bootstrap and Cloud Storage object retrieval.

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const gcpScope = "https://www.googleapis.com/auth/cloud-platform"

// GCPSession holds the resolved Google Cloud credentials for a run.
type GCPSession struct {
	Credentials *google.Credentials
	Session     Session
}

// NewGCPSession resolves Google Cloud credentials. If s.Profile is set it names a credentials
// JSON file, otherwise Application Default Credentials are used.
func NewGCPSession(ctx context.Context, s Session) (*GCPSession, error) {
	var creds *google.Credentials
	if s.Profile != "" {
		data, err := os.ReadFile(s.Profile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, gcpScope)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrPartialCredentials, s.Profile, err)
		}
	} else {
		var err error
		creds, err = google.FindDefaultCredentials(ctx, gcpScope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
		}
	}

	return &GCPSession{Credentials: creds, Session: s}, nil
}

// EffectiveRegion returns the region of the Vision endpoint and where it came from. Without an
// explicit region the global endpoint is used.
func (s *GCPSession) EffectiveRegion() (string, RegionSource) {
	if s.Session.Region != "" {
		return s.Session.Region, RegionSpecified
	}
	return "global", RegionResolved
}

// clientOptions returns the options shared by all Google Cloud clients of the session.
func (s *GCPSession) clientOptions() []option.ClientOption {
	return []option.ClientOption{option.WithCredentials(s.Credentials)}
}

// visionEndpoint returns the regional Vision endpoint, or "" for the global one.
func (s *GCPSession) visionEndpoint() string {
	if s.Session.Region == "" {
		return ""
	}
	return s.Session.Region + "-vision.googleapis.com:443"
}

// gcsURI formats the Cloud Storage URI of an object.
func gcsURI(bucket, key string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, key)
}

// gcsObjectOpener opens an object for reading.
type gcsObjectOpener func(ctx context.Context, bucket, key string) (io.ReadCloser, error)

// GCSStore reads objects from Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
	open   gcsObjectOpener
}

// NewGCSStore creates a GCSStore using the credentials of s. Close must be called when done.
func NewGCSStore(ctx context.Context, s *GCPSession) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, s.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create the storage client: %w", err)
	}

	open := func(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
		r, err := client.Bucket(bucket).Object(key).NewReader(ctx)
		if err != nil {
			return nil, err
		}
		return r, nil
	}

	return &GCSStore{client: client, open: open}, nil
}

// GetObject returns the content of the object key in bucket.
func (s *GCSStore) GetObject(ctx context.Context, bucket, key string) (data []byte, err error) {
	r, err := s.open(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", gcsURI(bucket, key), err)
	}
	defer closeWithErrCheck(r, &err)

	return readAll(r)
}

// Close closes the storage client.
func (s *GCSStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
