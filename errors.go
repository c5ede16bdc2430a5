package lblannotate

// Classification of provider errors into the failure reasons reported by the CLI.

import (
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/aws/smithy-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Credential states detected while bootstrapping a session.
var (
	ErrNoCredentials      = errors.New("no credentials found")
	ErrPartialCredentials = errors.New("incomplete credentials")
)

// ErrImageDecode is returned when the fetched object cannot be decoded as an image.
var ErrImageDecode = errors.New("cannot decode image")

// FailureReason tags why a run failed.
type FailureReason int

// The known failure reasons.
const (
	Unexpected FailureReason = iota // Not a recognised provider error.
	NoCredentials
	PartialCredentials
	AccessDenied
	ObjectNotFound
	BucketNotFound
	ImageUnprocessable
	ExpiredCredentials
	ServiceError // Any other error reported by a service.
)

var failureReasonNames = [...]string{
	Unexpected:         "unexpected",
	NoCredentials:      "no-credentials",
	PartialCredentials: "partial-credentials",
	AccessDenied:       "access-denied",
	ObjectNotFound:     "object-not-found",
	BucketNotFound:     "bucket-not-found",
	ImageUnprocessable: "image-unprocessable",
	ExpiredCredentials: "expired-credentials",
	ServiceError:       "service-error",
}

func (r FailureReason) String() string {
	if r < 0 || int(r) >= len(failureReasonNames) {
		return fmt.Sprintf("FailureReason(%d)", int(r))
	}
	return failureReasonNames[r]
}

// Failure describes a terminal error of a run.
type Failure struct {
	Reason  FailureReason
	Code    string // The service error code, if any.
	Message string // The service error message, or the error text.
	Err     error  // The underlying error.
}

func (f *Failure) Error() string {
	if f.Code != "" {
		return fmt.Sprintf("%v: %s - %s", f.Reason, f.Code, f.Message)
	}
	return fmt.Sprintf("%v: %s", f.Reason, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AWS error codes by failure reason. S3 and Rekognition use different codes for the same cause.
var awsErrorCodes = map[string]FailureReason{
	"AccessDenied":                AccessDenied,
	"AccessDeniedException":       AccessDenied,
	"NoSuchKey":                   ObjectNotFound,
	"NoSuchBucket":                BucketNotFound,
	"InvalidS3ObjectException":    ImageUnprocessable,
	"InvalidImageFormatException": ImageUnprocessable,
	"ImageTooLargeException":      ImageUnprocessable,
	"ExpiredToken":                ExpiredCredentials,
	"ExpiredTokenException":       ExpiredCredentials,
	"InvalidClientTokenId":        ExpiredCredentials,
	"UnrecognizedClientException": ExpiredCredentials,
	"InvalidAccessKeyId":          ExpiredCredentials,
	"SignatureDoesNotMatch":       ExpiredCredentials,
}

// ClassifyError maps err to a Failure. Returns nil if err is nil.
func ClassifyError(err error) *Failure {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	f = &Failure{Reason: Unexpected, Message: err.Error(), Err: err}

	switch {
	case errors.Is(err, ErrNoCredentials):
		f.Reason = NoCredentials
		return f
	case errors.Is(err, ErrPartialCredentials):
		f.Reason = PartialCredentials
		return f
	case errors.Is(err, ErrImageDecode):
		f.Reason = ImageUnprocessable
		return f
	case errors.Is(err, storage.ErrObjectNotExist):
		f.Reason = ObjectNotFound
		return f
	case errors.Is(err, storage.ErrBucketNotExist):
		f.Reason = BucketNotFound
		return f
	}

	// AWS.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		f.Code = apiErr.ErrorCode()
		f.Message = apiErr.ErrorMessage()
		if r, ok := awsErrorCodes[f.Code]; ok {
			f.Reason = r
		} else {
			f.Reason = ServiceError
		}
		return f
	}

	// Google Cloud, JSON API.
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		f.Code = http.StatusText(gErr.Code)
		f.Message = gErr.Message
		switch gErr.Code {
		case http.StatusForbidden:
			f.Reason = AccessDenied
		case http.StatusUnauthorized:
			f.Reason = ExpiredCredentials
		default:
			f.Reason = ServiceError
		}
		return f
	}

	// Google Cloud, gRPC.
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		f.Code = s.Code().String()
		f.Message = s.Message()
		switch s.Code() {
		case codes.PermissionDenied:
			f.Reason = AccessDenied
		case codes.Unauthenticated:
			f.Reason = ExpiredCredentials
		case codes.InvalidArgument, codes.NotFound:
			f.Reason = ImageUnprocessable
		default:
			f.Reason = ServiceError
		}
		return f
	}

	return f
}
