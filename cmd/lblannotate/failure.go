package main

import (
	"errors"
	"fmt"

	"github.com/sensorable/lblannotate"
)

// failureMessages returns the lines printed for a failed run.
func failureMessages(f *lblannotate.Failure, req lblannotate.Request,
	s lblannotate.Session) []string {

	if f == nil {
		return []string{"An unexpected error occurred."}
	}

	switch f.Reason {
	case lblannotate.NoCredentials:
		return []string{
			"Credentials not found. Configure the provider CLI or ensure your environment has" +
				" credentials.",
			fmt.Sprintf("Details: %s", f.Message),
		}
	case lblannotate.PartialCredentials:
		return []string{
			"Incomplete credentials. Ensure the access key ID and secret access key (or the" +
				" credentials file) are correctly configured.",
			fmt.Sprintf("Details: %s", f.Message),
		}
	case lblannotate.ObjectNotFound:
		return []string{fmt.Sprintf("Error: The image key '%s' was not found in bucket '%s'.",
			req.Key, req.Bucket)}
	case lblannotate.BucketNotFound:
		return []string{fmt.Sprintf("Error: The bucket '%s' does not exist.", req.Bucket)}
	case lblannotate.AccessDenied:
		return []string{
			fmt.Sprintf("Error: Access Denied. Check the permissions of profile '%s' for the object"+
				" store and the labeling service.", s.ProfileName()),
			fmt.Sprintf("Details: %s", f.Message),
		}
	case lblannotate.ImageUnprocessable:
		return []string{
			"Error: The labeling service could not access or process the image. This could be due" +
				" to object store permissions of the service, the image not being accessible, or an" +
				" unsupported image format.",
			fmt.Sprintf("Details: %s", f.Message),
		}
	case lblannotate.ExpiredCredentials:
		return []string{
			"Error: Credentials have expired or are invalid. Please reconfigure or refresh your" +
				" credentials.",
			fmt.Sprintf("Details: %s", f.Message),
		}
	case lblannotate.ServiceError:
		return []string{fmt.Sprintf("A service error occurred: %s - %s", f.Code, f.Message)}
	}

	lines := []string{fmt.Sprintf("An unexpected error occurred: %s", f.Message)}
	if f.Err != nil {
		lines = append(lines, fmt.Sprintf("Error type: %T", f.Err))
		for e := errors.Unwrap(f.Err); e != nil; e = errors.Unwrap(e) {
			lines = append(lines, fmt.Sprintf("  caused by %T: %v", e, e))
		}
	}
	return lines
}
