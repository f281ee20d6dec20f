package domain

import "errors"

// Publish pipeline error classes. Callers classify with errors.Is so the API
// layer can map each class to a response and the sweep can decide whether a
// failure should be written to the video row or leave it untouched.
var (
	// ErrNotFound indicates the video, user or schedule does not exist or
	// does not belong to the caller
	ErrNotFound = errors.New("not found")

	// ErrCredential indicates stored credentials cannot be recovered;
	// re-authorization is required and automatic retry is pointless
	ErrCredential = errors.New("stored credentials unusable")

	// ErrTokenRefresh indicates the OAuth provider rejected the refresh token
	ErrTokenRefresh = errors.New("access token refresh failed")

	// ErrDownload indicates every download strategy was exhausted
	ErrDownload = errors.New("video download failed")

	// ErrUpload indicates the destination platform rejected the upload
	ErrUpload = errors.New("video upload failed")

	// ErrQuotaExceeded indicates the user's daily publish limit is reached
	ErrQuotaExceeded = errors.New("daily publish limit reached")

	// ErrAlreadyPosted indicates the video has already been published
	ErrAlreadyPosted = errors.New("video already posted")

	// ErrPublishInProgress indicates another run currently holds the publish
	// claim on the video
	ErrPublishInProgress = errors.New("publish already in progress")

	// ErrNotPublishable indicates the user lacks tokens or a destination channel
	ErrNotPublishable = errors.New("user is not configured for publishing")
)

// ConfigProblem reports whether the error means the publish attempt should
// leave the video status untouched: the problem is configuration, not
// execution, so writing failed would only hide it.
func ConfigProblem(err error) bool {
	return errors.Is(err, ErrCredential) ||
		errors.Is(err, ErrTokenRefresh) ||
		errors.Is(err, ErrNotPublishable)
}
