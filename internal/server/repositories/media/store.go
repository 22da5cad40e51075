// Package media stores entry photos and audio clips in an S3-compatible
// blob store and translates between blob paths and their public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Store is the blob store contract used by the entry service.
type Store interface {
	// Upload writes data at path and returns its durable URL.
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	// PathFromURL recovers the storage path from a URL returned by Upload.
	PathFromURL(rawURL string) (string, error)
	// PresignGet returns a short-lived download URL for path.
	PresignGet(ctx context.Context, path string) (string, error)
}

var ErrUnrecognizedURL = errors.New("url does not point into the media bucket")

// firebasePath extracts the object path from Firebase Storage download URLs
// of the form https://host/v0/b/{bucket}/o/{escaped path}?alt=media.
func firebasePath(u *url.URL) (string, bool) {
	escaped := u.EscapedPath()
	_, after, ok := strings.Cut(escaped, "/o/")
	if !ok || after == "" {
		return "", false
	}
	p, err := url.PathUnescape(after)
	if err != nil {
		return "", false
	}
	return p, true
}

// bucketPath extracts the object path from a path-style URL
// {endpoint}/{bucket}/{path}.
func bucketPath(u *url.URL, bucket string) (string, bool) {
	prefix := "/" + bucket + "/"
	p := u.Path
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	p = strings.TrimPrefix(p, prefix)
	return p, p != ""
}

func pathFromURL(rawURL, bucket string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse media url: %w", err)
	}
	if p, ok := bucketPath(u, bucket); ok {
		return p, nil
	}
	if p, ok := firebasePath(u); ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnrecognizedURL, rawURL)
}
