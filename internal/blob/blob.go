// Package blob is the upload boundary for raw document bytes. The engine
// hands over bytes and a content type and gets back a durable URL; nothing
// else about the blob store leaks through this interface.
package blob

import "context"

// Payload is one file to upload.
type Payload struct {
	Key         string
	ContentType string
	Data        []byte
}

// Uploader stores a payload and returns its durable URL. A failed upload
// returns an error and leaves nothing for the caller to clean up.
type Uploader interface {
	Upload(ctx context.Context, p Payload) (string, error)
}
