package domain

import "errors"

var (
	// ErrInvalidQuery signals an empty or missing search query.
	ErrInvalidQuery = errors.New("no query provided")
	// ErrInvalidUpload signals an upload notification without bucket or key.
	ErrInvalidUpload = errors.New("invalid upload event")
	// ErrObjectRetrieval signals a failure to read image bytes from the object store.
	ErrObjectRetrieval = errors.New("object retrieval failed")
	// ErrLabelDetection signals a label detection provider failure.
	ErrLabelDetection = errors.New("label detection failed")
	// ErrIndexWrite signals that the search index rejected or never received a document.
	ErrIndexWrite = errors.New("index write failed")
	// ErrIndexUnavailable signals a failed search query (transport error or non-200 answer).
	ErrIndexUnavailable = errors.New("search index unavailable")
)
