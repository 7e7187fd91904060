// Package s3event converts S3 upload notifications into domain uploads.
package s3event

import (
	"net/url"

	"github.com/aws/aws-lambda-go/events"

	"github.com/kailas-cloud/photosearch/internal/domain/photo"
)

// Uploads extracts one upload per notification record, in record order.
func Uploads(ev events.S3Event) []photo.Upload {
	uploads := make([]photo.Upload, 0, len(ev.Records))
	for _, rec := range ev.Records {
		uploads = append(uploads, photo.Upload{
			Bucket:    rec.S3.Bucket.Name,
			Key:       DecodeKey(rec.S3.Object.Key),
			EventTime: rec.EventTime,
		})
	}
	return uploads
}

// DecodeKey undoes the form encoding S3 applies to object keys in notifications ("+" is a space).
// Keys that fail to decode are returned as received.
func DecodeKey(key string) string {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return key
	}
	return decoded
}
