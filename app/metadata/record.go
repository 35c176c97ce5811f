// Package metadata keeps one record per stored upload, in memory or in a
// DynamoDB table keyed by fileId.
package metadata

import (
	"context"
	"errors"
)

// StatusStored marks a record whose file is on disk.
const StatusStored = "STORED"

var (
	// ErrNotFound is returned by Get and Delete for an unknown id.
	ErrNotFound = errors.New("metadata: record not found")
	// ErrExists is returned by Put when the id is already taken.
	ErrExists = errors.New("metadata: record already exists")
)

// Record describes one stored upload.
type Record struct {
	FileID      string `json:"id" dynamodbav:"fileId"`
	Name        string `json:"name" dynamodbav:"name"`
	FileName    string `json:"file_name" dynamodbav:"fileName"`
	ContentType string `json:"content_type" dynamodbav:"contentType"`
	SizeBytes   int64  `json:"size_bytes" dynamodbav:"fileSizeBytes"`
	Path        string `json:"-" dynamodbav:"path"`
	Status      string `json:"status" dynamodbav:"status"`
	CreatedAt   string `json:"created_at" dynamodbav:"createdAt"`
}

// Store persists records.
type Store interface {
	Put(ctx context.Context, r Record) error
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}
