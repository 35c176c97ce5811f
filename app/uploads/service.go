// Package uploads turns an accepted upload into a stored file and its
// metadata record.
package uploads

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/km-arc/go-uploads/app/metadata"
	"github.com/km-arc/go-uploads/app/storage"
	"github.com/km-arc/go-uploads/framework/http/validation"
)

// ErrNotAccepted is returned when Store is handed an input without a valid
// file. Callers validate first; seeing this is a programming error.
var ErrNotAccepted = errors.New("uploads: input has no valid file")

// Service stores accepted uploads.
type Service struct {
	disk  *storage.Disk
	store metadata.Store
	now   func() time.Time
	newID func() string
}

func NewService(disk *storage.Disk, store metadata.Store) *Service {
	return &Service{
		disk:  disk,
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Store writes the "file" upload of in to disk and records it under a new id.
// If the record cannot be written the file is removed again.
func (s *Service) Store(ctx context.Context, in *validation.Input) (metadata.Record, error) {
	f := in.File("file")
	if !f.Valid() {
		return metadata.Record{}, ErrNotAccepted
	}

	id := s.newID()
	stored, err := s.disk.Put(ctx, id, f)
	if err != nil {
		return metadata.Record{}, errors.Wrap(err, "uploads: store file")
	}

	rec := metadata.Record{
		FileID:      id,
		Name:        in.Text("name"),
		FileName:    f.Filename,
		ContentType: f.MediaType(),
		SizeBytes:   stored.Size,
		Path:        stored.Path,
		Status:      metadata.StatusStored,
		CreatedAt:   s.now().UTC().Format(time.RFC3339),
	}
	if err := s.store.Put(ctx, rec); err != nil {
		if derr := s.disk.Delete(stored.Path); derr != nil {
			zerolog.Ctx(ctx).Error().Err(derr).Str("path", stored.Path).Msg("orphaned upload")
		}
		return metadata.Record{}, errors.Wrap(err, "uploads: record metadata")
	}

	zerolog.Ctx(ctx).Info().
		Str("file_id", id).
		Int64("size_bytes", stored.Size).
		Msg("upload stored")
	return rec, nil
}

// Find returns the record for id; metadata.ErrNotFound when unknown.
func (s *Service) Find(ctx context.Context, id string) (metadata.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return metadata.Record{}, metadata.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// Delete removes the record for id and then its file. A file that is already
// gone is not an error; metadata.ErrNotFound when the id is unknown.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "uploads: delete metadata")
	}
	if err := s.disk.Delete(rec.Path); err != nil {
		return errors.Wrap(err, "uploads: delete file")
	}

	zerolog.Ctx(ctx).Info().Str("file_id", id).Msg("upload deleted")
	return nil
}
