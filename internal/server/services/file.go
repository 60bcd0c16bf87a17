// Package services contains server-side business logic. This file implements
// FileService: the content-addressed storage and versioning engine. Every
// mutation runs blob-write-first, then commits metadata, quota delta, and the
// sync event in one transaction, and finally publishes a best-effort
// notification.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/psemenov/filebox/internal/blobstore"
	"github.com/psemenov/filebox/internal/common"
	"github.com/psemenov/filebox/internal/dbx"
	"github.com/psemenov/filebox/internal/hashx"
	"github.com/psemenov/filebox/internal/logging"
	"github.com/psemenov/filebox/internal/notify"
	"github.com/psemenov/filebox/internal/server/models"
	"github.com/psemenov/filebox/internal/server/repositories/repomanager"
)

// FileService owns files, versions, quota accounting, and the sync event
// trail those mutations leave behind.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	notifier    notify.Notifier
	logger      logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store,
	notifier notify.Notifier, logger logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		notifier:    notifier,
		logger:      logger,
	}
}

// createTemp is a seam for tests.
var createTemp = func() (*os.File, error) {
	return os.CreateTemp("", "filebox-upload-*")
}

// spoolDigest streams r into a temp file while computing its digest, so the
// bytes can be hashed once and written to the blob store afterwards without
// holding them in memory. The returned file is positioned at the start.
func spoolDigest(r io.Reader) (*os.File, string, int64, error) {
	tmp, err := createTemp()
	if err != nil {
		return nil, "", 0, err
	}
	digest, size, err := hashx.DigestCopy(tmp, r)
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, "", 0, err
	}
	return tmp, digest, size, nil
}

func discardSpool(tmp *os.File) {
	tmp.Close()
	os.Remove(tmp.Name())
}

// appendEvent inserts a sync event inside the caller's transaction so the
// event commits or rolls back together with the mutation it describes.
func (s *FileService) appendEvent(ctx context.Context, tx dbx.DBTX, userID string,
	fileID *string, kind string, payload any, deviceID string) (*models.SyncEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding event payload: %v", err)
	}
	return s.repomanager.SyncEvents(tx).Create(ctx, &models.SyncEvent{
		UserID:   userID,
		FileID:   fileID,
		Kind:     kind,
		Payload:  body,
		DeviceID: deviceID,
	})
}

// publishEvent notifies the user's topic after commit. Failures are logged
// and swallowed: the durable event log is the source of truth, the publish
// channel only shortens polling latency.
func (s *FileService) publishEvent(ctx context.Context, event *models.SyncEvent) {
	if event == nil {
		return
	}
	if err := s.notifier.Publish(ctx, notify.UserTopic(event.UserID), event.Payload); err != nil {
		s.logger.Warn(ctx, "notification publish failed",
			"user_id", event.UserID, "kind", event.Kind, "error", err)
	}
}

// Upload stores a new file for the user. Re-uploading bytes the user already
// holds in a non-deleted file is idempotent: the existing File is returned
// with created=false, no blob is written, and the quota ledger is untouched.
func (s *FileService) Upload(ctx context.Context, userID, name, mimeType, deviceID string,
	r io.Reader) (*models.File, bool, error) {

	tmp, digest, size, err := spoolDigest(r)
	if err != nil {
		return nil, false, fmt.Errorf("error reading upload: %v", err)
	}
	defer discardSpool(tmp)

	fileRepo := s.repomanager.Files(s.db)

	existing, err := fileRepo.FindByDigest(ctx, userID, digest)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if user.StorageUsed+size > user.StorageQuota {
		return nil, false, common.ErrQuotaExceeded
	}

	pointer, err := hashx.StoragePointer(digest, name)
	if err != nil {
		return nil, false, err
	}
	if err := s.blobs.Put(ctx, pointer, tmp, size); err != nil {
		return nil, false, fmt.Errorf("error writing blob: %v", err)
	}

	var file *models.File
	var event *models.SyncEvent
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		file, err = s.repomanager.Files(tx).Create(ctx, &models.File{
			UserID:         userID,
			Name:           name,
			OriginalName:   name,
			StoragePointer: pointer,
			Digest:         digest,
			Size:           size,
			MimeType:       mimeType,
			Version:        1,
		})
		if err != nil {
			return err
		}
		if _, err := s.repomanager.FileVersions(tx).Create(ctx, &models.FileVersion{
			FileID:         file.ID,
			VersionNumber:  1,
			StoragePointer: pointer,
			Digest:         digest,
			Size:           size,
		}); err != nil {
			return err
		}
		if _, err := s.repomanager.Users(tx).AdjustStorageUsed(ctx, userID, size); err != nil {
			return err
		}
		event, err = s.appendEvent(ctx, tx, userID, &file.ID, models.EventUpload, struct {
			Name    string `json:"name"`
			Size    int64  `json:"size"`
			Version int64  `json:"version"`
		}{name, size, 1}, deviceID)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("error creating file: %v", err)
	}

	s.publishEvent(ctx, event)
	return file, true, nil
}

// UpdateContent replaces a file's content with a new version. Bytes matching
// any existing version of this file are recognized as a no-op: the matching
// version is returned with isNew=false and nothing else changes.
func (s *FileService) UpdateContent(ctx context.Context, userID, fileID, deviceID string,
	r io.Reader) (*models.FileVersion, bool, error) {

	file, err := s.ownedActive(ctx, userID, fileID)
	if err != nil {
		return nil, false, err
	}

	tmp, digest, size, err := spoolDigest(r)
	if err != nil {
		return nil, false, fmt.Errorf("error reading upload: %v", err)
	}
	defer discardSpool(tmp)

	existing, err := s.repomanager.FileVersions(s.db).FindByDigest(ctx, fileID, digest)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	delta := size - file.Size
	if delta > 0 {
		user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		if user.StorageUsed+delta > user.StorageQuota {
			return nil, false, common.ErrQuotaExceeded
		}
	}

	pointer, err := hashx.StoragePointer(digest, file.OriginalName)
	if err != nil {
		return nil, false, err
	}
	if err := s.blobs.Put(ctx, pointer, tmp, size); err != nil {
		return nil, false, fmt.Errorf("error writing blob: %v", err)
	}

	number := file.Version + 1
	var version *models.FileVersion
	var event *models.SyncEvent
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		version, err = s.repomanager.FileVersions(tx).Create(ctx, &models.FileVersion{
			FileID:         fileID,
			VersionNumber:  number,
			StoragePointer: pointer,
			Digest:         digest,
			Size:           size,
		})
		if err != nil {
			return err
		}
		if err := s.repomanager.Files(tx).UpdateCurrent(ctx, fileID, pointer, digest, size, number); err != nil {
			return err
		}
		if _, err := s.repomanager.Users(tx).AdjustStorageUsed(ctx, userID, delta); err != nil {
			return err
		}
		event, err = s.appendEvent(ctx, tx, userID, &fileID, models.EventUpdate, struct {
			Name    string `json:"name"`
			Size    int64  `json:"size"`
			Version int64  `json:"version"`
		}{file.Name, size, number}, deviceID)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("error updating file: %v", err)
	}

	s.publishEvent(ctx, event)
	return version, true, nil
}

// Restore makes an old version current again by copying its bytes to a fresh
// blob pointer and recording the copy as a new version. It never re-points
// to the old blob: every version's pointer stays immutable and independently
// prunable. A version whose blob no longer resolves fails with
// ErrStorageCorruption.
func (s *FileService) Restore(ctx context.Context, userID, fileID string,
	versionNumber int64, deviceID string) (*models.FileVersion, error) {

	file, err := s.ownedActive(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}

	target, err := s.repomanager.FileVersions(s.db).GetByNumber(ctx, fileID, versionNumber)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrVersionNotFound
		}
		return nil, err
	}

	rc, err := s.blobs.Get(ctx, target.StoragePointer)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrStorageCorruption
		}
		return nil, err
	}
	defer rc.Close()

	pointer, err := hashx.StoragePointer(target.Digest, file.OriginalName)
	if err != nil {
		return nil, err
	}
	if err := s.blobs.Put(ctx, pointer, rc, target.Size); err != nil {
		return nil, fmt.Errorf("error copying blob: %v", err)
	}

	number := file.Version + 1
	delta := target.Size - file.Size
	var version *models.FileVersion
	var event *models.SyncEvent
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		version, err = s.repomanager.FileVersions(tx).Create(ctx, &models.FileVersion{
			FileID:         fileID,
			VersionNumber:  number,
			StoragePointer: pointer,
			Digest:         target.Digest,
			Size:           target.Size,
		})
		if err != nil {
			return err
		}
		if err := s.repomanager.Files(tx).UpdateCurrent(ctx, fileID, pointer, target.Digest, target.Size, number); err != nil {
			return err
		}
		if _, err := s.repomanager.Users(tx).AdjustStorageUsed(ctx, userID, delta); err != nil {
			return err
		}
		event, err = s.appendEvent(ctx, tx, userID, &fileID, models.EventRestore, struct {
			Name         string `json:"name"`
			RestoredFrom int64  `json:"restored_from"`
			Version      int64  `json:"version"`
		}{file.Name, versionNumber, number}, deviceID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error restoring version: %v", err)
	}

	s.publishEvent(ctx, event)
	return version, nil
}

// Download opens the current content of a file the caller owns or has been
// granted a per-user share on.
func (s *FileService) Download(ctx context.Context, userID, fileID string) (*models.File, io.ReadCloser, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if file.IsDeleted {
		return nil, nil, common.ErrNotFound
	}
	if file.UserID != userID {
		share, err := s.repomanager.FileShares(s.db).FindForUser(ctx, fileID, userID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, nil, common.ErrAccessDenied
			}
			return nil, nil, err
		}
		if share.Expired(time.Now()) {
			return nil, nil, common.ErrAccessDenied
		}
	}
	rc, err := s.openCurrent(ctx, file)
	if err != nil {
		return nil, nil, err
	}
	return file, rc, nil
}

// DownloadShared opens a file's current content given only a bearer share
// token. No authenticated identity is required on this path.
func (s *FileService) DownloadShared(ctx context.Context, token string) (*models.File, io.ReadCloser, error) {
	share, err := s.repomanager.FileShares(s.db).GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrInvalidShareToken
		}
		return nil, nil, err
	}
	if share.Expired(time.Now()) {
		return nil, nil, common.ErrInvalidShareToken
	}
	file, err := s.repomanager.Files(s.db).GetByID(ctx, share.FileID)
	if err != nil {
		return nil, nil, err
	}
	if file.IsDeleted {
		return nil, nil, common.ErrNotFound
	}
	rc, err := s.openCurrent(ctx, file)
	if err != nil {
		return nil, nil, err
	}
	return file, rc, nil
}

func (s *FileService) openCurrent(ctx context.Context, file *models.File) (io.ReadCloser, error) {
	rc, err := s.blobs.Get(ctx, file.StoragePointer)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrStorageCorruption
		}
		return nil, err
	}
	return rc, nil
}

// SoftDelete hides a file and releases its current size from the quota
// ledger. Versions and blobs are retained.
func (s *FileService) SoftDelete(ctx context.Context, userID, fileID, deviceID string) error {
	file, err := s.ownedActive(ctx, userID, fileID)
	if err != nil {
		return err
	}

	var event *models.SyncEvent
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Files(tx).MarkDeleted(ctx, fileID); err != nil {
			return err
		}
		if _, err := s.repomanager.Users(tx).AdjustStorageUsed(ctx, userID, -file.Size); err != nil {
			return err
		}
		event, err = s.appendEvent(ctx, tx, userID, &fileID, models.EventDelete, struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
		}{file.Name, file.Size}, deviceID)
		return err
	})
	if err != nil {
		return fmt.Errorf("error deleting file: %v", err)
	}

	s.publishEvent(ctx, event)
	return nil
}

// BulkDelete soft-deletes the subset of ids that belong to the user and are
// not already deleted, all in one transaction. Ids that do not match are
// skipped silently; an empty match reports zero without error.
func (s *FileService) BulkDelete(ctx context.Context, userID string, ids []string,
	deviceID string) (int64, int64, error) {

	var count, bytesFreed int64
	var events []*models.SyncEvent
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		matched, err := s.repomanager.Files(tx).SelectOwnedActive(ctx, ids, userID)
		if err != nil {
			return err
		}
		for _, file := range matched {
			if err := s.repomanager.Files(tx).MarkDeleted(ctx, file.ID); err != nil {
				return err
			}
			event, err := s.appendEvent(ctx, tx, userID, &file.ID, models.EventDelete, struct {
				Name string `json:"name"`
				Size int64  `json:"size"`
			}{file.Name, file.Size}, deviceID)
			if err != nil {
				return err
			}
			events = append(events, event)
			count++
			bytesFreed += file.Size
		}
		if bytesFreed > 0 {
			if _, err := s.repomanager.Users(tx).AdjustStorageUsed(ctx, userID, -bytesFreed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("error deleting files: %v", err)
	}

	for _, event := range events {
		s.publishEvent(ctx, event)
	}
	return count, bytesFreed, nil
}

// Rename changes a file's logical name. The content, version counter, and
// quota ledger are untouched.
func (s *FileService) Rename(ctx context.Context, userID, fileID, newName, deviceID string) (*models.File, error) {
	file, err := s.ownedActive(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	oldName := file.Name

	var event *models.SyncEvent
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Files(tx).UpdateName(ctx, fileID, newName, file.OriginalName); err != nil {
			return err
		}
		event, err = s.appendEvent(ctx, tx, userID, &fileID, models.EventRename, struct {
			OldName string `json:"old_name"`
			NewName string `json:"new_name"`
		}{oldName, newName}, deviceID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error renaming file: %v", err)
	}

	s.publishEvent(ctx, event)
	file.Name = newName
	return file, nil
}

// List returns the user's non-deleted files, optionally filtered by a name
// substring.
func (s *FileService) List(ctx context.Context, userID, search string, limit, offset int) ([]*models.File, error) {
	return s.repomanager.Files(s.db).List(ctx, userID, search, limit, offset)
}

// Stats aggregates the user's storage usage.
func (s *FileService) Stats(ctx context.Context, userID string) (*models.FileStats, error) {
	return s.repomanager.Files(s.db).Stats(ctx, userID)
}

// PruneVersions trims a file's history to its newest keep versions. A
// version's metadata row is removed only after its blob delete succeeds, so
// a failed blob delete leaves both halves in place. Versions are pruned
// independently; a failure on one does not stop the rest.
func (s *FileService) PruneVersions(ctx context.Context, fileID string, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	versions, err := s.repomanager.FileVersions(s.db).ListByFile(ctx, fileID)
	if err != nil {
		return 0, err
	}
	if len(versions) <= keep {
		return 0, nil
	}

	pruned := 0
	for _, v := range versions[keep:] {
		if _, err := s.blobs.Delete(ctx, v.StoragePointer); err != nil {
			s.logger.Warn(ctx, "blob delete failed, keeping version row",
				"file_id", fileID, "version", v.VersionNumber, "error", err)
			continue
		}
		if err := s.repomanager.FileVersions(s.db).Delete(ctx, v.ID); err != nil {
			s.logger.Warn(ctx, "version row delete failed",
				"file_id", fileID, "version", v.VersionNumber, "error", err)
			continue
		}
		pruned++
	}
	return pruned, nil
}

// PruneSweep finds files whose history exceeds keep versions and prunes each
// of them. Intended to run on a schedule; idempotent and safe to run
// alongside foreground traffic.
func (s *FileService) PruneSweep(ctx context.Context, keep, limit int) (int, error) {
	candidates, err := s.repomanager.Files(s.db).SelectPruneCandidates(ctx, keep, limit)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, fileID := range candidates {
		pruned, err := s.PruneVersions(ctx, fileID, keep)
		if err != nil {
			s.logger.Warn(ctx, "version pruning failed", "file_id", fileID, "error", err)
			continue
		}
		total += pruned
	}
	return total, nil
}

// ownedActive loads a file and checks it belongs to userID and is not
// deleted.
func (s *FileService) ownedActive(ctx context.Context, userID, fileID string) (*models.File, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.UserID != userID {
		return nil, common.ErrAccessDenied
	}
	if file.IsDeleted {
		return nil, common.ErrNotFound
	}
	return file, nil
}
