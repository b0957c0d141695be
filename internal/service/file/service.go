package file

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type FileService interface {
	// ArchiveImport stores an uploaded punch file under its batch id
	ArchiveImport(ctx context.Context, batchID string, uploadedAt time.Time, file io.Reader, filename string) (string, error)

	// OpenImport reads back an archived punch file
	OpenImport(ctx context.Context, path string) (io.ReadCloser, error)

	// Generic operations
	DeleteFile(ctx context.Context, path string) error
	GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
	}
}

// ArchiveImport keeps the original upload so a batch can be re-run or audited.
// Files are grouped by upload month: imports/2024-03/<batch>.xlsx
func (s *fileServiceImpl) ArchiveImport(ctx context.Context, batchID string, uploadedAt time.Time, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".xlsx" && ext != ".xlsm" {
		return "", fmt.Errorf("invalid file type: only xlsx, xlsm allowed")
	}

	path := filepath.Join("imports", uploadedAt.Format("2006-01"), batchID+ext)

	uploadedPath, err := s.storage.Upload(ctx, file, path, xlsxContentType)
	if err != nil {
		return "", fmt.Errorf("failed to archive import: %w", err)
	}

	return uploadedPath, nil
}

func (s *fileServiceImpl) OpenImport(ctx context.Context, path string) (io.ReadCloser, error) {
	return s.storage.Download(ctx, path)
}

// DeleteFile deletes a file
func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

// GetFileURL returns the URL for a file
func (s *fileServiceImpl) GetFileURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return s.storage.GetURL(ctx, path, expiry)
}
