package usecase

import (
	"context"
	"errors"
	"fmt"

	"resumerag/internal/adapter/loader"
	"resumerag/internal/port"
)

// IndexUseCase ingests every supported file under a path.
type IndexUseCase struct {
	service *Service
	walker  port.FileWalker
	loader  port.DocumentLoader
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(service *Service, walker port.FileWalker, loader port.DocumentLoader) *IndexUseCase {
	return &IndexUseCase{
		service: service,
		walker:  walker,
		loader:  loader,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	FilesIngested int
	FilesSkipped  int
	ChunksWritten int
	Documents     []string
	Errors        []string
}

// ProgressFunc is called after each file with the number of files handled so far.
type ProgressFunc func(done, total int, path string)

// Index ingests the files under root. Files that fail to load or ingest are
// recorded in the result and do not stop the run; storage failures do.
func (u *IndexUseCase) Index(ctx context.Context, root string, progress ProgressFunc) (*IndexResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	result := &IndexResult{}
	seen := make(map[string]string, len(files))

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if progress != nil {
			progress(i, len(files), file.Path)
		}

		doc, err := u.loader.Load(file.Path)
		if err != nil {
			result.FilesSkipped++
			if !errors.Is(err, loader.ErrUnsupportedFormat) {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to load %s: %v", file.Path, err))
			}
			continue
		}

		if prev, ok := seen[doc.Name]; ok {
			result.FilesSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("skipping %s: document name %q already taken by %s", file.Path, doc.Name, prev))
			continue
		}
		seen[doc.Name] = file.Path

		ids, err := u.service.IngestDocument(ctx, doc)
		if err != nil {
			return result, err
		}
		if len(ids) == 0 {
			result.FilesSkipped++
			continue
		}

		result.FilesIngested++
		result.ChunksWritten += len(ids)
		result.Documents = append(result.Documents, doc.Name)
	}

	if progress != nil {
		progress(len(files), len(files), "")
	}
	return result, nil
}
