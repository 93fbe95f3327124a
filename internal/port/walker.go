package port

import "resumerag/internal/domain"

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// DocumentLoader extracts plain text from a file on disk.
type DocumentLoader interface {
	Load(path string) (domain.Document, error)
}
