package store

import "go.ngs.io/sst-validation/internal/domain"

// DatasetLoader is the interface for reading one gridded input file
type DatasetLoader interface {
	// Load returns the read-only snapshot of the file at path
	Load(path string) (*domain.Dataset, error)
}
