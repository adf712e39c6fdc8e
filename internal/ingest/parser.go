package ingest

import (
	"io"

	"energy_profile/internal/model"
)

// Parser reads one meter export from a source and returns its wide table.
type Parser interface {
	Parse(r io.Reader) (*model.WideTable, error)
}
