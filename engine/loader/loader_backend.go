package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-blend/engine/config"
)

// loaderBackend defines the generic interface for reading action documents from files or streams.
// Concrete implementations (e.g., documentLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load reads a document from the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - config.Document: the decoded document
	//   - error: error if loading fails
	Load(path string) (config.Document, error)

	// LoadReader reads a document from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing document data
	//   - format: the encoding of the stream, e.g. "yaml"
	//
	// Returns:
	//   - config.Document: the decoded document
	//   - error: error if loading fails
	LoadReader(r io.Reader, format string) (config.Document, error)

	// Formats returns the file extensions (without dot) the backend understands.
	Formats() []string
}

// documentLoaderBackend reads viper-decodable action documents.
type documentLoaderBackend struct{}

var _ loaderBackend = documentLoaderBackend{}

func newDocumentLoaderBackend() loaderBackend {
	return documentLoaderBackend{}
}

func (documentLoaderBackend) Load(path string) (config.Document, error) {
	return config.LoadDocument(path)
}

func (documentLoaderBackend) LoadReader(r io.Reader, format string) (config.Document, error) {
	return config.DecodeDocument(r, format)
}

func (documentLoaderBackend) Formats() []string {
	return []string{"json", "yaml", "yml", "toml"}
}
