package epub

import "errors"

// Writer side.
var (
	ErrArchiveClosed  = errors.New("epub: archive already closed")
	ErrDuplicateEntry = errors.New("epub: archive entry already written")
	ErrDuplicateID    = errors.New("epub: manifest id already registered")
	ErrUnknownIDRef   = errors.New("epub: spine idref not in manifest")
)

// Reader side.
var (
	ErrInvalidMimetype    = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrMimetypeCompressed = errors.New("mimetype must not be compressed")
	ErrMimetypeNotFound   = errors.New("mimetype file not found")
	ErrMimetypeNotFirst   = errors.New("mimetype must be the first archive entry")
	ErrContainerNotFound  = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound    = errors.New("OPF path not found in container.xml")
	ErrFileNotFound       = errors.New("file not found in archive")
	ErrInvalidBook        = errors.New("book failed verification")
)
