package converter

import "errors"

var (
	ErrBookFinalized   = errors.New("book already finalized")
	ErrBookClosed      = errors.New("book already closed")
	ErrImageNotFound   = errors.New("image not found")
	ErrImageDecode     = errors.New("unable to decode image")
	ErrImageTooLarge   = errors.New("image exceeds size limit")
	ErrUnknownEncoding = errors.New("unknown source encoding")
	ErrNoChapters      = errors.New("no chapters to convert")
)
