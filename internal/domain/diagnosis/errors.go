package diagnosis

import "errors"

// ErrUnsupportedFormat indicates the uploaded file extension is not an accepted image format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrFileTooLarge indicates the upload exceeds the configured size cap.
var ErrFileTooLarge = errors.New("file size too large")

// ErrInvalidImage indicates the upload could not be decoded as an image.
var ErrInvalidImage = errors.New("invalid image file")
