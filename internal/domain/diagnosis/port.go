package diagnosis

import (
	"context"
	"image"
)

// Classifier port (interface untuk model inference)
type Classifier interface {
	Classify(ctx context.Context, img image.Image, filename string) (Classification, error)
	Info() ModelInfo
}

// ImageArchive port (interface untuk penyimpanan gambar upload)
type ImageArchive interface {
	Store(ctx context.Context, data []byte, key string) (string, error)
}
