package ai

import (
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

var ErrUnsupportedImage = errors.New("unsupported image type, expected PNG or JPEG")

var acceptedImageTypes = []string{"image/png", "image/jpeg"}

// DetectImage sniffs uploaded bytes and wraps them as an Image.
// Only PNG and JPEG are accepted; the client-declared type is ignored.
func DetectImage(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrUnsupportedImage)
	}

	mt := mimetype.Detect(data)
	for _, accepted := range acceptedImageTypes {
		if mt.Is(accepted) {
			return &Image{Data: data, MIMEType: accepted}, nil
		}
	}
	return nil, fmt.Errorf("%w: got %s", ErrUnsupportedImage, mt.String())
}
