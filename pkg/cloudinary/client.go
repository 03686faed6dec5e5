package cloudinary

import (
	"github.com/cloudinary/cloudinary-go/v2"
)

// New builds a client from cloudinaryURL, falling back to the
// CLOUDINARY_URL environment variable when it is empty.
func New(cloudinaryURL string) (*cloudinary.Cloudinary, error) {
	if cloudinaryURL == "" {
		return cloudinary.New()
	}
	return cloudinary.NewFromURL(cloudinaryURL)
}
