package document

import (
	"encoding/base64"
	"strings"
)

// SignatureAsset is a signature image registered in the school backend.
type SignatureAsset struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	SignatureImageURL string `json:"signatureImageUrl"`
	FileDetails       string `json:"fileDetails,omitempty"`
	FileType          string `json:"fileType,omitempty"`
}

// HasImage reports whether the asset points at an image.
func (s SignatureAsset) HasImage() bool {
	return strings.TrimSpace(s.SignatureImageURL) != ""
}

// InlinedImage is an image converted to an embeddable data URL payload.
type InlinedImage struct {
	MediaType  string `json:"media_type"`
	Base64Data string `json:"base64_data"`
}

// NewInlinedImage encodes raw image bytes.
func NewInlinedImage(mediaType string, data []byte) InlinedImage {
	return InlinedImage{
		MediaType:  mediaType,
		Base64Data: base64.StdEncoding.EncodeToString(data),
	}
}

// IsZero reports whether the image carries no data.
func (i InlinedImage) IsZero() bool {
	return i.Base64Data == ""
}

// DataURL returns the data: URL form of the image.
func (i InlinedImage) DataURL() string {
	if i.IsZero() {
		return ""
	}
	return "data:" + i.MediaType + ";base64," + i.Base64Data
}

// Bytes decodes the image payload.
func (i InlinedImage) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(i.Base64Data)
}
