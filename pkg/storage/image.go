package storage

import (
	"bytes"
	"image"
	"mime"
	"net/http"
	"strings"

	// Decoders registered for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var typeExtensions = map[string]string{
	"image/jpeg":     ".jpg",
	"image/pjpeg":    ".jpg",
	"image/png":      ".png",
	"image/gif":      ".gif",
	"image/webp":     ".webp",
	"image/bmp":      ".bmp",
	"image/x-ms-bmp": ".bmp",
	"image/tiff":     ".tiff",
	"image/avif":     ".avif",
	"image/svg+xml":  ".svg",
}

var formatTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// ExtensionForType returns the file extension for an image media type
func ExtensionForType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	return typeExtensions[mediaType]
}

// DetectImage decides whether data is an image and returns its media type.
// A declared image/* type is trusted; otherwise the bytes are decoded far
// enough to read the image header, falling back to content sniffing.
func DetectImage(data []byte, declared string) (string, bool) {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType, true
	}

	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if mediaType, ok := formatTypes[format]; ok {
			return mediaType, true
		}
		return "image/" + format, true
	}

	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		mediaType, _, _ := mime.ParseMediaType(sniffed)
		return mediaType, true
	}
	return "", false
}
