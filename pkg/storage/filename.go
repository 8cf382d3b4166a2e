package storage

import (
	"fmt"
	"hash/crc32"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// maxNameLength keeps names well under common filesystem limits
const maxNameLength = 200

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".jpe": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true, ".avif": true, ".svg": true,
}

// FilenameFromURL derives the file name from the final path segment of the
// resolved URL. A URL without a usable segment is named image-<crc32>. When
// the segment is not an image file and the URL carries a query, the crc32 is
// appended so that "view.php?id=1" and "view.php?id=2" stay distinct.
func FilenameFromURL(raw string) string {
	checksum := fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(raw)))

	u, err := url.Parse(raw)
	if err != nil {
		return "image-" + checksum
	}

	segment := path.Base(u.EscapedPath())
	if unescaped, err := url.PathUnescape(segment); err == nil {
		segment = unescaped
	}
	name := sanitize(segment)
	if name == "" {
		return "image-" + checksum
	}

	ext := strings.ToLower(path.Ext(name))
	if !imageExtensions[ext] && u.RawQuery != "" {
		name = strings.TrimSuffix(name, path.Ext(name)) + "-" + checksum
	}
	return truncate(name)
}

// WithExtension appends the extension matching contentType when name has no
// image extension
func WithExtension(name, contentType string) string {
	if imageExtensions[strings.ToLower(path.Ext(name))] {
		return name
	}
	if ext := ExtensionForType(contentType); ext != "" {
		return truncate(strings.TrimSuffix(name, path.Ext(name))) + ext
	}
	return name
}

func sanitize(segment string) string {
	name := unsafeChars.ReplaceAllString(segment, "_")
	name = strings.Trim(name, "._")
	if name == "" || name == "-" {
		return ""
	}
	return name
}

func truncate(name string) string {
	if len(name) <= maxNameLength {
		return name
	}
	ext := path.Ext(name)
	if len(ext) > 10 {
		ext = ""
	}
	return name[:maxNameLength-len(ext)] + ext
}
