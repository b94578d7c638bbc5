package archive

import (
	"bytes"
	"net/url"
	"strings"
)

// extensionFor picks the file extension for downloaded bytes, trying signals
// in order from most to least authoritative: the response content-type, the
// URL path suffix, the payload's magic bytes, and finally a jpg fallback.
func extensionFor(rawURL, contentType string, data []byte) string {
	if ext := extFromContentType(contentType); ext != "" {
		return ext
	}
	if ext := extFromURL(rawURL); ext != "" {
		return ext
	}
	if ext := extFromMagic(data); ext != "" {
		return ext
	}
	return "jpg"
}

func extFromContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return "jpg"
	case strings.Contains(ct, "png"):
		return "png"
	case strings.Contains(ct, "gif"):
		return "gif"
	case strings.Contains(ct, "webp"):
		return "webp"
	}
	return ""
}

func extFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.ToLower(u.Path)
	switch {
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		return "jpg"
	case strings.HasSuffix(path, ".png"):
		return "png"
	case strings.HasSuffix(path, ".gif"):
		return "gif"
	case strings.HasSuffix(path, ".webp"):
		return "webp"
	}
	return ""
}

func extFromMagic(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return "jpg"
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png"
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif"
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && bytes.Contains(data[:12], []byte("WEBP")):
		return "webp"
	}
	return ""
}
