package middleware

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Upload validation and sanitization utilities

// MaxUploadBytes caps incoming image uploads at 10MB.
const MaxUploadBytes = 10 * 1024 * 1024

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
}

// AllowedImageExtensions lists accepted upload extensions in display order.
func AllowedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff"}
}

// ValidateImageFilename checks that the upload carries an accepted image extension
func ValidateImageFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return fmt.Errorf("no file provided")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file has no extension (allowed: %s)", strings.Join(AllowedImageExtensions(), ", "))
	}
	if !allowedImageExts[ext] {
		return fmt.Errorf("%s is not an accepted format (allowed: %s)", ext, strings.Join(AllowedImageExtensions(), ", "))
	}
	return nil
}

// ValidateUploadSize rejects empty uploads and uploads over the size cap
func ValidateUploadSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("uploaded file is empty")
	}
	if size > MaxUploadBytes {
		return fmt.Errorf("%.1fMB exceeds the %dMB limit",
			float64(size)/(1024*1024), MaxUploadBytes/(1024*1024))
	}
	return nil
}

// SanitizeFilename strips path components and control characters so a
// client-supplied name is safe to log and to embed in object keys
func SanitizeFilename(name string) string {
	// Drop any directory components, including Windows-style ones
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	// Remove null bytes and control characters
	var b strings.Builder
	for _, r := range name {
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())

	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "upload"
	}
	return cleaned
}
