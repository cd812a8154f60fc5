package file

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/types"
)

// MaxUploadSize caps files read into memory for upload.
const MaxUploadSize = 64 << 20

// ExpandPath expands a path to avoid `~`.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "getting user home dir")
	}
	return filepath.Join(home, path[2:]), nil
}

// Exists returns true if the specified file exists.
func Exists(filePath string) (bool, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "checking file existence")
	}
	return !info.IsDir(), nil
}

// ReadUpload reads a file from disk and detects its content type.
func ReadUpload(path string) (*types.Upload, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "getting os stats")
	}
	if info.IsDir() {
		return nil, errors.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxUploadSize {
		return nil, errors.Errorf("%s is larger than %d bytes", path, MaxUploadSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}
	return &types.Upload{
		Filename:    filepath.Base(path),
		ContentType: DetectContentType(path, content),
		Content:     content,
	}, nil
}

// DetectContentType sniffs content, falling back to the file extension for
// formats that sniff as plain octets.
func DetectContentType(path string, content []byte) string {
	detected := mimetype.Detect(content)
	if detected.Is("application/octet-stream") {
		if byExtension := mimetype.Lookup(extensionMIME(path)); byExtension != nil {
			return byExtension.String()
		}
	}
	return detected.String()
}

var extensionMIMEs = map[string]string{
	".m4a":  "audio/x-m4a",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".txt":  "text/plain",
	".md":   "text/plain",
}

func extensionMIME(path string) string {
	return extensionMIMEs[strings.ToLower(filepath.Ext(path))]
}
