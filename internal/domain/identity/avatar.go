package identity

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// MaxAvatarSize is the largest accepted avatar upload
const MaxAvatarSize int64 = 5 << 20

// AvatarPrefix is the key prefix under which avatars are stored
const AvatarPrefix = "avatars/"

var (
	ErrFileEmpty       = shared.NewDomainError("FILE_EMPTY", "File is empty")
	ErrFileTooLarge    = shared.NewDomainError("FILE_TOO_LARGE", "File size exceeds the 5 MB limit")
	ErrInvalidFileName = shared.NewDomainError("INVALID_FILE_NAME", "Invalid file name")
	ErrInvalidMimeType = shared.NewDomainError("INVALID_MIME_TYPE", "Only JPEG, PNG and GIF images are allowed")
	ErrInvalidFilePath = shared.NewDomainError("INVALID_FILE_PATH", "Invalid file path")
)

var avatarExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

var avatarMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// AvatarExtension validates an uploaded file name and returns its lower-case
// extension without the dot.
func AvatarExtension(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if !avatarExtensions[ext] {
		return "", ErrInvalidMimeType
	}
	return ext, nil
}

// ValidateAvatarSize checks an upload's size against MaxAvatarSize
func ValidateAvatarSize(size int64) error {
	if size <= 0 {
		return ErrFileEmpty
	}
	if size > MaxAvatarSize {
		return ErrFileTooLarge
	}
	return nil
}

// IsAllowedAvatarMime reports whether a sniffed content type is an accepted image
func IsAllowedAvatarMime(mime string) bool {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return avatarMimeTypes[strings.TrimSpace(mime)]
}

// NewAvatarKey returns a fresh object key: avatars/<uuid>_<userID>.<ext>
func NewAvatarKey(userID uuid.UUID, ext string) string {
	return fmt.Sprintf("%s%s_%s.%s", AvatarPrefix, uuid.New(), userID, ext)
}

// CheckAvatarKey rejects keys that leave the avatar prefix once cleaned
func CheckAvatarKey(key string) error {
	cleaned := path.Clean("/" + strings.ReplaceAll(key, `\`, "/"))
	if !strings.HasPrefix(cleaned, "/"+AvatarPrefix) || cleaned != "/"+key {
		return ErrInvalidFilePath
	}
	return nil
}
