package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"kinship/internal/models"
)

// AvatarPrefix is the public path uploaded avatars are served from. An uploaded avatar is
// named "{userID}-{anything}" so its owner can be read from the name.
const AvatarPrefix = "/uploads/"

// AvatarRemover deletes the stored avatar behind a profile's avatar URL.
type AvatarRemover interface {
	Remove(ctx context.Context, ownerID, avatarURL string) error
}

// LocalAvatarRemover removes avatars stored as files under a single upload directory.
type LocalAvatarRemover struct {
	dir string
}

// NewLocalAvatarRemover creates a remover rooted at dir.
func NewLocalAvatarRemover(dir string) *LocalAvatarRemover {
	return &LocalAvatarRemover{dir: dir}
}

// Remove deletes ownerID's uploaded avatar file. URLs that do not name a file owned by
// ownerID, external URLs and already missing files are ignored.
func (r *LocalAvatarRemover) Remove(_ context.Context, ownerID, avatarURL string) error {
	name, ok := ownedAvatarFile(ownerID, avatarURL)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(r.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ownedAvatarFile returns the file name behind avatarURL when it is an upload of ownerID.
func ownedAvatarFile(ownerID, avatarURL string) (string, bool) {
	name, ok := strings.CutPrefix(avatarURL, AvatarPrefix)
	if !ok || ownerID == "" || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	rest, ok := strings.CutPrefix(name, ownerID+"-")
	if !ok || rest == "" {
		return "", false
	}
	return name, true
}

func isExternalAvatar(avatarURL string) bool {
	return strings.HasPrefix(avatarURL, "https://") || strings.HasPrefix(avatarURL, "http://")
}

// validateAvatarURL accepts an empty value, an http(s) URL or one of userID's own uploads.
func validateAvatarURL(userID, avatarURL string) error {
	if avatarURL == "" || isExternalAvatar(avatarURL) {
		return nil
	}
	if _, ok := ownedAvatarFile(userID, avatarURL); ok {
		return nil
	}
	return models.NewFieldValidationError("Validation failed", []models.FieldError{{
		Field:   "avatarUrl",
		Message: "avatarUrl must be an http(s) URL or one of your uploads",
	}})
}
