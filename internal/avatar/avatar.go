// Package avatar derives default avatars and stores uploaded ones.
//
// Every new account starts with a Gravatar URL derived from its email.
// Uploaded images replace it: the HTTP layer hands the file to a Store, and
// the URL the Store returns is saved on the user.
package avatar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Store persists avatar images and returns the URL clients should load
// them from. key is a bare file name produced by ObjectKey.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// Gravatar returns the 250px Gravatar URL for email. Gravatar identifies
// accounts by the MD5 of the trimmed, lowercased address.
func Gravatar(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://s.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=250"
}

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Extension returns the lowercased extension of filename and whether it is
// an accepted image type.
func Extension(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := allowedExtensions[ext]
	return ext, ok
}

// ContentType returns the MIME type for an accepted extension, or
// "application/octet-stream".
func ContentType(ext string) string {
	if ct, ok := allowedExtensions[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ObjectKey names the stored file for an upload: "<userID>-<unix millis><ext>".
// A new key per upload means a cached old avatar is never served under the
// new URL.
func ObjectKey(userID, filename string, now time.Time) string {
	ext, _ := Extension(filename)
	return fmt.Sprintf("%s-%d%s", userID, now.UnixMilli(), ext)
}
