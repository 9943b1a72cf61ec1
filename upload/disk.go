package upload

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/saveur1/community-system/model"
)

var (
	ErrInvalidDeleteToken = errors.New("invalid delete token")
	ErrFileNotFound       = errors.New("file not found")
)

var reUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// DiskUploader stores files in a local directory and serves them from
// baseURL. Delete tokens are an HMAC of the public id.
type DiskUploader struct {
	dir     string
	baseURL string
	secret  []byte
}

func NewDiskUploader(dir, baseURL, secret string) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &DiskUploader{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), secret: []byte(secret)}, nil
}

func (d *DiskUploader) Dir() string {
	return d.dir
}

func (d *DiskUploader) Upload(ctx context.Context, f File, opts Options) (model.UploadResult, error) {
	if f.Content == nil {
		return model.UploadResult{}, errors.New("empty file")
	}

	publicID := uuid.NewString()
	if folder := reUnsafe.ReplaceAllLiteralString(opts.Folder, "_"); folder != "" {
		publicID = folder + "_" + publicID
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
	ext = reUnsafe.ReplaceAllLiteralString(ext, "")
	filename := publicID
	if ext != "" {
		filename += "." + ext
	}

	out, err := os.Create(filepath.Join(d.dir, filename))
	if err != nil {
		return model.UploadResult{}, err
	}
	defer out.Close()

	src := NewProgressReader(ctx, f.Content, f.Size, opts.OnProgress)
	n, err := io.Copy(out, src)
	if err != nil {
		os.Remove(out.Name())
		return model.UploadResult{}, err
	}
	if opts.OnProgress != nil && src.last != 100 {
		opts.OnProgress(100)
	}

	url := d.baseURL + "/" + filename
	return model.UploadResult{
		SecureURL:        url,
		URL:              url,
		PublicID:         publicID,
		DeleteToken:      d.deleteToken(publicID),
		Bytes:            n,
		Format:           ext,
		OriginalFilename: strings.TrimSuffix(f.Name, filepath.Ext(f.Name)),
	}, nil
}

// Delete removes a stored file when token matches its public id.
func (d *DiskUploader) Delete(publicID, token string) error {
	if publicID == "" || reUnsafe.MatchString(publicID) {
		return ErrFileNotFound
	}
	if !hmac.Equal([]byte(token), []byte(d.deleteToken(publicID))) {
		return ErrInvalidDeleteToken
	}
	matches, err := filepath.Glob(filepath.Join(d.dir, publicID+"*"))
	if err != nil {
		return err
	}
	removed := false
	for _, m := range matches {
		name := filepath.Base(m)
		if name != publicID && !strings.HasPrefix(name, publicID+".") {
			continue
		}
		if err := os.Remove(m); err != nil {
			return err
		}
		removed = true
	}
	if !removed {
		return ErrFileNotFound
	}
	return nil
}

func (d *DiskUploader) deleteToken(publicID string) string {
	h := hmac.New(sha256.New, d.secret)
	h.Write([]byte(publicID))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(h.Sum(nil)), "=")
}
