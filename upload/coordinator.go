package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/saveur1/community-system/log"
	"github.com/saveur1/community-system/model"
)

var (
	ErrTooLarge       = errors.New("file is too large")
	ErrTypeNotAllowed = errors.New("file type not allowed")
)

type File struct {
	Name    string
	Type    string
	Size    int64
	Content io.Reader
}

type Options struct {
	Folder     string
	OnProgress func(percent int)
}

// Uploader sends one file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, f File, opts Options) (model.UploadResult, error)
}

// Target is the file list of an answer. Every mutation names the file by id,
// never by position.
type Target interface {
	AddFile(questionID int64, f model.UploadedFile)
	UpdateFile(questionID int64, fileID string, fn func(*model.UploadedFile)) bool
	RemoveFile(questionID int64, fileID string) bool
}

// FileError is the failure of a single file; sibling uploads are unaffected.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Constraints restricts what a file_upload question accepts.
type Constraints struct {
	AllowedTypes []string
	MaxSizeMB    float64
}

func ConstraintsFor(c model.FileUploadConfig) Constraints {
	return Constraints{AllowedTypes: c.AllowedTypes, MaxSizeMB: c.MaxSize}
}

func (c Constraints) Check(f File) error {
	if c.MaxSizeMB > 0 {
		limit := uint64(c.MaxSizeMB * 1024 * 1024)
		if f.Size > 0 && uint64(f.Size) > limit {
			return fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, humanize.IBytes(uint64(f.Size)), humanize.IBytes(limit))
		}
	}
	if len(c.AllowedTypes) == 0 {
		return nil
	}
	for _, allowed := range c.AllowedTypes {
		if typeMatches(allowed, f) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrTypeNotAllowed, f.Type)
}

func typeMatches(allowed string, f File) bool {
	allowed = strings.ToLower(strings.TrimSpace(allowed))
	mime := strings.ToLower(f.Type)
	switch {
	case allowed == "" || allowed == "*" || allowed == "*/*":
		return true
	case strings.HasPrefix(allowed, "."):
		return strings.ToLower(filepath.Ext(f.Name)) == allowed
	case strings.HasSuffix(allowed, "/*"):
		return strings.HasPrefix(mime, strings.TrimSuffix(allowed, "*"))
	}
	return mime == allowed
}

// Coordinator uploads the files of one answer in parallel, keeping the
// answer's file list in sync through Target.
type Coordinator struct {
	uploader Uploader
	target   Target
	folder   string
}

func NewCoordinator(uploader Uploader, target Target, folder string) *Coordinator {
	return &Coordinator{uploader: uploader, target: target, folder: folder}
}

// Upload starts one task per file and waits until every task has settled.
// Each file first appears in the target as an uploading placeholder, then
// is replaced by its resolved descriptor or removed on failure. The returned
// error, if any, is a *multierror.Error of *FileError values.
func (c *Coordinator) Upload(ctx context.Context, questionID int64, limits Constraints, files ...File) error {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		result *multierror.Error
	)
	fail := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		result = multierror.Append(result, &FileError{Name: name, Err: err})
	}

	for _, f := range files {
		f := f
		if err := limits.Check(f); err != nil {
			fail(f.Name, err)
			continue
		}

		tempID := "temp-" + uuid.NewString()
		c.target.AddFile(questionID, model.UploadedFile{
			ID:        tempID,
			Name:      f.Name,
			Size:      f.Size,
			Type:      f.Type,
			Uploading: true,
		})

		g.Go(func() error {
			res, err := c.uploader.Upload(ctx, f, Options{
				Folder: c.folder,
				OnProgress: func(percent int) {
					c.target.UpdateFile(questionID, tempID, func(u *model.UploadedFile) {
						u.UploadProgress = clampPercent(percent)
					})
				},
			})
			if err != nil {
				c.target.RemoveFile(questionID, tempID)
				log.WithFields(log.Fields{"question": questionID, "file": f.Name}).Warnf("upload.failed: %s", err)
				fail(f.Name, err)
				return nil
			}

			c.target.UpdateFile(questionID, tempID, func(u *model.UploadedFile) {
				*u = Resolved(tempID, f, res)
			})
			return nil
		})
	}

	_ = g.Wait()
	return result.ErrorOrNil()
}

// Resolved builds the settled descriptor of an uploaded file.
func Resolved(id string, f File, res model.UploadResult) model.UploadedFile {
	size := res.Bytes
	if size == 0 {
		size = f.Size
	}
	return model.UploadedFile{
		ID:             id,
		Name:           f.Name,
		Size:           size,
		Type:           f.Type,
		URL:            res.Location(),
		PublicID:       res.PublicID,
		DeleteToken:    res.DeleteToken,
		Uploading:      false,
		UploadProgress: 100,
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
