package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveur1/community-system/model"
	"github.com/saveur1/community-system/upload"
)

func stubServer(t *testing.T) *httptest.Server {
	r := chi.NewRouter()
	r.Post("/api/admin/surveys", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}
		var p model.CreateSurveyPayload
		if err := render.DecodeJSON(r.Body, &p); err != nil || p.Title == "" {
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{"id": 12})
	})
	r.Post("/api/surveys/{id}/submissions", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "12" {
			http.Error(w, "survey 404", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{"id": 1})
	})
	r.Post("/api/uploads", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, model.UploadResult{
			SecureURL:        "https://files/" + header.Filename,
			PublicID:         r.FormValue("folder") + "_" + header.Header.Get("Content-Type"),
			Bytes:            int64(len(data)),
			OriginalFilename: header.Filename,
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateSurvey(t *testing.T) {
	srv := stubServer(t)

	id, err := New(srv.URL+"/", "tok").CreateSurvey(context.Background(), model.CreateSurveyPayload{Title: "T"})
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	_, err = New(srv.URL, "tok").CreateSurvey(context.Background(), model.CreateSurveyPayload{})
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadRequest, serr.Code)
	assert.Equal(t, "title is required", serr.Message)

	_, err = New(srv.URL, "").CreateSurvey(context.Background(), model.CreateSurveyPayload{Title: "T"})
	assert.EqualError(t, err, "create survey: http 401: no token")
}

func TestSubmitAnswers(t *testing.T) {
	srv := stubServer(t)
	c := New(srv.URL, "")

	require.NoError(t, c.SubmitAnswers(context.Background(), 12, model.SubmitAnswersPayload{}))

	err := c.SubmitAnswers(context.Background(), 13, model.SubmitAnswersPayload{})
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.Code)
}

func TestUpload(t *testing.T) {
	srv := stubServer(t)
	content := strings.Repeat("z", 64<<10)

	var progress []int
	res, err := New(srv.URL, "").Upload(context.Background(),
		upload.File{Name: "photo.png", Type: "image/png", Size: int64(len(content)), Content: strings.NewReader(content)},
		upload.Options{Folder: "survey-12", OnProgress: func(p int) { progress = append(progress, p) }},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), res.Bytes)
	assert.Equal(t, "survey-12_image/png", res.PublicID)
	assert.Equal(t, "https://files/photo.png", res.Location())
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
}

func TestUploadWithoutContent(t *testing.T) {
	srv := stubServer(t)
	c := New(srv.URL, "")

	_, err := c.Upload(context.Background(), upload.File{Name: "a.txt", Size: 3}, upload.Options{})
	assert.ErrorIs(t, err, ErrNoContent)

	target := &fileList{}
	coord := upload.NewCoordinator(c, target, "")
	err = coord.Upload(context.Background(), 1, upload.Constraints{},
		upload.File{Name: "empty.txt", Size: 3},
		upload.File{Name: "ok.txt", Type: "text/plain", Size: 2, Content: strings.NewReader("ok")},
	)
	var ferr *upload.FileError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "empty.txt", ferr.Name)
	assert.ErrorIs(t, err, ErrNoContent)

	require.Len(t, target.files, 1)
	assert.Equal(t, "ok.txt", target.files[0].Name)
	assert.False(t, target.files[0].Uploading)
}

// fileList is a single-answer upload.Target.
type fileList struct {
	mu    sync.Mutex
	files []model.UploadedFile
}

func (l *fileList) AddFile(_ int64, f model.UploadedFile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files = append(l.files, f)
}

func (l *fileList) UpdateFile(_ int64, id string, fn func(*model.UploadedFile)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.files {
		if l.files[i].ID == id {
			fn(&l.files[i])
			return true
		}
	}
	return false
}

func (l *fileList) RemoveFile(_ int64, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, f := range l.files {
		if f.ID == id {
			l.files = append(l.files[:i], l.files[i+1:]...)
			return true
		}
	}
	return false
}

func TestStatusErrorMessage(t *testing.T) {
	assert.Equal(t, "http 502: Bad Gateway", (&StatusError{Code: 502}).Error())
}
