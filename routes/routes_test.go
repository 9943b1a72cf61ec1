package routes

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveur1/community-system/app"
	"github.com/saveur1/community-system/config"
	"github.com/saveur1/community-system/database"
	"github.com/saveur1/community-system/draft"
	"github.com/saveur1/community-system/httpx"
	"github.com/saveur1/community-system/model"
	"github.com/saveur1/community-system/upload"
)

func newTestApp(t *testing.T) (app.App, http.Handler) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		DBUrl:       filepath.Join(dir, "test.sqlite"),
		TokenSecret: "test-secret",
		TokenTTL:    time.Minute,
		MaxUploadMB: 1,
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, httpx.PutUser(ctx, db, "admin", "admin-pw", "admin"))
	require.NoError(t, httpx.PutUser(ctx, db, "nurse", "nurse-pw", "health_worker"))

	uploads, err := upload.NewDiskUploader(filepath.Join(dir, "uploads"), "http://test/files", cfg.TokenSecret)
	require.NoError(t, err)

	a := app.App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Drafts:       draft.NewMemoryStore(),
		Uploads:      uploads,
	}
	return a, Wire(a)
}

func login(t *testing.T, h http.Handler, user, pass string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth(user, pass)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func surveyPayload(start, end time.Time, roles ...string) model.CreateSurveyPayload {
	min, max := 1, 5
	return model.CreateSurveyPayload{
		Title:     "Clinic visit",
		ProjectID: "project-1",
		Sections:  []model.Section{{ID: "s1", Title: "About the visit"}},
		Questions: []model.QuestionPayload{
			{ID: 1, Type: model.SingleChoice, Title: "Were you seen?", Required: true, SectionID: "s1", QuestionNumber: 1, Options: []string{"Yes", "No"}},
			{ID: 2, Type: model.LinearScale, Title: "Waiting time", SectionID: "s1", QuestionNumber: 2, MinValue: &min, MaxValue: &max},
		},
		AllowedRoles: roles,
		StartAt:      start.Format(time.RFC3339),
		EndAt:        end.Format(time.RFC3339),
	}
}

func createSurvey(t *testing.T, h http.Handler, token string, p model.CreateSurveyPayload) int {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/api/admin/surveys", token, p)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created.ID
}

func TestLogin(t *testing.T) {
	_, h := newTestApp(t)

	login(t, h, "admin", "admin-pw")

	rec := call(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": "nurse", "password": "nurse-pw"})
	assert.Equal(t, http.StatusOK, rec.Code, "credentials may come as JSON")

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodPost, "/api/login", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh(t *testing.T) {
	_, h := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.SetBasicAuth("admin", "admin-pw")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var tok struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.NotEmpty(t, tok.RefreshToken)

	refresh := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
		req.Header.Set("Authorization", "Refresh "+tok.RefreshToken)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, refresh())
	assert.NotEqual(t, http.StatusOK, refresh(), "a refresh token is redeemed once")

	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodPost, "/api/refresh", "", nil).Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	_, h := newTestApp(t)

	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/api/admin/surveys", "", nil).Code)

	nurse := login(t, h, "nurse", "nurse-pw")
	assert.Equal(t, http.StatusForbidden, call(t, h, http.MethodGet, "/api/admin/surveys", nurse, nil).Code)

	admin := login(t, h, "admin", "admin-pw")
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/api/admin/surveys", admin, nil).Code)
}

func TestSurveyLifecycle(t *testing.T) {
	_, h := newTestApp(t)
	admin := login(t, h, "admin", "admin-pw")
	now := time.Now()

	id := createSurvey(t, h, admin, surveyPayload(now.Add(-time.Hour), now.Add(time.Hour)))
	path := "/api/surveys/" + strconv.Itoa(id)

	rec := call(t, h, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Survey
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Clinic visit", got.Title)
	assert.Equal(t, model.SurveyTypeGeneral, got.SurveyType)
	require.Len(t, got.Sections, 1)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, model.ChoiceConfig{Options: []string{"Yes", "No"}}, got.Questions[0].Config)
	assert.Equal(t, model.ScaleConfig{MinValue: 1, MaxValue: 5}, got.Questions[1].Config)

	rec = call(t, h, http.MethodPost, path+"/submissions", "", model.SubmitAnswersPayload{
		UserID:  "walk-in",
		Answers: []model.AnswerPayload{{QuestionID: 1, Value: "Yes"}, {QuestionID: 2, Value: 3}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, path+"/submissions", "", model.SubmitAnswersPayload{
		Answers: []model.AnswerPayload{{QuestionID: 99, Value: "?"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/admin/surveys/"+strconv.Itoa(id)+"/submissions", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Submissions []model.Submission `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Submissions, 1)
	assert.Equal(t, "walk-in", listed.Submissions[0].UserID)
	assert.Len(t, listed.Submissions[0].Answers, 2)

	assert.Equal(t, http.StatusNoContent, call(t, h, http.MethodDelete, "/api/admin/surveys/"+strconv.Itoa(id), admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodDelete, "/api/admin/surveys/"+strconv.Itoa(id), admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/admin/surveys/"+strconv.Itoa(id)+"/submissions", admin, nil).Code)
}

func TestCreateSurveyRejectsInvalidPayload(t *testing.T) {
	_, h := newTestApp(t)
	admin := login(t, h, "admin", "admin-pw")
	now := time.Now()

	reversed := surveyPayload(now.Add(time.Hour), now)
	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPost, "/api/admin/surveys", admin, reversed).Code)

	orphan := surveyPayload(now, now.Add(time.Hour))
	orphan.Questions[0].SectionID = "nowhere"
	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPost, "/api/admin/surveys", admin, orphan).Code)

	optionless := surveyPayload(now, now.Add(time.Hour))
	optionless.Questions[0].Options = nil
	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPost, "/api/admin/surveys", admin, optionless).Code)

	untitled := surveyPayload(now, now.Add(time.Hour))
	untitled.Title = "  "
	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPost, "/api/admin/surveys", admin, untitled).Code)
}

func TestSubmitChecksRolesAndWindow(t *testing.T) {
	_, h := newTestApp(t)
	admin := login(t, h, "admin", "admin-pw")
	nurse := login(t, h, "nurse", "nurse-pw")
	now := time.Now()
	answers := model.SubmitAnswersPayload{UserID: "spoofed", Answers: []model.AnswerPayload{{QuestionID: 1, Value: "No"}}}

	restricted := createSurvey(t, h, admin, surveyPayload(now.Add(-time.Hour), now.Add(time.Hour), "health_worker"))
	path := "/api/surveys/" + strconv.Itoa(restricted) + "/submissions"

	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodPost, path, "", answers).Code)
	assert.Equal(t, http.StatusForbidden, call(t, h, http.MethodPost, path, admin, answers).Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodPost, path, "forged", answers).Code)
	require.Equal(t, http.StatusCreated, call(t, h, http.MethodPost, path, nurse, answers).Code)

	rec := call(t, h, http.MethodGet, "/api/admin/surveys/"+strconv.Itoa(restricted)+"/submissions", admin, nil)
	var listed struct {
		Submissions []model.Submission `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Submissions, 1)
	assert.Equal(t, "nurse", listed.Submissions[0].UserID, "the token's user wins over the body")

	upcoming := createSurvey(t, h, admin, surveyPayload(now.Add(time.Hour), now.Add(2*time.Hour)))
	rec = call(t, h, http.MethodPost, "/api/surveys/"+strconv.Itoa(upcoming)+"/submissions", "", answers)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodPost, "/api/surveys/4242/submissions", "", answers).Code)
}

func TestDraftEndpoints(t *testing.T) {
	a, h := newTestApp(t)
	admin := login(t, h, "admin", "admin-pw")

	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/admin/draft", admin, nil).Code)

	sectionID := uuid.NewString()
	d := model.SurveyDraft{
		Title:    "Follow-up",
		Sections: []model.Section{{ID: sectionID, Title: "Intro"}},
		Questions: []model.Question{
			{ID: 5, Type: model.TextInput, Title: "Name", SectionID: sectionID, QuestionNumber: 1, Config: model.TextConfig{Placeholder: "Jane"}},
		},
	}
	require.Equal(t, http.StatusNoContent, call(t, h, http.MethodPut, "/api/admin/draft", admin, d).Code)

	rec := call(t, h, http.MethodGet, "/api/admin/draft", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rec1 draft.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rec1))
	assert.Equal(t, draft.CurrentVersion, rec1.Version)
	assert.Equal(t, d, rec1.Draft)

	bad := d
	bad.Sections = []model.Section{{ID: "1", Title: "Legacy"}}
	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPut, "/api/admin/draft", admin, bad).Code)

	assert.Equal(t, http.StatusNoContent, call(t, h, http.MethodDelete, "/api/admin/draft", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/admin/draft", admin, nil).Code)

	require.NoError(t, a.Drafts.Put(context.Background(), "author:admin", []byte(`{"version":99,"draft":{}}`)))
	assert.Equal(t, http.StatusGone, call(t, h, http.MethodGet, "/api/admin/draft", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/admin/draft", admin, nil).Code, "an unrecoverable draft is discarded")
}

func multipartUpload(t *testing.T, name string, content []byte, folder string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if folder != "" {
		require.NoError(t, mw.WriteField("folder", folder))
	}
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAndDelete(t *testing.T) {
	_, h := newTestApp(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartUpload(t, "receipt.pdf", []byte("%PDF-1.4"), "survey-9"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res model.UploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "pdf", res.Format)
	assert.Equal(t, "receipt", res.OriginalFilename)
	assert.Equal(t, int64(8), res.Bytes)
	assert.Equal(t, "http://test/files/"+res.PublicID+".pdf", res.SecureURL)

	rec = call(t, h, http.MethodGet, "/files/"+res.PublicID+".pdf", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4", rec.Body.String())

	assert.Equal(t, http.StatusForbidden, call(t, h, http.MethodDelete, "/api/uploads/"+res.PublicID+"?token=nope", "", nil).Code)
	assert.Equal(t, http.StatusNoContent, call(t, h, http.MethodDelete, "/api/uploads/"+res.PublicID+"?token="+res.DeleteToken, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodDelete, "/api/uploads/"+res.PublicID+"?token="+res.DeleteToken, "", nil).Code)
}

func TestUploadTooLarge(t *testing.T) {
	_, h := newTestApp(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, multipartUpload(t, "scan.png", bytes.Repeat([]byte("x"), 2<<20), ""))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
