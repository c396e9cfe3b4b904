package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bitwise74/storage-api/config"
	"bitwise74/storage-api/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.User{}, model.File{}))

	cfg := &config.Config{
		LogLevel:      "error",
		Port:          8080,
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		StorageRoot:   t.TempDir(),
		LargeFileSize: 1 << 10,
		ChunkSize:     100,
		DBDriver:      "sqlite",
	}

	return New(cfg, db)
}

func doJSON(a *API, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func doUpload(a *API, token, filename, pathDir string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, _ := mw.CreateFormFile("file", filename)
	fw.Write(content)
	mw.Close()

	target := "/api/v1/files/upload"
	if pathDir != "" {
		target += "?path_dir=" + url.QueryEscape(pathDir)
	}

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func registerAndAuth(t *testing.T, a *API, username string) string {
	t.Helper()

	w := doJSON(a, http.MethodPost, "/api/v1/register", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "Pa1234ssword!",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	form := url.Values{"username": {username}, "password": {"Pa1234ssword!"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "bearer", body.TokenType)
	require.NotEmpty(t, body.AccessToken)

	return body.AccessToken
}

func TestPing(t *testing.T) {
	a := newTestAPI(t)

	w := doJSON(a, http.MethodGet, "/api/v1/ping", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "db", body["service"])
	assert.Equal(t, "success", body["status"])
}

func TestRegister_Validation(t *testing.T) {
	a := newTestAPI(t)

	w := doJSON(a, http.MethodPost, "/api/v1/register", gin.H{
		"username": "yoda", "email": "not-an-email", "password": "Pa1234ssword!",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(a, http.MethodPost, "/api/v1/register", gin.H{
		"username": "yoda", "email": "yoda@example.com", "password": "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(a, http.MethodPost, "/api/v1/register", gin.H{
		"username": "../yoda", "email": "yoda@example.com", "password": "Pa1234ssword!",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_DuplicateRejected(t *testing.T) {
	a := newTestAPI(t)

	body := gin.H{"username": "yoda", "email": "yoda@example.com", "password": "Pa1234ssword!"}

	require.Equal(t, http.StatusCreated, doJSON(a, http.MethodPost, "/api/v1/register", body, "").Code)
	assert.Equal(t, http.StatusConflict, doJSON(a, http.MethodPost, "/api/v1/register", body, "").Code)
}

func TestAuth_BadCredentials(t *testing.T) {
	a := newTestAPI(t)
	registerAndAuth(t, a, "yoda")

	form := url.Values{"username": {"yoda"}, "password": {"wrong-password"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFileEndpoints_RequireAuth(t *testing.T) {
	a := newTestAPI(t)

	assert.Equal(t, http.StatusUnauthorized, doUpload(a, "bad-token", "notes.txt", "", []byte("x")).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(a, http.MethodGet, "/api/v1/files/", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(a, http.MethodGet, "/api/v1/files/download?filename=x", nil, "").Code)
}

func TestDownload_SelectorRequired(t *testing.T) {
	a := newTestAPI(t)
	token := registerAndAuth(t, a, "yoda")

	w := doJSON(a, http.MethodGet, "/api/v1/files/download", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(a, http.MethodGet, "/api/v1/files/download?file_id=garbage", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(a, http.MethodGet, "/api/v1/files/download?filename=missing.txt", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Full walk through the storage lifecycle: upload, overwrite, download by
// name and by id, listing
func TestFileLifecycle(t *testing.T) {
	a := newTestAPI(t)
	token := registerAndAuth(t, a, "yoda")

	// Upload 18 bytes to a/b
	w := doUpload(a, token, "notes.txt", "a/b", []byte("eighteen bytes...."))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.File
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(18), created.Size)
	assert.Equal(t, "a/b", created.PathDir)

	time.Sleep(10 * time.Millisecond)

	// Overwrite with 5 bytes, same record id, size updated
	w = doUpload(a, token, "notes.txt", "a/b", []byte("short"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var updated model.File
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, int64(5), updated.Size)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	// Download by name+dir returns the new content
	w = doJSON(a, http.MethodGet, "/api/v1/files/download?filename=notes.txt&path_dir=a%2Fb", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "short", w.Body.String())

	// Download by id returns identical bytes
	w = doJSON(a, http.MethodGet, "/api/v1/files/download?file_id="+updated.ID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "short", w.Body.String())

	// Listing holds exactly one entry for the path
	w = doJSON(a, http.MethodGet, "/api/v1/files/?limit=10&offset=0", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var listing struct {
		UserID string       `json:"user_id"`
		Files  []model.File `json:"files"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Files, 1)
	assert.Equal(t, updated.ID, listing.Files[0].ID)
}

func TestDownload_StreamedMatchesUpload(t *testing.T) {
	a := newTestAPI(t)
	token := registerAndAuth(t, a, "yoda")

	// Above the 1 KiB test threshold and not a multiple of the 100 byte
	// chunk size
	content := bytes.Repeat([]byte("x"), 2050)

	w := doUpload(a, token, "big.bin", "", content)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(a, http.MethodGet, "/api/v1/files/download?filename=big.bin", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Equal(t, content, body)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "big.bin")
}

func TestDownload_CrossUserIDRejected(t *testing.T) {
	a := newTestAPI(t)
	yoda := registerAndAuth(t, a, "yoda")
	vader := registerAndAuth(t, a, "vader")

	w := doUpload(a, yoda, "secret.txt", "", []byte("jedi plans"))
	require.Equal(t, http.StatusCreated, w.Code)

	var file model.File
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &file))

	// Another user enumerating ids gets the same answer as for an
	// unknown id
	w = doJSON(a, http.MethodGet, "/api/v1/files/download?file_id="+file.ID, nil, vader)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestList_ParamValidation(t *testing.T) {
	a := newTestAPI(t)
	token := registerAndAuth(t, a, "yoda")

	for _, q := range []string{"limit=0", "limit=-1", "limit=101", "limit=abc", "offset=-1", "offset=abc"} {
		w := doJSON(a, http.MethodGet, fmt.Sprintf("/api/v1/files/?%s", q), nil, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}
