package httpserver

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"storefront-replica/internal/domain"
)

type stubFileStore struct{}

func (stubFileStore) Upload(filename string, _ io.Reader) (string, error) {
	return "stored-" + filename, nil
}

func (stubFileStore) PublicURL(name string) string { return "/files/" + name }

func (stubFileStore) Dir() string { return "." }

func avatarRequest(t *testing.T) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", "pic.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/me/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer access")
	return req
}

// The avatar write happens outside the identity store, so the handler has to
// merge the returned row back in: the completed-sync guard means a later /me
// would otherwise keep the old URL until a row-change event arrives.
func TestUploadAvatarRefreshesIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := &domain.User{ID: "u1", Email: "user@example.com", Role: domain.RoleCustomer, EmailVerified: true}
	env := newTestEnv(user)
	env.deps.Files = stubFileStore{}
	router, err := buildRouter(logDiscard(), nil, env.deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	// prime the store so the sync for u1 is already completed
	warm := httptest.NewRequest(http.MethodGet, "/me", nil)
	warm.Header.Set("Authorization", "Bearer access")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, warm)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "avatarUrl") {
		t.Fatalf("expected no avatar yet, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, avatarRequest(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"avatarUrl":"/files/stored-pic.png"`) {
		t.Fatalf("unexpected upload response: %s", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer access")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"avatarUrl":"/files/stored-pic.png"`) {
		t.Fatalf("identity still serves the stale avatar: %s", rec.Body.String())
	}
}

func TestUploadAvatarWithoutFileStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := &domain.User{ID: "u1", Email: "user@example.com", Role: domain.RoleCustomer, EmailVerified: true}
	env := newTestEnv(user)
	router, err := buildRouter(logDiscard(), nil, env.deps)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, avatarRequest(t))
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d body=%s", rec.Code, rec.Body.String())
	}
}
