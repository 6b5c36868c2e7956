package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/generation"
	"server/internal/infra"
	"server/internal/providers/genai"
	"server/internal/session"
	"server/internal/upload"
)

type fakeEditor struct {
	calls   int
	failAt  int // 1-indexed call that fails; 0 never fails
	release chan struct{}
}

func (f *fakeEditor) EditImage(ctx context.Context, req genai.ImageEditRequest) (*genai.ImageAsset, error) {
	f.calls++
	if f.release != nil {
		<-f.release
	}
	if f.failAt > 0 && f.calls == f.failAt {
		return nil, domain.ErrNoImageReturned
	}
	return &genai.ImageAsset{Data: []byte(fmt.Sprintf("img-%d", f.calls)), MIME: "image/png"}, nil
}

func newTestApp(t *testing.T, editor generation.Editor) (*App, http.Handler) {
	t.Helper()
	cfg := &infra.Config{
		MaxUploadBytes:  4 << 20,
		RateLimitPerMin: 1000,
	}
	logger := infra.Logger(zerolog.New(io.Discard))
	orch, err := generation.NewOrchestrator(editor, 0, &logger)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}
	intake, err := upload.NewIntake(upload.DefaultNormalizer(), cfg.MaxUploadBytes)
	if err != nil {
		t.Fatalf("intake: %v", err)
	}
	app := NewApp(cfg, logger, session.NewStore(time.Minute), intake, orch)

	r := chi.NewRouter()
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/backgrounds", app.BackgroundsList)
	r.Post("/v1/sessions", app.SessionCreate)
	r.Route("/v1/sessions/{session_id}", func(r chi.Router) {
		r.Get("/", app.SessionStatus)
		r.Post("/uploads/{slot}", app.Upload)
		r.Post("/generate", app.Generate)
		r.Get("/images/{index}", app.ImageDownload)
		r.Get("/archive", app.ArchiveDownload)
	})
	return app, r
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d", rec.Code)
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return resp.SessionID
}

func pngUpload(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.White)
		}
	}
	var file bytes.Buffer
	if err := png.Encode(&file, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", "photo.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(file.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	_ = mw.Close()
	return body, mw.FormDataContentType()
}

func uploadSlot(t *testing.T, router http.Handler, sessionID, slot string) {
	t.Helper()
	body, contentType := pngUpload(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sessionID+"/uploads/"+slot, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload %s status = %d: %s", slot, rec.Code, rec.Body.String())
	}
}

func startGenerate(t *testing.T, router http.Handler, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	payload := `{"background_id":"sunny-park","aspect_ratio":"9:16"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sessionID+"/generate", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionStatus(t *testing.T, router http.Handler, sessionID string) statusResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions/"+sessionID+"/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return resp
}

func waitForRunEnd(t *testing.T, router http.Handler, sessionID string) statusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp := sessionStatus(t, router, sessionID)
		if !resp.Running {
			return resp
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("run did not finish in time")
	return statusResponse{}
}

func TestUploadStoresNormalizedArtifact(t *testing.T) {
	_, router := newTestApp(t, &fakeEditor{})
	id := createSession(t, router)

	body, contentType := pngUpload(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id+"/uploads/model", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Width != 720 || resp.Height != 1280 {
		t.Fatalf("normalized size = %dx%d, want 720x1280", resp.Width, resp.Height)
	}
	if !strings.HasPrefix(resp.Preview, "data:image/") {
		t.Fatalf("preview missing: %.40s", resp.Preview)
	}
}

func TestUploadRejectsUnknownSlot(t *testing.T) {
	_, router := newTestApp(t, &fakeEditor{})
	id := createSession(t, router)

	body, contentType := pngUpload(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id+"/uploads/cat", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadRejectsNonImageKeepingSlot(t *testing.T) {
	app, router := newTestApp(t, &fakeEditor{})
	id := createSession(t, router)
	uploadSlot(t, router, id, "model")

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, _ := mw.CreateFormFile("file", "notes.txt")
	_, _ = fw.Write([]byte("plain text, not pixels"))
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+id+"/uploads/model", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}

	sess, _ := app.Store.Get(id)
	model, _ := sess.Artifacts()
	if model == nil {
		t.Fatal("failed upload must not clear the previously accepted artifact")
	}
}

func TestGenerateRequiresBothUploads(t *testing.T) {
	editor := &fakeEditor{}
	_, router := newTestApp(t, editor)
	id := createSession(t, router)
	uploadSlot(t, router, id, "model")

	rec := startGenerate(t, router, id)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), UserMessageMissingInput) {
		t.Fatalf("body lacks user message: %s", rec.Body.String())
	}
	if editor.calls != 0 {
		t.Fatalf("editor calls = %d, want 0", editor.calls)
	}
}

func TestGenerateRunsAllSixPoses(t *testing.T) {
	editor := &fakeEditor{}
	_, router := newTestApp(t, editor)
	id := createSession(t, router)
	uploadSlot(t, router, id, "model")
	uploadSlot(t, router, id, "doll")

	rec := startGenerate(t, router, id)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	final := waitForRunEnd(t, router, id)
	if len(final.Images) != 6 {
		t.Fatalf("images = %d, want 6", len(final.Images))
	}
	if final.Error != "" {
		t.Fatalf("unexpected error: %s", final.Error)
	}
	if editor.calls != 6 {
		t.Fatalf("editor calls = %d, want 6", editor.calls)
	}
}

func TestGeneratePose3FailureKeepsTwoPartials(t *testing.T) {
	editor := &fakeEditor{failAt: 3}
	_, router := newTestApp(t, editor)
	id := createSession(t, router)
	uploadSlot(t, router, id, "model")
	uploadSlot(t, router, id, "doll")

	rec := startGenerate(t, router, id)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}

	final := waitForRunEnd(t, router, id)
	if len(final.Images) != 2 {
		t.Fatalf("images = %d, want 2 partials", len(final.Images))
	}
	if final.Running {
		t.Fatal("loading flag should be cleared")
	}
	if final.Error != UserMessageGenerationFailed {
		t.Fatalf("error = %q, want generic failure message", final.Error)
	}
	if editor.calls != 3 {
		t.Fatalf("editor calls = %d, want 3", editor.calls)
	}
}

func TestGenerateSecondRunClearsFirst(t *testing.T) {
	editor := &fakeEditor{}
	_, router := newTestApp(t, editor)
	id := createSession(t, router)
	uploadSlot(t, router, id, "model")
	uploadSlot(t, router, id, "doll")

	startGenerate(t, router, id)
	first := waitForRunEnd(t, router, id)
	if len(first.Images) != 6 {
		t.Fatalf("first run images = %d", len(first.Images))
	}

	startGenerate(t, router, id)
	second := waitForRunEnd(t, router, id)
	if len(second.Images) != 6 {
		t.Fatalf("second run images = %d", len(second.Images))
	}
	if editor.calls != 12 {
		t.Fatalf("editor calls = %d, want 12", editor.calls)
	}
}

func TestGenerateConflictWhileRunning(t *testing.T) {
	editor := &fakeEditor{release: make(chan struct{})}
	_, router := newTestApp(t, editor)
	id := createSession(t, router)
	uploadSlot(t, router, id, "model")
	uploadSlot(t, router, id, "doll")

	rec := startGenerate(t, router, id)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = startGenerate(t, router, id)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	close(editor.release)
	waitForRunEnd(t, router, id)
}

func TestImageDownloadFilename(t *testing.T) {
	app, router := newTestApp(t, &fakeEditor{})
	id := createSession(t, router)
	sess, _ := app.Store.Get(id)
	_ = sess.BeginRun()
	sess.AppendResult(domain.NewArtifact([]byte("payload"), "image/png", 10, 10))
	sess.FinishRun("")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions/"+id+"/images/0", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "promo-doll-pose-1.png") {
		t.Fatalf("disposition = %q", got)
	}
	if rec.Body.String() != "payload" {
		t.Fatalf("body = %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions/"+id+"/images/5", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("out-of-range status = %d, want 404", rec.Code)
	}
}

func TestArchiveDownloadNamesAllEntries(t *testing.T) {
	app, router := newTestApp(t, &fakeEditor{})
	id := createSession(t, router)
	sess, _ := app.Store.Get(id)
	_ = sess.BeginRun()
	for i := 0; i < 3; i++ {
		sess.AppendResult(domain.NewArtifact([]byte(fmt.Sprintf("img-%d", i)), "image/png", 10, 10))
	}
	sess.FinishRun("")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions/"+id+"/archive", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("entries = %d, want 3", len(zr.File))
	}
	for i, f := range zr.File {
		want := fmt.Sprintf("promo-doll-pose-%d.png", i+1)
		if f.Name != want {
			t.Fatalf("entry %d = %q, want %q", i, f.Name, want)
		}
	}
}

func TestBackgroundsList(t *testing.T) {
	_, router := newTestApp(t, &fakeEditor{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/backgrounds", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Items []domain.Background `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) == 0 {
		t.Fatal("background catalog empty")
	}
	for _, bg := range resp.Items {
		if bg.ID == "" || bg.Label == "" || bg.Description == "" {
			t.Fatalf("incomplete background: %+v", bg)
		}
	}
}

func TestSessionNotFound(t *testing.T) {
	_, router := newTestApp(t, &fakeEditor{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions/nope/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
