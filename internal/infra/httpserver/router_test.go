package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/labelly/labelly-server/internal/application"
	appalternatives "github.com/labelly/labelly-server/internal/application/alternatives"
	appscans "github.com/labelly/labelly-server/internal/application/scans"
	domai "github.com/labelly/labelly-server/internal/domain/ai"
	domalts "github.com/labelly/labelly-server/internal/domain/alternatives"
	"github.com/labelly/labelly-server/internal/domain/auth"
	domain "github.com/labelly/labelly-server/internal/domain/scans"
)

// ---- fakes ----

type fakeVerifier struct {
	id  auth.UserID
	err error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (auth.UserID, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

type fakeAI struct {
	analyzeRes *domai.Completion
	analyzeErr error
	suggestRes *domai.Completion
	suggestErr error

	gotImageURI string
	gotAnalysis domain.AnalysisResult
}

func (f *fakeAI) AnalyzeLabel(ctx context.Context, imageDataURI string) (*domai.Completion, error) {
	f.gotImageURI = imageDataURI
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return f.analyzeRes, nil
}

func (f *fakeAI) SuggestAlternatives(ctx context.Context, analysis domain.AnalysisResult) (*domai.Completion, error) {
	f.gotAnalysis = analysis
	if f.suggestErr != nil {
		return nil, f.suggestErr
	}
	return f.suggestRes, nil
}

type fakeScanRepo struct {
	saved   []*domain.Scan
	listing []*domain.Scan
	err     error
}

func (f *fakeScanRepo) Save(ctx context.Context, s *domain.Scan) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeScanRepo) Get(ctx context.Context, userID string, id domain.ScanID) (*domain.Scan, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range append(f.listing, f.saved...) {
		if s.UserID == userID && s.ID == id {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeScanRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Scan, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Scan
	for _, s := range f.listing {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeAltRepo struct {
	saved []*domalts.Request
	err   error
}

func (f *fakeAltRepo) Save(ctx context.Context, r *domalts.Request) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeAltRepo) ListByUser(ctx context.Context, userID string) ([]*domalts.Request, error) {
	return f.saved, f.err
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var _ application.Clock = fixedClock{}

// ---- helpers ----

type testEnv struct {
	handler  http.Handler
	scanRepo *fakeScanRepo
	altRepo  *fakeAltRepo
	ai       *fakeAI
}

func newTestEnv(t *testing.T, verifier auth.Verifier, client *fakeAI) *testEnv {
	t.Helper()

	scanRepo := &fakeScanRepo{}
	altRepo := &fakeAltRepo{}
	clock := fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	log := zap.NewNop()

	scansSvc := &appscans.Service{Repo: scanRepo, AI: client, Clock: clock, Log: log}
	altSvc := &appalternatives.Service{Repo: altRepo, AI: client, Clock: clock, Log: log}

	return &testEnv{
		handler:  NewRouter(scansSvc, altSvc, verifier, nil, log),
		scanRepo: scanRepo,
		altRepo:  altRepo,
		ai:       client,
	}
}

func multipartImage(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return body
}

// ---- tests ----

func TestHealthNoAuth(t *testing.T) {
	env := newTestEnv(t, &fakeVerifier{err: auth.ErrInvalidToken}, &fakeAI{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeBody(t, rec)["status"]; got != "healthy" {
		t.Errorf("status field = %v, want healthy", got)
	}
}

func TestAuthenticatedEndpointsReject(t *testing.T) {
	raw := json.RawMessage(`{"choices":[{"message":{"content":"ok"}}]}`)
	client := &fakeAI{analyzeRes: &domai.Completion{Content: "ok", Raw: raw}}
	env := newTestEnv(t, &fakeVerifier{err: auth.ErrInvalidToken}, client)

	endpoints := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/analyze"},
		{http.MethodGet, "/api/user/scans"},
		{http.MethodGet, "/api/user/scans/abc"},
		{http.MethodPost, "/api/alternatives"},
	}
	headers := []string{"", "Basic abc", "Bearer ", "Bearer bad-token"}

	for _, ep := range endpoints {
		for _, h := range headers {
			req := httptest.NewRequest(ep.method, ep.path, strings.NewReader("{}"))
			if h != "" {
				req.Header.Set("Authorization", h)
			}
			rec := httptest.NewRecorder()
			env.handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s %s with header %q: status = %d, want 401", ep.method, ep.path, h, rec.Code)
			}
			if _, ok := decodeBody(t, rec)["error"]; !ok {
				t.Errorf("%s %s: missing error field", ep.method, ep.path)
			}
		}
	}

	if len(env.scanRepo.saved) != 0 || len(env.altRepo.saved) != 0 {
		t.Error("unauthorized requests must not write to the store")
	}
}

func TestAnalyzeMissingImage(t *testing.T) {
	env := newTestEnv(t, &fakeVerifier{id: "u1"}, &fakeAI{})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("no multipart"))
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "No image provided" {
		t.Errorf("error = %v, want No image provided", got)
	}
	if len(env.scanRepo.saved) != 0 {
		t.Error("failed request must not append a scan")
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	const content = `{"product_name":"Test","safety_score":"72/100"}`
	raw := json.RawMessage(`{"choices":[{"message":{"content":"` + content + `"}}],"citations":["http://x"]}`)
	client := &fakeAI{analyzeRes: &domai.Completion{
		Content:   `{"product_name":"Test","safety_score":"72/100"}`,
		Citations: []string{"http://x"},
		Raw:       raw,
	}}
	env := newTestEnv(t, &fakeVerifier{id: "u1"}, client)

	image := bytes.Repeat([]byte{0xFF, 0xD8, 0xAA, 0x00}, 2560) // ~10KB fake JPEG
	body, contentType := multipartImage(t, "image", "label.jpg", image)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["analysis"] != `{"product_name":"Test","safety_score":"72/100"}` {
		t.Errorf("analysis = %v", resp["analysis"])
	}
	citations, _ := resp["citations"].([]any)
	if len(citations) != 1 || citations[0] != "http://x" {
		t.Errorf("citations = %v, want [http://x]", resp["citations"])
	}

	// exactly one record, tagged with the verified user, carrying the raw response
	if len(env.scanRepo.saved) != 1 {
		t.Fatalf("saved %d scans, want 1", len(env.scanRepo.saved))
	}
	scan := env.scanRepo.saved[0]
	if scan.UserID != "u1" {
		t.Errorf("scan user = %q, want u1", scan.UserID)
	}
	if !bytes.Equal(scan.Result, raw) {
		t.Errorf("scan result = %s, want raw model response", scan.Result)
	}
	if scan.ID == "" || scan.CreatedAt.IsZero() {
		t.Error("scan is missing id or timestamp")
	}
	if !strings.HasPrefix(client.gotImageURI, "data:image/jpeg;base64,") {
		t.Errorf("image was not sent as a base64 data URI: %.40s", client.gotImageURI)
	}
}

func TestAnalyzeNoContentFallback(t *testing.T) {
	raw := json.RawMessage(`{"choices":[]}`)
	client := &fakeAI{analyzeRes: &domai.Completion{Content: "", Raw: raw}}
	env := newTestEnv(t, &fakeVerifier{id: "u1"}, client)

	body, contentType := multipartImage(t, "image", "label.jpg", []byte{0xFF})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeBody(t, rec)["analysis"]; got != "No analysis available" {
		t.Errorf("analysis = %v, want fallback string", got)
	}
}

func TestAnalyzeModelFailure(t *testing.T) {
	client := &fakeAI{analyzeErr: errors.New("model api status 500: boom")}
	env := newTestEnv(t, &fakeVerifier{id: "u1"}, client)

	body, contentType := multipartImage(t, "image", "label.jpg", []byte{0xFF})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	msg, _ := decodeBody(t, rec)["error"].(string)
	if !strings.Contains(msg, "boom") {
		t.Errorf("error %q should propagate the underlying cause", msg)
	}
	if len(env.scanRepo.saved) != 0 {
		t.Error("no record may be written when the model call fails")
	}
}

func TestListScans(t *testing.T) {
	env := newTestEnv(t, &fakeVerifier{id: "u1"}, &fakeAI{})
	now := time.Now().UTC()
	env.scanRepo.listing = []*domain.Scan{
		{ID: "s2", UserID: "u1", Result: json.RawMessage(`{"b":2}`), CreatedAt: now},
		{ID: "s1", UserID: "u1", Result: json.RawMessage(`{"a":1}`), CreatedAt: now.Add(-time.Hour)},
		{ID: "s3", UserID: "someone-else", Result: json.RawMessage(`{}`), CreatedAt: now},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user/scans", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	scans, _ := decodeBody(t, rec)["scans"].([]any)
	if len(scans) != 2 {
		t.Fatalf("got %d scans, want 2 (only the caller's)", len(scans))
	}
	first, _ := scans[0].(map[string]any)
	if first["id"] != "s2" {
		t.Errorf("first scan = %v, want newest (s2)", first["id"])
	}
}

func TestListScansEmpty(t *testing.T) {
	env := newTestEnv(t, &fakeVerifier{id: "u1"}, &fakeAI{})

	req := httptest.NewRequest(http.MethodGet, "/api/user/scans", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	scans, ok := decodeBody(t, rec)["scans"].([]any)
	if !ok || scans == nil {
		t.Fatal("scans must be an empty array, not null")
	}
	if len(scans) != 0 {
		t.Errorf("got %d scans, want 0", len(scans))
	}
}

func TestListScansStoreFailure(t *testing.T) {
	env := newTestEnv(t, &fakeVerifier{id: "u1"}, &fakeAI{})
	env.scanRepo.err = errors.New("connection refused")

	req := httptest.NewRequest(http.MethodGet, "/api/user/scans", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	msg, _ := decodeBody(t, rec)["error"].(string)
	if !strings.Contains(msg, "Error retrieving scans") {
		t.Errorf("error = %q", msg)
	}
}

func TestGetScan(t *testing.T) {
	env := newTestEnv(t, &fakeVerifier{id: "u1"}, &fakeAI{})
	env.scanRepo.listing = []*domain.Scan{
		{ID: "s1", UserID: "u1", Result: json.RawMessage(`{"a":1}`), CreatedAt: time.Now()},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user/scans/s1", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	scan, _ := decodeBody(t, rec)["scan"].(map[string]any)
	if scan["id"] != "s1" {
		t.Errorf("scan id = %v, want s1", scan["id"])
	}

	// unknown id, and another user's id, are both 404
	for _, id := range []string{"nope", "s1x"} {
		req := httptest.NewRequest(http.MethodGet, "/api/user/scans/"+id, nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET scan %q: status = %d, want 404", id, rec.Code)
		}
	}
}

const altPayload = `{"alternatives":[{"product_name":"Better Bar","brand":"GoodCo","safety_score":"90/100"}],"general_advice":{"avoid_ingredients":["Sugar"]}}`

func altRequestBody() *strings.Reader {
	return strings.NewReader(`{"analysis_data":{"product_name":"Choco Crunch","ingredient_categories":{"not_great":{"ingredients":["Sugar"]}}}}`)
}

func TestAlternativesFenceTransparent(t *testing.T) {
	responses := map[string]string{
		"unfenced": altPayload,
		"fenced":   "```json\n" + altPayload + "\n```",
	}

	var bodies []string
	for name, content := range responses {
		client := &fakeAI{suggestRes: &domai.Completion{Content: content, Citations: []string{"http://x"}}}
		env := newTestEnv(t, &fakeVerifier{id: "u1"}, client)

		req := httptest.NewRequest(http.MethodPost, "/api/alternatives", altRequestBody())
		req.Header.Set("Authorization", "Bearer tok")
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200: %s", name, rec.Code, rec.Body.String())
		}
		bodies = append(bodies, rec.Body.String())

		if len(env.altRepo.saved) != 1 {
			t.Fatalf("%s: saved %d requests, want 1", name, len(env.altRepo.saved))
		}
		saved := env.altRepo.saved[0]
		if saved.UserID != "u1" {
			t.Errorf("%s: saved user = %q, want u1", name, saved.UserID)
		}
		if saved.ProductName != "Choco Crunch" {
			t.Errorf("%s: saved product = %q", name, saved.ProductName)
		}
		if client.gotAnalysis.IngredientCategories.NotGreat.Ingredients[0] != "Sugar" {
			t.Errorf("%s: prompt did not receive the not_great list", name)
		}
	}

	if bodies[0] != bodies[1] {
		t.Errorf("fenced and unfenced model output must produce identical responses:\n%s\n%s", bodies[0], bodies[1])
	}
}

func TestAlternativesParseFailure(t *testing.T) {
	client := &fakeAI{suggestRes: &domai.Completion{Content: "I suggest buying organic instead."}}
	env := newTestEnv(t, &fakeVerifier{id: "u1"}, client)

	req := httptest.NewRequest(http.MethodPost, "/api/alternatives", altRequestBody())
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Failed to parse alternatives response" {
		t.Errorf("error = %v", got)
	}
	if len(env.altRepo.saved) != 0 {
		t.Error("parse failure must leave the store unchanged")
	}
}

func TestAlternativesMissingData(t *testing.T) {
	env := newTestEnv(t, &fakeVerifier{id: "u1"}, &fakeAI{})

	for name, body := range map[string]string{
		"empty object": `{}`,
		"null data":    `{"analysis_data":null}`,
		"not JSON":     `not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/alternatives", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer tok")
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
	if len(env.altRepo.saved) != 0 {
		t.Error("bad requests must not write to the store")
	}
}
