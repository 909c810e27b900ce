package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/art-market/internal/auth"
	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/service"
	"github.com/sakif/art-market/internal/storage"
)

const testBaseURL = "http://market.test/"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// route mounts h under pattern on a fresh chi router so URL params resolve,
// optionally with an authenticated account in the request context.
func route(method, pattern string, h http.HandlerFunc, as *model.Account) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if as != nil {
				req = req.WithContext(auth.WithAccount(req.Context(), as))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.MethodFunc(method, pattern, h)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func jsonBody(v string) io.Reader {
	return bytes.NewBufferString(v)
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&m), "body: %s", rr.Body.String())
	return m
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var l []map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&l), "body: %s", rr.Body.String())
	return l
}

// =========================================================================
// MOCK SERVICES
// =========================================================================

type MockAccountService struct {
	CapturedNickname string
	CapturedMail     string
	CapturedPassword string
	CapturedID       string

	ReturnAuth    *service.AuthResult
	ReturnProfile *model.Profile
	ReturnErr     error
}

func (m *MockAccountService) Register(_ context.Context, nickname, mail, password string) (*service.AuthResult, error) {
	m.CapturedNickname, m.CapturedMail, m.CapturedPassword = nickname, mail, password
	return m.ReturnAuth, m.ReturnErr
}

func (m *MockAccountService) Login(_ context.Context, nickname, password string) (*service.AuthResult, error) {
	m.CapturedNickname, m.CapturedPassword = nickname, password
	return m.ReturnAuth, m.ReturnErr
}

func (m *MockAccountService) Profile(_ context.Context, id string) (*model.Profile, error) {
	m.CapturedID = id
	return m.ReturnProfile, m.ReturnErr
}

type MockProductService struct {
	CapturedPage  int
	CapturedID    string
	CapturedInput service.CreateProductInput
	CapturedDesc  string
	CapturedBy    string

	ReturnProducts []model.Product
	ReturnProduct  *model.Product
	ReturnDetail   *service.ProductDetail
	ReturnBuyers   []model.Account
	ReturnErr      error
}

func (m *MockProductService) List(_ context.Context, page int) ([]model.Product, error) {
	m.CapturedPage = page
	return m.ReturnProducts, m.ReturnErr
}

func (m *MockProductService) Get(_ context.Context, id string) (*service.ProductDetail, error) {
	m.CapturedID = id
	return m.ReturnDetail, m.ReturnErr
}

func (m *MockProductService) Buyers(_ context.Context, id string) ([]model.Account, error) {
	m.CapturedID = id
	return m.ReturnBuyers, m.ReturnErr
}

func (m *MockProductService) Create(_ context.Context, in service.CreateProductInput) (*model.Product, error) {
	m.CapturedInput = in
	return m.ReturnProduct, m.ReturnErr
}

func (m *MockProductService) UpdateDescription(_ context.Context, callerID, productID, description string) (*model.Product, error) {
	m.CapturedBy, m.CapturedID, m.CapturedDesc = callerID, productID, description
	return m.ReturnProduct, m.ReturnErr
}

type MockPurchaseService struct {
	CapturedAccount string
	CapturedProduct string

	ReturnPurchase *model.Purchase
	ReturnCreated  bool
	ReturnErr      error
}

func (m *MockPurchaseService) Buy(_ context.Context, accountID, productID string) (*model.Purchase, bool, error) {
	m.CapturedAccount, m.CapturedProduct = accountID, productID
	return m.ReturnPurchase, m.ReturnCreated, m.ReturnErr
}

type MockImageService struct {
	CapturedNS storage.Namespace
	CapturedID string

	Body        string
	ContentType string
	ReturnErr   error
}

func (m *MockImageService) image() (*service.Image, error) {
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return &service.Image{
		Body:        io.NopCloser(strings.NewReader(m.Body)),
		ContentType: m.ContentType,
		Name:        "x",
	}, nil
}

func (m *MockImageService) OpenProductOriginal(_ context.Context, productID string) (*service.Image, error) {
	m.CapturedNS, m.CapturedID = storage.Originals, productID
	return m.image()
}

func (m *MockImageService) Open(_ context.Context, ns storage.Namespace, artifactID string) (*service.Image, error) {
	m.CapturedNS, m.CapturedID = ns, artifactID
	return m.image()
}

type MockPinger struct {
	Err error
}

func (m *MockPinger) Ping(context.Context) error { return m.Err }
