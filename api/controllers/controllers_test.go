package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dutta2005/Medi-Track/api/middleware"
	"github.com/Dutta2005/Medi-Track/internal/auth"
	"github.com/Dutta2005/Medi-Track/internal/dashboard"
	productsvc "github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/internal/reminders"
	"github.com/Dutta2005/Medi-Track/internal/users"
	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/pagination"
	"github.com/Dutta2005/Medi-Track/pkg/storage/gcs"
	"github.com/Dutta2005/Medi-Track/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: "debug", Output: io.Discard})
}

func withUser(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func withParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var env types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env.Error
}

type stubProductService struct {
	created    *productsvc.CreateProductInput
	updated    *productsvc.UpdateProductInput
	listParams pagination.Params
	deleteErr  error
}

func (s *stubProductService) CreateProduct(_ context.Context, _ uuid.UUID, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	s.created = &input
	return &productsvc.ProductDTO{ID: uuid.New(), Name: input.Name}, nil
}

func (s *stubProductService) GetProduct(context.Context, uuid.UUID, uuid.UUID) (*productsvc.ProductDTO, error) {
	return nil, pkgerrors.NotFound("product")
}

func (s *stubProductService) ListProducts(_ context.Context, _ uuid.UUID, params pagination.Params) (*types.Page[productsvc.ProductDTO], error) {
	s.listParams = params
	return &types.Page[productsvc.ProductDTO]{Items: []productsvc.ProductDTO{}}, nil
}

func (s *stubProductService) UpdateProduct(_ context.Context, _, productID uuid.UUID, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	s.updated = &input
	return &productsvc.ProductDTO{ID: productID}, nil
}

func (s *stubProductService) DeleteProduct(context.Context, uuid.UUID, uuid.UUID) error {
	return s.deleteErr
}

func (s *stubProductService) ListTriggers(context.Context, uuid.UUID, uuid.UUID) ([]productsvc.TriggerDTO, error) {
	return []productsvc.TriggerDTO{}, nil
}

func TestCreateProduct(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()

	t.Run("missing user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		CreateProduct(&stubProductService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("invalid category", func(t *testing.T) {
		body := `{"name":"Aspirin","quantity":3,"expiry_date":"2026-05-01","category":"Snacks"}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body)), userID)
		rec := httptest.NewRecorder()
		CreateProduct(&stubProductService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if apiErr := decodeError(t, rec); apiErr.Code != string(pkgerrors.CodeValidation) {
			t.Fatalf("expected validation code, got %s", apiErr.Code)
		}
	})

	t.Run("bad expiry date", func(t *testing.T) {
		body := `{"name":"Aspirin","quantity":3,"expiry_date":"May 1st","category":"Medicine"}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body)), userID)
		rec := httptest.NewRecorder()
		CreateProduct(&stubProductService{}, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("success defaults schedule type", func(t *testing.T) {
		stub := &stubProductService{}
		body := `{"name":" Aspirin ","quantity":0,"expiry_date":"2026-05-01","category":"medicine","daily_dosages":[{"hour":8,"minute":0}]}`
		req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body)), userID)
		rec := httptest.NewRecorder()
		CreateProduct(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.created == nil {
			t.Fatal("expected service call")
		}
		if stub.created.Name != "Aspirin" || stub.created.Quantity != 0 {
			t.Fatalf("unexpected input %+v", stub.created)
		}
		if stub.created.Category != enums.ProductCategoryMedicine {
			t.Fatalf("expected canonical category, got %s", stub.created.Category)
		}
		if stub.created.ScheduleType != enums.DefaultScheduleType {
			t.Fatalf("expected default schedule type, got %s", stub.created.ScheduleType)
		}
		if stub.created.ExpiryDate.Format(productsvc.DateLayout) != "2026-05-01" {
			t.Fatalf("unexpected expiry %s", stub.created.ExpiryDate)
		}
	})
}

func TestUpdateProductMapsOptionalFields(t *testing.T) {
	stub := &stubProductService{}
	productID := uuid.New()
	body := `{"quantity":7,"schedule_type":"weekly","clear_reorder_point":true}`
	req := withParam(httptest.NewRequest(http.MethodPatch, "/api/v1/products/"+productID.String(), strings.NewReader(body)), "productId", productID.String())
	req = withUser(req, uuid.New())
	rec := httptest.NewRecorder()
	UpdateProduct(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.updated.Quantity == nil || *stub.updated.Quantity != 7 {
		t.Fatalf("expected quantity 7, got %+v", stub.updated.Quantity)
	}
	if stub.updated.ScheduleType == nil || *stub.updated.ScheduleType != enums.ScheduleTypeWeekly {
		t.Fatalf("expected weekly schedule type")
	}
	if !stub.updated.ClearReorderPoint || stub.updated.Name != nil || stub.updated.ExpiryDate != nil {
		t.Fatalf("unexpected input %+v", stub.updated)
	}
}

func TestDeleteProduct(t *testing.T) {
	logg := testLogger()
	productID := uuid.New()
	request := func(id string) *http.Request {
		req := withParam(httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+id, nil), "productId", id)
		return withUser(req, uuid.New())
	}

	rec := httptest.NewRecorder()
	DeleteProduct(&stubProductService{}, logg).ServeHTTP(rec, request("not-a-uuid"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid id, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	DeleteProduct(&stubProductService{deleteErr: pkgerrors.NotFound("product")}, logg).ServeHTTP(rec, request(productID.String()))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	DeleteProduct(&stubProductService{}, logg).ServeHTTP(rec, request(productID.String()))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestListProductsPagination(t *testing.T) {
	logg := testLogger()
	stub := &stubProductService{}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=500", nil), uuid.New())
	rec := httptest.NewRecorder()
	ListProducts(stub, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range limit, got %d", rec.Code)
	}

	req = withUser(httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=10&cursor=abc", nil), uuid.New())
	rec = httptest.NewRecorder()
	ListProducts(stub, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.listParams.Limit != 10 || stub.listParams.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", stub.listParams)
	}
}

type stubAlertInbox struct {
	calls []string
}

func (s *stubAlertInbox) ListPending(context.Context, uuid.UUID, pagination.Params) (*types.Page[reminders.AlertDTO], error) {
	s.calls = append(s.calls, "pending")
	return &types.Page[reminders.AlertDTO]{Items: []reminders.AlertDTO{}}, nil
}

func (s *stubAlertInbox) ListAll(context.Context, uuid.UUID, pagination.Params) (*types.Page[reminders.AlertDTO], error) {
	s.calls = append(s.calls, "all")
	return &types.Page[reminders.AlertDTO]{Items: []reminders.AlertDTO{}}, nil
}

func (s *stubAlertInbox) MarkRead(_ context.Context, _, alertID uuid.UUID) (*reminders.AlertDTO, error) {
	s.calls = append(s.calls, "read")
	return &reminders.AlertDTO{ID: alertID, Status: enums.AlertStatusRead}, nil
}

func TestListAlertsStatusSelection(t *testing.T) {
	logg := testLogger()
	stub := &stubAlertInbox{}
	for _, target := range []string{"/api/v1/alerts", "/api/v1/alerts?status=all", "/api/v1/alerts?status=PENDING"} {
		rec := httptest.NewRecorder()
		ListAlerts(stub, logg).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, target, nil), uuid.New()))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
	}
	if strings.Join(stub.calls, ",") != "pending,all,pending" {
		t.Fatalf("unexpected calls %v", stub.calls)
	}

	rec := httptest.NewRecorder()
	ListAlerts(stub, logg).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/alerts?status=unread", nil), uuid.New()))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
}

func TestMarkAlertRead(t *testing.T) {
	stub := &stubAlertInbox{}
	alertID := uuid.New()
	req := withParam(httptest.NewRequest(http.MethodPost, "/api/v1/alerts/"+alertID.String()+"/read", nil), "alertId", alertID.String())
	rec := httptest.NewRecorder()
	MarkAlertRead(stub, testLogger()).ServeHTTP(rec, withUser(req, uuid.New()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data reminders.AlertDTO `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.ID != alertID || env.Data.Status != enums.AlertStatusRead {
		t.Fatalf("unexpected payload %+v", env.Data)
	}
}

type stubSweeper struct {
	result reminders.SweepResult
	err    error
}

func (s stubSweeper) Sweep(context.Context) (reminders.SweepResult, error) { return s.result, s.err }

func TestSweepAlertsReportsPartialFailure(t *testing.T) {
	stub := stubSweeper{result: reminders.SweepResult{Checked: 3, Created: 1, Failed: 1}, err: errors.New("one product failed")}
	rec := httptest.NewRecorder()
	SweepAlerts(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/internal/alerts/sweep", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data reminders.SweepResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data != stub.result {
		t.Fatalf("unexpected result %+v", env.Data)
	}
}

type stubDashboard struct {
	params dashboard.Params
}

func (s *stubDashboard) Dashboard(_ context.Context, _ uuid.UUID, params dashboard.Params) (*dashboard.Result, error) {
	s.params = params
	if params.Filter == "soon" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown filter")
	}
	return &dashboard.Result{Filter: dashboard.FilterAll, Category: dashboard.CategoryAll, Items: []productsvc.ProductDTO{}}, nil
}

func TestDashboardPassesQuery(t *testing.T) {
	stub := &stubDashboard{}
	rec := httptest.NewRecorder()
	Dashboard(stub, testLogger()).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?filter=lowStock&category=Injection", nil), uuid.New()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.params.Filter != "lowStock" || stub.params.Category != "Injection" {
		t.Fatalf("unexpected params %+v", stub.params)
	}

	rec = httptest.NewRecorder()
	Dashboard(stub, testLogger()).ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?filter=soon", nil), uuid.New()))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

type stubImages struct {
	uploaded []byte
}

func (s *stubImages) Upload(_ context.Context, _ uuid.UUID, body io.Reader) (*productsvc.ImageDTO, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	s.uploaded = data
	return &productsvc.ImageDTO{ID: uuid.NewString(), ContentType: "image/png", Size: int64(len(data))}, nil
}

func (s *stubImages) Open(context.Context, uuid.UUID, string) (*gcs.Object, error) {
	return &gcs.Object{Body: io.NopCloser(bytes.NewReader(s.uploaded)), ContentType: "image/png", Size: int64(len(s.uploaded))}, nil
}

func (s *stubImages) Delete(context.Context, uuid.UUID, string) error { return nil }

func TestUploadAndGetImage(t *testing.T) {
	logg := testLogger()
	stub := &stubImages{}
	payload := []byte("\x89PNG\r\n\x1a\nrest")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "pill.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	UploadImage(stub, 1024, logg).ServeHTTP(rec, withUser(req, uuid.New()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Equal(stub.uploaded, payload) {
		t.Fatalf("unexpected upload %q", stub.uploaded)
	}

	req = withParam(httptest.NewRequest(http.MethodGet, "/api/v1/images/x", nil), "imageId", "x")
	rec = httptest.NewRecorder()
	GetImage(stub, logg).ServeHTTP(rec, withUser(req, uuid.New()))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/png" || !bytes.Equal(rec.Body.Bytes(), payload) {
		t.Fatalf("unexpected image response %q %q", rec.Header().Get("Content-Type"), rec.Body.Bytes())
	}
}

func TestUploadImageRequiresFileField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	UploadImage(&stubImages{}, 1024, testLogger()).ServeHTTP(rec, withUser(req, uuid.New()))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

type stubAuthService struct {
	loginErr   error
	endedWith  string
	refreshed  [2]string
	loggedOut  string
	loginCalls int
}

func (s *stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh", User: &users.UserDTO{ID: uuid.New()}}, nil
}

func (s *stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	s.loginCalls++
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (s *stubAuthService) CurrentUser(_ context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID}, nil
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.loggedOut = accessID
	return nil
}

func (s *stubAuthService) Refresh(_ context.Context, accessToken, refreshToken string) (*auth.LoginResponse, error) {
	s.refreshed = [2]string{accessToken, refreshToken}
	return &auth.LoginResponse{AccessToken: "next-access", RefreshToken: "next-refresh"}, nil
}

func (s *stubAuthService) EndSession(_ context.Context, accessToken string) error {
	s.endedWith = accessToken
	return nil
}

func TestAuthLoginFailureEndsPresentedSession(t *testing.T) {
	stub := &stubAuthService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@example.com","password":"wrong"}`))
	req.Header.Set("Authorization", "Bearer stale-token")
	rec := httptest.NewRecorder()
	AuthLogin(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if stub.endedWith != "stale-token" {
		t.Fatalf("expected stale session to be ended, got %q", stub.endedWith)
	}
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	stub := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@example.com","password":"secret"}`))
	rec := httptest.NewRecorder()
	AuthLogin(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-MT-Token") != "access" {
		t.Fatalf("expected token header, got %q", rec.Header().Get("X-MT-Token"))
	}
	if stub.endedWith != "" {
		t.Fatalf("successful login must not end sessions")
	}
}

func TestAuthRefreshRequiresBearer(t *testing.T) {
	stub := &stubAuthService{}
	body := `{"refresh_token":"refresh"}`

	rec := httptest.NewRecorder()
	AuthRefresh(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(body)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer expired-access")
	rec = httptest.NewRecorder()
	AuthRefresh(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.refreshed != [2]string{"expired-access", "refresh"} {
		t.Fatalf("unexpected refresh args %v", stub.refreshed)
	}
}

func TestAuthLogoutUsesSessionFromContext(t *testing.T) {
	stub := &stubAuthService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithAccessID(req.Context(), "session-1"))
	rec := httptest.NewRecorder()
	AuthLogout(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.loggedOut != "session-1" {
		t.Fatalf("expected session-1 revoked, got %q", stub.loggedOut)
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	healthy := pingFunc(func(context.Context) error { return nil })
	broken := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"db": healthy, "redis": healthy}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"db": healthy, "redis": broken}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec.Header().Get("X-MediTrack-Env") != "test" {
		t.Fatalf("expected env header")
	}
}
