package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"magnova-scm-api-server/config"
	"magnova-scm-api-server/internal/api/routes"
	"magnova-scm-api-server/internal/app"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/report"
	"magnova-scm-api-server/internal/socket"
	"magnova-scm-api-server/internal/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type server struct {
	t      *testing.T
	router *gin.Engine
	store  *memstore.Store
	hub    *socket.Hub
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := config.Config{
		JWT:           config.JWTConfig{Secret: "test-secret", Expiration: time.Hour},
		Organizations: config.OrganizationsConfig{POCreators: []string{models.OrgMagnova}, SalesCreators: []string{models.OrgMagnova}},
		Sequence:      config.SequenceConfig{MaxAttempts: 20},
	}
	st := memstore.New()
	deps := app.New(cfg, st, logger, app.Extras{})
	return &server{t: t, router: routes.SetupRouter(deps), store: st, hub: deps.Hub}
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// user inserts a user directly and returns a token for it.
func (s *server) user(org, role string) string {
	s.t.Helper()
	u := &models.User{UserID: uuid.NewString(), Email: uuid.NewString() + "@example.com", Name: role, Organization: org, Role: role}
	require.NoError(s.t, s.store.InsertUser(context.Background(), u))
	token, err := auth.NewTokens("test-secret", time.Hour).Issue(u.UserID, u.Email)
	require.NoError(s.t, err)
	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "meera@magnova.in", "password": "hunter22", "name": "Meera", "organization": "Magnova", "role": "Staff",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "meera@magnova.in", "password": "hunter22", "name": "Meera", "organization": "Magnova", "role": "Staff",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "meera@magnova.in", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "meera@magnova.in", "password": "hunter22"})
	require.Equal(t, http.StatusOK, w.Code)
	sess := decode[map[string]any](t, w)
	token := sess["access_token"].(string)

	w = s.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "meera@magnova.in", me["email"])
	assert.NotContains(t, me, "password")
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/purchase-orders", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/purchase-orders", "garbage", nil).Code)
}

func createPO(t *testing.T, s *server, token string) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/purchase-orders", token, gin.H{
		"purchase_office": "HQ",
		"items": []gin.H{
			{"vendor": "Acme", "location": "Mumbai", "brand": "Samsung", "model": "S24", "qty": 2, "rate": 100, "po_value": 200},
			{"vendor": "Acme", "location": "Mumbai", "brand": "Apple", "model": "iPhone 15", "qty": 3, "rate": 50, "po_value": 150},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	po := decode[models.PurchaseOrder](t, w)
	assert.Equal(t, 5, po.TotalQuantity)
	assert.Equal(t, 350.0, po.TotalValue)
	return po.PONumber
}

func TestPurchaseOrderLifecycle(t *testing.T) {
	s := newServer(t)
	staff := s.user(models.OrgMagnova, models.RoleStaff)
	nova := s.user(models.OrgNova, models.RoleStaff)
	approver := s.user(models.OrgMagnova, models.RoleApprover)

	w := s.do(http.MethodPost, "/api/purchase-orders", nova, gin.H{"items": []gin.H{{"vendor": "a", "location": "b", "brand": "c", "model": "d"}}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	po := createPO(t, s, staff)
	assert.Equal(t, "PO-MAG-00001", po)

	w = s.do(http.MethodPost, "/api/purchase-orders/"+po+"/approve", staff, gin.H{"action": "approve"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/purchase-orders/"+po+"/approve", approver, gin.H{"action": "approve"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PO approved successfully", decode[map[string]any](t, w)["message"])

	w = s.do(http.MethodPost, "/api/purchase-orders/"+po+"/approve", approver, gin.H{"action": "reject", "rejection_reason": "late"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/purchase-orders?approval_status=Approved", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.PurchaseOrder](t, w), 1)

	w = s.do(http.MethodGet, "/api/purchase-orders/PO-MAG-00404", staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "NotFound", body["error"])
}

func TestPaymentBudgetOverHTTP(t *testing.T) {
	s := newServer(t)
	staff := s.user(models.OrgMagnova, models.RoleStaff)
	po := createPO(t, s, staff)

	w := s.do(http.MethodPost, "/api/payments/internal", staff, gin.H{
		"po_number": po, "payee_name": "Nova", "payee_account": "1", "payee_bank": "HDFC", "payment_mode": "NEFT", "amount": 350,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	external := gin.H{
		"po_number": po, "payee_type": "vendor", "payee_name": "Acme", "account_number": "9", "ifsc_code": "HDFC0001",
		"location": "Mumbai", "payment_mode": "NEFT", "amount": 350, "utr_number": "UTR1",
	}
	w = s.do(http.MethodPost, "/api/payments/external", staff, external)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	external["amount"] = 1
	w = s.do(http.MethodPost, "/api/payments/external", staff, external)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "BudgetExceeded", body["error"])
	details := body["details"].(map[string]any)
	assert.Equal(t, 0.0, details["remaining"])

	w = s.do(http.MethodGet, "/api/payments/summary/"+po, staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[map[string]any](t, w)
	assert.Equal(t, 0.0, sum["external_remaining"])

	external["po_number"] = "PO-MAG-00404"
	w = s.do(http.MethodPost, "/api/payments/external", staff, external)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "InvalidReference", decode[map[string]any](t, w)["error"])
}

func TestProcurementScanAndCascadeDelete(t *testing.T) {
	s := newServer(t)
	staff := s.user(models.OrgMagnova, models.RoleStaff)
	admin := s.user(models.OrgMagnova, models.RoleAdmin)
	po := createPO(t, s, staff)

	w := s.do(http.MethodPost, "/api/procurement", staff, gin.H{
		"po_number": po, "vendor_name": "Acme", "store_location": "Mumbai", "imei": "356000000000001", "device_model": "Samsung S24",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/procurement", staff, gin.H{
		"po_number": po, "vendor_name": "Acme", "store_location": "Mumbai", "imei": "356000000000001", "device_model": "Samsung S24",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/inventory/scan", staff, gin.H{"imei": "356000000000001", "action": "inward_nova", "location": "Delhi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/inventory/scan", staff, gin.H{"imei": "999", "action": "inward_nova", "location": "Delhi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/inventory/356000000000001", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusInwardNova, decode[models.InventoryItem](t, w).Status)

	w = s.do(http.MethodGet, "/api/purchase-orders/"+po+"/related-counts", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, decode[map[string]any](t, w)["total_related"])

	w = s.do(http.MethodDelete, "/api/purchase-orders/"+po, staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, "/api/purchase-orders/"+po, admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[map[string]any](t, w)
	counts := res["deleted_counts"].(map[string]any)
	assert.Equal(t, 1.0, counts["procurement"])
	assert.Equal(t, 1.0, counts["inventory"])

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/inventory/356000000000001", staff, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/purchase-orders/"+po, admin, nil).Code)

	w = s.do(http.MethodGet, "/api/audit-logs?entity_type=PurchaseOrder", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[[]models.AuditLog](t, w)
	require.NotEmpty(t, logs)
	assert.Equal(t, models.ActionCascadeDelete, logs[0].Action)
}

func TestReportsOverHTTP(t *testing.T) {
	s := newServer(t)
	staff := s.user(models.OrgMagnova, models.RoleStaff)
	admin := s.user(models.OrgMagnova, models.RoleAdmin)
	createPO(t, s, staff)

	w := s.do(http.MethodGet, "/api/reports/dashboard", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode[map[string]any](t, w)["pending_pos"])

	w = s.do(http.MethodGet, "/api/reports/export/master", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.XLSXContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(w.Header().Get("Content-Disposition"), "master_report.xlsx"))
	assert.NotZero(t, w.Body.Len())

	w = s.do(http.MethodGet, "/api/reports/po-summary", staff, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// no archiver configured
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/admin/reports/master/archive", staff, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/admin/reports/master/archive", admin, nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestWebSocketNeedsStoredUser(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?token="

	// Correctly signed, but the user does not exist (or was deleted).
	ghost, err := auth.NewTokens("test-secret", time.Hour).Issue("ghost", "ghost@example.com")
	require.NoError(t, err)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL+ghost, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, s.hub.Count())

	staff := s.user(models.OrgMagnova, models.RoleStaff)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+staff, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return s.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	createPO(t, s, staff)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"type":"audit"`)
}
