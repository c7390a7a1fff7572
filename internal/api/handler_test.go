package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/arihooper/Pharmfind/domain"
	"github.com/arihooper/Pharmfind/internal/auth"
	"github.com/arihooper/Pharmfind/internal/database"
	"github.com/arihooper/Pharmfind/internal/migrations"
	"github.com/arihooper/Pharmfind/internal/store"
)

type testEnv struct {
	t      *testing.T
	router http.Handler
	store  *store.Store
	auth   *auth.Service
}

type response struct {
	status int
	raw    []byte
	body   map[string]interface{}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, ":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(ctx, db))

	authSvc, err := auth.New("test-secret", 0, bcrypt.MinCost)
	require.NoError(t, err)

	st := store.New(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(st, authSvc, logger, Options{
		AllowedOrigins:    []string{"http://localhost:3000"},
		DefaultRadiusKm:   5,
		MaxRadiusKm:       500,
		LowStockThreshold: 10,
	})
	return &testEnv{t: t, router: h.Router(), store: st, auth: authSvc}
}

func (e *testEnv) do(method, path, token string, body interface{}) response {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			payload, err := json.Marshal(b)
			require.NoError(e.t, err)
			reader = bytes.NewReader(payload)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	res := response{status: rec.Code, raw: rec.Body.Bytes()}
	if len(res.raw) > 0 {
		require.NoError(e.t, json.Unmarshal(res.raw, &res.body), string(res.raw))
	}
	return res
}

// register creates an account and returns its token and id.
func (e *testEnv) register(email, role string) (string, int64) {
	e.t.Helper()
	res := e.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email": email, "password": "secret123", "name": "Test User", "role": role,
	})
	require.Equal(e.t, http.StatusCreated, res.status, string(res.raw))
	user := res.body["user"].(map[string]interface{})
	return res.body["token"].(string), int64(user["id"].(float64))
}

// pharmacist registers a pharmacist owning a pharmacy at lat/lng.
func (e *testEnv) pharmacist(email, name string, lat, lng float64) (string, int64) {
	e.t.Helper()
	token, _ := e.register(email, domain.RolePharmacist)
	res := e.do(http.MethodPost, "/api/pharmacy", token, map[string]interface{}{
		"name": name, "latitude": lat, "longitude": lng,
	})
	require.Equal(e.t, http.StatusCreated, res.status, string(res.raw))
	p := res.body["pharmacy"].(map[string]interface{})
	return token, int64(p["id"].(float64))
}

func (e *testEnv) medicine(brand, generic string) int64 {
	e.t.Helper()
	m, err := e.store.CreateMedicine(context.Background(), domain.Medicine{BrandName: brand, GenericName: &generic})
	require.NoError(e.t, err)
	return m.ID
}

func (e *testEnv) stock(token string, medicineID int64, price float64, quantity int64) response {
	e.t.Helper()
	return e.do(http.MethodPut, "/api/pharmacy/inventory", token, map[string]interface{}{
		"medicine_id": medicineID, "price": price, "quantity": quantity,
	})
}

func TestRegisterThenLogin(t *testing.T) {
	e := newTestEnv(t)

	res := e.do(http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"email": "  Abebe@Example.com ", "password": "secret123", "name": "Abebe",
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.raw))
	assert.Equal(t, true, res.body["success"])
	assert.Equal(t, "User registered successfully", res.body["message"])
	assert.NotEmpty(t, res.body["token"])
	user := res.body["user"].(map[string]interface{})
	assert.Equal(t, "abebe@example.com", user["email"])
	assert.Equal(t, domain.RolePatient, user["role"])
	assert.NotContains(t, user, "password_hash")

	login := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ABEBE@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, login.status, string(login.raw))
	assert.Equal(t, "Login successful", login.body["message"])
	assert.Equal(t, user["id"], login.body["user"].(map[string]interface{})["id"])

	claims, err := e.auth.VerifyToken(login.body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, int64(user["id"].(float64)), claims.UserID)
	assert.Equal(t, domain.RolePatient, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := newTestEnv(t)
	e.register("dup@example.com", domain.RolePatient)

	res := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "dup@example.com", "password": "other-password",
	})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Email already exists", res.body["error"])
	assert.Equal(t, "CONFLICT", res.body["code"])

	var n int
	require.NoError(t, e.store.DB().Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 1, n)
}

func TestRegisterValidation(t *testing.T) {
	e := newTestEnv(t)

	for name, body := range map[string]interface{}{
		"missing password": map[string]string{"email": "a@example.com"},
		"missing email":    map[string]string{"password": "secret123"},
		"admin role":       map[string]string{"email": "a@example.com", "password": "secret123", "role": "admin"},
		"unknown role":     map[string]string{"email": "a@example.com", "password": "secret123", "role": "doctor"},
		"unknown field":    map[string]string{"email": "a@example.com", "password": "secret123", "nickname": "x"},
		"malformed json":   `{"email":`,
	} {
		t.Run(name, func(t *testing.T) {
			res := e.do(http.MethodPost, "/api/auth/register", "", body)
			assert.Equal(t, http.StatusBadRequest, res.status)
			assert.Equal(t, "VALIDATION", res.body["code"])
		})
	}

	var n int
	require.NoError(t, e.store.DB().Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Zero(t, n)
}

func TestRegisterPharmacyRoleAlias(t *testing.T) {
	e := newTestEnv(t)

	res := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "shop@example.com", "password": "secret123", "role": "pharmacy",
	})
	require.Equal(t, http.StatusCreated, res.status)
	assert.Equal(t, domain.RolePharmacist, res.body["user"].(map[string]interface{})["role"])
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	e := newTestEnv(t)
	e.register("known@example.com", domain.RolePatient)

	wrongPassword := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "known@example.com", "password": "nope",
	})
	unknownEmail := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "unknown@example.com", "password": "nope",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.status)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.status)
	assert.Equal(t, string(wrongPassword.raw), string(unknownEmail.raw))
	assert.Equal(t, "Invalid credentials", wrongPassword.body["error"])
}

func TestBearerGate(t *testing.T) {
	e := newTestEnv(t)

	res := e.do(http.MethodGet, "/api/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	assert.Equal(t, "AUTH_INVALID", res.body["code"])

	res = e.do(http.MethodGet, "/api/user/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "AUTH_INVALID", res.body["code"])

	other, err := auth.New("another-secret", 0, bcrypt.MinCost)
	require.NoError(t, err)
	forged, err := other.IssueToken(auth.Identity{UserID: 1, Role: domain.RoleAdmin})
	require.NoError(t, err)
	res = e.do(http.MethodGet, "/api/user/profile", forged, nil)
	assert.Equal(t, http.StatusForbidden, res.status)
}

func TestProfile(t *testing.T) {
	e := newTestEnv(t)
	token, id := e.register("profile@example.com", domain.RolePatient)

	res := e.do(http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, res.status)
	user := res.body["user"].(map[string]interface{})
	assert.Equal(t, float64(id), user["id"])
	assert.Equal(t, "Test User", user["name"])

	res = e.do(http.MethodPut, "/api/user/profile", token, map[string]string{"phone": "+251911223344"})
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	user = res.body["user"].(map[string]interface{})
	assert.Equal(t, "Test User", user["name"])
	assert.Equal(t, "+251911223344", user["phone"])

	res = e.do(http.MethodPut, "/api/user/profile", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.status)

	e.store.DB().MustExec(`DELETE FROM users WHERE id = ?`, id)
	res = e.do(http.MethodGet, "/api/user/profile", token, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "User not found", res.body["error"])
	assert.Equal(t, "NOT_FOUND", res.body["code"])
}

func TestOverlongPasswordIsValidationError(t *testing.T) {
	e := newTestEnv(t)
	long := strings.Repeat("p", 80)

	res := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "long@example.com", "password": long,
	})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "VALIDATION", res.body["code"])
	assert.Equal(t, "Password must be at most 72 bytes", res.body["error"])

	token, _ := e.register("short@example.com", domain.RolePatient)
	res = e.do(http.MethodPut, "/api/user/password", token, map[string]string{
		"current_password": "secret123", "new_password": long,
	})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "VALIDATION", res.body["code"])

	var n int
	require.NoError(t, e.store.DB().Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 1, n)
}

func TestChangePassword(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.register("pw@example.com", domain.RolePatient)

	res := e.do(http.MethodPut, "/api/user/password", token, map[string]string{
		"current_password": "wrong", "new_password": "brand-new",
	})
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = e.do(http.MethodPut, "/api/user/password", token, map[string]string{
		"current_password": "secret123", "new_password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "new_password must be at least 6 characters", res.body["error"])

	res = e.do(http.MethodPut, "/api/user/password", token, map[string]string{
		"current_password": "secret123", "new_password": "brand-new",
	})
	require.Equal(t, http.StatusOK, res.status, string(res.raw))

	old := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "pw@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, old.status)
	fresh := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "pw@example.com", "password": "brand-new"})
	assert.Equal(t, http.StatusOK, fresh.status)
}

func TestCreatePharmacy(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.pharmacist("owner@example.com", "Waliin Pharmacy", 8.98, 38.76)

	res := e.do(http.MethodPost, "/api/pharmacy", token, map[string]interface{}{"name": "Second"})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "CONFLICT", res.body["code"])

	patient, _ := e.register("patient@example.com", domain.RolePatient)
	res = e.do(http.MethodPost, "/api/pharmacy", patient, map[string]interface{}{"name": "Nope"})
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "AUTH_FORBIDDEN", res.body["code"])

	other, _ := e.register("other@example.com", domain.RolePharmacist)
	res = e.do(http.MethodPost, "/api/pharmacy", other, map[string]interface{}{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "name is required", res.body["error"])
	res = e.do(http.MethodPost, "/api/pharmacy", other, map[string]interface{}{"name": "Half", "latitude": 9.0})
	assert.Equal(t, http.StatusBadRequest, res.status)
	res = e.do(http.MethodPost, "/api/pharmacy", other, map[string]interface{}{"name": "Bad", "latitude": 91.0, "longitude": 38.0})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "latitude must be at most 90", res.body["error"])
}

func TestInventoryUpsertAndReadBack(t *testing.T) {
	e := newTestEnv(t)
	token, pharmacyID := e.pharmacist("owner@example.com", "Waliin Pharmacy", 8.98, 38.76)
	amox := e.medicine("Amoxicillin 500mg", "Amoxicillin")

	res := e.stock(token, amox, 45, 10)
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	assert.Equal(t, "Inventory updated successfully", res.body["message"])
	item := res.body["inventory"].(map[string]interface{})
	assert.Equal(t, float64(pharmacyID), item["pharmacy_id"])
	assert.Equal(t, float64(10), item["quantity"])

	detail := e.do(http.MethodGet, fmt.Sprintf("/api/pharmacies/%d", pharmacyID), "", nil)
	require.Equal(t, http.StatusOK, detail.status)
	assert.Equal(t, float64(1), detail.body["inventory_count"])
	row := detail.body["inventory"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(45), row["price"])
	assert.Equal(t, float64(10), row["quantity"])
	pharmacy := detail.body["pharmacy"].(map[string]interface{})
	assert.Equal(t, "owner@example.com", pharmacy["owner_email"])

	res = e.stock(token, amox, 40, 3)
	require.Equal(t, http.StatusOK, res.status)
	detail = e.do(http.MethodGet, fmt.Sprintf("/api/pharmacies/%d", pharmacyID), "", nil)
	row = detail.body["inventory"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(40), row["price"])
	assert.Equal(t, float64(3), row["quantity"])

	res = e.stock(token, amox, 40, 0)
	require.Equal(t, http.StatusOK, res.status)
	detail = e.do(http.MethodGet, fmt.Sprintf("/api/pharmacies/%d", pharmacyID), "", nil)
	assert.Equal(t, float64(0), detail.body["inventory_count"])
}

func TestInventoryUpsertRejections(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.pharmacist("owner@example.com", "Waliin Pharmacy", 8.98, 38.76)
	amox := e.medicine("Amoxicillin 500mg", "Amoxicillin")

	res := e.stock(token, 999, 10, 1)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "NOT_FOUND", res.body["code"])

	res = e.stock(token, amox, -1, 1)
	assert.Equal(t, http.StatusBadRequest, res.status)
	res = e.stock(token, amox, 10, -1)
	assert.Equal(t, http.StatusBadRequest, res.status)
	res = e.do(http.MethodPut, "/api/pharmacy/inventory", token, map[string]interface{}{"medicine_id": amox, "price": 10})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "quantity is required", res.body["error"])

	noPharmacy, _ := e.register("nopharmacy@example.com", domain.RolePharmacist)
	res = e.stock(noPharmacy, amox, 10, 1)
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "AUTH_FORBIDDEN", res.body["code"])
	assert.Equal(t, "No pharmacy associated with this account", res.body["error"])

	res = e.stock("", amox, 10, 1)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	var n int
	require.NoError(t, e.store.DB().Get(&n, `SELECT COUNT(*) FROM inventory`))
	assert.Zero(t, n)
}

func TestSearchMedicines(t *testing.T) {
	e := newTestEnv(t)
	bole, _ := e.pharmacist("bole@example.com", "Bole Pharmacy", 8.9806, 38.7578)
	dollo, _ := e.pharmacist("dollo@example.com", "Dambi Dollo Pharmacy", 8.5333, 34.8)
	amox := e.medicine("Amoxicillin 500mg", "Amoxicillin")
	panadol := e.medicine("Panadol", "Paracetamol")

	require.Equal(t, http.StatusOK, e.stock(bole, amox, 50, 5).status)
	require.Equal(t, http.StatusOK, e.stock(dollo, amox, 30, 5).status)
	require.Equal(t, http.StatusOK, e.stock(bole, panadol, 10, 0).status)

	res := e.do(http.MethodGet, "/api/medicines/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Search query required", res.body["error"])

	res = e.do(http.MethodGet, "/api/medicines/search?query=amox", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, float64(2), res.body["count"])
	first := res.body["medicines"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Dambi Dollo Pharmacy", first["pharmacy_name"])
	assert.NotContains(t, first, "distance_km")

	res = e.do(http.MethodGet, "/api/medicines/search?q=PARACETAMOL", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, float64(0), res.body["count"])
	assert.Equal(t, []interface{}{}, res.body["medicines"])

	res = e.do(http.MethodGet, "/api/medicines/search?query=amox&lat=8.98&lng=38.76", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, float64(1), res.body["count"])
	near := res.body["medicines"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Bole Pharmacy", near["pharmacy_name"])
	assert.Less(t, near["distance_km"].(float64), 1.0)

	res = e.do(http.MethodGet, "/api/medicines/search?query=amox&lat=8.98&lng=38.76&radius=500", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, float64(2), res.body["count"])

	for _, bad := range []string{
		"query=amox&lat=abc&lng=38.76",
		"query=amox&lat=95&lng=38.76",
		"query=amox&lat=8.98&lng=38.76&radius=-1",
		"query=amox&lat=8.98&lng=38.76&radius=abc",
	} {
		res = e.do(http.MethodGet, "/api/medicines/search?"+bad, "", nil)
		assert.Equal(t, http.StatusBadRequest, res.status, bad)
		assert.Equal(t, "VALIDATION", res.body["code"], bad)
	}
}

func TestSearchMedicinesLenientLocation(t *testing.T) {
	e := newTestEnv(t)
	bole, _ := e.pharmacist("bole@example.com", "Bole Pharmacy", 8.9806, 38.7578)
	dollo, _ := e.pharmacist("dollo@example.com", "Dambi Dollo Pharmacy", 8.5333, 34.8)
	amox := e.medicine("Amoxicillin 500mg", "Amoxicillin")
	require.Equal(t, http.StatusOK, e.stock(bole, amox, 50, 5).status)
	require.Equal(t, http.StatusOK, e.stock(dollo, amox, 30, 5).status)

	t.Run("a single coordinate skips the distance filter", func(t *testing.T) {
		for _, q := range []string{"query=amox&lat=9.0", "query=amox&lng=38.76", "query=amox&lat=9.0&radius=1"} {
			res := e.do(http.MethodGet, "/api/medicines/search?"+q, "", nil)
			require.Equal(t, http.StatusOK, res.status, q)
			assert.Equal(t, float64(2), res.body["count"], q)
			first := res.body["medicines"].([]interface{})[0].(map[string]interface{})
			assert.NotContains(t, first, "distance_km", q)
		}
	})

	t.Run("a radius above the maximum is capped", func(t *testing.T) {
		res := e.do(http.MethodGet, "/api/medicines/search?query=amox&lat=8.98&lng=38.76&radius=1000", "", nil)
		require.Equal(t, http.StatusOK, res.status, string(res.raw))
		assert.Equal(t, float64(2), res.body["count"])
		for _, row := range res.body["medicines"].([]interface{}) {
			assert.LessOrEqual(t, row.(map[string]interface{})["distance_km"].(float64), 500.0)
		}
	})
}

func TestPharmacyDetailErrors(t *testing.T) {
	e := newTestEnv(t)

	res := e.do(http.MethodGet, "/api/pharmacies/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "VALIDATION", res.body["code"])

	res = e.do(http.MethodGet, "/api/pharmacies/999", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "Pharmacy not found", res.body["error"])
}

func TestListPharmacies(t *testing.T) {
	e := newTestEnv(t)
	e.pharmacist("bole@example.com", "Bole Pharmacy", 8.9806, 38.7578)
	e.pharmacist("adama@example.com", "Adama Pharmacy", 8.54, 39.2675)

	res := e.do(http.MethodGet, "/api/pharmacies", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, float64(2), res.body["count"])

	res = e.do(http.MethodGet, "/api/pharmacies?lat=8.98&lng=38.76&radius=100", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	list := res.body["pharmacies"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, "Bole Pharmacy", list[0].(map[string]interface{})["name"])
	assert.Equal(t, "Adama Pharmacy", list[1].(map[string]interface{})["name"])
}

func TestOwnPharmacyAndStats(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.pharmacist("owner@example.com", "Waliin Pharmacy", 8.98, 38.76)
	for i, q := range []int64{100, 4, 0} {
		id := e.medicine(fmt.Sprintf("Medicine %d", i), "generic")
		require.Equal(t, http.StatusOK, e.stock(token, id, 10, q).status)
	}

	res := e.do(http.MethodGet, "/api/pharmacy", token, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, float64(3), res.body["inventory_count"])
	var statuses []string
	for _, row := range res.body["inventory"].([]interface{}) {
		statuses = append(statuses, row.(map[string]interface{})["status"].(string))
	}
	assert.Equal(t, []string{domain.StockIn, domain.StockLow, domain.StockOut}, statuses)

	res = e.do(http.MethodGet, "/api/pharmacy/stats", token, nil)
	require.Equal(t, http.StatusOK, res.status)
	stats := res.body["stats"].(map[string]interface{})
	assert.Equal(t, float64(3), stats["total_medicines"])
	assert.Equal(t, float64(1), stats["in_stock"])
	assert.Equal(t, float64(1), stats["low_stock"])
	assert.Equal(t, float64(1), stats["out_of_stock"])
	assert.Equal(t, float64(1040), stats["inventory_value"])

	res = e.do(http.MethodPut, "/api/pharmacy", token, map[string]interface{}{"address": "Bole Road"})
	require.Equal(t, http.StatusOK, res.status, string(res.raw))
	p := res.body["pharmacy"].(map[string]interface{})
	assert.Equal(t, "Waliin Pharmacy", p["name"])
	assert.Equal(t, "Bole Road", p["address"])

	patient, _ := e.register("patient@example.com", domain.RolePatient)
	res = e.do(http.MethodGet, "/api/pharmacy/stats", patient, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestMedicineCatalog(t *testing.T) {
	e := newTestEnv(t)
	pharmacist, _ := e.register("pharmacist@example.com", domain.RolePharmacist)
	patient, _ := e.register("patient@example.com", domain.RolePatient)

	res := e.do(http.MethodPost, "/api/medicines", pharmacist, map[string]string{
		"brand_name": "Ventolin", "generic_name": "Salbutamol", "form": "Inhaler",
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.raw))
	id := res.body["medicine"].(map[string]interface{})["id"].(float64)

	res = e.do(http.MethodPost, "/api/medicines", pharmacist, map[string]string{
		"brand_name": "Ventolin", "generic_name": "Salbutamol", "form": "Inhaler",
	})
	assert.Equal(t, "CONFLICT", res.body["code"])

	res = e.do(http.MethodPost, "/api/medicines", patient, map[string]string{"brand_name": "Other"})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = e.do(http.MethodGet, fmt.Sprintf("/api/medicines/%d", int64(id)), "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Salbutamol", res.body["medicine"].(map[string]interface{})["generic_name"])

	res = e.do(http.MethodGet, "/api/medicines?limit=10", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, float64(1), res.body["count"])

	res = e.do(http.MethodGet, "/api/medicines?limit=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	res = e.do(http.MethodGet, "/api/medicines/999", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestHealthAndRoot(t *testing.T) {
	e := newTestEnv(t)

	res := e.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "healthy", res.body["status"])
	assert.Equal(t, "connected", res.body["database"])
	assert.NotEmpty(t, res.body["timestamp"])
	assert.Contains(t, res.body["version"], "SQLite")

	res = e.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "PharmaFind API", res.body["service"])
	assert.Contains(t, res.body["endpoints"], "search")

	require.NoError(t, e.store.DB().Close())
	res = e.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.Equal(t, "unhealthy", res.body["status"])
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/medicines/search", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
