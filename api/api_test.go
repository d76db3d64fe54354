package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/api"
	"github.com/xraph/treasury/store/memory"
)

var secret = []byte("test-secret")

func newServer(t *testing.T, required bool) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tr := treasury.New(memory.New())
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Stop() })

	return api.New(tr, api.Auth{Secret: secret, Required: required}, nil).Router()
}

func token(t *testing.T, perms ...string) string {
	t.Helper()
	tok, err := api.IssueToken(secret, "tester", perms, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func do(h http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPermissions(t *testing.T) {
	h := newServer(t, true)

	tests := []struct {
		name   string
		auth   string
		method string
		path   string
		body   string
		want   int
	}{
		{"no token", "", http.MethodGet, "/api/assets", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.MethodGet, "/api/assets", "", http.StatusUnauthorized},
		{"view allowed", token(t, "cash:view"), http.MethodGet, "/api/assets", "", http.StatusOK},
		{"wrong area", token(t, "debts:view"), http.MethodGet, "/api/assets", "", http.StatusForbidden},
		{"area wildcard", token(t, "banks:*"), http.MethodPost, "/api/banks",
			`{"name":"Wahda","openingBalance":{"amount":0,"currency":"LYD"}}`, http.StatusCreated},
		{"view cannot edit", token(t, "banks:view"), http.MethodPost, "/api/banks",
			`{"name":"Sahara","openingBalance":{"amount":0,"currency":"LYD"}}`, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, tt.method, tt.path, tt.auth, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestBankLifecycle(t *testing.T) {
	h := newServer(t, false)

	w := do(h, http.MethodPost, "/api/banks", "", `{"name":"Jumhouria","openingBalance":{"amount":1000000,"currency":"LYD"},"posEnabled":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create bank: %d %s", w.Code, w.Body.String())
	}
	var bank struct {
		ID      string `json:"id"`
		Balance struct {
			Amount int64 `json:"amount"`
		} `json:"balance"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &bank); err != nil {
		t.Fatal(err)
	}
	if bank.Balance.Amount != 1_000_000 {
		t.Errorf("balance = %d, want 1000000", bank.Balance.Amount)
	}

	// withdrawing more than the balance
	w = do(h, http.MethodPost, "/api/assets/withdraw", "",
		`{"asset":{"assetId":"`+bank.ID+`"},"amount":{"amount":2000000,"currency":"LYD"}}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("overdraw: status = %d, want 422 (body %s)", w.Code, w.Body.String())
	}

	// a bank with money cannot be deleted
	w = do(h, http.MethodDelete, "/api/banks/"+bank.ID, "", "")
	if w.Code != http.StatusConflict {
		t.Errorf("delete funded bank: status = %d, want 409", w.Code)
	}

	w = do(h, http.MethodGet, "/api/assets/"+bank.ID, "", "")
	if w.Code != http.StatusOK {
		t.Errorf("get asset: status = %d", w.Code)
	}
	w = do(h, http.MethodGet, "/api/assets/bogus", "", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", w.Code)
	}
}

func TestImportMissingKey(t *testing.T) {
	h := newServer(t, false)

	w := do(h, http.MethodPost, "/api/data/import", "", `{"assets":[],"transactions":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["field"] != "customers" {
		t.Errorf("field = %q, want customers", body["field"])
	}
}

func TestReconcileBalanced(t *testing.T) {
	h := newServer(t, false)

	w := do(h, http.MethodPost, "/api/assets/deposit", "",
		`{"asset":{"location":"tripoli"},"amount":{"amount":5000,"currency":"USD"},"description":"float"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("deposit: %d %s", w.Code, w.Body.String())
	}

	w = do(h, http.MethodGet, "/api/transactions/reconcile", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reconcile: %d", w.Code)
	}
	var got struct {
		Balanced bool `json:"balanced"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Balanced {
		t.Errorf("ledger not balanced: %s", w.Body.String())
	}
}
