package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nayaplay/crash-platform-poc/internal/wallet-service/repo"
)

type fakeRepo struct {
	balances map[string]int64
	applied  map[string]string // external_ref -> operation id
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{balances: map[string]int64{}, applied: map[string]string{}}
}

func (f *fakeRepo) GetOrCreateWallet(_ context.Context, userID string) (string, int64, error) {
	return "w-" + userID, f.balances[userID], nil
}

func (f *fakeRepo) Deposit(_ context.Context, userID string, amount int64, _ string) (string, int64, error) {
	f.balances[userID] += amount
	return "w-" + userID, f.balances[userID], nil
}

func (f *fakeRepo) Debit(_ context.Context, userID string, amount int64, ref string) (string, int64, error) {
	if op, ok := f.applied[ref]; ok {
		return op, f.balances[userID], nil
	}
	if f.balances[userID] < amount {
		return "", 0, repo.ErrInsufficientFunds
	}
	f.balances[userID] -= amount
	f.applied[ref] = "op-" + ref
	return "op-" + ref, f.balances[userID], nil
}

func (f *fakeRepo) Credit(_ context.Context, userID string, amount int64, ref string) (string, int64, error) {
	if op, ok := f.applied[ref]; ok {
		return op, f.balances[userID], nil
	}
	f.balances[userID] += amount
	f.applied[ref] = "op-" + ref
	return "op-" + ref, f.balances[userID], nil
}

func doPost(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDebitInsufficientFunds(t *testing.T) {
	f := newFakeRepo()
	f.balances["u1"] = 500
	srv := NewServer(zap.NewNop(), f)

	rec := doPost(t, srv.Router(), "/wallet/debit",
		`{"userId":"u1","amount_cents":1000,"external_ref":"crash-bet:b1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if f.balances["u1"] != 500 {
		t.Fatalf("balance changed on rejected debit: %d", f.balances["u1"])
	}
}

func TestDebitThenCreditFlow(t *testing.T) {
	f := newFakeRepo()
	srv := NewServer(zap.NewNop(), f)
	router := srv.Router()

	if rec := doPost(t, router, "/wallet/deposit", `{"userId":"u1","amount_cents":5000}`); rec.Code != http.StatusOK {
		t.Fatalf("deposit status = %d", rec.Code)
	}
	if rec := doPost(t, router, "/wallet/debit",
		`{"userId":"u1","amount_cents":1000,"external_ref":"crash-bet:b1"}`); rec.Code != http.StatusOK {
		t.Fatalf("debit status = %d", rec.Code)
	}
	if rec := doPost(t, router, "/wallet/credit",
		`{"userId":"u1","amount_cents":1800,"external_ref":"crash-cashout:b1"}`); rec.Code != http.StatusOK {
		t.Fatalf("credit status = %d", rec.Code)
	}
	if f.balances["u1"] != 5800 {
		t.Fatalf("balance = %d, want 5800", f.balances["u1"])
	}
}

func TestDebitIdempotentByExternalRef(t *testing.T) {
	f := newFakeRepo()
	f.balances["u1"] = 5000
	srv := NewServer(zap.NewNop(), f)
	router := srv.Router()

	body := `{"userId":"u1","amount_cents":1000,"external_ref":"crash-bet:b1"}`
	for i := 0; i < 3; i++ {
		if rec := doPost(t, router, "/wallet/debit", body); rec.Code != http.StatusOK {
			t.Fatalf("debit %d status = %d", i, rec.Code)
		}
	}
	if f.balances["u1"] != 4000 {
		t.Fatalf("balance = %d, want 4000 (single debit)", f.balances["u1"])
	}
}

func TestInvalidPayloads(t *testing.T) {
	srv := NewServer(zap.NewNop(), newFakeRepo())
	router := srv.Router()

	cases := []struct{ path, body string }{
		{"/wallet/debit", `{"userId":"","amount_cents":100,"external_ref":"x"}`},
		{"/wallet/debit", `{"userId":"u1","amount_cents":0,"external_ref":"x"}`},
		{"/wallet/debit", `{"userId":"u1","amount_cents":100,"external_ref":""}`},
		{"/wallet/credit", `{"userId":"u1","amount_cents":-1,"external_ref":"x"}`},
		{"/wallet/deposit", `not json`},
	}
	for _, c := range cases {
		if rec := doPost(t, router, c.path, c.body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s %s: status = %d, want 400", c.path, c.body, rec.Code)
		}
	}
}
