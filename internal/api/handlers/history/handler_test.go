package history_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	handler "github.com/5w1tchy/pwcheck-api/internal/api/handlers/history"
	"github.com/5w1tchy/pwcheck-api/internal/api/middlewares"
	"github.com/5w1tchy/pwcheck-api/internal/store/history"
	"go.uber.org/zap"
)

type fakeStore struct {
	gotSID   string
	gotLimit int
	err      error
	calls    *[]string
}

func (f *fakeStore) List(_ context.Context, sid string, limit int) ([]history.Entry, error) {
	f.gotSID, f.gotLimit = sid, limit
	if f.err != nil {
		return nil, f.err
	}
	return []history.Entry{{ID: 1, Score: 45, Strength: "fair", CrackTime: "35 days"}}, nil
}

func (f *fakeStore) Clear(_ context.Context, sid string) (int64, error) {
	f.gotSID = sid
	if f.calls != nil {
		*f.calls = append(*f.calls, "clear "+sid)
	}
	return 3, f.err
}

type fakePending struct {
	calls *[]string
	err   error
}

func (f fakePending) Flush(_ context.Context, sid string) error {
	*f.calls = append(*f.calls, "flush "+sid)
	return f.err
}

func withSession(req *http.Request) *http.Request {
	return req.WithContext(middlewares.WithSessionID(req.Context(), "s-9"))
}

func TestList_LimitHandling(t *testing.T) {
	cases := map[string]int{"": 10, "?limit=5": 5, "?limit=500": 50, "?limit=x": 10}
	for q, want := range cases {
		sto := &fakeStore{}
		rec := httptest.NewRecorder()
		handler.NewHandler(sto, nil, zap.NewNop()).List(rec, withSession(httptest.NewRequest(http.MethodGet, "/history"+q, nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("%q: want 200, got %d", q, rec.Code)
		}
		if sto.gotLimit != want || sto.gotSID != "s-9" {
			t.Fatalf("%q: got sid=%q limit=%d", q, sto.gotSID, sto.gotLimit)
		}
		if !strings.Contains(rec.Body.String(), `"crack_time":"35 days"`) {
			t.Fatalf("%q: unexpected body %s", q, rec.Body.String())
		}
	}
}

func TestList_StoreError(t *testing.T) {
	rec := httptest.NewRecorder()
	handler.NewHandler(&fakeStore{err: errors.New("down")}, nil, zap.NewNop()).
		List(rec, withSession(httptest.NewRequest(http.MethodGet, "/history", nil)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
}

func TestClear(t *testing.T) {
	sto := &fakeStore{}
	rec := httptest.NewRecorder()
	handler.NewHandler(sto, nil, zap.NewNop()).Clear(rec, withSession(httptest.NewRequest(http.MethodDelete, "/history", nil)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"deleted":3`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if sto.gotSID != "s-9" {
		t.Fatalf("cleared wrong session %q", sto.gotSID)
	}
}

func TestClear_FlushesQueuedEntriesFirst(t *testing.T) {
	for _, flushErr := range []error{nil, context.DeadlineExceeded} {
		var calls []string
		sto := &fakeStore{calls: &calls}
		rec := httptest.NewRecorder()
		handler.NewHandler(sto, fakePending{calls: &calls, err: flushErr}, zap.NewNop()).
			Clear(rec, withSession(httptest.NewRequest(http.MethodDelete, "/history", nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("flush err %v: want 200, got %d", flushErr, rec.Code)
		}
		if strings.Join(calls, ",") != "flush s-9,clear s-9" {
			t.Fatalf("flush err %v: unexpected call order %v", flushErr, calls)
		}
	}
}
