package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"foundry/internal/domain"
)

type recorded struct {
	method string
	uri    string
}

func TestResourcesRequestShapes(t *testing.T) {
	var mu sync.Mutex
	var got []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, recorded{method: r.Method, uri: r.URL.RequestURI()})
		mu.Unlock()
		switch {
		case r.Method == http.MethodDelete || r.URL.Path == "/api/auth/logout":
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/api/achievements/check":
			_, _ = w.Write([]byte(`{"newAchievements":[],"totalNew":0}`))
		case r.Method == http.MethodGet && r.URL.Path != "/api/profile" && r.URL.Path != "/api/auth/user":
			_, _ = w.Write([]byte(`[]`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	res := NewResources(newTestClient(t, srv.URL, "connect.sid=abc", time.Second))
	ctx := context.Background()
	done := true

	steps := []func() error{
		func() error { _, err := res.Protocols.ByDate(ctx, "2026-10-19"); return err },
		func() error { _, err := res.Protocols.Create(ctx, domain.ProtocolInput{Title: "Cold plunge", Date: "2026-10-19"}); return err },
		func() error { _, err := res.Protocols.Update(ctx, 3, domain.ProtocolPatch{Completed: &done}); return err },
		func() error { return res.Protocols.Delete(ctx, 3) },
		func() error { _, err := res.Bookings.List(ctx); return err },
		func() error { _, err := res.Bookings.UpdateStatus(ctx, 4, domain.BookingCancelled); return err },
		func() error { _, err := res.Metrics.Range(ctx, "2026-10-01", "2026-10-19"); return err },
		func() error { _, err := res.Metrics.Recent(ctx); return err },
		func() error { _, err := res.Achievements.Check(ctx); return err },
		func() error { _, err := res.Profile.Get(ctx); return err },
		func() error { return res.User.Logout(ctx) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	want := []recorded{
		{http.MethodGet, "/api/protocols/2026-10-19"},
		{http.MethodPost, "/api/protocols"},
		{http.MethodPatch, "/api/protocols/3"},
		{http.MethodDelete, "/api/protocols/3"},
		{http.MethodGet, "/api/bookings"},
		{http.MethodPatch, "/api/bookings/4"},
		{http.MethodGet, "/api/metrics?endDate=2026-10-19&startDate=2026-10-01"},
		{http.MethodGet, "/api/metrics/recent"},
		{http.MethodPost, "/api/achievements/check"},
		{http.MethodGet, "/api/profile"},
		{http.MethodPost, "/api/auth/logout"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d requests, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestResourcesPropagateErrorsUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Forbidden"}`))
	}))
	defer srv.Close()

	res := NewResources(newTestClient(t, srv.URL, "", time.Second))
	_, err := res.Achievements.Definitions(context.Background())
	if !IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected 403 RequestError, got %v", err)
	}
}
