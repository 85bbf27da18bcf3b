package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lazypower/rhythm/internal/catalogue"
	"github.com/lazypower/rhythm/internal/curator"
	"github.com/lazypower/rhythm/internal/engine"
	"github.com/lazypower/rhythm/internal/model"
	"github.com/lazypower/rhythm/internal/rhythm"
	"github.com/lazypower/rhythm/internal/server"
	"github.com/lazypower/rhythm/internal/store"
)

func liveServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cat, err := catalogue.Default()
	if err != nil {
		t.Fatalf("catalogue.Default: %v", err)
	}
	cur, err := curator.New(cat, curator.WithChance(curator.NewSeededChance(7), 0))
	if err != nil {
		t.Fatalf("curator.New: %v", err)
	}
	eng := engine.New(db, rhythm.NewReader(db), cur, engine.Options{})

	ts := httptest.NewServer(server.New(eng, db, "test", nil))
	t.Cleanup(ts.Close)
	return ts
}

func TestNewRespectsEnv(t *testing.T) {
	t.Setenv("RHYTHM_URL", "http://example.test:1")
	if got := New("").serverURL; got != "http://example.test:1" {
		t.Errorf("serverURL = %q", got)
	}
	if got := New("http://explicit").serverURL; got != "http://explicit" {
		t.Errorf("explicit serverURL = %q", got)
	}
	t.Setenv("RHYTHM_URL", "")
	if got := New("").serverURL; got != defaultServerURL {
		t.Errorf("default serverURL = %q", got)
	}
}

func TestHealthyDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	if New(ts.URL).Healthy(context.Background()) {
		t.Error("Healthy = true for a 503")
	}
}

func TestStatusErrorCarriesMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "subject not found"})
	}))
	defer ts.Close()

	_, err := New(ts.URL).Practice(context.Background(), "ghost")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Code != http.StatusNotFound || se.Body != "subject not found" {
		t.Errorf("StatusError = %+v", se)
	}
	if se.Path != "/api/subjects/ghost/practice" {
		t.Errorf("Path = %q", se.Path)
	}
}

func TestCheckInRoundTrip(t *testing.T) {
	ts := liveServer(t)
	c := New(ts.URL)
	ctx := context.Background()

	if !c.Healthy(ctx) {
		t.Fatal("server not healthy")
	}
	if _, err := c.CreateSubject(ctx, model.Subject{ID: "s1", Primary: model.Warrior}); err != nil {
		t.Fatalf("CreateSubject: %v", err)
	}

	m, err := c.RecordMoment(ctx, "s1", model.Moment{Category: model.CategoryRitual, Essence: "cold plunge at dawn"})
	if err != nil {
		t.Fatalf("RecordMoment: %v", err)
	}
	if m.ID == "" || m.SubjectID != "s1" {
		t.Errorf("moment = %+v", m)
	}

	v, err := c.RecordState(ctx, "s1", model.StateVector{Clarity: 3, Peace: 3, Vitality: 2, Connection: 3, Purpose: 3})
	if err != nil {
		t.Fatalf("RecordState: %v", err)
	}
	if v.RecordedAt.IsZero() {
		t.Error("RecordedAt not set")
	}

	rp, err := c.Rhythm(ctx, "s1")
	if err != nil {
		t.Fatalf("Rhythm: %v", err)
	}
	if rp.Energy.Trend != model.TrendDescending {
		t.Errorf("Trend = %q, want descending", rp.Energy.Trend)
	}

	p, err := c.Practice(ctx, "s1")
	if err != nil {
		t.Fatalf("Practice: %v", err)
	}
	if p.Energy == model.EnergyHigh {
		t.Errorf("low state got high energy practice %q", p.ID)
	}

	digest, err := c.Digest(ctx, "s1")
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if digest == "" {
		t.Error("empty digest")
	}
}

func TestRecordStateRejected(t *testing.T) {
	ts := liveServer(t)
	c := New(ts.URL)
	ctx := context.Background()
	if _, err := c.CreateSubject(ctx, model.Subject{ID: "s1", Primary: model.Sage}); err != nil {
		t.Fatal(err)
	}

	_, err := c.RecordState(ctx, "s1", model.StateVector{Clarity: 0, Peace: 5, Vitality: 5, Connection: 5, Purpose: 5})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Errorf("err = %v, want 400", err)
	}
}
