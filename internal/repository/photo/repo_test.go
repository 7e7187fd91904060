package photo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	domphoto "github.com/kailas-cloud/photosearch/internal/domain/photo"
)

func testPhoto(t *testing.T) domphoto.Photo {
	t.Helper()
	p, err := domphoto.New(domphoto.Upload{
		Bucket:    "my-photos",
		Key:       "dogs/rex.jpg",
		EventTime: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}, []string{"Dog", "Pet"})
	if err != nil {
		t.Fatalf("photo.New: %v", err)
	}
	return p
}

func TestCreate_WritesSchema(t *testing.T) {
	var gotIndex, gotID string
	var gotDoc map[string]any
	ms := &mockStore{indexFn: func(_ context.Context, index, id string, body []byte) (int, error) {
		gotIndex, gotID = index, id
		if err := json.Unmarshal(body, &gotDoc); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return 201, nil
	}}

	status, err := New(ms, "photos").Create(context.Background(), testPhoto(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != 201 {
		t.Errorf("status: got %d", status)
	}
	if gotIndex != "photos" {
		t.Errorf("index: got %q", gotIndex)
	}
	if gotID != "" {
		t.Errorf("expected index-assigned id, got %q", gotID)
	}
	if gotDoc["objectKey"] != "dogs/rex.jpg" || gotDoc["bucket"] != "my-photos" {
		t.Errorf("unexpected doc: %v", gotDoc)
	}
	if gotDoc["createdTimestamp"] != "2024-03-01T12:00:00.000Z" {
		t.Errorf("createdTimestamp: got %v", gotDoc["createdTimestamp"])
	}
	labels, ok := gotDoc["labels"].([]any)
	if !ok || len(labels) != 2 || labels[0] != "Dog" {
		t.Errorf("labels: got %v", gotDoc["labels"])
	}
}

func TestCreate_Idempotent(t *testing.T) {
	var gotID string
	ms := &mockStore{indexFn: func(_ context.Context, _, id string, _ []byte) (int, error) {
		gotID = id
		return 200, nil
	}}

	status, err := New(ms, "photos").WithIdempotentWrites(true).Create(context.Background(), testPhoto(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != 200 {
		t.Errorf("status: got %d", status)
	}
	if gotID != "9282c3552c377bf3b7c24672f60a752770988a93d65fd88b3a95a43161e5464f" {
		t.Errorf("id: got %q", gotID)
	}
}

func TestCreate_StoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	ms := &mockStore{indexFn: func(context.Context, string, string, []byte) (int, error) {
		return 0, storeErr
	}}

	_, err := New(ms, "photos").Create(context.Background(), testPhoto(t))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func sources(raw ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(raw))
	for _, r := range raw {
		out = append(out, json.RawMessage(r))
	}
	return out
}

func TestSearchByLabels_QueryShape(t *testing.T) {
	var gotBody string
	ms := &mockStore{searchFn: func(_ context.Context, _ string, body []byte) ([]json.RawMessage, error) {
		gotBody = string(body)
		return nil, nil
	}}

	if _, err := New(ms, "photos").SearchByLabels(context.Background(), "dog"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"query":{"multi_match":{"query":"dog","fields":["labels"]}}}`
	if gotBody != want {
		t.Errorf("query body:\ngot:  %s\nwant: %s", gotBody, want)
	}
}

func TestSearchByLabels_ParsesHits(t *testing.T) {
	ms := &mockStore{searchFn: func(context.Context, string, []byte) ([]json.RawMessage, error) {
		return sources(
			`{"objectKey":"a.jpg","bucket":"b","labels":["Dog"]}`,
			`{"bucket":"b","labels":["Dog"]}`,
			`{"objectKey":"c.jpg","labels":["Dog","Grass"]}`,
		), nil
	}}

	hits, err := New(ms, "photos").SearchByLabels(context.Background(), "dog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].ObjectKey() != "a.jpg" || hits[1].ObjectKey() != "" || hits[2].ObjectKey() != "c.jpg" {
		t.Errorf("unexpected order or keys: %q %q %q", hits[0].ObjectKey(), hits[1].ObjectKey(), hits[2].ObjectKey())
	}
	if len(hits[2].Labels()) != 2 {
		t.Errorf("labels: got %v", hits[2].Labels())
	}
}

func TestSearchByLabels_SkipsUndecodableHits(t *testing.T) {
	ms := &mockStore{searchFn: func(context.Context, string, []byte) ([]json.RawMessage, error) {
		return sources(
			`{"objectKey":7,"labels":["Dog"]}`,
			`{"objectKey":"good.jpg","labels":["Dog"]}`,
			`{"objectKey":"x.jpg","labels":"Dog"}`,
			`<html>`,
		), nil
	}}

	hits, err := New(ms, "photos").WithLogger(zap.NewNop()).SearchByLabels(context.Background(), "dog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].ObjectKey() != "good.jpg" {
		t.Errorf("objectKey: got %q", hits[0].ObjectKey())
	}
}

func TestSearchByLabels_NoHits(t *testing.T) {
	hits, err := New(&mockStore{}, "photos").SearchByLabels(context.Background(), "dog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestSearchByLabels_StoreError(t *testing.T) {
	storeErr := errors.New("timeout")
	ms := &mockStore{searchFn: func(context.Context, string, []byte) ([]json.RawMessage, error) {
		return nil, storeErr
	}}

	if _, err := New(ms, "photos").SearchByLabels(context.Background(), "dog"); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
