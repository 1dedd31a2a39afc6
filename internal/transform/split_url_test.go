package transform

import (
	"testing"
	"time"

	"github.com/awgo/awserver/internal/models"
)

func TestSplitURLEvent(t *testing.T) {
	e := models.Event{
		Timestamp: mustTime(t, "2000-01-01T00:00:01Z"),
		Duration:  time.Second,
		Data:      map[string]any{"url": "http://www.google.com/path?query=1"},
	}
	res := SplitURLEvent(e)
	if res.Data["$protocol"] != "http" {
		t.Fatalf("expected protocol http, got %v", res.Data["$protocol"])
	}
	if res.Data["$domain"] != "google.com" {
		t.Fatalf("expected domain google.com, got %v", res.Data["$domain"])
	}
	if res.Data["$path"] != "/path" {
		t.Fatalf("expected path /path, got %v", res.Data["$path"])
	}
	if res.Data["$params"] != "query=1" {
		t.Fatalf("expected params query=1, got %v", res.Data["$params"])
	}
}

func TestSplitURLEventNoURL(t *testing.T) {
	e := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:01Z"), Data: map[string]any{"title": "no url here"}}
	res := SplitURLEvent(e)
	if _, ok := res.Data["$protocol"]; ok {
		t.Fatalf("expected event without url to pass through unchanged")
	}
}
