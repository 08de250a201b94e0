package main

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func Test_application_weekAdvance(t *testing.T) {
	var (
		ctx       = t.Context()
		_, client = newRegisteredClient(t)
		doc       *goquery.Document
		err       error
	)

	if _, err = client.PostForm(ctx, "/entries/mon-m1/actual", url.Values{"actual": {"3x12"}}); err != nil {
		t.Fatalf("Failed to save actual: %v", err)
	}
	if _, err = client.PostForm(ctx, "/entries/mon-m1/intensity", url.Values{"intensity": {"7"}}); err != nil {
		t.Fatalf("Failed to set intensity: %v", err)
	}

	t.Run("Confirming requires a preview", func(t *testing.T) {
		resp, postErr := client.Post(ctx, "/week/advance", "application/x-www-form-urlencoded", nil)
		if postErr != nil {
			t.Fatalf("Failed to post: %v", postErr)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("Expected status %d, got %d", http.StatusConflict, resp.StatusCode)
		}
	})

	t.Run("Edits discard the preview", func(t *testing.T) {
		if _, err = client.GetDoc(ctx, "/week/advance"); err != nil {
			t.Fatalf("Failed to preview: %v", err)
		}
		if _, err = client.PostForm(ctx, "/entries/mon-m2/complete", nil); err != nil {
			t.Fatalf("Failed to complete entry: %v", err)
		}
		_, err = client.PostForm(ctx, "/week/advance", nil)
		if err == nil || !strings.Contains(err.Error(), "409") {
			t.Errorf("Expected status 409, got %v", err)
		}
	})

	t.Run("Preview", func(t *testing.T) {
		if doc, err = client.GetDoc(ctx, "/week/advance"); err != nil {
			t.Fatalf("Failed to preview: %v", err)
		}
		if got := doc.Find("h1").Text(); got != "Finish week 1" {
			t.Errorf("Unexpected heading %q", got)
		}
		if got := doc.Find("pre.confirmation").Text(); !strings.HasPrefix(got, "Ready for Week 2?") {
			t.Errorf("Unexpected confirmation %q", got)
		}
	})

	t.Run("Reloading keeps the preview", func(t *testing.T) {
		first := doc.Find("pre.confirmation").Text()
		for range 3 {
			reloaded, getErr := client.GetDoc(ctx, "/week/advance")
			if getErr != nil {
				t.Fatalf("Failed to reload preview: %v", getErr)
			}
			if got := reloaded.Find("pre.confirmation").Text(); got != first {
				t.Errorf("Preview changed on reload:\nfirst: %q\ngot:   %q", first, got)
			}
			doc = reloaded
		}
	})

	t.Run("Confirm", func(t *testing.T) {
		if doc, err = client.SubmitForm(ctx, doc, "/week/advance", nil); err != nil {
			t.Fatalf("Failed to advance: %v", err)
		}
		if got := strings.TrimSpace(doc.Find("h1").Text()); got != "Week 2" {
			t.Errorf("Expected Week 2, got %q", got)
		}
	})

	t.Run("Weekly state is reset", func(t *testing.T) {
		if doc, err = client.GetDoc(ctx, "/days/monday"); err != nil {
			t.Fatalf("Failed to get day: %v", err)
		}
		e := entry(doc, "mon-m1")
		if e.HasClass("completed") {
			t.Error("Expected entry to be open in the new week")
		}
		if got, _ := e.Find("input[name=actual]").Attr("value"); got != "" {
			t.Errorf("Expected actual to be cleared, got %q", got)
		}
		if got := e.Find(".last-week").Text(); got != "Last week: 3x12" {
			t.Errorf("Unexpected last week text %q", got)
		}
	})

	t.Run("History holds the performance", func(t *testing.T) {
		if doc, err = client.GetDoc(ctx, "/history"); err != nil {
			t.Fatalf("Failed to get history: %v", err)
		}
		ledger := doc.Find("h3:contains('Incline Push-ups') + ul.history")
		if got := ledger.Find("li").Length(); got != 1 {
			t.Fatalf("Expected one history record, got %d", got)
		}
		if got := ledger.Find("li").Text(); !strings.HasSuffix(got, ": 3x12 (RPE 7)") {
			t.Errorf("Unexpected history record %q", got)
		}
	})
}
