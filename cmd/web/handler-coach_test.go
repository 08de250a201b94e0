package main

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func Test_application_coach(t *testing.T) {
	var (
		ctx       = t.Context()
		_, client = newRegisteredClient(t)
		doc       *goquery.Document
		err       error
	)

	if doc, err = client.GetDoc(ctx, "/coach"); err != nil {
		t.Fatalf("Failed to get coach: %v", err)
	}

	t.Run("Empty conversation", func(t *testing.T) {
		if got := doc.Find(".transcript h2").Text(); got != "Week 1" {
			t.Errorf("Expected Week 1, got %q", got)
		}
		if doc.Find(".message").Length() != 0 {
			t.Error("Expected no messages")
		}
		if got := doc.Find(".analysis").Text(); got != "Need at least 4 weeks of chat history to detect patterns." {
			t.Errorf("Unexpected analysis %q", got)
		}
	})

	t.Run("Offline coach answers with a notice", func(t *testing.T) {
		doc, err = client.SubmitForm(ctx, doc, "/coach", map[string]string{"Message": "My knee hurt after squats"})
		if err != nil {
			t.Fatalf("Failed to send message: %v", err)
		}
		if got := strings.TrimSpace(doc.Find(".message.user").Text()); got != "My knee hurt after squats" {
			t.Errorf("Unexpected user message %q", got)
		}
		model := doc.Find(".message.model p")
		if got := model.Text(); got != "Coach unavailable: no API key configured." {
			t.Errorf("Unexpected model message %q", got)
		}
	})

	t.Run("Blank messages are ignored", func(t *testing.T) {
		if doc, err = client.SubmitForm(ctx, doc, "/coach", map[string]string{"Message": "   "}); err != nil {
			t.Fatalf("Failed to send message: %v", err)
		}
		if got := doc.Find(".message").Length(); got != 2 {
			t.Errorf("Expected 2 messages, got %d", got)
		}
	})

	t.Run("Conversation moves to the past after a week advance", func(t *testing.T) {
		if doc, err = client.GetDoc(ctx, "/week/advance"); err != nil {
			t.Fatalf("Failed to preview advance: %v", err)
		}
		if _, err = client.SubmitForm(ctx, doc, "/week/advance", nil); err != nil {
			t.Fatalf("Failed to advance: %v", err)
		}
		if doc, err = client.GetDoc(ctx, "/coach"); err != nil {
			t.Fatalf("Failed to get coach: %v", err)
		}
		if got := doc.Find(".transcript h2").Text(); got != "Week 2" {
			t.Errorf("Expected Week 2, got %q", got)
		}
		past := doc.Find("details.past-week")
		if got := past.Find("summary").Text(); got != "Week 1" {
			t.Errorf("Expected Week 1 in the past weeks, got %q", got)
		}
		if got := past.Find(".message").Length(); got != 2 {
			t.Errorf("Expected 2 past messages, got %d", got)
		}
	})
}
