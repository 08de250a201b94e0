package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func Test_application_skills(t *testing.T) {
	var (
		ctx       = t.Context()
		_, client = newRegisteredClient(t)
		doc       *goquery.Document
		err       error
	)

	if doc, err = client.GetDoc(ctx, "/skills"); err != nil {
		t.Fatalf("Failed to get skills: %v", err)
	}
	tree := func() *goquery.Selection { return doc.Find("section#pull_mastery") }
	if got := doc.Find("section.skill-tree").Length(); got != 4 {
		t.Errorf("Expected 4 skill trees, got %d", got)
	}
	levels := tree().Find("li").Length()

	t.Run("Starts at level one", func(t *testing.T) {
		if got := tree().Find("li.unlocked").Length(); got != 1 {
			t.Errorf("Expected 1 unlocked level, got %d", got)
		}
		if got := tree().Find("li.next").Length(); got != 1 {
			t.Errorf("Expected 1 next level, got %d", got)
		}
	})

	t.Run("Unlock next level", func(t *testing.T) {
		if doc, err = client.SubmitForm(ctx, doc, "/skills/pull_mastery/unlock", nil); err != nil {
			t.Fatalf("Failed to unlock: %v", err)
		}
		if got := tree().Find("li.unlocked").Length(); got != 2 {
			t.Errorf("Expected 2 unlocked levels, got %d", got)
		}
		if got := doc.Find("section#flexibility_mastery li.unlocked").Length(); got != 1 {
			t.Errorf("Expected other trees to stay at level 1, got %d", got)
		}
	})

	t.Run("Mastered tree", func(t *testing.T) {
		for range levels - 2 {
			if doc, err = client.SubmitForm(ctx, doc, "/skills/pull_mastery/unlock", nil); err != nil {
				t.Fatalf("Failed to unlock: %v", err)
			}
		}
		if got := tree().Find("li.unlocked").Length(); got != levels {
			t.Errorf("Expected all %d levels unlocked, got %d", levels, got)
		}
		if !strings.Contains(tree().Text(), "Mastered") {
			t.Error("Expected the tree to be mastered")
		}
		_, err = client.PostForm(ctx, "/skills/pull_mastery/unlock", nil)
		if err == nil || !strings.Contains(err.Error(), "409") {
			t.Errorf("Expected status 409, got %v", err)
		}
	})

	t.Run("Unknown tree", func(t *testing.T) {
		resp, postErr := client.Post(ctx, "/skills/juggling/unlock", "application/x-www-form-urlencoded", nil)
		if postErr != nil {
			t.Fatalf("Failed to post: %v", postErr)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
		}
	})
}
