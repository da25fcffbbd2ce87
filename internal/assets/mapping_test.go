package assets

import (
	"strings"
	"testing"
)

func TestMapping_MergeAccumulates(t *testing.T) {
	m := NewMapping("https://origin/a.webp", &Upload{
		SiteURLs: map[string]string{"site-1": "https://s1/a.webp"},
	})
	m.Merge(NewMapping("https://origin/b.webp", &Upload{
		SiteURLs: map[string]string{
			"site-1": "https://s1/b.webp",
			"site-2": "https://s2/b.webp",
		},
	}))

	if m["site-1"]["https://origin/a.webp"] != "https://s1/a.webp" {
		t.Error("merge lost the earlier mapping for site-1")
	}
	if m["site-1"]["https://origin/b.webp"] != "https://s1/b.webp" {
		t.Error("merge did not add the new mapping for site-1")
	}
	if m["site-2"]["https://origin/b.webp"] != "https://s2/b.webp" {
		t.Error("merge did not add site-2")
	}
}

func TestMapping_RewriteBody(t *testing.T) {
	m := Mapping{"site-1": {"https://origin/a.webp": "https://s1/a.webp"}}

	body := `<p><img src="https://origin/a.webp"><img src="https://origin/unmapped.webp"></p>`
	got := m.RewriteBody("site-1", body)

	if !strings.Contains(got, "https://s1/a.webp") {
		t.Error("mapped URL was not rewritten")
	}
	if !strings.Contains(got, "https://origin/unmapped.webp") {
		t.Error("unmapped URL should pass through unchanged")
	}
	if got2 := m.RewriteBody("site-without-replicas", body); got2 != body {
		t.Error("site without replicas must get the body unchanged")
	}
}

func TestMapping_RewriteList(t *testing.T) {
	m := Mapping{"site-1": {"https://origin/a.webp": "https://s1/a.webp"}}

	got := m.RewriteList("site-1", []string{"https://origin/a.webp", "https://origin/b.webp"})
	want := []string{"https://s1/a.webp", "https://origin/b.webp"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestObjectKey(t *testing.T) {
	key := objectKey("My Hero Image (final).WEBP")
	if !strings.HasPrefix(key, "images/") {
		t.Errorf("key %q should live under images/", key)
	}
	if !strings.HasSuffix(key, ".webp") {
		t.Errorf("key %q should keep a lowercased extension", key)
	}
	if strings.Contains(key, " ") || strings.Contains(key, "(") {
		t.Errorf("key %q should be sanitized", key)
	}
	if other := objectKey("My Hero Image (final).WEBP"); other == key {
		t.Error("keys for identical filenames must not collide")
	}
}
