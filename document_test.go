package langopts

import "testing"

func TestActiveDocument(t *testing.T) {
	doc := NewActiveDocument("")
	if _, ok := doc.ActiveLanguage(); ok {
		t.Fatalf("expected no active document")
	}
	doc.Set(" go ")
	if language, ok := doc.ActiveLanguage(); !ok || language != "go" {
		t.Fatalf("expected go, got %q ok=%v", language, ok)
	}
	doc.Clear()
	if _, ok := doc.ActiveLanguage(); ok {
		t.Fatalf("expected cleared document")
	}

	var missing *ActiveDocument
	if _, ok := missing.ActiveLanguage(); ok {
		t.Fatalf("nil document must report no language")
	}
}

func TestDocumentSourceFunc(t *testing.T) {
	r := NewResolver(WithDocumentSource(DocumentSourceFunc(func() (string, bool) {
		return "", true
	})))
	if _, ok := r.ActiveLanguage(); ok {
		t.Fatalf("empty language must be treated as no document")
	}

	r = NewResolver(WithDocumentSource(nil))
	if _, ok := r.ActiveLanguage(); ok {
		t.Fatalf("nil source must report no document")
	}
}

func TestLRUProgramCache(t *testing.T) {
	if _, err := NewLRUProgramCache(0); err == nil {
		t.Fatalf("expected invalid size to fail")
	}
	cache, err := NewLRUProgramCache(1)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	cache.Set("a", 1)
	cache.Set("b", 2)
	if _, ok := cache.Get("a"); ok {
		t.Fatalf("expected oldest entry evicted")
	}
	if value, ok := cache.Get("b"); !ok || value != 2 {
		t.Fatalf("expected b=2, got %v", value)
	}
}
