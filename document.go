package langopts

import (
	"strings"
	"sync"
)

// DocumentSource exposes the language of the document the user is editing.
type DocumentSource interface {
	// ActiveLanguage returns the active document's language identifier and
	// false when no document is active.
	ActiveLanguage() (string, bool)
}

// DocumentSourceFunc adapts a function to DocumentSource.
type DocumentSourceFunc func() (string, bool)

// ActiveLanguage implements DocumentSource.
func (f DocumentSourceFunc) ActiveLanguage() (string, bool) {
	if f == nil {
		return "", false
	}
	return f()
}

type noDocument struct{}

func (noDocument) ActiveLanguage() (string, bool) { return "", false }

// ActiveDocument is a DocumentSource the host updates as editors gain focus.
type ActiveDocument struct {
	mu       sync.RWMutex
	language string
	open     bool
}

// NewActiveDocument returns a source with language active. An empty
// language yields a source with no active document.
func NewActiveDocument(language string) *ActiveDocument {
	doc := &ActiveDocument{}
	doc.Set(language)
	return doc
}

// Set marks a document with language as active.
func (d *ActiveDocument) Set(language string) {
	language = strings.TrimSpace(language)
	d.mu.Lock()
	d.language = language
	d.open = language != ""
	d.mu.Unlock()
}

// Clear marks that no document is active.
func (d *ActiveDocument) Clear() {
	d.mu.Lock()
	d.language = ""
	d.open = false
	d.mu.Unlock()
}

func (d *ActiveDocument) ActiveLanguage() (string, bool) {
	if d == nil {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.language, d.open
}
