package loader_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	langopts "github.com/goliatone/go-langopts"
	"github.com/goliatone/go-langopts/loader"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func fixedID(id string) loader.Option {
	return loader.WithIDGenerator(func() string { return id })
}

func TestLoadJSONSettings(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "settings.json", `{
  "editor.tabSize": 2,
  "inlineFold.regex": "class=\"(.*?)\"",
  "inlineFold.supportedLanguages": ["html"],
  "[vue]": {
    "inlineFold.regex": ":class=\"(.*?)\"",
    "editor.tabSize": 4
  },
  "[javascriptreact][typescriptreact]": {
    "inlineFold.maskChar": "*"
  }
}`)

	snapshot, err := loader.New(fixedID("snap-1")).Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snapshot.ID() != "snap-1" {
		t.Fatalf("expected snapshot id snap-1, got %q", snapshot.ID())
	}
	if got, _ := snapshot.Global(langopts.KeyRegex); got != `class="(.*?)"` {
		t.Fatalf("unexpected global regex %v", got)
	}
	if got, _ := snapshot.Language("vue", langopts.KeyRegex); got != `:class="(.*?)"` {
		t.Fatalf("unexpected vue regex %v", got)
	}
	for _, language := range []string{"javascriptreact", "typescriptreact"} {
		if got, ok := snapshot.Language(language, langopts.KeyMaskChar); !ok || got != "*" {
			t.Fatalf("expected %s mask char, got %v", language, got)
		}
	}
	languages := snapshot.Languages()
	if len(languages) != 3 {
		t.Fatalf("expected three language layers, got %v", languages)
	}
}

func TestLoadNestedYAMLAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	user := writeFile(t, dir, "user.yaml", `
inlineFold:
  regex: "a+"
  maskChar: "…"
  autoFold: true
"[go]":
  inlineFold:
    regexFlags: "g"
`)
	workspace := writeFile(t, dir, "workspace.yaml", `
inlineFold.regex: "b+"
"[go]":
  inlineFold.regexFlags: "gi"
`)

	snapshot, err := loader.Load(user, workspace)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, _ := snapshot.Global(langopts.KeyRegex); got != "b+" {
		t.Fatalf("expected workspace regex to win, got %v", got)
	}
	if got, _ := snapshot.Global(langopts.KeyMaskChar); got != "…" {
		t.Fatalf("expected user mask char kept, got %v", got)
	}
	if got, _ := snapshot.Global(langopts.KeyAutoFold); got != true {
		t.Fatalf("expected autoFold true, got %v", got)
	}
	if got, _ := snapshot.Language("go", langopts.KeyRegexFlags); got != "gi" {
		t.Fatalf("expected workspace go flags, got %v", got)
	}
}

func TestLoadDefaultsFile(t *testing.T) {
	dir := t.TempDir()
	defaults := writeFile(t, dir, "defaults.yaml", `
inlineFold.maskChar: "…"
inlineFold.regex: "d+"
"[markdown]":
  inlineFold.autoFold: false
`)
	user := writeFile(t, dir, "user.yaml", `inlineFold.regex: "u+"`)

	snapshot, err := loader.New(loader.WithDefaultsFile(defaults)).Load(user)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, _ := snapshot.Global(langopts.KeyRegex); got != "u+" {
		t.Fatalf("expected user regex, got %v", got)
	}
	if got, _ := snapshot.Global(langopts.KeyMaskChar); got != "…" {
		t.Fatalf("expected default mask char, got %v", got)
	}
	inspection := snapshot.Inspect(langopts.KeyMaskChar)
	if !inspection.Default || inspection.Global {
		t.Fatalf("expected mask char only in defaults, got %+v", inspection)
	}
	if _, ok := snapshot.Language("markdown", langopts.KeyAutoFold); !ok {
		t.Fatalf("expected markdown override from defaults file")
	}
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "settings.yaml", `
inlineFold.foldEverything: true
inlineFold.regex: "x"
files.exclude:
  node_modules: true
`)
	snapshot, err := loader.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if inspection := snapshot.Inspect(langopts.KeyRegex); !inspection.Global {
		t.Fatalf("expected regex loaded, got %+v", inspection)
	}
	layers := snapshot.Layers()
	if len(layers) != 1 || len(layers[0].Values) != 1 {
		t.Fatalf("expected one global layer with one key, got %+v", layers)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.json")

	if _, err := loader.Load(missing); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	present := writeFile(t, dir, "user.json", `{"inlineFold.regex": "x"}`)
	snapshot, err := loader.New(loader.WithSkipMissing()).Load(present, missing)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, _ := snapshot.Global(langopts.KeyRegex); got != "x" {
		t.Fatalf("unexpected regex %v", got)
	}

	if _, err := loader.Load(); !errors.Is(err, loader.ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
}

func TestLoadedSnapshotDrivesResolver(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "settings.json", `{
  "inlineFold.useGlobal": false,
  "inlineFold.supportedLanguages": ["python", "go"],
  "[go]": {"inlineFold.regex": "\\d+", "inlineFold.regexFlags": "g"}
}`)
	snapshot, err := loader.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	resolver := langopts.NewResolver(langopts.WithDocumentSource(langopts.NewActiveDocument("go")))
	resolver.Update(snapshot)

	pattern, err := resolver.Regex()
	if err != nil {
		t.Fatalf("regex: %v", err)
	}
	matches, err := pattern.FindAll("a1b22c333")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matches) != 3 || matches[2].Text != "333" {
		t.Fatalf("unexpected matches %+v", matches)
	}
	languages := resolver.SupportedLanguages()
	if len(languages) != 2 || languages[0] != "python" || languages[1] != "go" {
		t.Fatalf("unexpected languages %v", languages)
	}
}

func TestLoadNullLanguageOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "settings.json", `{
  "inlineFold.regex": "a+",
  "[go]": {"inlineFold.regex": null, "inlineFold.maskChar": "#"}
}`)
	snapshot, err := loader.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	resolver := langopts.NewResolver(langopts.WithDocumentSource(langopts.NewActiveDocument("go")))
	resolver.Update(snapshot)

	if got, ok := resolver.Get(langopts.KeyRegex); !ok || got != "a+" {
		t.Fatalf("expected global regex behind null override, got %v (found=%v)", got, ok)
	}
	pattern, err := resolver.Regex()
	if err != nil {
		t.Fatalf("regex: %v", err)
	}
	if pattern.Source != "a+" {
		t.Fatalf("unexpected pattern %s", pattern)
	}
	if got, _ := resolver.Get(langopts.KeyMaskChar); got != "#" {
		t.Fatalf("expected go mask char, got %v", got)
	}
}
