package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	langopts "github.com/goliatone/go-langopts"
)

const settingsFixture = `{
  "inlineFold.regex": "(class)=\"(.*?)\"",
  "inlineFold.regexGroup": 2,
  "inlineFold.maskChar": "…",
  "inlineFold.supportedLanguages": ["html"],
  "[vue]": {
    "inlineFold.regexFlags": "g",
    "inlineFold.maskChar": "*"
  }
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(settingsFixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--settings", path, "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestGetCommand(t *testing.T) {
	out, err := run(t, "get", "maskChar")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.TrimSpace(out) != `"…"` {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = run(t, "--language", "vue", "get", "inlineFold.maskChar")
	if err != nil {
		t.Fatalf("get vue: %v", err)
	}
	if strings.TrimSpace(out) != `"*"` {
		t.Fatalf("unexpected vue output %q", out)
	}

	if _, err := run(t, "get", "after"); !errors.Is(err, langopts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := run(t, "get", "nope"); !errors.Is(err, langopts.ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}

func TestLanguagesCommand(t *testing.T) {
	out, err := run(t, "languages")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	if out != "html\nvue\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRegexCommand(t *testing.T) {
	out, err := run(t, "--language", "vue", "regex", `<a class="x"></a><b class="y">`)
	if err != nil {
		t.Fatalf("regex: %v", err)
	}
	var report regexReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if report.Pattern != `/(class)="(.*?)"/g` {
		t.Fatalf("unexpected pattern %q", report.Pattern)
	}
	if len(report.Inputs) != 1 || len(report.Inputs[0].Matches) != 2 {
		t.Fatalf("unexpected matches %+v", report.Inputs)
	}
	group, ok := report.Inputs[0].Matches[1].Group(2)
	if !ok || group.Text != "y" {
		t.Fatalf("unexpected group %+v", group)
	}
}

func TestTraceAndEffectiveCommands(t *testing.T) {
	out, err := run(t, "--language", "vue", "trace", "maskChar")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	trace, err := langopts.TraceFromJSON([]byte(out))
	if err != nil {
		t.Fatalf("decode trace: %v", err)
	}
	winner, ok := trace.Winner()
	if !ok || winner.Scope.Name() != "language:vue" || winner.Value != "*" {
		t.Fatalf("unexpected winner %+v", winner)
	}

	out, err = run(t, "--language", "vue", "effective")
	if err != nil {
		t.Fatalf("effective: %v", err)
	}
	var settings langopts.Settings
	if err := json.Unmarshal([]byte(out), &settings); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if settings.RegexGroup != 2 || settings.MaskChar != "*" || settings.Language != "vue" {
		t.Fatalf("unexpected settings %+v", settings)
	}
}

func TestEvalCommand(t *testing.T) {
	out, err := run(t, "--language", "vue", "eval", `maskChar + ":" + language`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if strings.TrimSpace(out) != `"*:vue"` {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = run(t, "eval", "--engine", "cel", `regexGroup == 2.0`)
	if err != nil {
		t.Fatalf("eval cel: %v", err)
	}
	if strings.TrimSpace(out) != "true" {
		t.Fatalf("unexpected cel output %q", out)
	}

	if _, err := run(t, "eval", "--engine", "lua", "1"); err == nil {
		t.Fatalf("expected unknown engine error")
	}
}

func TestSchemaCommand(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"schema", "--format", "descriptors"})
	if err := root.Execute(); err != nil {
		t.Fatalf("schema: %v", err)
	}
	var descriptors []langopts.FieldDescriptor
	if err := json.Unmarshal(out.Bytes(), &descriptors); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(descriptors) != len(langopts.Keys())-1 {
		t.Fatalf("expected every key but the section, got %d", len(descriptors))
	}
}

func TestCommandsRequireSettings(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"languages"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error without settings files")
	}
}
