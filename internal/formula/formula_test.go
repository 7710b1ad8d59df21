package formula

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFormula(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hello_world.rb")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write formula: %v", err)
	}
	return path
}

func TestExtractVersionClassLevel(t *testing.T) {
	path := writeFormula(t, "class HelloWorld < Formula\n  version \"1.2.3\"\nend\n")
	got, ok := ExtractVersion(path)
	if !ok || got != "1.2.3" {
		t.Fatalf("ExtractVersion = %q, %v", got, ok)
	}
}

func TestExtractVersionIgnoresDeepIndent(t *testing.T) {
	path := writeFormula(t, "class HelloWorld < Formula\n    version \"1.2.3\"\nend\n")
	if got, ok := ExtractVersion(path); ok {
		t.Fatalf("expected no version for four-space indent, got %q", got)
	}
}

func TestExtractVersionTagFallback(t *testing.T) {
	path := writeFormula(t, "class HelloWorld < Formula\n  head do\n    tag: \"v2.0.0\"\n  end\nend\n")
	got, ok := ExtractVersion(path)
	if !ok || got != "v2.0.0" {
		t.Fatalf("ExtractVersion = %q, %v", got, ok)
	}
}

func TestExtractVersionPrefersVersionOverTag(t *testing.T) {
	// Version wins regardless of relative order.
	cases := []string{
		"  version \"1.2.3\"\n  tag: \"v2.0.0\"\n",
		"  tag: \"v2.0.0\"\n  version \"1.2.3\"\n",
	}
	for _, content := range cases {
		path := writeFormula(t, content)
		if got, ok := ExtractVersion(path); !ok || got != "1.2.3" {
			t.Fatalf("content %q: ExtractVersion = %q, %v", content, got, ok)
		}
	}
}

func TestExtractVersionFirstTagOnly(t *testing.T) {
	path := writeFormula(t, "  tag: \"v1.0.0\"\n  tag: \"v2.0.0\"\n")
	got, ok := ExtractVersion(path)
	if !ok || got != "v1.0.0" {
		t.Fatalf("expected first tag, got %q, %v", got, ok)
	}
}

func TestExtractVersionMissingFile(t *testing.T) {
	if got, ok := ExtractVersion(filepath.Join(t.TempDir(), "missing.rb")); ok {
		t.Fatalf("expected no version for missing file, got %q", got)
	}
}

func TestExtractVersionNoMatch(t *testing.T) {
	path := writeFormula(t, "class HelloWorld < Formula\n  url \"https://example.com\"\nend\n")
	if got, ok := ExtractVersion(path); ok {
		t.Fatalf("expected no version, got %q", got)
	}
}

func TestCommitMessage(t *testing.T) {
	cases := []struct {
		name    string
		version string
		isNew   bool
		want    string
	}{
		{"hello_world", "1.2.3", true, "hello_world 1.2.3 (new formula)"},
		{"hello_world", "", true, "hello_world (new formula)"},
		{"hello_world", "1.2.3", false, "hello_world 1.2.3"},
		{"hello_world", "", false, "hello_world"},
	}
	for _, tc := range cases {
		if got := CommitMessage(tc.name, tc.version, tc.isNew); got != tc.want {
			t.Fatalf("CommitMessage(%q, %q, %v) = %q, want %q",
				tc.name, tc.version, tc.isNew, got, tc.want)
		}
	}
}

func TestValidate(t *testing.T) {
	path := writeFormula(t, "class HelloWorld < Formula\nend\n")
	if err := Validate(path); err != nil {
		t.Fatalf("Validate returned error for valid file: %v", err)
	}

	if err := Validate(filepath.Join(t.TempDir(), "missing.rb")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	if err := Validate(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory")
	}

	txt := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(txt, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := Validate(txt); err == nil {
		t.Fatalf("expected error for non-.rb file")
	}
}

func TestNameAndFirstLetter(t *testing.T) {
	if got := Name("/some/path/hello_world.rb"); got != "hello_world" {
		t.Fatalf("Name = %q", got)
	}
	if got := FirstLetter("/some/path/Hello_world.rb"); got != "h" {
		t.Fatalf("FirstLetter = %q", got)
	}
}
