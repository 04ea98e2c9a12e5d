package docs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = "# LLHD\n\n## Types\n\nThe `i32` type.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"

func TestRender(t *testing.T) {
	out, err := Render([]byte(sample), "Reference")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		"<title>Reference</title>",
		`<h2 id="types">Types</h2>`,
		"<code>i32</code>",
		"<table>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRender_EscapesTitle(t *testing.T) {
	out, err := Render([]byte("x"), "<script>")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "<title><script>") {
		t.Error("title was not escaped")
	}
}

func TestBuild(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/LANGUAGE.md" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sample))
	}))
	defer ts.Close()

	output := filepath.Join(t.TempDir(), "spec.html")
	if err := Build(context.Background(), ts.Client(), ts.URL+"/LANGUAGE.md", output); err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `<h1 id="llhd">LLHD</h1>`) {
		t.Errorf("unexpected output:\n%s", data)
	}

	err = Build(context.Background(), ts.Client(), ts.URL+"/missing.md", output)
	if err == nil || !strings.Contains(err.Error(), "unexpected status") {
		t.Errorf("err = %v, want status error", err)
	}
}
