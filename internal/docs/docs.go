// Package docs renders the LLHD language reference served next to the
// playground.
package docs

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// maxSourceBytes bounds the downloaded markdown.
const maxSourceBytes = 4 << 20

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithXHTML()),
)

var page = template.Must(template.New("spec").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no">
<link rel="stylesheet" href="https://stackpath.bootstrapcdn.com/bootstrap/4.3.1/css/bootstrap.min.css" integrity="sha384-ggOyR0iXCbMQv3Xipma34MD+dH/1fQ784/j6cY/iJTQUOhcWr7x9JvoRxT2MZw1T" crossorigin="anonymous">
<link href="spec.css" rel="stylesheet">
<title>{{.Title}}</title>
</head>
<body>
	<div class="container">
		<div class="markdown-body">
			{{.Body}}
		</div>
	</div>
</body>
</html>
`))

// Fetch downloads the markdown source at url.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(data) > maxSourceBytes {
		return nil, fmt.Errorf("fetching %s: document larger than %d bytes", url, maxSourceBytes)
	}
	return data, nil
}

// Render converts markdown into a standalone HTML page. Headings get
// anchor IDs so sections can be linked.
func Render(source []byte, title string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert(source, &body); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	var out bytes.Buffer
	err := page.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{title, template.HTML(body.String())})
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return out.Bytes(), nil
}

// Build fetches the reference from url and writes the rendered page to
// output, replacing it atomically.
func Build(ctx context.Context, client *http.Client, url, output string) error {
	source, err := Fetch(ctx, client, url)
	if err != nil {
		return err
	}
	rendered, err := Render(source, "LLHD Language Reference")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(output), ".spec-*.html")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(rendered); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		return fmt.Errorf("replacing %s: %w", output, err)
	}
	return nil
}
