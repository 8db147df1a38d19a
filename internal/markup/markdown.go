package markup

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
)

// Markdown payloads are not markup trees themselves; they are rendered
// to HTML first and then go through the normal HTML parse path.

// IsMarkdown reports whether a payload should take the markdown bridge.
func IsMarkdown(contentType, rawURL string) bool {
	if contentType == "text/markdown" {
		return true
	}
	switch strings.ToLower(path.Ext(urlPath(rawURL))) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// RenderMarkdown converts markdown source to HTML.
func RenderMarkdown(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
