package render

import (
	"bytes"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

// Markdown renders doc through the HTML presenter and converts the page to
// GitHub-flavored Markdown.
func Markdown(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := HTML(&buf, doc); err != nil {
		return "", err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	// The page title and stylesheet have no Markdown form.
	converter.Remove("head", "style")

	out, err := converter.ConvertString(buf.String())
	if err != nil {
		return "", fmt.Errorf("failed to convert report to markdown: %w", err)
	}
	return strings.TrimSpace(out) + "\n", nil
}
