package mdpreview

import (
	"path/filepath"
	"strings"

	"github.com/alnah/go-mdpreview/internal/yamlutil"
)

const defaultTitle = "Document"

// DocumentTitle picks a title for a printed page: the front matter title,
// then the first level-one ATX heading, then the file name without its
// extension.
func DocumentTitle(name, source string) string {
	var meta struct {
		Title string `yaml:"title"`
	}
	body, err := yamlutil.FrontMatter(source, &meta)
	if err == nil && strings.TrimSpace(meta.Title) != "" {
		return strings.TrimSpace(meta.Title)
	}

	if heading := firstHeading(body); heading != "" {
		return heading
	}

	if base := filepath.Base(name); name != "" && base != "." {
		if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
			return stem
		}
	}
	return defaultTitle
}

func firstHeading(source string) string {
	inFence := false
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.HasPrefix(trimmed, "# ") {
			continue
		}
		heading := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(trimmed[2:]), "#"))
		if heading != "" {
			return heading
		}
	}
	return ""
}
