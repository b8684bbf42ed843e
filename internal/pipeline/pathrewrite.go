package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ResolveRelativeImages converts relative img[src] and a[href] paths in a
// preview fragment to absolute file:// URLs rooted at baseDir, so a fragment
// printed from a temp file still finds the images next to the imported document.
// If baseDir is empty, the fragment is returned unchanged.
//
// URLs, anchors, absolute paths and paths escaping baseDir are left alone.
func ResolveRelativeImages(fragment, baseDir string) (string, error) {
	if baseDir == "" {
		return fragment, nil
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	container, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}

	walk(container, func(n *html.Node) {
		switch n.DataAtom {
		case atom.Img:
			resolveAttr(n, "src", absBaseDir)
		case atom.A:
			resolveAttr(n, "href", absBaseDir)
		}
	})

	return renderChildren(container)
}

func resolveAttr(n *html.Node, key, baseDir string) {
	val, ok := getAttr(n, key)
	if !ok || !isRelativePath(val) {
		return
	}

	absPath := filepath.Join(baseDir, val)
	if !isPathUnderDir(absPath, baseDir) {
		return
	}
	setAttr(n, key, pathToFileURL(absPath))
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") || strings.HasPrefix(path, "//") {
		return false
	}
	if u, err := url.Parse(path); err == nil && u.Scheme != "" {
		return false
	}
	return !filepath.IsAbs(path)
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanDir := filepath.Clean(dir)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(filepath.Clean(absPath)+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absPath),
	}
	return u.String()
}
