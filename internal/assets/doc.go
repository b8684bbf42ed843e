// Package assets provides the stylesheets, the editor page template and the
// sample document used by the preview.
//
// Assets live in one tree layout, either compiled in or in a directory
// chosen with --asset-path:
//
//	styles/{name}.css       markdown.css, print.css, editor.css
//	templates/{name}.html   editor.html
//
// Open layers a directory over the embedded tree, so a user can replace one
// stylesheet and keep the others. Names are a single path element, and
// directory reads go through os.Root, which refuses paths and symlinks that
// leave the directory.
package assets
