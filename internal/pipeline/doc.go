// Package pipeline implements the render and enhancement stages of the preview.
//
// Render turns Markdown into a sanitized HTML fragment with goldmark, sending
// fenced code blocks through a Highlighter (chroma by default). Enhance parses
// that fragment and wraps each code block with a copy button, exactly once.
//
// The package also composes standalone print pages and rewrites relative
// image paths for documents read from disk. Printing itself lives in the root
// mdpreview package, which drives headless Chrome.
package pipeline
