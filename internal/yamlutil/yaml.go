// Package yamlutil wraps github.com/goccy/go-yaml for config files and
// Markdown front matter.
package yamlutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrEmptyInput     = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

const frontMatterFence = "---"

func checkInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmptyInput
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

func decode(data []byte, v any, opts ...yaml.DecodeOption) error {
	if err := checkInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, opts...); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// Unmarshal decodes data into v, ignoring unknown fields.
func Unmarshal(data []byte, v any) error {
	return decode(data, v)
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	return decode(data, v, yaml.Strict())
}

// Marshal encodes v with two-space indentation.
func Marshal(v any) ([]byte, error) {
	out, err := yaml.MarshalWithOptions(v, yaml.Indent(2))
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return out, nil
}

// SplitFrontMatter separates a leading YAML block delimited by "---" lines
// from the Markdown body. ok is false when the source has no closed block,
// in which case body is the source unchanged.
func SplitFrontMatter(source string) (front []byte, body string, ok bool) {
	src := strings.ReplaceAll(source, "\r\n", "\n")
	if !strings.HasPrefix(src, frontMatterFence+"\n") {
		return nil, source, false
	}

	rest := src[len(frontMatterFence)+1:]
	offset := 0
	for offset <= len(rest) {
		end := strings.IndexByte(rest[offset:], '\n')
		line := rest[offset:]
		if end >= 0 {
			line = rest[offset : offset+end]
		}
		if line == frontMatterFence || line == "..." {
			after := ""
			if end >= 0 {
				after = rest[offset+end+1:]
			}
			return []byte(rest[:offset]), after, true
		}
		if end < 0 {
			break
		}
		offset += end + 1
	}
	return nil, source, false
}

// FrontMatter decodes the front matter of source into v and returns the body.
// A source without front matter leaves v untouched and returns no error.
func FrontMatter(source string, v any) (string, error) {
	front, body, ok := SplitFrontMatter(source)
	if !ok || len(strings.TrimSpace(string(front))) == 0 {
		return body, nil
	}
	if err := Unmarshal(front, v); err != nil {
		return source, err
	}
	return body, nil
}
