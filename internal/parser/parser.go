// Package parser reads and writes the zettel file format and extracts
// zk@<id> references from text.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/zk/internal/apperr"
	"github.com/starford/zk/internal/models"
)

var (
	metadataRe = regexp.MustCompile(`^([\w-]+):(.*)$`)
	validIDRe  = regexp.MustCompile(`^[\w-]+$`)
	refRe      = regexp.MustCompile(`zk@([\w-]+)`)
)

// Result holds the output of parsing a zettel file.
type Result struct {
	Metadata models.Metadata
	Content  []string
	Body     string
	Refs     []string
	// Title is the "title" metadata value, empty when absent.
	Title string
}

// ValidateID checks that id is usable as a zettel ID (and file stem).
func ValidateID(id string) error {
	err := validation.Validate(id,
		validation.Required,
		validation.Match(validIDRe),
	)
	if err != nil {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidID, id)
	}
	return nil
}

// Parse splits raw zettel bytes into metadata header lines and content.
// Header lines are read until the first line that is not "key: value";
// that line and everything after it is content.
func Parse(data []byte) (*Result, error) {
	res := &Result{}
	r := bufio.NewReader(bytes.NewReader(data))

	inHeader := true
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if inHeader {
				if m := metadataRe.FindStringSubmatch(strings.TrimRight(line, "\r\n")); m != nil {
					res.Metadata.Set(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
				} else {
					inHeader = false
					res.Content = append(res.Content, line)
				}
			} else {
				res.Content = append(res.Content, line)
			}
		}
		if err != nil {
			break
		}
	}

	if title, ok := res.Metadata.Get("title"); ok {
		res.Title = title
		res.Metadata.Delete("title")
	}
	res.Body = strings.Join(res.Content, "")
	res.Refs = ExtractRefs(res.Body)
	return res, nil
}

// Load parses data as the zettel with the given id.
func Load(id string, data []byte) (*models.Zettel, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	res, err := Parse(data)
	if err != nil {
		return nil, err
	}
	title := res.Title
	if title == "" {
		title = id
	}
	return &models.Zettel{
		ID:       id,
		Title:    title,
		Metadata: res.Metadata,
		Content:  res.Content,
		Refs:     res.Refs,
	}, nil
}

// Render serialises z: title first, then the remaining metadata in order,
// then the content lines verbatim.
func Render(z *models.Zettel) []byte {
	var buf bytes.Buffer
	title := z.Title
	if title == "" {
		title = z.ID
	}
	fmt.Fprintf(&buf, "title: %s\n", title)
	for _, k := range z.Metadata.Keys {
		if k == "title" {
			continue
		}
		fmt.Fprintf(&buf, "%s: %s\n", k, z.Metadata.Values[k])
	}
	for _, line := range z.Content {
		buf.WriteString(line)
	}
	return buf.Bytes()
}

// ExtractRefs returns the deduplicated zk@<id> targets found in text.
func ExtractRefs(text string) []string {
	matches := refRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		id := m[1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// RewriteRefs replaces every zk@from reference in text with zk@to.
// References whose ID merely starts with from are left untouched.
func RewriteRefs(text, from, to string) (string, int) {
	n := 0
	out := refRe.ReplaceAllStringFunc(text, func(m string) string {
		if m[len("zk@"):] != from {
			return m
		}
		n++
		return "zk@" + to
	})
	return out, n
}
