package vault

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Note is a markdown file split into YAML frontmatter and body. Daily logs
// usually have no frontmatter; generated summary notes carry one.
type Note struct {
	Path        string
	Frontmatter map[string]interface{}
	Content     string
}

// SummaryFrontmatter is the frontmatter written on generated summary notes.
type SummaryFrontmatter struct {
	Created    string `yaml:"created"`
	Type       string `yaml:"type"`
	RangeStart string `yaml:"range_start"`
	RangeEnd   string `yaml:"range_end"`
	Model      string `yaml:"model,omitempty"`
}

// ReadNote reads a markdown file and parses a leading frontmatter block if
// one is present.
func ReadNote(store Store, path string) (*Note, error) {
	raw, err := store.Read(path)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(raw, "\n")
	var fmLines, contentLines []string
	inFrontmatter := false
	fmClosed := false
	for i, line := range lines {
		if i == 0 && strings.TrimRight(line, "\r") == "---" {
			inFrontmatter = true
			continue
		}
		if inFrontmatter && !fmClosed {
			if strings.TrimRight(line, "\r") == "---" {
				fmClosed = true
				continue
			}
			fmLines = append(fmLines, line)
			continue
		}
		contentLines = append(contentLines, line)
	}
	// Unterminated frontmatter block: treat everything as content.
	if inFrontmatter && !fmClosed {
		contentLines = lines
		fmLines = nil
	}

	note := &Note{Path: path, Content: strings.Join(contentLines, "\n")}
	if len(fmLines) > 0 {
		if err := yaml.Unmarshal([]byte(strings.Join(fmLines, "\n")), &note.Frontmatter); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter of %s: %w", path, err)
		}
	}
	return note, nil
}

// WriteNote serializes a note back to the vault, frontmatter first.
func WriteNote(store Store, note *Note) error {
	content := note.Content
	if note.Frontmatter != nil {
		fmData, err := yaml.Marshal(note.Frontmatter)
		if err != nil {
			return fmt.Errorf("failed to marshal frontmatter: %w", err)
		}
		content = fmt.Sprintf("---\n%s---\n%s", string(fmData), note.Content)
	}
	return store.Write(note.Path, content)
}

// SanitizeFilename removes characters invalid in filenames.
func SanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, char := range invalid {
		name = strings.ReplaceAll(name, char, "-")
	}
	return name
}
