package corpus

import (
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Source types accepted for curriculum documents.
const (
	SourceCourseNote      = "course-note"
	SourceWorkedExercise  = "worked-exercise"
	SourcePastExam        = "past-exam"
	SourceTextbookExcerpt = "textbook-excerpt"
)

// Document is one unit of curriculum content, read from a YAML file at
// ingestion time. It is never persisted as-is; it only exists as the input
// that produces chunks.
type Document struct {
	SourceType string            `yaml:"sourceType"`
	Subject    string            `yaml:"subject"`
	Grade      string            `yaml:"grade"`
	Chapter    string            `yaml:"chapter"`
	Title      string            `yaml:"title"`
	Content    string            `yaml:"content"`
	Metadata   map[string]string `yaml:"metadata"`
}

// Validate checks that all required fields are present and well-formed.
func (d Document) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.SourceType, validation.Required,
			validation.In(SourceCourseNote, SourceWorkedExercise, SourcePastExam, SourceTextbookExcerpt)),
		validation.Field(&d.Subject, validation.Required),
		validation.Field(&d.Grade, validation.Required),
		validation.Field(&d.Title, validation.Required),
		validation.Field(&d.Content, validation.Required),
	)
}

// IdentityKey returns the stable identity of the document: the tuple
// (sourceType, subject, grade, title, chapter). Two files carrying the same
// tuple describe the same document.
func (d Document) IdentityKey() string {
	return strings.Join([]string{d.SourceType, d.Subject, d.Grade, d.Title, d.Chapter}, "\x1f")
}

// LoadDocument reads and validates a document file. A file that cannot be
// parsed or fails validation is an error; ingestion treats it as fatal to the
// whole run.
func LoadDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document %s: %w", path, err)
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document %s: %w", path, err)
	}

	return &doc, nil
}
