// Package importer loads question banks into the store: seed files in JSON
// or YAML, and legacy SQLite databases from the original practice bot.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/korjavin/gkentei/models"
)

// Seed is a question bank ready to be applied to a store
type Seed struct {
	Categories []models.CategoryInput `json:"categories" yaml:"categories"`
	Questions  []models.QuestionInput `json:"questions" yaml:"questions"`
}

// Format is a seed file encoding
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatFor picks the format from a file extension
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unsupported seed file extension %q", filepath.Ext(path))
	}
}

// LoadFile reads and validates a seed file
func LoadFile(path string) (*Seed, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seed, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seed, nil
}

// Parse decodes a seed and validates every record
func Parse(r io.Reader, format Format) (*Seed, error) {
	var seed Seed
	switch format {
	case JSON:
		if err := json.NewDecoder(r).Decode(&seed); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&seed); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate checks every record and reports all failures at once
func (s *Seed) Validate() error {
	var errs *multierror.Error
	for i, c := range s.Categories {
		if err := c.Validate(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("category %d: %w", i, err))
		}
	}
	seen := make(map[string]int, len(s.Questions))
	for i, q := range s.Questions {
		if err := q.Validate(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("question %d: %w", i, err))
			continue
		}
		key := strings.TrimSpace(q.Category) + "\x00" + strings.TrimSpace(q.Question)
		if prev, dup := seen[key]; dup {
			errs = multierror.Append(errs, fmt.Errorf("question %d: duplicate of question %d", i, prev))
			continue
		}
		seen[key] = i
	}
	return errs.ErrorOrNil()
}

// Sink receives seeded records. *database.DB implements it.
type Sink interface {
	UpsertCategory(ctx context.Context, in models.CategoryInput) (models.Category, error)
	UpsertQuestion(ctx context.Context, in models.QuestionInput) (models.Question, error)
}

// Stats counts applied records
type Stats struct {
	Categories int
	Questions  int
}

// Apply upserts the seed into sink. Categories used by questions but not
// listed in the seed are created with an empty topic.
func Apply(ctx context.Context, sink Sink, seed *Seed, source string) (Stats, error) {
	var stats Stats

	listed := make(map[string]bool, len(seed.Categories))
	for _, c := range seed.Categories {
		if _, err := sink.UpsertCategory(ctx, c); err != nil {
			return stats, fmt.Errorf("category %q: %w", c.Name, err)
		}
		listed[strings.TrimSpace(c.Name)] = true
		stats.Categories++
	}

	for _, q := range seed.Questions {
		name := strings.TrimSpace(q.Category)
		if !listed[name] {
			if _, err := sink.UpsertCategory(ctx, models.CategoryInput{Name: name}); err != nil {
				return stats, fmt.Errorf("category %q: %w", name, err)
			}
			listed[name] = true
			stats.Categories++
		}
		if q.Source == "" {
			q.Source = source
		}
		if _, err := sink.UpsertQuestion(ctx, q); err != nil {
			return stats, fmt.Errorf("question %q: %w", shorten(q.Question), err)
		}
		stats.Questions++
	}

	slog.Info("Seed applied",
		slog.String("source", source),
		slog.Int("categories", stats.Categories),
		slog.Int("questions", stats.Questions))
	return stats, nil
}

func shorten(s string) string {
	r := []rune(s)
	if len(r) <= 40 {
		return s
	}
	return string(r[:37]) + "..."
}
