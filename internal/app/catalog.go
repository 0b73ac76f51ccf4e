package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

type catalogFile struct {
	Items []catalogItem `yaml:"items"`
}

type catalogItem struct {
	ID               string   `yaml:"id"`
	SubjectID        string   `yaml:"subject"`
	TopicID          string   `yaml:"topic"`
	Kind             string   `yaml:"kind"`
	Difficulty       int      `yaml:"difficulty"`
	EstimatedSeconds int      `yaml:"estimated_seconds"`
	Prerequisites    []string `yaml:"prerequisites"`
	Premium          bool     `yaml:"premium"`
	ExplanationID    string   `yaml:"explanation_id"`
	CorrectOption    string   `yaml:"correct_option"`
	AcceptedAnswers  []string `yaml:"accepted_answers"`
}

// LoadCatalog reads a YAML item catalog. Every item must validate.
func LoadCatalog(path string) ([]learning.Item, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item catalog: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) ([]learning.Item, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse item catalog: %w", err)
	}
	seen := make(map[uuid.UUID]struct{}, len(f.Items))
	out := make([]learning.Item, 0, len(f.Items))
	for i, ci := range f.Items {
		id, err := uuid.Parse(strings.TrimSpace(ci.ID))
		if err != nil {
			return nil, fmt.Errorf("item catalog entry %d: invalid id %q", i, ci.ID)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("item catalog entry %d: duplicate id %s", i, id)
		}
		seen[id] = struct{}{}
		prereqs := make([]uuid.UUID, 0, len(ci.Prerequisites))
		for _, p := range ci.Prerequisites {
			pid, err := uuid.Parse(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("item %s: invalid prerequisite %q", id, p)
			}
			prereqs = append(prereqs, pid)
		}
		kind := learning.ItemKind(strings.ToLower(strings.TrimSpace(ci.Kind)))
		if kind == "" {
			kind = learning.ItemQuestion
		}
		it := learning.Item{
			ID:               id,
			SubjectID:        strings.TrimSpace(ci.SubjectID),
			TopicID:          strings.TrimSpace(ci.TopicID),
			Kind:             kind,
			Difficulty:       ci.Difficulty,
			EstimatedSeconds: ci.EstimatedSeconds,
			Prerequisites:    prereqs,
			Premium:          ci.Premium,
			ExplanationID:    strings.TrimSpace(ci.ExplanationID),
			AnswerKey: learning.AnswerKey{
				CorrectOption:   strings.TrimSpace(ci.CorrectOption),
				AcceptedAnswers: ci.AcceptedAnswers,
			},
		}
		if err := it.Validate(); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}
