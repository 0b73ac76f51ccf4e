package reward

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

//go:embed rewards.yaml
var defaultTableFS embed.FS

// Base is the reward of a session before the accuracy multiplier.
type Base struct {
	XP    int64 `yaml:"xp"`
	Coins int64 `yaml:"coins"`
}

// Table maps session kinds to their base rewards.
type Table map[learning.SessionKind]Base

type yamlTable struct {
	Version int             `yaml:"version"`
	Kinds   map[string]Base `yaml:"kinds"`
}

// DefaultTable returns the built-in table.
func DefaultTable() Table {
	raw, err := defaultTableFS.ReadFile("rewards.yaml")
	if err != nil {
		panic(fmt.Sprintf("reward: embedded table missing: %v", err))
	}
	t, err := ParseTable(raw)
	if err != nil {
		panic(fmt.Sprintf("reward: embedded table invalid: %v", err))
	}
	return t
}

// LoadTable reads a table from path and fills kinds it leaves out from the
// built-in defaults. An empty path returns the defaults.
func LoadTable(path string) (Table, error) {
	def := DefaultTable()
	path = strings.TrimSpace(path)
	if path == "" {
		return def, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reward table: %w", err)
	}
	t, err := ParseTable(raw)
	if err != nil {
		return nil, err
	}
	for k, v := range def {
		if _, ok := t[k]; !ok {
			t[k] = v
		}
	}
	return t, nil
}

// ParseTable decodes a YAML reward table.
func ParseTable(raw []byte) (Table, error) {
	var doc yamlTable
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse reward table: %w", err)
	}
	out := make(Table, len(doc.Kinds))
	for name, base := range doc.Kinds {
		kind := learning.SessionKind(strings.TrimSpace(name))
		if parsed, ok := learning.ParseSessionKind(string(kind)); ok {
			kind = parsed
		} else if kind != learning.KindExternal {
			return nil, fmt.Errorf("parse reward table: unknown session kind %q", name)
		}
		if base.XP < 0 || base.Coins < 0 {
			return nil, fmt.Errorf("parse reward table: negative reward for %q", name)
		}
		out[kind] = base
	}
	return out, nil
}
