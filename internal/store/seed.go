package store

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/l0p7/regiond/internal/hierarchy"
)

type seedDocument struct {
	Locations []seedLocation `koanf:"locations"`
}

type seedLocation struct {
	ID           int64             `koanf:"id"`
	Parent       *int64            `koanf:"parent"`
	Level        *int              `koanf:"level"`
	Name         string            `koanf:"name"`
	Translations map[string]string `koanf:"translations"`
	Bounds       []float64         `koanf:"bounds"`
	Deleted      bool              `koanf:"deleted"`
	EndDate      string            `koanf:"endDate"`
}

// LoadSeed reads a location seed document. The format follows the file
// extension: json, toml, yaml or yml.
func LoadSeed(path string) ([]hierarchy.Node, error) {
	parser, err := parserForSeedFile(path)
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("store: load seed %s: %w", path, err)
	}
	var doc seedDocument
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, fmt.Errorf("store: unmarshal seed %s: %w", path, err)
	}
	return buildNodes(path, doc)
}

func buildNodes(path string, doc seedDocument) ([]hierarchy.Node, error) {
	seen := make(map[int64]struct{}, len(doc.Locations))
	nodes := make([]hierarchy.Node, 0, len(doc.Locations))
	for i, loc := range doc.Locations {
		if loc.ID <= 0 {
			return nil, fmt.Errorf("store: seed %s: locations[%d] id must be positive", path, i)
		}
		if _, dup := seen[loc.ID]; dup {
			return nil, fmt.Errorf("store: seed %s: duplicate location id %d", path, loc.ID)
		}
		seen[loc.ID] = struct{}{}
		if loc.Level != nil && (*loc.Level < hierarchy.MinLevel || *loc.Level > hierarchy.MaxLevel) {
			return nil, fmt.Errorf("store: seed %s: location %d level %d out of range", path, loc.ID, *loc.Level)
		}
		node := hierarchy.Node{
			ID:           loc.ID,
			ParentID:     loc.Parent,
			Level:        loc.Level,
			Name:         loc.Name,
			Translations: loc.Translations,
			Deleted:      loc.Deleted,
		}
		switch len(loc.Bounds) {
		case 0:
		case 4:
			node.Bounds = &hierarchy.Bounds{
				MinLon: loc.Bounds[0],
				MinLat: loc.Bounds[1],
				MaxLon: loc.Bounds[2],
				MaxLat: loc.Bounds[3],
			}
		default:
			return nil, fmt.Errorf("store: seed %s: location %d bounds must have 4 values", path, loc.ID)
		}
		if loc.EndDate != "" {
			endDate, err := time.Parse(time.RFC3339, loc.EndDate)
			if err != nil {
				return nil, fmt.Errorf("store: seed %s: location %d endDate: %w", path, loc.ID, err)
			}
			node.EndDate = &endDate
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func parserForSeedFile(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return kjson.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	}
	return nil, fmt.Errorf("store: unsupported seed format %q", filepath.Ext(path))
}
