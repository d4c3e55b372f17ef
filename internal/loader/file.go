package loader

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileSource reads documents from a local file. YAML files (.yaml, .yml)
// hold either a list of strings or a mapping with a "documents" list. Any
// other file holds one document per non-blank line, kept as written.
type FileSource struct {
	Path string
}

type yamlSeed struct {
	Documents []string `yaml:"documents"`
}

func (f FileSource) Name() string {
	return "file:" + f.Path
}

func (f FileSource) Documents(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Path, err)
	}
	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		return parseLines(data)
	}
}

func parseYAML(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parsing yaml seed: %w", err)
	}
	if len(node.Content) == 0 {
		return []string{}, nil
	}
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var docs []string
		if err := root.Decode(&docs); err != nil {
			return nil, fmt.Errorf("decoding yaml document list: %w", err)
		}
		return docs, nil
	case yaml.MappingNode:
		var seed yamlSeed
		if err := root.Decode(&seed); err != nil {
			return nil, fmt.Errorf("decoding yaml seed: %w", err)
		}
		if seed.Documents == nil {
			return []string{}, nil
		}
		return seed.Documents, nil
	default:
		return nil, fmt.Errorf("yaml seed must be a list or a mapping with documents, got %s", root.Tag)
	}
}

func parseLines(data []byte) ([]string, error) {
	docs := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		docs = append(docs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning seed lines: %w", err)
	}
	return docs, nil
}
