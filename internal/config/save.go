package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Setting is one top-level scalar key to write into a config file.
type Setting struct {
	Key   string
	Value string
}

// SaveRegister records the register path and remote in the config file so
// later commands find them without flags. An empty remote removes the key.
func SaveRegister(configPath, path, remote string) error {
	settings := []Setting{{Key: "path", Value: path}}
	if remote == "" {
		if err := SaveSettings(configPath, settings...); err != nil {
			return err
		}
		return RemoveSetting(configPath, "remote")
	}
	return SaveSettings(configPath, append(settings, Setting{Key: "remote", Value: remote})...)
}

// SaveSettings sets top-level scalar keys in the config file.
// This preserves comments and formatting in other sections by using yaml.Node.
func SaveSettings(configPath string, settings ...Setting) error {
	doc, err := readDocument(configPath)
	if err != nil {
		return err
	}
	root := doc.Content[0]

	for _, s := range settings {
		value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Value}
		found := false
		for i := 0; i < len(root.Content)-1; i += 2 {
			if root.Content[i].Value == s.Key {
				// Keep any comment attached to the old value.
				value.LineComment = root.Content[i+1].LineComment
				root.Content[i+1] = value
				found = true
				break
			}
		}
		if !found {
			root.Content = append(root.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: s.Key},
				value,
			)
		}
	}
	return writeDocument(configPath, doc)
}

// RemoveSetting deletes a top-level key from the config file, if present.
func RemoveSetting(configPath, key string) error {
	doc, err := readDocument(configPath)
	if err != nil {
		return err
	}
	root := doc.Content[0]
	for i := 0; i < len(root.Content)-1; i += 2 {
		if root.Content[i].Value == key {
			root.Content = append(root.Content[:i], root.Content[i+2:]...)
			return writeDocument(configPath, doc)
		}
	}
	return nil
}

// readDocument parses configPath into a document whose first child is a
// mapping. A missing or empty file yields an empty mapping.
func readDocument(configPath string) (*yaml.Node, error) {
	data, err := os.ReadFile(configPath) //nolint:gosec // user-chosen config path
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if doc.Kind == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	if doc.Kind != yaml.DocumentNode || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing config: %s is not a mapping", configPath)
	}
	return &doc, nil
}

func writeDocument(configPath string, doc *yaml.Node) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	return writeFileAtomic(configPath, buf.Bytes())
}
