package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a dataset from a .json, .yaml or .yml file.
func LoadFile(path string, opts ...Option) (*Memory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds Dataset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &ds)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &ds)
	default:
		return nil, fmt.Errorf("dataset %s: unsupported extension", path)
	}
	if err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return NewMemory(ds, opts...), nil
}

// WriteFile stores ds at path, choosing the encoding by extension.
func WriteFile(path string, ds Dataset) error {
	var (
		raw []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		raw, err = json.MarshalIndent(ds, "", "  ")
	case ".yaml", ".yml":
		raw, err = yaml.Marshal(ds)
	default:
		return fmt.Errorf("dataset %s: unsupported extension", path)
	}
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}
