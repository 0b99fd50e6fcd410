package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// withIncludes merges the files listed under the top level include key
// underneath data and returns the combined document. Later includes override
// earlier ones and data overrides them all.
func withIncludes(configDir string, data []byte) ([]byte, error) {
	var top map[string]any
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	files, err := includeList(top["include"])
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return data, nil
	}

	merged, err := loadIncludeFiles(configDir, files)
	if err != nil {
		return nil, err
	}
	mergeMaps(merged, top)

	out, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("merge config includes: %w", err)
	}
	return out, nil
}

func includeList(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("include must be a list of paths")
	}
	files := make([]string, 0, len(raw))
	for i, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("include[%d] must be a path", i)
		}
		files = append(files, s)
	}
	return files, nil
}

// loadIncludeFiles reads YAML files and merges them in declaration order.
// Later files override earlier files for the same keys.
func loadIncludeFiles(configDir string, files []string) (map[string]any, error) {
	merged := make(map[string]any)

	for _, file := range files {
		path := resolvePath(configDir, file)

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read include file %q: %w", file, err)
		}

		var values map[string]any
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parse include file %q: %w", file, err)
		}
		delete(values, "include")

		mergeMaps(merged, values)
	}

	return merged, nil
}

func resolvePath(configDir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(configDir, file)
}

// mergeMaps recursively merges src into dst.
// Nested maps are merged, while scalar and non-map values are replaced.
func mergeMaps(dst, src map[string]any) {
	if src == nil {
		return
	}

	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		if !srcIsMap {
			dst[key] = srcVal
			continue
		}

		dstMap, dstIsMap := dst[key].(map[string]any)
		if !dstIsMap {
			dst[key] = srcMap
			continue
		}

		mergeMaps(dstMap, srcMap)
	}
}
