package options

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/staffline/core/errors"
)

// LoadFile reads option values from a .conf file or, for .yaml and .yml
// files, a YAML mapping. Nested YAML mappings flatten into dotted keys.
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(path, data)
	default:
		return parseConf(path, data)
	}
}

func parseYAML(path string, data []byte) (map[string]string, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewParse("options", path, err.Error())
	}
	values := make(map[string]string)
	if err := flatten("", doc, values); err != nil {
		return nil, errors.NewParse("options", path, err.Error())
	}
	return values, nil
}

func flatten(prefix string, node map[string]interface{}, out map[string]string) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		case []interface{}:
			return fmt.Errorf("option %s: lists are not supported", key)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
	return nil
}
