package config

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// orderedFolders 以 JSON 对象形式编解码，并保留键的顺序
// 分类规则按顺序匹配，第一个命中的规则生效
type orderedFolders []FolderRule

func (o orderedFolders) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rule := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(rule.Category)
		if err != nil {
			return nil, err
		}
		exts := rule.Extensions
		if exts == nil {
			exts = []string{}
		}
		val, err := json.Marshal(exts)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *orderedFolders) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("folders 必须是对象")
	}

	var rules []FolderRule
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("folders 的键必须是字符串")
		}
		var exts []string
		if err := dec.Decode(&exts); err != nil {
			return fmt.Errorf("folders.%s: %w", name, err)
		}
		rules = append(rules, FolderRule{Category: name, Extensions: exts})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = rules
	return nil
}
