package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 通用 JSON 字段类型
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
	if len(bytes) == 0 {
		*j = make(JSON)
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Clone 浅拷贝
func (j JSON) Clone() JSON {
	if j == nil {
		return nil
	}
	out := make(JSON, len(j))
	for k, v := range j {
		out[k] = v
	}
	return out
}
