package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// paymentMetadataSearchKeys 关键字搜索覆盖的 metadata 键
var paymentMetadataSearchKeys = []string{"event_name", "attendee_name", "attendee_email", "order_ref"}

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

func jsonTextExprByDialect(dialect, column, key string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		// postgres 统一转 jsonb 后再使用 ->> 提取文本
		return fmt.Sprintf("(%s::jsonb ->> '%s')", column, key)
	default:
		// sqlite 中 JSON 列以 BLOB 写入，先转为文本
		return fmt.Sprintf("json_extract(CAST(%s AS TEXT), '$.\"%s\"')", column, key)
	}
}

// buildKeywordLikeCondition 构建普通列 + JSON 键的 LIKE 条件，并返回参数数量。
func buildKeywordLikeCondition(db *gorm.DB, plainColumns []string, jsonColumn string, jsonKeys []string) (string, int) {
	return buildKeywordLikeConditionByDialect(dbDialectName(db), plainColumns, jsonColumn, jsonKeys)
}

func buildKeywordLikeConditionByDialect(dialect string, plainColumns []string, jsonColumn string, jsonKeys []string) (string, int) {
	parts := make([]string, 0, len(plainColumns)+len(jsonKeys))
	argCount := 0
	operator := likeOperatorByDialect(dialect)

	for _, column := range plainColumns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s ? ESCAPE '\\'", trimmed, operator))
		argCount++
	}

	jsonColumn = strings.TrimSpace(jsonColumn)
	if jsonColumn != "" {
		for _, key := range jsonKeys {
			parts = append(parts, fmt.Sprintf("%s %s ? ESCAPE '\\'", jsonTextExprByDialect(dialect, jsonColumn, key), operator))
			argCount++
		}
	}

	return strings.Join(parts, " OR "), argCount
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// repeatLikeArgs 生成重复的 LIKE 参数列表。
func repeatLikeArgs(like string, count int) []interface{} {
	args := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}

// escapeLikeKeyword 转义 LIKE 通配符
func escapeLikeKeyword(keyword string) string {
	replacer := strings.NewReplacer("%", "\\%", "_", "\\_")
	return replacer.Replace(strings.TrimSpace(keyword))
}
