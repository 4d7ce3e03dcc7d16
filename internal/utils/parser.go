package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseGenreList 解析类型字段（逗号分隔，去除空白和空项）
func ParseGenreList(field string) []string {
	if field == "" {
		return []string{}
	}

	parts := strings.Split(field, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ParseMinutes 解析时长字段，必须是非负整数
func ParseMinutes(field string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("时长不是数字: %q", field)
	}
	if minutes < 0 {
		return 0, fmt.Errorf("时长不能为负数: %d", minutes)
	}
	return minutes, nil
}

// NormalizeKeywords 规范化搜索关键词（小写、折叠空白），用作缓存键
func NormalizeKeywords(keywords string) string {
	return strings.Join(strings.Fields(strings.ToLower(keywords)), " ")
}
