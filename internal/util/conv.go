package util

import (
	"strconv"
	"strings"
)

// ParseGrade 解析表单里的分数，支持逗号小数（"2,5"），解析失败返回 false
func ParseGrade(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
