package grading

import (
	"gradebook_backend/internal/model"
	"math"
)

const (
	Ungraded = 0.0
	MinGrade = 1.0
	MaxGrade = 6.0
)

// ValidGrade 合法分数为 1 到 6，步长 0.5
func ValidGrade(v float64) bool {
	if v < MinGrade || v > MaxGrade {
		return false
	}
	return v*2 == math.Trunc(v*2)
}

// RoundGrade 保留一位小数，四舍五入（远离零）
func RoundGrade(v float64) float64 {
	return math.Round(v*10) / 10
}

// Average 计算加权平均分。只统计模板中的类别，哨兵值 0 不计入分子和分母。
// 第二个返回值为 false 表示没有任何可用的分数（数据不足），此时不能当作 0 分处理。
func Average(rec *model.AssessmentRecord, tpl model.AssessmentTemplate) (float64, bool) {
	if rec == nil {
		return 0, false
	}
	var sum, weights float64
	for _, c := range tpl.Categories {
		v, ok := rec.Grades[c.ID]
		if !ok || v == Ungraded {
			continue
		}
		w := c.Weight
		if w <= 0 {
			w = 1
		}
		sum += v * w
		weights += w
	}
	if weights == 0 {
		return 0, false
	}
	return RoundGrade(sum / weights), true
}
