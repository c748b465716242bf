// Package grading 包含评分核心的纯函数：类别注册表、平均分计算、状态推导和文档迁移。
// 这里不做任何 I/O。
package grading

import (
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"strings"
)

const DefaultTemplateID = "standard"

var defaultCategories = []model.Category{
	{ID: "presentation", Name: "Präsentation", Weight: 1},
	{ID: "content", Name: "Inhalt", Weight: 1},
	{ID: "language", Name: "Sprache", Weight: 1},
	{ID: "impression", Name: "Eindruck", Weight: 1},
	{ID: "examination", Name: "Prüfungsgespräch", Weight: 1},
	{ID: "reflection", Name: "Reflexion", Weight: 1},
	{ID: "expertise", Name: "Fachwissen", Weight: 1},
	{ID: "documentation", Name: "Dokumentation", Weight: 1},
}

// legacyCategoryIDs 旧版本使用的类别 ID -> 当前 ID
var legacyCategoryIDs = map[string]string{
	"vortrag":       "presentation",
	"inhalt":        "content",
	"sprache":       "language",
	"eindruck":      "impression",
	"pruefung":      "examination",
	"reflexion":     "reflection",
	"fachwissen":    "expertise",
	"dokumentation": "documentation",
}

// DefaultTemplate 返回系统默认模板的新副本，调用方可以随意修改
func DefaultTemplate() model.AssessmentTemplate {
	return model.AssessmentTemplate{
		ID:          DefaultTemplateID,
		Name:        "Standard",
		Description: "Standardbewertung mit allen Kategorien",
		Categories:  append([]model.Category(nil), defaultCategories...),
		CreatedBy:   "system",
		IsDefault:   true,
	}
}

func IsDefaultTemplate(id string) bool {
	return id == DefaultTemplateID
}

// ResolveTemplate 按 ID 查找模板，找不到时回退到系统默认模板
func ResolveTemplate(templates []model.AssessmentTemplate, id string) model.AssessmentTemplate {
	if !IsDefaultTemplate(id) {
		for _, t := range templates {
			if t.ID == id {
				return t
			}
		}
	}
	for _, t := range templates {
		if IsDefaultTemplate(t.ID) {
			return t
		}
	}
	return DefaultTemplate()
}

// ListCategories 返回模板的类别（有序）
func ListCategories(templates []model.AssessmentTemplate, templateID string) []model.Category {
	t := ResolveTemplate(templates, templateID)
	return append([]model.Category(nil), t.Categories...)
}

func HasCategory(t model.AssessmentTemplate, categoryID string) bool {
	for _, c := range t.Categories {
		if c.ID == categoryID {
			return true
		}
	}
	return false
}

// ValidateTemplate 检查租户自定义模板：名称、至少一个类别、类别 ID 唯一、权重为正
func ValidateTemplate(t model.AssessmentTemplate) error {
	if strings.TrimSpace(t.Name) == "" {
		return util.NewValidationError("name", "must not be empty")
	}
	if len(t.Categories) == 0 {
		return util.NewValidationError("categories", "at least one category is required")
	}
	seen := make(map[string]bool, len(t.Categories))
	for _, c := range t.Categories {
		id := strings.TrimSpace(c.ID)
		if id == "" || model.IsRecordField(id) {
			return util.NewValidationError("categories", "invalid category id "+c.ID)
		}
		if seen[id] {
			return util.NewValidationError("categories", "duplicate category id "+id)
		}
		seen[id] = true
		if c.Weight <= 0 {
			return util.NewValidationError("categories", "weight of "+id+" must be positive")
		}
	}
	return nil
}
