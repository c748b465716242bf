package model

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

const (
	FieldInfoText     = "infoText"
	FieldFinalGrade   = "finalGrade"
	FieldTemplateID   = "templateId"
	FieldStatus       = "status"
	FieldLastModified = "lastModified"
)

// IsRecordField 判断 key 是否为评估记录的固定字段（其余 key 都是类别 ID）
func IsRecordField(key string) bool {
	switch key {
	case FieldInfoText, FieldFinalGrade, FieldTemplateID, FieldStatus, FieldLastModified:
		return true
	}
	return false
}

// AssessmentRecord 以学生 ID 为键。存储格式中类别分数与固定字段平铺在同一个对象里，
// 因此需要自定义 JSON 编解码。
// swagger:model AssessmentRecord
type AssessmentRecord struct {
	Grades       map[string]float64 `json:"-"`
	InfoText     string             `json:"-"`
	FinalGrade   *float64           `json:"-"`
	TemplateID   string             `json:"-"`
	Status       Status             `json:"-"`
	LastModified time.Time          `json:"-"`
}

func (r *AssessmentRecord) HasFinalGrade() bool {
	return r.FinalGrade != nil && *r.FinalGrade > 0
}

func (r *AssessmentRecord) Clone() *AssessmentRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Grades = make(map[string]float64, len(r.Grades))
	for k, v := range r.Grades {
		out.Grades[k] = v
	}
	if r.FinalGrade != nil {
		fg := *r.FinalGrade
		out.FinalGrade = &fg
	}
	return &out
}

func (r AssessmentRecord) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(r.Grades)+5)
	for k, v := range r.Grades {
		m[k] = v
	}
	m[FieldInfoText] = r.InfoText
	m[FieldTemplateID] = r.TemplateID
	m[FieldStatus] = r.Status
	m[FieldLastModified] = r.LastModified
	if r.FinalGrade != nil {
		m[FieldFinalGrade] = *r.FinalGrade
	}
	return json.Marshal(m)
}

// UnmarshalJSON 宽松解析：类型不对的字段按缺失处理，非数字的类别值直接忽略
func (r *AssessmentRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = AssessmentRecord{Grades: make(map[string]float64)}
	for k, v := range raw {
		switch k {
		case FieldInfoText:
			_ = json.Unmarshal(v, &r.InfoText)
		case FieldTemplateID:
			_ = json.Unmarshal(v, &r.TemplateID)
		case FieldStatus:
			_ = json.Unmarshal(v, &r.Status)
		case FieldLastModified:
			_ = json.Unmarshal(v, &r.LastModified)
		case FieldFinalGrade:
			var fg *float64
			if err := json.Unmarshal(v, &fg); err == nil {
				r.FinalGrade = fg
			}
		default:
			var f float64
			if err := json.Unmarshal(v, &f); err == nil {
				r.Grades[k] = f
			}
		}
	}
	return nil
}
