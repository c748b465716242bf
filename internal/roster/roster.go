// Package roster 是一个租户文档在内存中的工作副本：组、学生、评估记录、模板和设置。
// 所有操作都是同步的，不做任何 I/O；持久化由调用方显式通过同步网关完成。
// Roster 不是并发安全的，同一时刻只能有一个写入者（由会话保证）。
package roster

import (
	"gradebook_backend/internal/grading"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"strings"
	"time"
)

type Limits struct {
	MaxPerGroup           int
	MaxTemplatesPerTenant int
}

func DefaultLimits() Limits {
	return Limits{MaxPerGroup: 4, MaxTemplatesPerTenant: 10}
}

type Roster struct {
	doc    *model.TenantDocument
	tenant model.Tenant
	limits Limits
	now    func() time.Time
}

type Option func(*Roster)

func WithClock(now func() time.Time) Option {
	return func(r *Roster) {
		r.now = now
	}
}

// New 接管 doc 的所有权，调用方之后不应再直接修改它
func New(doc *model.TenantDocument, tenant model.Tenant, limits Limits, opts ...Option) *Roster {
	if limits.MaxPerGroup <= 0 {
		limits.MaxPerGroup = DefaultLimits().MaxPerGroup
	}
	if limits.MaxTemplatesPerTenant <= 0 {
		limits.MaxTemplatesPerTenant = DefaultLimits().MaxTemplatesPerTenant
	}
	if doc.Assessments == nil {
		doc.Assessments = map[string]*model.AssessmentRecord{}
	}
	r := &Roster{
		doc:    doc,
		tenant: tenant,
		limits: limits,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Roster) Tenant() model.Tenant {
	return r.tenant
}

// SetTenant 刷新权限标志，租户代码不变
func (r *Roster) SetTenant(t model.Tenant) {
	if t.Code == r.tenant.Code {
		r.tenant = t
	}
}

func (r *Roster) Limits() Limits {
	return r.limits
}

// SetLimits 配置热更新时调用；已有超额的组不受影响，只约束之后的插入
func (r *Roster) SetLimits(l Limits) {
	if l.MaxPerGroup > 0 {
		r.limits.MaxPerGroup = l.MaxPerGroup
	}
	if l.MaxTemplatesPerTenant > 0 {
		r.limits.MaxTemplatesPerTenant = l.MaxTemplatesPerTenant
	}
}

// Snapshot 返回文档的深拷贝，用于保存和导出
func (r *Roster) Snapshot() *model.TenantDocument {
	return r.doc.Clone()
}

func (r *Roster) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

// CanEdit 创建者或负责教师可以修改组
func (r *Roster) CanEdit(g *model.Group) bool {
	if g == nil {
		return false
	}
	return g.CreatedBy == r.tenant.Code || g.ResponsibleTeacher == r.tenant.Code
}

// CanAssess 只有被指派的教师可以打分
func (r *Roster) CanAssess(st *model.Student) bool {
	return st != nil && st.AssignedTeacher == r.tenant.Code
}

func (r *Roster) group(id string) (*model.Group, error) {
	_, g := r.doc.FindGroup(id)
	if g == nil {
		return nil, util.ErrGroupNotFound
	}
	return g, nil
}

func (r *Roster) editableGroup(id string) (*model.Group, error) {
	g, err := r.group(id)
	if err != nil {
		return nil, err
	}
	if !r.CanEdit(g) {
		return nil, util.ErrPermissionDenied
	}
	return g, nil
}

func (r *Roster) template(id string) (model.AssessmentTemplate, error) {
	if id == "" {
		id = grading.DefaultTemplateID
	}
	_, t := r.doc.FindTemplate(id)
	if t == nil {
		return model.AssessmentTemplate{}, util.ErrTemplateNotFound
	}
	return *t, nil
}

// record 返回学生的记录，缺失时按模板补一条空记录，保证调用方总能拿到完整覆盖的记录
func (r *Roster) record(st *model.Student) *model.AssessmentRecord {
	rec, ok := r.doc.Assessments[st.ID]
	if !ok || rec == nil {
		rec = grading.NewRecord(grading.ResolveTemplate(r.doc.AssessmentTemplates, st.TemplateID), r.timestamp())
		r.doc.Assessments[st.ID] = rec
	}
	if rec.Grades == nil {
		rec.Grades = map[string]float64{}
	}
	return rec
}

// touch 每次修改后更新时间戳并重新推导状态
func (r *Roster) touch(st *model.Student, rec *model.AssessmentRecord) {
	rec.LastModified = r.timestamp()
	rec.Status = grading.DeriveStatus(rec)
	st.Status = rec.Status
}

func required(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", util.NewValidationError(field, "must not be empty")
	}
	return v, nil
}

func validDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(util.DateFormat, value); err != nil {
		return util.NewValidationError(field, "expected date in format YYYY-MM-DD")
	}
	return nil
}
