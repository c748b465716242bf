package grading

import (
	"encoding/json"
	"fmt"
	"gradebook_backend/internal/model"
	"gradebook_backend/internal/util"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSorting = util.SortByName
	legacyNoTheme  = "Ohne Thema"
)

// MigrateOptions 迁移所需的上下文。Tenant 用于补齐旧数据中缺失的归属字段
type MigrateOptions struct {
	Tenant string
	Now    time.Time
}

// Report 描述一次迁移实际做了什么，供调用方记录日志以及决定是否回写
type Report struct {
	Upgraded       bool
	Renamed        int
	Backfilled     int
	CreatedRecords int
	DroppedOrphans []string
	Changed        bool
}

// SchoolYearFor 8 月起算新学年，格式 "2026/27"
func SchoolYearFor(t time.Time) string {
	start := t.Year()
	if t.Month() < time.August {
		start--
	}
	return fmt.Sprintf("%d/%02d", start, (start+1)%100)
}

// MigrateJSON 解码后执行 Migrate。无法解析的 JSON 视为损坏文档
func MigrateJSON(data []byte, opts MigrateOptions) (*model.TenantDocument, *Report, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", util.ErrCorruptDocument, err)
	}
	return Migrate(raw, opts)
}

// Migrate 把任意历史版本的租户文档规范化为当前结构。
// 纯函数且幂等：Migrate(Migrate(d)) == Migrate(d)。
// 结构上说得通但字段缺失或类型错误的输入会被修复；根节点不是对象时返回 ErrCorruptDocument。
func Migrate(raw interface{}, opts MigrateOptions) (*model.TenantDocument, *Report, error) {
	root, ok := raw.(map[string]interface{})
	if !ok {
		return nil, nil, util.ErrCorruptDocument
	}
	now := opts.Now.UTC()
	if opts.Now.IsZero() {
		now = time.Now().UTC()
	}

	rep := &Report{}
	doc := &model.TenantDocument{
		Settings:            migrateSettings(root["settings"], now),
		AssessmentTemplates: migrateTemplates(root["assessmentTemplates"]),
		Assessments:         make(map[string]*model.AssessmentRecord),
	}

	rawRecords := map[string]map[string]interface{}{}
	if m, ok := root["assessments"].(map[string]interface{}); ok {
		for id, v := range m {
			if rec, ok := v.(map[string]interface{}); ok && id != "" {
				rawRecords[id] = rec
			}
		}
	}

	doc.Groups = migrateGroups(root["groups"], doc.Settings, opts.Tenant, now)

	// 1. 结构升级：旧版扁平学生列表
	if legacy, ok := root["students"].([]interface{}); ok {
		doc.Groups = upgradeLegacyStudents(legacy, doc.Groups, rawRecords, doc.Settings, opts.Tenant, now)
		rep.Upgraded = true
	}

	// 2-4. 每个学生恰好一条记录
	for gi := range doc.Groups {
		g := &doc.Groups[gi]
		for si := range g.Students {
			st := &g.Students[si]
			rawRec, exists := rawRecords[st.ID]
			if !exists {
				rep.CreatedRecords++
			}
			st.TemplateID = effectiveTemplateID(doc.AssessmentTemplates, st.TemplateID, str(rawRec[model.FieldTemplateID]))
			tpl := ResolveTemplate(doc.AssessmentTemplates, st.TemplateID)
			rec := migrateRecord(rawRec, tpl, now, rep)
			st.Status = rec.Status
			doc.Assessments[st.ID] = rec
		}
	}

	for id := range rawRecords {
		if _, ok := doc.Assessments[id]; !ok {
			rep.DroppedOrphans = append(rep.DroppedOrphans, id)
		}
	}
	sort.Strings(rep.DroppedOrphans)

	rep.Changed = !sameAsInput(doc, root)
	return doc, rep, nil
}

// NewDocument 首次登录时为租户创建的空文档
func NewDocument(now time.Time) *model.TenantDocument {
	return &model.TenantDocument{
		Settings:            DefaultSettings(now),
		Groups:              []model.Group{},
		Assessments:         map[string]*model.AssessmentRecord{},
		AssessmentTemplates: []model.AssessmentTemplate{DefaultTemplate()},
	}
}

func DefaultSettings(now time.Time) model.Settings {
	return model.Settings{
		CurrentSchoolYear: SchoolYearFor(now),
		PreferredSorting:  DefaultSorting,
		ThemeSortOrder:    map[string]int{},
	}
}

// NewRecord 创建一条覆盖模板全部类别的空记录
func NewRecord(tpl model.AssessmentTemplate, now time.Time) *model.AssessmentRecord {
	rec := &model.AssessmentRecord{
		Grades:       make(map[string]float64, len(tpl.Categories)),
		TemplateID:   tpl.ID,
		LastModified: now,
	}
	for _, c := range tpl.Categories {
		rec.Grades[c.ID] = Ungraded
	}
	rec.Status = DeriveStatus(rec)
	return rec
}

// ConformRecord 让记录与模板完全对齐：补齐缺失类别，删除模板之外的类别
func ConformRecord(rec *model.AssessmentRecord, tpl model.AssessmentTemplate) int {
	declared := make(map[string]bool, len(tpl.Categories))
	backfilled := 0
	for _, c := range tpl.Categories {
		declared[c.ID] = true
		if _, ok := rec.Grades[c.ID]; !ok {
			rec.Grades[c.ID] = Ungraded
			backfilled++
		}
	}
	for k := range rec.Grades {
		if !declared[k] {
			delete(rec.Grades, k)
		}
	}
	rec.TemplateID = tpl.ID
	return backfilled
}

func migrateSettings(raw interface{}, now time.Time) model.Settings {
	s := DefaultSettings(now)
	m, ok := raw.(map[string]interface{})
	if !ok {
		return s
	}
	if v := strings.TrimSpace(str(m["currentSchoolYear"])); v != "" {
		s.CurrentSchoolYear = v
	}
	if v := strings.TrimSpace(str(m["preferredSorting"])); v != "" {
		s.PreferredSorting = v
	}
	if order, ok := m["themeSortOrder"].(map[string]interface{}); ok {
		for k, v := range order {
			if f, ok := v.(float64); ok {
				s.ThemeSortOrder[k] = int(f)
			}
		}
	}
	return s
}

func migrateTemplates(raw interface{}) []model.AssessmentTemplate {
	out := []model.AssessmentTemplate{DefaultTemplate()}
	seen := map[string]bool{DefaultTemplateID: true}

	list, _ := raw.([]interface{})
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id := strings.TrimSpace(str(m["id"]))
		if id == "" || seen[id] {
			continue
		}
		t := model.AssessmentTemplate{
			ID:          id,
			Name:        str(m["name"]),
			Description: str(m["description"]),
			CreatedBy:   str(m["createdBy"]),
		}
		if strings.TrimSpace(t.Name) == "" {
			t.Name = id
		}

		catSeen := map[string]bool{}
		cats, _ := m["categories"].([]interface{})
		for _, ci := range cats {
			cm, ok := ci.(map[string]interface{})
			if !ok {
				continue
			}
			cid := strings.TrimSpace(str(cm["id"]))
			if cid == "" || model.IsRecordField(cid) || catSeen[cid] {
				continue
			}
			catSeen[cid] = true
			c := model.Category{ID: cid, Name: str(cm["name"]), Weight: 1}
			if c.Name == "" {
				c.Name = cid
			}
			if w, ok := cm["weight"].(float64); ok && w > 0 {
				c.Weight = w
			}
			t.Categories = append(t.Categories, c)
		}
		if len(t.Categories) == 0 {
			continue
		}
		seen[id] = true
		out = append(out, t)
	}
	return out
}

func migrateGroups(raw interface{}, settings model.Settings, tenant string, now time.Time) []model.Group {
	groups := []model.Group{}
	list, _ := raw.([]interface{})
	seenGroups := map[string]bool{}
	seenStudents := map[string]bool{}

	for gi, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		g := model.Group{
			ID:                 idString(m["id"]),
			Theme:              str(m["theme"]),
			CreatedBy:          str(m["createdBy"]),
			ResponsibleTeacher: str(m["responsibleTeacher"]),
			SchoolYear:         str(m["schoolYear"]),
			ExamDate:           str(m["examDate"]),
			CreatedAt:          parseTime(m["createdAt"], now),
			Students:           []model.Student{},
		}
		if g.ID == "" {
			g.ID = model.DeterministicUUID("group", g.Theme, g.ExamDate, fmt.Sprint(gi))
		}
		if seenGroups[g.ID] {
			continue
		}
		seenGroups[g.ID] = true
		if g.CreatedBy == "" {
			g.CreatedBy = tenant
		}
		if g.ResponsibleTeacher == "" {
			g.ResponsibleTeacher = g.CreatedBy
		}
		if g.SchoolYear == "" {
			g.SchoolYear = settings.CurrentSchoolYear
		}

		students, _ := m["students"].([]interface{})
		for si, s := range students {
			sm, ok := s.(map[string]interface{})
			if !ok {
				continue
			}
			st := model.Student{
				ID:              idString(sm["id"]),
				Name:            str(sm["name"]),
				AssignedTeacher: str(sm["assignedTeacher"]),
				TemplateID:      str(sm["templateId"]),
			}
			if st.ID == "" {
				st.ID = model.DeterministicUUID("student", g.ID, st.Name, fmt.Sprint(si))
			}
			if seenStudents[st.ID] {
				continue
			}
			seenStudents[st.ID] = true
			if st.AssignedTeacher == "" {
				st.AssignedTeacher = g.ResponsibleTeacher
			}
			g.Students = append(g.Students, st)
		}
		groups = append(groups, g)
	}
	return groups
}

// upgradeLegacyStudents 为每个不同的 (theme, examDate) 生成一个组。学生 ID 原样保留，
// 评估记录以它为键，一旦改变就会变成孤儿数据。
func upgradeLegacyStudents(
	legacy []interface{},
	groups []model.Group,
	rawRecords map[string]map[string]interface{},
	settings model.Settings,
	tenant string,
	now time.Time,
) []model.Group {
	existing := map[string]bool{}
	for _, g := range groups {
		for _, s := range g.Students {
			existing[s.ID] = true
		}
	}

	for i, item := range legacy {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		theme := str(m["theme"])
		examDate := str(m["examDate"])
		name := str(m["name"])

		id := idString(m["id"])
		if id == "" {
			id = model.DeterministicUUID("legacy-student", name, theme, examDate, fmt.Sprint(i))
		}
		if existing[id] {
			continue
		}
		existing[id] = true

		groupID := model.DeterministicUUID("legacy-group", theme, examDate)
		gi, _ := findGroup(groups, groupID)
		if gi < 0 {
			label := theme
			if strings.TrimSpace(label) == "" {
				label = legacyNoTheme
			}
			groups = append(groups, model.Group{
				ID:                 groupID,
				Theme:              label,
				ResponsibleTeacher: tenant,
				CreatedBy:          tenant,
				CreatedAt:          now,
				SchoolYear:         settings.CurrentSchoolYear,
				ExamDate:           examDate,
				Students:           []model.Student{},
			})
			gi = len(groups) - 1
		}

		assigned := str(m["assignedTeacher"])
		if assigned == "" {
			assigned = str(m["teacher"])
		}
		if assigned == "" {
			assigned = groups[gi].ResponsibleTeacher
		}
		groups[gi].Students = append(groups[gi].Students, model.Student{
			ID:              id,
			Name:            name,
			AssignedTeacher: assigned,
			TemplateID:      str(m["templateId"]),
		})

		// 旧版本把分数直接挂在学生上
		if _, ok := rawRecords[id]; !ok {
			for _, key := range []string{"assessment", "grades"} {
				if inline, ok := m[key].(map[string]interface{}); ok {
					rawRecords[id] = inline
					break
				}
			}
		}
	}
	return groups
}

func findGroup(groups []model.Group, id string) (int, *model.Group) {
	for i := range groups {
		if groups[i].ID == id {
			return i, &groups[i]
		}
	}
	return -1, nil
}

func effectiveTemplateID(templates []model.AssessmentTemplate, candidates ...string) string {
	for _, id := range candidates {
		if id == "" {
			continue
		}
		for _, t := range templates {
			if t.ID == id {
				return id
			}
		}
	}
	return DefaultTemplateID
}

func migrateRecord(raw map[string]interface{}, tpl model.AssessmentTemplate, now time.Time, rep *Report) *model.AssessmentRecord {
	rec := &model.AssessmentRecord{Grades: map[string]float64{}}

	for k, v := range raw {
		if model.IsRecordField(k) {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			continue
		}
		if f == Ungraded || (f >= MinGrade && f <= MaxGrade) {
			rec.Grades[k] = f
		}
	}

	// 2. 类别重命名：新 ID 已有值时绝不覆盖；模板自己声明的旧 ID 不参与重命名
	olds := make([]string, 0, len(legacyCategoryIDs))
	for old := range legacyCategoryIDs {
		olds = append(olds, old)
	}
	sort.Strings(olds)
	for _, old := range olds {
		v, ok := rec.Grades[old]
		if !ok || HasCategory(tpl, old) {
			continue
		}
		newID := legacyCategoryIDs[old]
		if _, exists := rec.Grades[newID]; !exists {
			rec.Grades[newID] = v
			rep.Renamed++
		}
		delete(rec.Grades, old)
	}

	// 3. 补齐
	rep.Backfilled += ConformRecord(rec, tpl)

	// 4. 字段补全
	rec.InfoText = str(raw[model.FieldInfoText])
	if f, ok := raw[model.FieldFinalGrade].(float64); ok && f >= MinGrade && f <= MaxGrade {
		rec.FinalGrade = &f
	}
	rec.LastModified = parseTime(raw[model.FieldLastModified], now)
	rec.Status = DeriveStatus(rec)
	return rec
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// idString 组和学生的 ID 原样保留（记录以它为键）。旧数据里的数字 ID 按整数文本处理，
// 全空白视为缺失
func idString(v interface{}) string {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return ""
		}
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return ""
}

// parseTime 接受 RFC3339 字符串或毫秒时间戳，其余情况返回 fallback
func parseTime(v interface{}, fallback time.Time) time.Time {
	switch t := v.(type) {
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed.UTC()
		}
	case float64:
		if t > 0 {
			return time.UnixMilli(int64(t)).UTC()
		}
	}
	return fallback
}

// sameAsInput 把结果重新编码成通用 JSON 值后与输入比较，用来判断是否需要回写
func sameAsInput(doc *model.TenantDocument, root map[string]interface{}) bool {
	data, err := json.Marshal(doc)
	if err != nil {
		return false
	}
	var back interface{}
	if err := json.Unmarshal(data, &back); err != nil {
		return false
	}
	return reflect.DeepEqual(back, interface{}(root))
}
