package staging

import (
	"strings"
	"time"

	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/schema"
)

type DisplayField struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Value   any    `json:"value"`
	Display string `json:"display"`
}

type ChangeMeta struct {
	Type   domain.ChangeType `json:"type"`
	Fields []string          `json:"fields"`
	UserID string            `json:"user_id"`
	Date   time.Time         `json:"date"`
}

// DisplayModel is the human readable view of a record.
type DisplayModel struct {
	Entity        domain.EntityType   `json:"entity"`
	ID            string              `json:"id"`
	Version       int                 `json:"version"`
	Status        domain.RecordStatus `json:"status"`
	AdminStatus   domain.AdminStatus  `json:"admin_status"`
	Fields        []DisplayField      `json:"fields"`
	UpdatedValues []DisplayField      `json:"updated_values,omitempty"`
	Change        *ChangeMeta         `json:"change,omitempty"`
}

// Value returns the display string of the named field.
func (m DisplayModel) Value(name string) (string, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Display, true
		}
	}
	return "", false
}

// Render pairs every visible field with its display value. For a pending
// update the staged values are rendered in UpdatedValues.
func Render(rec domain.Record, refs domain.ReferenceSet, mediaBase string) (DisplayModel, error) {
	return RenderAt(rec, refs, mediaBase, time.Now())
}

// RenderAt is Render with the day used to derive the lifecycle status.
func RenderAt(rec domain.Record, refs domain.ReferenceSet, mediaBase string, now time.Time) (DisplayModel, error) {
	tbl, err := schema.For(rec.EntityType())
	if err != nil {
		return DisplayModel{}, err
	}
	raw, err := domain.Fields(rec)
	if err != nil {
		return DisplayModel{}, err
	}

	base := rec.Base()
	rv := rec.ReviewState()
	m := DisplayModel{
		Entity:      rec.EntityType(),
		ID:          base.ID,
		Version:     base.Version,
		Status:      domain.StatusAt(rec, now),
		AdminStatus: rv.AdminStatus,
	}

	visible := tbl.Visible()
	m.Fields = make([]DisplayField, 0, len(visible))
	for _, fd := range visible {
		m.Fields = append(m.Fields, displayField(fd, raw[fd.Name], refs, mediaBase))
	}

	if ch := rv.Changes; ch != nil {
		m.Change = &ChangeMeta{Type: ch.Type, Fields: ch.Fields, UserID: ch.UserID, Date: ch.Date}
		if ch.Type == domain.ChangeUpdate {
			keys := make([]string, 0, len(ch.UpdatedValues))
			for k := range ch.UpdatedValues {
				keys = append(keys, k)
			}
			for _, k := range tbl.Order(keys) {
				fd, ok := tbl.Descriptor(k)
				if !ok || fd.Hidden {
					continue
				}
				m.UpdatedValues = append(m.UpdatedValues, displayField(fd, ch.UpdatedValues[k], refs, mediaBase))
			}
		}
	}
	return m, nil
}

func displayField(fd schema.FieldDescriptor, v any, refs domain.ReferenceSet, mediaBase string) DisplayField {
	return DisplayField{
		Name:    fd.Name,
		Label:   fd.Label,
		Value:   v,
		Display: DisplayValue(fd, v, refs, mediaBase),
	}
}

// DisplayValue formats one value the way detail views show it.
func DisplayValue(fd schema.FieldDescriptor, v any, refs domain.ReferenceSet, mediaBase string) string {
	switch fd.Kind {
	case schema.KindFK:
		return schema.ResolveForeignKey(fd, v, refs)
	case schema.KindBool:
		b, err := schema.Normalize(fd, v)
		if err == nil && b == true {
			return "Yes"
		}
		return "No"
	case schema.KindDate:
		d, err := schema.Normalize(fd, v)
		if err != nil {
			return ""
		}
		return d.(string)
	case schema.KindImage:
		s, _ := v.(string)
		return MediaURL(mediaBase, s)
	case schema.KindSecret:
		return ""
	}
	s, err := schema.Normalize(schema.FieldDescriptor{Kind: schema.KindString}, v)
	if err != nil {
		return ""
	}
	return s.(string)
}

// MediaURL makes relative image paths absolute against base.
func MediaURL(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(path, "//") {
		return path
	}
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
