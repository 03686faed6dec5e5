// Package schema declares the canonical field tables of the six directory
// entity types and the pure mapping helpers built on them.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
)

type Kind string

const (
	KindString Kind = "string"
	KindText   Kind = "text"
	KindFK     Kind = "fk"
	KindBool   Kind = "bool"
	KindDate   Kind = "date"
	KindURL    Kind = "url"
	KindImage  Kind = "image"
	KindPhone  Kind = "phone"
	KindEmail  Kind = "email"
	KindSecret Kind = "secret"
)

// Unresolved is displayed for empty or dangling foreign keys.
const Unresolved = "—"

// FieldDescriptor describes one business field. Name is both the json key
// and the column name.
type FieldDescriptor struct {
	Name       string         `json:"name"`
	Label      string         `json:"label"`
	Kind       Kind           `json:"kind"`
	Ref        domain.RefKind `json:"ref,omitempty"`
	Rules      string         `json:"-"`
	Required   bool           `json:"required"`
	CreateOnly bool           `json:"create_only,omitempty"`
	Hidden     bool           `json:"-"`
}

// Table is the ordered field table of one entity type.
type Table struct {
	Entity    domain.EntityType
	Fields    []FieldDescriptor
	NameField string
	Search    []string

	index map[string]int
}

func newTable(t domain.EntityType, nameField string, search []string, fields ...FieldDescriptor) *Table {
	tbl := &Table{
		Entity:    t,
		Fields:    fields,
		NameField: nameField,
		Search:    search,
		index:     make(map[string]int, len(fields)),
	}
	for i := range tbl.Fields {
		if tbl.Fields[i].Label == "" {
			tbl.Fields[i].Label = labelFor(tbl.Fields[i].Name)
		}
		tbl.index[tbl.Fields[i].Name] = i
	}
	return tbl
}

// For returns the field table of t.
func For(t domain.EntityType) (*Table, error) {
	tbl, ok := tables[t]
	if !ok {
		return nil, apperr.NotFound("entity type", string(t))
	}
	return tbl, nil
}

// SchemaFor returns a copy of the ordered descriptors of t.
func SchemaFor(t domain.EntityType) ([]FieldDescriptor, error) {
	tbl, err := For(t)
	if err != nil {
		return nil, err
	}
	out := make([]FieldDescriptor, len(tbl.Fields))
	copy(out, tbl.Fields)
	return out, nil
}

func (t *Table) Descriptor(name string) (FieldDescriptor, bool) {
	i, ok := t.index[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return t.Fields[i], true
}

// Updatable reports whether name may appear in an update delta.
func (t *Table) Updatable(name string) bool {
	fd, ok := t.Descriptor(name)
	return ok && !fd.CreateOnly && !fd.Hidden
}

// Visible returns descriptors shown in detail, list and export views.
func (t *Table) Visible() []FieldDescriptor {
	out := make([]FieldDescriptor, 0, len(t.Fields))
	for _, fd := range t.Fields {
		if !fd.Hidden {
			out = append(out, fd)
		}
	}
	return out
}

// Order sorts keys by table position; unknown keys go last, alphabetically.
func (t *Table) Order(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.SliceStable(out, func(a, b int) bool {
		ia, okA := t.index[out[a]]
		ib, okB := t.index[out[b]]
		switch {
		case okA && okB:
			return ia < ib
		case okA != okB:
			return okA
		}
		return out[a] < out[b]
	})
	return out
}

// References returns the collections the table's FK fields point into.
func (t *Table) References() []domain.RefKind {
	seen := map[domain.RefKind]bool{}
	var out []domain.RefKind
	for _, fd := range t.Fields {
		if fd.Kind == KindFK && !seen[fd.Ref] {
			seen[fd.Ref] = true
			out = append(out, fd.Ref)
		}
	}
	return out
}

// ResolveForeignKey maps an FK id to its display name. It never fails:
// empty or unknown ids yield Unresolved.
func ResolveForeignKey(fd FieldDescriptor, value any, refs domain.ReferenceSet) string {
	id := strings.TrimSpace(stringOf(value))
	if id == "" {
		return Unresolved
	}
	name, ok := refs.Name(fd.Ref, id)
	if !ok || name == "" {
		return Unresolved
	}
	return name
}

func stringOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	}
	return fmt.Sprint(v)
}

var labelOverrides = map[string]string{
	"user_id": "User Email",
	"map":     "Map Link",
}

func labelFor(name string) string {
	if l, ok := labelOverrides[name]; ok {
		return l
	}
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
