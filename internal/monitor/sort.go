package monitor

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pratik-anurag/porter/internal/model"
)

// Field is a sortable record column.
type Field string

const (
	FieldName      Field = "name"
	FieldUser      Field = "user"
	FieldPID       Field = "pid"
	FieldPort      Field = "port"
	FieldProtocol  Field = "protocol"
	FieldIPVersion Field = "ip_version"
	FieldState     Field = "state"
	FieldFD        Field = "fd"
)

// Fields lists the sortable columns in table order.
var Fields = []Field{FieldName, FieldPort, FieldProtocol, FieldPID, FieldIPVersion, FieldState, FieldUser, FieldFD}

func (f Field) valid() bool {
	return slices.Contains(Fields, f)
}

// SortKey is one comparator of a SortSpec.
type SortKey struct {
	Field      Field `yaml:"field" json:"field"`
	Descending bool  `yaml:"descending" json:"descending"`
}

// SortSpec is applied in order: the first key is primary, later keys break ties.
type SortSpec []SortKey

// DefaultSort orders by process name.
var DefaultSort = SortSpec{{Field: FieldName}}

// ParseSortSpec reads "port,-name": comma separated fields, "-" for descending.
func ParseSortSpec(s string) (SortSpec, error) {
	var spec SortSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key := SortKey{}
		if strings.HasPrefix(part, "-") {
			key.Descending = true
			part = part[1:]
		} else {
			part = strings.TrimPrefix(part, "+")
		}
		key.Field = Field(strings.ToLower(part))
		if !key.Field.valid() {
			return nil, fmt.Errorf("unknown sort field %q", part)
		}
		spec = append(spec, key)
	}
	return spec, nil
}

func (s SortSpec) String() string {
	parts := make([]string, 0, len(s))
	for _, k := range s {
		if k.Descending {
			parts = append(parts, "-"+string(k.Field))
		} else {
			parts = append(parts, string(k.Field))
		}
	}
	return strings.Join(parts, ",")
}

func compareField(f Field, a, b model.Record) int {
	switch f {
	case FieldName:
		return strings.Compare(a.Name, b.Name)
	case FieldUser:
		return strings.Compare(a.User, b.User)
	case FieldPID:
		return cmp.Compare(a.PID, b.PID)
	case FieldPort:
		return cmp.Compare(a.Port, b.Port)
	case FieldProtocol:
		return strings.Compare(string(a.Protocol), string(b.Protocol))
	case FieldIPVersion:
		return strings.Compare(string(a.IPVersion), string(b.IPVersion))
	case FieldState:
		return strings.Compare(string(a.State), string(b.State))
	case FieldFD:
		return strings.Compare(a.FD, b.FD)
	}
	return 0
}

// Compare orders two records by the spec.
func (s SortSpec) Compare(a, b model.Record) int {
	for _, k := range s {
		c := compareField(k.Field, a, b)
		if k.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Apply sorts recs in place. Equal records keep their relative order.
func (s SortSpec) Apply(recs []model.Record) {
	if len(s) == 0 {
		return
	}
	slices.SortStableFunc(recs, s.Compare)
}
