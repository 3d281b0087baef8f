package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// PathMember is one step into a structured value: a column name or a row
// index.
type PathMember struct {
	Name     string
	Index    int
	IsIndex  bool
	Optional bool
	Span     Span
}

func (p PathMember) String() string {
	s := p.Name
	if p.IsIndex {
		s = strconv.Itoa(p.Index)
	}
	if p.Optional {
		s += "?"
	}
	return s
}

// ParseCellPath splits a dotted path such as "items.0.name?". Segments that
// are integers are row indexes.
func ParseCellPath(s string, span Span) []PathMember {
	if s == "" {
		return nil
	}
	var out []PathMember
	for _, part := range strings.Split(s, ".") {
		m := PathMember{Span: span}
		if strings.HasSuffix(part, "?") {
			m.Optional = true
			part = strings.TrimSuffix(part, "?")
		}
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			m.Index = n
			m.IsIndex = true
		} else {
			m.Name = part
		}
		out = append(out, m)
	}
	return out
}

// FollowCellPath walks into v. Optional members yield Nothing instead of
// failing when missing. Column access on a list maps over its rows.
func FollowCellPath(v Value, path []PathMember) (Value, error) {
	cur := v
	for i, member := range path {
		next, err := followMember(cur, member)
		if err != nil {
			if member.Optional {
				return Nothing{Loc: member.Span}, nil
			}
			return nil, err
		}
		if IsNothing(next) && member.Optional && i < len(path)-1 {
			return next, nil
		}
		cur = next
	}
	return cur, nil
}

func followMember(v Value, member PathMember) (Value, error) {
	switch val := v.(type) {
	case Record:
		if member.IsIndex {
			return nil, TypeMismatchError(
				fmt.Sprintf("can't use row index %d on a record", member.Index), member.Span)
		}
		if out, ok := val.Get(member.Name); ok {
			return out, nil
		}
		return nil, (&ShellError{
			Kind:  GenericErrorKind,
			Msg:   fmt.Sprintf("column %q not found", member.Name),
			Label: "cannot find column",
			Span:  member.Span,
		}).WithHelp(fmt.Sprintf("available columns: %s", strings.Join(val.cols, ", ")))
	case List:
		if member.IsIndex {
			if member.Index >= len(val.Vals) {
				return nil, &ShellError{
					Kind:  GenericErrorKind,
					Msg:   fmt.Sprintf("row %d is out of bounds, the list has %d rows", member.Index, len(val.Vals)),
					Label: "index too large",
					Span:  member.Span,
				}
			}
			return val.Vals[member.Index], nil
		}
		out := make([]Value, 0, len(val.Vals))
		for _, row := range val.Vals {
			cell, err := followMember(row, member)
			if err != nil {
				if member.Optional {
					out = append(out, Nothing{Loc: member.Span})
					continue
				}
				return nil, err
			}
			out = append(out, cell)
		}
		return List{Vals: out, Loc: val.Loc}, nil
	case Error:
		return followMember(val.Err.Record(val.Loc), member)
	case Nothing:
		return nil, GenericError("can't follow a path into nothing", member.Span)
	}
	return nil, TypeMismatchError(
		fmt.Sprintf("can't follow path %q into %s", member.String(), TypeOf(v)), member.Span)
}
