package catalog

// Change classifies a proposed update by which identity fields it touches.
type Change int

const (
	ChangeNone Change = iota // code and name as stored; only price may differ
	ChangeCode               // name kept, code changes
	ChangeName               // code kept, name changes
	ChangeBoth
)

func (c Change) String() string {
	switch c {
	case ChangeNone:
		return "none"
	case ChangeCode:
		return "code"
	case ChangeName:
		return "name"
	default:
		return "both"
	}
}

// Verdict is the resolver's answer. Conflict is nil when the update may be
// applied.
type Verdict struct {
	Change   Change
	Conflict *ConflictError
}

func (v Verdict) Allowed() bool { return v.Conflict == nil }

// Resolve decides whether current may be overwritten by proposed. codeTaken
// and nameTaken report whether some product other than current already holds
// the proposed code or name. When both fields change and both are taken the
// code conflict is reported.
func Resolve(current Product, proposed Draft, codeTaken, nameTaken bool) Verdict {
	sameCode := current.Code == proposed.Code
	sameName := current.Name == proposed.Name

	v := Verdict{}
	switch {
	case sameCode && sameName:
		v.Change = ChangeNone
	case sameName:
		v.Change = ChangeCode
		if codeTaken {
			v.Conflict = &ConflictError{Field: FieldCode, Value: proposed.Code}
		}
	case sameCode:
		v.Change = ChangeName
		if nameTaken {
			v.Conflict = &ConflictError{Field: FieldName, Value: proposed.Name}
		}
	default:
		v.Change = ChangeBoth
		switch {
		case codeTaken:
			v.Conflict = &ConflictError{Field: FieldCode, Value: proposed.Code}
		case nameTaken:
			v.Conflict = &ConflictError{Field: FieldName, Value: proposed.Name}
		}
	}
	return v
}
