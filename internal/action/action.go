// Package action lists the domain actions the outline can ask for.
package action

import "fmt"

type Kind int

const (
	None Kind = iota
	Add
	Delete
	Rename
	SetDueDate
	AddSession
	Toggle
	MoveInto
	MoveOut
	Import
	Export
)

var kindNames = [...]string{
	None:       "none",
	Add:        "add",
	Delete:     "delete",
	Rename:     "rename",
	SetDueDate: "set-due-date",
	AddSession: "add-session",
	Toggle:     "toggle",
	MoveInto:   "move-into",
	MoveOut:    "move-out",
	Import:     "import",
	Export:     "export",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Action is a request produced by one frame of interaction. Parent and ID
// name the row the action was taken on; kinds that act on the current
// selection (Rename, SetDueDate, AddSession) or on the whole store leave
// them zero.
type Action struct {
	Kind   Kind
	Parent uint64
	ID     uint64
}

func (a Action) IsNone() bool { return a.Kind == None }

func (a Action) String() string {
	switch a.Kind {
	case Add, Delete, Toggle, MoveInto:
		return fmt.Sprintf("%s(%d,%d)", a.Kind, a.Parent, a.ID)
	default:
		return a.Kind.String()
	}
}

func On(kind Kind, parent, id uint64) Action {
	return Action{Kind: kind, Parent: parent, ID: id}
}

func Of(kind Kind) Action {
	return Action{Kind: kind}
}
