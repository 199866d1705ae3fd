package partition

import "onboarder/internal/document"

type Category string

const (
	CategoryReporting     Category = "update_reporting"
	CategoryUpdateVirtual Category = "update_virtual"
	CategoryAddVirtual    Category = "add_virtual"
)

const (
	OperationUpdate = "UPDATE"
	OperationAdd    = "ADD"
)

// Categories lists every category in output order.
var Categories = []Category{CategoryReporting, CategoryUpdateVirtual, CategoryAddVirtual}

func (c Category) Virtual() bool {
	return c == CategoryUpdateVirtual || c == CategoryAddVirtual
}

// Classify returns every category rule e matches. More than one result is a
// conflict. invalidOp is set when e has links but no UPDATE or ADD operation.
func Classify(e *document.Entity) (matched []Category, invalidOp bool) {
	if e.IsReporting() {
		matched = append(matched, CategoryReporting)
	}
	if e.IsVirtual() {
		switch e.Operation() {
		case OperationUpdate:
			matched = append(matched, CategoryUpdateVirtual)
		case OperationAdd:
			matched = append(matched, CategoryAddVirtual)
		default:
			invalidOp = true
		}
	}
	return matched, invalidOp
}
