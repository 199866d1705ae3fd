package partition

import (
	"fmt"
	"strings"
)

// Conflict is one entity that matched more than one category rule.
type Conflict struct {
	GUID       string
	Categories []Category
}

// ConflictError reports every conflicting entity found in a single pass.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s %v", c.GUID, c.Categories))
	}
	return fmt.Sprintf("%d entities qualify for multiple categories: %s", len(e.Conflicts), strings.Join(parts, ", "))
}

// OperationError lists entities that declare links without a usable operation.
type OperationError struct {
	GUIDs []string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("entities with links must set operation UPDATE or ADD: %s", strings.Join(e.GUIDs, ", "))
}

// RecursiveLinkError is returned when a linked entity declares links of its own.
type RecursiveLinkError struct {
	GUID       string
	LinkedFrom string
}

func (e *RecursiveLinkError) Error() string {
	return fmt.Sprintf("linked entity %s (from %s) contains links; recursive links are not allowed", e.GUID, e.LinkedFrom)
}

// MissingLinkError is returned when a link names an entity absent from the source document.
type MissingLinkError struct {
	GUID       string
	LinkedFrom string
}

func (e *MissingLinkError) Error() string {
	return fmt.Sprintf("linked entity %s (from %s) not found in source document", e.GUID, e.LinkedFrom)
}
