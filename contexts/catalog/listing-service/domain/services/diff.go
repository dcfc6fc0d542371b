package services

import (
	"sort"

	"keystone/contexts/catalog/listing-service/domain/entities"
)

// FieldChange is one materially-changed field in a moderator diff view.
type FieldChange struct {
	Field    entities.Field
	Live     entities.ProposedValue
	Proposed entities.ProposedValue
}

// Diff reports the fields in the project's pending change set whose
// proposed value materially differs from the live one. A proposed key
// equal to its live value is omitted here but still applied on approval.
// Results are ordered by field name.
func Diff(project entities.Project) []FieldChange {
	changes := make([]FieldChange, 0, len(project.PendingChanges))
	for field, proposed := range project.PendingChanges {
		live := LiveValue(project, field)
		if equalValues(live, proposed) {
			continue
		}
		changes = append(changes, FieldChange{Field: field, Live: live, Proposed: proposed})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

// ApplyChangeSet overwrites every proposed key onto the live fields,
// including clears, and returns the updated project. It does not touch
// moderation state; the caller owns status and version bookkeeping.
func ApplyChangeSet(project entities.Project) entities.Project {
	for field, proposed := range project.PendingChanges {
		switch field {
		case entities.FieldName:
			project.Name = proposed.Scalar
		case entities.FieldDescription:
			project.Description = proposed.Scalar
		case entities.FieldRepository:
			project.Repository = proposed.Scalar
		case entities.FieldPreviewURL:
			project.PreviewURL = proposed.Scalar
		case entities.FieldVisibility:
			project.Visibility = entities.Visibility(proposed.Scalar)
		case entities.FieldTechStack:
			project.TechStack = append([]string(nil), proposed.Set...)
		case entities.FieldCategoryIDs:
			project.CategoryIDs = append([]string(nil), proposed.Set...)
		}
	}
	return project
}

// LiveValue reads the current value of an editable field in proposal
// shape so diffs compare like with like.
func LiveValue(project entities.Project, field entities.Field) entities.ProposedValue {
	switch field {
	case entities.FieldName:
		return entities.ScalarValue(project.Name)
	case entities.FieldDescription:
		return entities.ScalarValue(project.Description)
	case entities.FieldRepository:
		return entities.ScalarValue(project.Repository)
	case entities.FieldPreviewURL:
		return entities.ScalarValue(project.PreviewURL)
	case entities.FieldVisibility:
		return entities.ScalarValue(string(project.Visibility))
	case entities.FieldTechStack:
		return entities.SetValue(project.TechStack)
	case entities.FieldCategoryIDs:
		return entities.SetValue(project.CategoryIDs)
	}
	return entities.ProposedValue{}
}

func equalValues(a entities.ProposedValue, b entities.ProposedValue) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == entities.ValueKindScalar {
		return a.Scalar == b.Scalar
	}
	return equalSets(a.Set, b.Set)
}

// equalSets compares ignoring order.
func equalSets(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	left := append([]string(nil), a...)
	right := append([]string(nil), b...)
	sort.Strings(left)
	sort.Strings(right)
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}
