package entities

import "time"

type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityUnlisted Visibility = "unlisted"
	VisibilityPrivate  Visibility = "private"
)

func ParseVisibility(raw string) (Visibility, bool) {
	switch Visibility(raw) {
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate:
		return Visibility(raw), true
	}
	return "", false
}

type ModerationStatus string

const (
	ModerationStatusDraft          ModerationStatus = "draft"
	ModerationStatusPending        ModerationStatus = "pending"
	ModerationStatusChangesPending ModerationStatus = "changes_pending"
	ModerationStatusApproved       ModerationStatus = "approved"
	ModerationStatusRejected       ModerationStatus = "rejected"
)

// Project is a marketplace listing. PendingChanges is non-nil exactly
// when ModerationStatus is changes_pending; Version is the conflict
// token and is bumped on every write.
type Project struct {
	ProjectID                 string
	OwnerID                   string
	Name                      string
	Description               string
	Repository                string
	PreviewURL                string
	Visibility                Visibility
	TechStack                 []string
	CategoryIDs               []string
	ModerationStatus          ModerationStatus
	PendingChanges            ChangeSet
	PendingChangesSubmittedAt *time.Time
	RejectionReason           string
	Version                   int
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// PubliclyListable reports whether the project shows up in public
// marketplace listings.
func (p Project) PubliclyListable() bool {
	return p.ModerationStatus == ModerationStatusApproved && p.Visibility != VisibilityPrivate
}
