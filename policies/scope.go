package policies

import (
	"github.com/infoshare/backend/models"
	"gorm.io/gorm"
)

// membershipExists matches agreements reachable through one of the acting
// user's active memberships. Soft-deleted memberships and groups are excluded.
const membershipExists = `EXISTS (
	SELECT 1 FROM user_groups ug
	JOIN "groups" g ON g.id = ug.group_id AND g.deleted_at IS NULL
	WHERE ug.deleted_at IS NULL
	  AND ug.user_id = ?
	  AND (g.id = information_sharing_agreements.external_group_id
	    OR g.id = information_sharing_agreements.internal_group_id)`

// VisibilityScope returns a query filter for listing agreements the user may
// see. Pluggable into a gorm query via Scopes.
//
// System admins see every non-draft agreement plus their own drafts. Everyone
// else sees their own drafts plus the non-draft agreements reachable through
// an active membership; external users only through externally-flagged
// groups, internal users through either side.
func VisibilityScope(user *models.User) func(*gorm.DB) *gorm.DB {
	userId := user.ID
	systemAdmin := user.IsSystemAdmin()
	external := user.IsExternal
	return func(db *gorm.DB) *gorm.DB {
		if systemAdmin {
			return db.Where(
				"information_sharing_agreements.status <> ? OR information_sharing_agreements.creator_id = ?",
				models.AgreementDraft, userId)
		}
		membership := membershipExists
		args := []interface{}{models.AgreementDraft, userId, models.AgreementDraft, userId}
		if external {
			membership += `
	  AND g.is_external = ?`
			args = append(args, true)
		}
		membership += `)`
		return db.Where(
			"(information_sharing_agreements.status = ? AND information_sharing_agreements.creator_id = ?)"+
				" OR (information_sharing_agreements.status <> ? AND "+membership+")",
			args...)
	}
}
