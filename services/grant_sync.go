package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/infoshare/backend/models"
)

// DefaultMemberAccessLevel is the access level granted to a plain (non-admin)
// member when synchronization creates a grant on their behalf.
var DefaultMemberAccessLevel = models.AccessLevelRead

var (
	ErrGroupNotFound     = errors.New("Sharing group not found")
	ErrUserNotFound      = errors.New("User not found")
	ErrAgreementNotFound = errors.New("Agreement not found")
	ErrGrantNotFound     = errors.New("Access grant not found")
	ErrNotAMember        = errors.New("User is not a member of this group")
)

// SyncOptions suppress one side of the membership/grant cascade when the
// caller is already handling it. Creation is idempotent and destruction is
// terminal, so a wrong flag causes duplicate notifications at worst, never
// corrupt data.
type SyncOptions struct {
	SkipAccessGrantRemoval bool
	SkipUserGroupCreation  bool
	SkipUserGroupRemoval   bool
}

// GrantSyncService keeps group membership and per-agreement access grants
// implying each other: every active grant is backed by an active membership,
// and every membership in a group linked to a non-draft agreement produces a
// grant. Each public entry point runs in a single transaction, including its
// cascading side effects.
type GrantSyncService struct {
	DB       *models.Database
	Notifier Notifier
}

func NewGrantSyncService(db *models.Database, notifier Notifier) *GrantSyncService {
	if notifier == nil {
		notifier = SlogNotifier{}
	}
	return &GrantSyncService{DB: db, Notifier: notifier}
}

// AddMember adds a user to a group and creates the implied grants on every
// non-draft agreement linked to the group. Adding an existing member is a
// no-op beyond re-reconciling the group.
func (s *GrantSyncService) AddMember(groupId uint, userId uint, isAdmin bool, actor *models.User, opts SyncOptions) (*models.UserGroup, error) {
	var membership *models.UserGroup
	err := s.DB.GormDB.Transaction(func(tx *gorm.DB) error {
		var err error
		membership, err = s.addMember(s.DB.WithTx(tx), groupId, userId, isAdmin, actor, opts)
		return err
	})
	return membership, err
}

func (s *GrantSyncService) addMember(db *models.Database, groupId uint, userId uint, isAdmin bool, actor *models.User, opts SyncOptions) (*models.UserGroup, error) {
	group, err := db.GetGroup(groupId)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	user, err := db.GetUser(userId)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	existing, err := db.GetActiveMembership(userId, groupId)
	if err != nil {
		return nil, err
	}
	membership := existing
	if membership == nil {
		membership, err = db.CreateMembership(userId, groupId, isAdmin, actor.ID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.reconcileGroup(db, group, actor, opts); err != nil {
		return nil, err
	}

	if existing == nil {
		s.Notifier.NotifyUserOfMembership(user, group, actor)
		s.Notifier.NotifyAdminsOfAddedUser(user, group, actor)
	}
	return membership, nil
}

// RemoveMember removes a user from a group and, unless suppressed, every
// grant the membership implied across the group's linked agreements.
func (s *GrantSyncService) RemoveMember(groupId uint, userId uint, actor *models.User, opts SyncOptions) error {
	return s.DB.GormDB.Transaction(func(tx *gorm.DB) error {
		return s.removeMember(s.DB.WithTx(tx), groupId, userId, actor, opts)
	})
}

func (s *GrantSyncService) removeMember(db *models.Database, groupId uint, userId uint, actor *models.User, opts SyncOptions) error {
	group, err := db.GetGroup(groupId)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}
	membership, err := db.GetActiveMembership(userId, groupId)
	if err != nil {
		return err
	}
	if membership == nil {
		return ErrNotAMember
	}
	if err := db.SoftDeleteMembership(membership); err != nil {
		return err
	}

	if !opts.SkipAccessGrantRemoval {
		grants, err := db.GetGrantsForGroupAndUser(groupId, userId)
		if err != nil {
			return err
		}
		for i := range grants {
			if err := db.SoftDeleteGrant(&grants[i]); err != nil {
				return err
			}
		}
	}

	if user, err := db.GetUser(userId); err == nil && user != nil {
		s.Notifier.NotifyUserOfRemoval(user, group, actor)
		s.Notifier.NotifyAdminsOfRemovedUser(user, group, actor)
	}
	return nil
}

// GrantAccess creates a grant and, unless suppressed, the backing membership.
// Granting an already-granted (agreement, group, user) is a no-op.
func (s *GrantSyncService) GrantAccess(agreementId uint, groupId uint, userId uint, level models.AccessLevel, actor *models.User, opts SyncOptions) (*models.AccessGrant, error) {
	var grant *models.AccessGrant
	err := s.DB.GormDB.Transaction(func(tx *gorm.DB) error {
		var err error
		grant, err = s.grantAccess(s.DB.WithTx(tx), agreementId, groupId, userId, level, actor, opts)
		return err
	})
	return grant, err
}

func (s *GrantSyncService) grantAccess(db *models.Database, agreementId uint, groupId uint, userId uint, level models.AccessLevel, actor *models.User, opts SyncOptions) (*models.AccessGrant, error) {
	if !models.ValidAccessLevel(level) {
		return nil, models.ErrInvalidAccessLevel
	}
	agreement, err := db.GetAgreement(agreementId)
	if err != nil {
		return nil, err
	}
	if agreement == nil {
		return nil, ErrAgreementNotFound
	}
	group, err := db.GetGroup(groupId)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	user, err := db.GetUser(userId)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	grant, err := db.CreateGrant(agreementId, groupId, userId, level, actor.ID)
	if err != nil {
		return nil, err
	}

	if !opts.SkipUserGroupCreation {
		existing, err := db.GetActiveMembership(userId, groupId)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			// access without membership would break the invariant
			if _, err := db.CreateMembership(userId, groupId, level == models.AccessLevelAdmin, actor.ID); err != nil {
				return nil, err
			}
			s.Notifier.NotifyUserOfMembership(user, group, actor)
			s.Notifier.NotifyAdminsOfAddedUser(user, group, actor)
		}
	}
	return grant, nil
}

// RevokeAccess destroys a grant and, unless suppressed, the membership too
// when the user holds no remaining grants in that group across any linked
// agreement.
func (s *GrantSyncService) RevokeAccess(grantId uint, actor *models.User, opts SyncOptions) error {
	return s.DB.GormDB.Transaction(func(tx *gorm.DB) error {
		return s.revokeAccess(s.DB.WithTx(tx), grantId, actor, opts)
	})
}

func (s *GrantSyncService) revokeAccess(db *models.Database, grantId uint, actor *models.User, opts SyncOptions) error {
	grant, err := db.GetGrant(grantId)
	if err != nil {
		return err
	}
	if grant == nil {
		return ErrGrantNotFound
	}
	if err := db.SoftDeleteGrant(grant); err != nil {
		return err
	}

	if opts.SkipUserGroupRemoval {
		return nil
	}
	remaining, err := db.GetGrantsForGroupAndUser(grant.GroupID, grant.UserID)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		return nil
	}
	err = s.removeMember(db, grant.GroupID, grant.UserID, actor, SyncOptions{SkipAccessGrantRemoval: true})
	if errors.Is(err, ErrNotAMember) {
		// membership already gone; nothing left to clean up
		return nil
	}
	return err
}

// reconcileGroup restores the membership/grant invariant for one group by
// computing the full diff from current state and applying it: members missing
// a grant on a linked agreement get one, grant holders missing a membership
// get one. It recomputes from scratch on every call, so it self-heals.
func (s *GrantSyncService) reconcileGroup(db *models.Database, group *models.Group, actor *models.User, opts SyncOptions) error {
	memberships, err := db.GetMembershipsForGroup(group.ID)
	if err != nil {
		return err
	}
	agreements, err := db.GetAgreementsLinkedToGroup(group)
	if err != nil {
		return err
	}
	grants, err := db.GetGrantsForGroup(group.ID)
	if err != nil {
		return err
	}

	memberByUser := lo.KeyBy(memberships, func(m models.UserGroup) uint { return m.UserID })

	var grantsToCreate []models.AccessGrant
	var membershipsToCreate []models.UserGroup

	for _, agreement := range agreements {
		granted := map[uint]bool{}
		for _, g := range grants {
			if g.InformationSharingAgreementID != agreement.ID {
				continue
			}
			granted[g.UserID] = true
			if _, member := memberByUser[g.UserID]; !member && !opts.SkipUserGroupCreation {
				m := models.UserGroup{
					UserID:    g.UserID,
					GroupID:   group.ID,
					IsAdmin:   g.AccessLevel == models.AccessLevelAdmin,
					CreatorID: actor.ID,
				}
				membershipsToCreate = append(membershipsToCreate, m)
				memberByUser[g.UserID] = m
			}
		}
		for _, m := range memberships {
			if granted[m.UserID] {
				continue
			}
			level := DefaultMemberAccessLevel
			if m.IsAdmin {
				level = models.AccessLevelAdmin
			}
			grantsToCreate = append(grantsToCreate, models.AccessGrant{
				InformationSharingAgreementID: agreement.ID,
				GroupID:                       group.ID,
				UserID:                        m.UserID,
				AccessLevel:                   level,
				CreatorID:                     actor.ID,
			})
		}
	}

	if len(grantsToCreate) == 0 && len(membershipsToCreate) == 0 {
		return nil
	}
	slog.Debug("reconciling group",
		"groupId", group.ID,
		"grantsToCreate", len(grantsToCreate),
		"membershipsToCreate", len(membershipsToCreate))

	for _, g := range grantsToCreate {
		if _, err := db.CreateGrant(g.InformationSharingAgreementID, g.GroupID, g.UserID, g.AccessLevel, g.CreatorID); err != nil {
			return err
		}
	}
	for _, m := range membershipsToCreate {
		if _, err := db.CreateMembership(m.UserID, m.GroupID, m.IsAdmin, m.CreatorID); err != nil {
			return err
		}
		if user, err := db.GetUser(m.UserID); err == nil && user != nil {
			s.Notifier.NotifyUserOfMembership(user, group, actor)
			s.Notifier.NotifyAdminsOfAddedUser(user, group, actor)
		}
	}
	return nil
}

// ContactSnapshot captures an agreement's contact references before an
// update, so reassignments can be resolved afterwards.
type ContactSnapshot struct {
	ExternalGroupContactID          *uint
	InternalGroupContactID          *uint
	InternalGroupSecondaryContactID *uint
}

func SnapshotContacts(a *models.InformationSharingAgreement) ContactSnapshot {
	return ContactSnapshot{
		ExternalGroupContactID:          a.ExternalGroupContactID,
		InternalGroupContactID:          a.InternalGroupContactID,
		InternalGroupSecondaryContactID: a.InternalGroupSecondaryContactID,
	}
}

type contactChange struct {
	groupId uint
	oldUser *uint
	newUser *uint
}

// ContactsReassigned resolves contact field changes against the
// agreement-scoped groups: the old contact loses their admin grant (and
// membership, when orphaned), the new contact gains one. A no-op while the
// agreement is still draft, since the groups do not exist yet. Multiple
// simultaneous changes are each resolved independently and applied together
// in one transaction.
func (s *GrantSyncService) ContactsReassigned(agreementId uint, before ContactSnapshot, actor *models.User) error {
	return s.DB.GormDB.Transaction(func(tx *gorm.DB) error {
		return s.contactsReassigned(s.DB.WithTx(tx), agreementId, before, actor)
	})
}

// SaveAgreementContacts persists the agreement's attribute changes and
// resolves the contact reassignments they imply in one transaction, so a
// failed cascade rolls the attribute write back too.
func (s *GrantSyncService) SaveAgreementContacts(agreement *models.InformationSharingAgreement, before ContactSnapshot, actor *models.User) error {
	return s.DB.GormDB.Transaction(func(tx *gorm.DB) error {
		db := s.DB.WithTx(tx)
		if err := db.UpdateAgreement(agreement); err != nil {
			return err
		}
		return s.contactsReassigned(db, agreement.ID, before, actor)
	})
}

func (s *GrantSyncService) contactsReassigned(db *models.Database, agreementId uint, before ContactSnapshot, actor *models.User) error {
	agreement, err := db.GetAgreement(agreementId)
	if err != nil {
		return err
	}
	if agreement == nil {
		return ErrAgreementNotFound
	}
	if agreement.IsDraft() || agreement.ExternalGroupID == nil || agreement.InternalGroupID == nil {
		return nil
	}

	changes := []contactChange{
		{*agreement.ExternalGroupID, before.ExternalGroupContactID, agreement.ExternalGroupContactID},
		{*agreement.InternalGroupID, before.InternalGroupContactID, agreement.InternalGroupContactID},
		{*agreement.InternalGroupID, before.InternalGroupSecondaryContactID, agreement.InternalGroupSecondaryContactID},
	}

	// removals first so a swap of two contacts resolves cleanly
	for _, change := range changes {
		if change.oldUser == nil || sameUser(change.oldUser, change.newUser) {
			continue
		}
		grant, err := db.GetActiveGrant(agreementId, change.groupId, *change.oldUser)
		if err != nil {
			return err
		}
		if grant != nil {
			if err := s.revokeAccess(db, grant.ID, actor, SyncOptions{}); err != nil {
				return err
			}
		}
	}
	for _, change := range changes {
		if change.newUser == nil || sameUser(change.oldUser, change.newUser) {
			continue
		}
		if _, err := s.grantAccess(db, agreementId, change.groupId, *change.newUser, models.AccessLevelAdmin, actor, SyncOptions{}); err != nil {
			return fmt.Errorf("reassigning contact: %w", err)
		}
	}
	return nil
}

func sameUser(a *uint, b *uint) bool {
	return a != nil && b != nil && *a == *b
}

// destroyGroup cascades a group's removal through the membership and grant
// stores. Used by the revert-to-draft transition on agreement-scoped groups.
func (s *GrantSyncService) destroyGroup(db *models.Database, group *models.Group, actor *models.User) error {
	memberships, err := db.GetMembershipsForGroup(group.ID)
	if err != nil {
		return err
	}
	for i := range memberships {
		// grants are removed wholesale below
		err := s.removeMember(db, group.ID, memberships[i].UserID, actor, SyncOptions{SkipAccessGrantRemoval: true})
		if err != nil {
			return err
		}
	}
	grants, err := db.GetGrantsForGroup(group.ID)
	if err != nil {
		return err
	}
	for i := range grants {
		if err := db.SoftDeleteGrant(&grants[i]); err != nil {
			return err
		}
	}
	return db.SoftDeleteGroup(group.ID)
}
