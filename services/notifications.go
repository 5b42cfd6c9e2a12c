package services

import (
	"log/slog"

	"github.com/infoshare/backend/models"
)

// Notifier is the outbound notification contract invoked on membership
// changes. Delivery is someone else's problem; implementations are called
// inside the mutating transaction and must not block on it.
type Notifier interface {
	NotifyUserOfMembership(user *models.User, group *models.Group, actor *models.User)
	NotifyAdminsOfAddedUser(user *models.User, group *models.Group, actor *models.User)
	NotifyUserOfRemoval(user *models.User, group *models.Group, actor *models.User)
	NotifyAdminsOfRemovedUser(user *models.User, group *models.Group, actor *models.User)
}

// SlogNotifier is the default Notifier; it records the events and nothing
// else. Deployments wire a real dispatcher in bootstrap.
type SlogNotifier struct{}

func (SlogNotifier) NotifyUserOfMembership(user *models.User, group *models.Group, actor *models.User) {
	slog.Info("notify: user added to group",
		"userId", user.ID,
		"groupId", group.ID,
		"actorId", actor.ID)
}

func (SlogNotifier) NotifyAdminsOfAddedUser(user *models.User, group *models.Group, actor *models.User) {
	slog.Info("notify: group admins of added user",
		"userId", user.ID,
		"groupId", group.ID,
		"actorId", actor.ID)
}

func (SlogNotifier) NotifyUserOfRemoval(user *models.User, group *models.Group, actor *models.User) {
	slog.Info("notify: user removed from group",
		"userId", user.ID,
		"groupId", group.ID,
		"actorId", actor.ID)
}

func (SlogNotifier) NotifyAdminsOfRemovedUser(user *models.User, group *models.Group, actor *models.User) {
	slog.Info("notify: group admins of removed user",
		"userId", user.ID,
		"groupId", group.ID,
		"actorId", actor.ID)
}
