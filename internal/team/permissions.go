package team

import (
	"github.com/synapticflow/synaptic-flow/internal/model"
)

// IsOwner reports whether the user created the project/task
func IsOwner(task *model.Task, user *model.User) bool {
	return task != nil && user != nil && task.OwnerID == user.ID
}

// IsAdmin reports whether the user holds the admin role on the task's team
func IsAdmin(task *model.Task, user *model.User) bool {
	if task == nil || user == nil {
		return false
	}
	for _, m := range task.Team {
		if m.UserID == user.ID && m.Role == model.RoleAdmin {
			return true
		}
	}
	return false
}

// IsMember reports whether the user is on the task's member list
func IsMember(task *model.Task, user *model.User) bool {
	if task == nil || user == nil {
		return false
	}
	for _, id := range task.MemberIDs {
		if id == user.ID {
			return true
		}
	}
	return false
}

// CanEdit gates task/project edits: owner or admin only. Superusers bypass
// every check.
func CanEdit(task *model.Task, user *model.User) bool {
	return isSuperuser(user) || IsOwner(task, user) || IsAdmin(task, user)
}

// CanManageTeam gates inviting and removing collaborators
func CanManageTeam(task *model.Task, user *model.User) bool {
	return CanEdit(task, user)
}

// CanRevert gates pushing a task back a column
func CanRevert(task *model.Task, user *model.User) bool {
	return CanEdit(task, user)
}

// CanCreateSubtask allows any collaborator to break work down further. A nil
// parent means a new root project, which anyone past pending may create.
func CanCreateSubtask(parent *model.Task, user *model.User) bool {
	if user == nil || user.Role == model.RolePending {
		return false
	}
	if parent == nil {
		return true
	}
	return CanEdit(parent, user) || IsMember(parent, user)
}

func isSuperuser(user *model.User) bool {
	return user != nil && user.Role == model.RoleSuperuser
}
