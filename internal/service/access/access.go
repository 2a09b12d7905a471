package access

import "github.com/nicunursekatie/sandwichsync-sub003/internal/domain"

// Capability flags checked per request and per UI element.
const (
	ManageUsers         = "manage_users"
	ModerateMessages    = "moderate_messages"
	ManageAnnouncements = "manage_announcements"
	ManageMeetings      = "manage_meetings"
	ManageProjects      = "manage_projects"
	ManageHosts         = "manage_hosts"
	ManageRecipients    = "manage_recipients"
	LogCollections      = "log_collections"
	SendMessages        = "send_messages"
	ViewAnalytics       = "view_analytics"

	ChatGeneral   = "chat_general"
	ChatCommittee = "chat_committee"
	ChatHost      = "chat_host"
	ChatCoreTeam  = "chat_core_team"
	ChatDirect    = "chat_direct"
	ChatGroup     = "chat_group"
)

// rolePermissions is the static role to capability table. Super admin is
// handled in Can and never consulted here.
var rolePermissions = map[string][]string{
	domain.RoleAdmin: {
		ManageUsers, ModerateMessages, ManageAnnouncements, ManageMeetings,
		ManageProjects, ManageHosts, ManageRecipients, LogCollections,
		SendMessages, ViewAnalytics,
		ChatGeneral, ChatCommittee, ChatHost, ChatCoreTeam, ChatDirect, ChatGroup,
	},
	domain.RoleCommitteeMember: {
		ManageMeetings, ManageProjects, LogCollections, SendMessages, ViewAnalytics,
		ChatGeneral, ChatCommittee, ChatDirect, ChatGroup,
	},
	domain.RoleHost: {
		LogCollections, SendMessages,
		ChatGeneral, ChatHost, ChatDirect, ChatGroup,
	},
	domain.RoleDriver: {
		SendMessages,
		ChatGeneral, ChatDirect, ChatGroup,
	},
	domain.RoleVolunteer: {
		LogCollections, SendMessages,
		ChatGeneral, ChatDirect, ChatGroup,
	},
	domain.RoleRecipient: {
		SendMessages,
		ChatDirect,
	},
	domain.RoleViewer: {
		ViewAnalytics,
	},
}

// Can reports whether the user holds the capability. Explicit per-user
// permission overrides win over the role table; super admins hold everything.
func Can(user *domain.User, capability string) bool {
	if user == nil || !user.Active {
		return false
	}
	if user.Role == domain.RoleSuperAdmin {
		return true
	}
	for _, p := range user.Permissions {
		if p == capability {
			return true
		}
	}
	for _, p := range rolePermissions[user.Role] {
		if p == capability {
			return true
		}
	}
	return false
}

// ChannelCapability maps a channel conversation name to the capability
// required to post in it. Unknown channels fall back to general chat.
func ChannelCapability(channelName string) string {
	switch channelName {
	case "committee":
		return ChatCommittee
	case "host", "hosts":
		return ChatHost
	case "core_team", "core-team":
		return ChatCoreTeam
	default:
		return ChatGeneral
	}
}

// ConversationCapability maps a conversation to the capability required to
// send messages in it.
func ConversationCapability(conversation *domain.Conversation) string {
	if conversation == nil {
		return SendMessages
	}
	switch conversation.Type {
	case domain.ConversationChannel:
		return ChannelCapability(conversation.Name)
	case domain.ConversationHost:
		return ChatHost
	case domain.ConversationDirect:
		return ChatDirect
	case domain.ConversationGroup:
		return ChatGroup
	default:
		return SendMessages
	}
}
