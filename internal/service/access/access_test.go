package access

import (
	"testing"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/domain"
)

func TestCanNilAndInactiveUsers(t *testing.T) {
	if Can(nil, SendMessages) {
		t.Fatal("nil user should hold no capabilities")
	}
	inactive := &domain.User{Role: domain.RoleAdmin, Active: false}
	if Can(inactive, SendMessages) {
		t.Fatal("inactive user should hold no capabilities")
	}
}

func TestCanSuperAdminHoldsEverything(t *testing.T) {
	super := &domain.User{Role: domain.RoleSuperAdmin, Active: true}
	for _, capability := range []string{ManageUsers, ModerateMessages, ChatCoreTeam, LogCollections} {
		if !Can(super, capability) {
			t.Fatalf("super admin missing %s", capability)
		}
	}
}

func TestCanRoleTable(t *testing.T) {
	volunteer := &domain.User{Role: domain.RoleVolunteer, Active: true}
	if !Can(volunteer, LogCollections) {
		t.Fatal("volunteer should log collections")
	}
	if Can(volunteer, ManageUsers) {
		t.Fatal("volunteer should not manage users")
	}
	viewer := &domain.User{Role: domain.RoleViewer, Active: true}
	if Can(viewer, SendMessages) {
		t.Fatal("viewer should not send messages")
	}
	if !Can(viewer, ViewAnalytics) {
		t.Fatal("viewer should view analytics")
	}
}

func TestCanPerUserOverrides(t *testing.T) {
	driver := &domain.User{
		Role:        domain.RoleDriver,
		Active:      true,
		Permissions: []string{ModerateMessages},
	}
	if !Can(driver, ModerateMessages) {
		t.Fatal("explicit permission override should win")
	}
}

func TestConversationCapability(t *testing.T) {
	cases := []struct {
		conversation *domain.Conversation
		want         string
	}{
		{nil, SendMessages},
		{&domain.Conversation{Type: domain.ConversationChannel, Name: "committee"}, ChatCommittee},
		{&domain.Conversation{Type: domain.ConversationChannel, Name: "core_team"}, ChatCoreTeam},
		{&domain.Conversation{Type: domain.ConversationChannel, Name: "random"}, ChatGeneral},
		{&domain.Conversation{Type: domain.ConversationHost}, ChatHost},
		{&domain.Conversation{Type: domain.ConversationDirect}, ChatDirect},
		{&domain.Conversation{Type: domain.ConversationGroup}, ChatGroup},
	}
	for _, tc := range cases {
		if got := ConversationCapability(tc.conversation); got != tc.want {
			t.Fatalf("ConversationCapability(%+v) = %s, want %s", tc.conversation, got, tc.want)
		}
	}
}
