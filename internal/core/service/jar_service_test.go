package service

import (
	"context"
	"errors"
	"testing"

	"github.com/moneyjar/jarledger/internal/core/domain"
	"github.com/moneyjar/jarledger/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type jarFixture struct {
	jars    *stubJarRepo
	txs     *stubTxRepo
	users   *stubUserRepo
	members *stubMemberRepo
	svc     ports.JarService
}

func newJarFixture() *jarFixture {
	f := &jarFixture{
		jars:    newStubJarRepo(),
		txs:     newStubTxRepo(),
		users:   newStubUserRepo(),
		members: newStubMemberRepo(),
	}
	f.svc = NewJarService(f.jars, f.txs, f.users, f.members, nopUOW{}, discardLogger)
	return f
}

func createInput(ownerID, name string) ports.CreateJarInput {
	return ports.CreateJarInput{OwnerID: ownerID, Name: name}
}

// ---------------------------------------------------------------------------
// CreateJar tests
// ---------------------------------------------------------------------------

func TestJarService_Create_Success(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", false)

	jar, err := f.svc.CreateJar(context.Background(), createInput("user_1", "Groceries"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if jar.ID == "" {
		t.Error("jar must get an id")
	}
	if !jar.Balance.IsZero() {
		t.Errorf("new jar must start at zero, got %s", jar.Balance)
	}
	if jar.Position != 0 {
		t.Errorf("first jar must take position 0, got %d", jar.Position)
	}
	if jar.Emoji != domain.DefaultJarEmoji {
		t.Errorf("expected default emoji, got %q", jar.Emoji)
	}
	if jar.IsShared {
		t.Error("new jar must not be shared")
	}
}

func TestJarService_Create_PositionAppends(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", false)

	for i, name := range []string{"A", "B", "C"} {
		jar, err := f.svc.CreateJar(context.Background(), createInput("user_1", name))
		if err != nil {
			t.Fatalf("create %q: %v", name, err)
		}
		if jar.Position != i {
			t.Errorf("jar %q: expected position %d, got %d", name, i, jar.Position)
		}
	}
}

func TestJarService_Create_BlankNameRejected(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", false)

	for _, name := range []string{"", "   "} {
		_, err := f.svc.CreateJar(context.Background(), createInput("user_1", name))
		if !errors.Is(err, domain.ErrInvalidName) {
			t.Errorf("name=%q: expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestJarService_Create_NonPositiveTargetRejected(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", false)

	target := dec("0")
	_, err := f.svc.CreateJar(context.Background(), ports.CreateJarInput{
		OwnerID: "user_1", Name: "Goal", TargetAmount: &target,
	})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero target, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Tier limit tests
// ---------------------------------------------------------------------------

func TestJarService_Create_FreeTierLimit(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", false)

	for _, name := range []string{"A", "B", "C"} {
		if _, err := f.svc.CreateJar(context.Background(), createInput("user_1", name)); err != nil {
			t.Fatalf("create %q: %v", name, err)
		}
	}

	_, err := f.svc.CreateJar(context.Background(), createInput("user_1", "D"))
	if !errors.Is(err, domain.ErrTierLimitExceeded) {
		t.Errorf("expected ErrTierLimitExceeded on 4th jar, got %v", err)
	}
}

func TestJarService_Create_ProHasNoLimit(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", true)

	for i := 0; i < 10; i++ {
		if _, err := f.svc.CreateJar(context.Background(), createInput("user_1", "Jar")); err != nil {
			t.Fatalf("pro create %d: %v", i, err)
		}
	}
}

func TestJarService_Create_LimitFreesUpAfterDelete(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", false)

	var last *domain.Jar
	for _, name := range []string{"A", "B", "C"} {
		last, _ = f.svc.CreateJar(context.Background(), createInput("user_1", name))
	}
	if err := f.svc.DeleteJar(context.Background(), last.ID, "user_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// The guard counts live jars, so a slot opened up.
	jar, err := f.svc.CreateJar(context.Background(), createInput("user_1", "D"))
	if err != nil {
		t.Fatalf("create after delete: %v", err)
	}
	// Position is the live count, so gaps from deletion may be refilled;
	// ordering still only relies on relative values.
	if jar.Position != 2 {
		t.Errorf("expected position 2, got %d", jar.Position)
	}
}

// ---------------------------------------------------------------------------
// DeleteJar tests
// ---------------------------------------------------------------------------

func TestJarService_Delete_CascadesTransactionsAndMembers(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", false)
	jar, _ := f.svc.CreateJar(context.Background(), createInput("user_1", "Groceries"))

	f.txs.entries = append(f.txs.entries,
		&domain.Transaction{ID: "t1", JarID: jar.ID, Type: domain.TxFill, Amount: dec("10")},
		&domain.Transaction{ID: "t2", JarID: jar.ID, Type: domain.TxSpend, Amount: dec("5")},
	)
	f.members.seedMember(jar.ID, "user_2", domain.RoleViewer, true)

	if err := f.svc.DeleteJar(context.Background(), jar.ID, "user_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.jars.FindByID(context.Background(), jar.ID); !errors.Is(err, domain.ErrJarNotFound) {
		t.Error("jar must be gone")
	}
	if f.txs.countByJar(jar.ID) != 0 {
		t.Errorf("transactions must be cascade-deleted, %d left", f.txs.countByJar(jar.ID))
	}
	if _, err := f.members.FindByJarAndUser(context.Background(), jar.ID, "user_2"); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Error("memberships must be cascade-deleted")
	}
}

func TestJarService_Delete_MemberGetsForbidden(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", false)
	jar, _ := f.svc.CreateJar(context.Background(), createInput("user_1", "Groceries"))
	f.members.seedMember(jar.ID, "user_2", domain.RoleEditor, true)

	err := f.svc.DeleteJar(context.Background(), jar.ID, "user_2")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("editor deleting must get ErrForbidden, got %v", err)
	}
}

func TestJarService_Delete_StrangerGetsNotFound(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", false)
	jar, _ := f.svc.CreateJar(context.Background(), createInput("user_1", "Groceries"))

	err := f.svc.DeleteJar(context.Background(), jar.ID, "user_999")
	if !errors.Is(err, domain.ErrJarNotFound) {
		t.Errorf("stranger deleting must get ErrJarNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Listing tests
// ---------------------------------------------------------------------------

func TestJarService_List_OrderedByPosition(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", true)

	for _, name := range []string{"First", "Second", "Third"} {
		if _, err := f.svc.CreateJar(context.Background(), createInput("user_1", name)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	jars, err := f.svc.ListJars(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jars) != 3 {
		t.Fatalf("expected 3 jars, got %d", len(jars))
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if jars[i].Name != want {
			t.Errorf("position %d: expected %q, got %q", i, want, jars[i].Name)
		}
	}
}

func TestJarService_ListActivity_EmptyWithoutJars(t *testing.T) {
	f := newJarFixture()

	txs, err := f.svc.ListActivity(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected empty activity, got %d entries", len(txs))
	}
}

// The feed follows the acting user: entries a member records on a shared jar
// they don't own show up in their feed, and other users' entries don't.
func TestJarService_ListActivity_FollowsActingUser(t *testing.T) {
	f := newJarFixture()
	seed := func(id, jarID, userID string) {
		f.txs.entries = append(f.txs.entries, &domain.Transaction{
			ID: id, JarID: jarID, UserID: userID, Type: domain.TxFill, Amount: dec("1"),
		})
	}
	seed("t1", "jar_own", "user_2")    // user_2 on their own jar
	seed("t2", "jar_shared", "user_2") // user_2 on user_1's shared jar
	seed("t3", "jar_shared", "user_1") // the owner's own entry

	txs, err := f.svc.ListActivity(context.Background(), "user_2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(txs))
	}
	// Newest first.
	if txs[0].ID != "t2" || txs[1].ID != "t1" {
		t.Errorf("expected [t2 t1], got [%s %s]", txs[0].ID, txs[1].ID)
	}
	for _, tx := range txs {
		if tx.UserID != "user_2" {
			t.Errorf("entry %s belongs to %s, not the caller", tx.ID, tx.UserID)
		}
	}
}

func TestJarService_ListTransactions_ViewerMayRead(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "a@example.com", false)
	jar, _ := f.svc.CreateJar(context.Background(), createInput("user_1", "Groceries"))
	f.members.seedMember(jar.ID, "user_2", domain.RoleViewer, true)

	if _, err := f.svc.ListTransactions(context.Background(), jar.ID, "user_2"); err != nil {
		t.Fatalf("accepted viewer must be able to read, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Membership tests
// ---------------------------------------------------------------------------

func TestJarService_Invite_Success(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "owner@example.com", false)
	f.users.seedUser("user_2", "friend@example.com", false)
	jar, _ := f.svc.CreateJar(context.Background(), createInput("user_1", "Household"))

	m, err := f.svc.InviteMember(context.Background(), ports.InviteMemberInput{
		JarID: jar.ID, ActorID: "user_1", Email: "Friend@Example.com", Role: domain.RoleEditor,
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	if m.UserID != "user_2" {
		t.Errorf("expected invitee user_2, got %q", m.UserID)
	}
	if m.Accepted() {
		t.Error("fresh invite must be pending")
	}

	// The jar flips to shared.
	stored, _ := f.jars.FindByID(context.Background(), jar.ID)
	if !stored.IsShared {
		t.Error("inviting must mark the jar shared")
	}
}

func TestJarService_Invite_OnlyOwnerMayInvite(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "owner@example.com", false)
	f.users.seedUser("user_2", "friend@example.com", false)
	jar, _ := f.svc.CreateJar(context.Background(), createInput("user_1", "Household"))
	f.members.seedMember(jar.ID, "user_2", domain.RoleEditor, true)

	_, err := f.svc.InviteMember(context.Background(), ports.InviteMemberInput{
		JarID: jar.ID, ActorID: "user_2", Email: "x@example.com", Role: domain.RoleViewer,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestJarService_Invite_InvalidRoleRejected(t *testing.T) {
	f := newJarFixture()

	_, err := f.svc.InviteMember(context.Background(), ports.InviteMemberInput{
		JarID: "jar_1", ActorID: "user_1", Email: "x@example.com", Role: "owner",
	})
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Errorf("owner role must not be assignable, got %v", err)
	}
}

func TestJarService_Invite_DuplicateRejected(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "owner@example.com", false)
	f.users.seedUser("user_2", "friend@example.com", false)
	jar, _ := f.svc.CreateJar(context.Background(), createInput("user_1", "Household"))

	in := ports.InviteMemberInput{JarID: jar.ID, ActorID: "user_1", Email: "friend@example.com", Role: domain.RoleViewer}
	if _, err := f.svc.InviteMember(context.Background(), in); err != nil {
		t.Fatalf("first invite: %v", err)
	}
	if _, err := f.svc.InviteMember(context.Background(), in); !errors.Is(err, domain.ErrMemberExists) {
		t.Errorf("expected ErrMemberExists, got %v", err)
	}
}

func TestJarService_Invite_SelfInviteRejected(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "owner@example.com", false)
	jar, _ := f.svc.CreateJar(context.Background(), createInput("user_1", "Household"))

	_, err := f.svc.InviteMember(context.Background(), ports.InviteMemberInput{
		JarID: jar.ID, ActorID: "user_1", Email: "owner@example.com", Role: domain.RoleEditor,
	})
	if !errors.Is(err, domain.ErrMemberExists) {
		t.Errorf("expected ErrMemberExists for self-invite, got %v", err)
	}
}

func TestJarService_AcceptInvite_ActivatesAndIsIdempotent(t *testing.T) {
	f := newJarFixture()
	f.users.seedUser("user_1", "owner@example.com", false)
	f.users.seedUser("user_2", "friend@example.com", false)
	jar, _ := f.svc.CreateJar(context.Background(), createInput("user_1", "Household"))
	_, _ = f.svc.InviteMember(context.Background(), ports.InviteMemberInput{
		JarID: jar.ID, ActorID: "user_1", Email: "friend@example.com", Role: domain.RoleEditor,
	})

	if err := f.svc.AcceptInvite(context.Background(), jar.ID, "user_2"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	m, _ := f.members.FindByJarAndUser(context.Background(), jar.ID, "user_2")
	if !m.Accepted() {
		t.Fatal("membership must be accepted")
	}
	first := *m.AcceptedAt

	if err := f.svc.AcceptInvite(context.Background(), jar.ID, "user_2"); err != nil {
		t.Fatalf("second accept must be a no-op, got: %v", err)
	}
	m2, _ := f.members.FindByJarAndUser(context.Background(), jar.ID, "user_2")
	if !m2.AcceptedAt.Equal(first) {
		t.Error("second accept must not move the acceptance time")
	}
}
