package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"intranet/internal/models"
	"intranet/internal/repository"
)

// memStore is an in-memory entitlement store shared by the ticket and
// entitlement repository fakes, so tests can observe cross-table effects.
type memStore struct {
	nextTicketID      uint
	nextEntitlementID uint
	tickets           map[uint]*models.AccessTicket
	entitlements      map[uint]*models.ActiveEntitlement
}

func newMemStore() *memStore {
	return &memStore{
		tickets:      make(map[uint]*models.AccessTicket),
		entitlements: make(map[uint]*models.ActiveEntitlement),
	}
}

type memTickets struct{ s *memStore }

func (r memTickets) Create(_ context.Context, ticket *models.AccessTicket) error {
	r.s.nextTicketID++
	ticket.ID = r.s.nextTicketID
	clone := *ticket
	r.s.tickets[ticket.ID] = &clone
	return nil
}

func (r memTickets) GetByID(_ context.Context, id uint) (*models.AccessTicket, error) {
	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, models.NewNotFoundError("Access ticket", id)
	}
	clone := *ticket
	return &clone, nil
}

func (r memTickets) FindNewByPair(_ context.Context, userID, applicationID uint) (*models.AccessTicket, error) {
	for _, ticket := range r.s.tickets {
		if ticket.UserID == userID && ticket.ApplicationID == applicationID && ticket.Status == models.TicketStatusNew {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, nil
}

func (r memTickets) Complete(_ context.Context, id uint, status models.AccessTicketStatus, completedByID uint, completedAt time.Time) error {
	ticket, ok := r.s.tickets[id]
	if !ok || ticket.Status != models.TicketStatusNew {
		return models.NewConflictError("Request is already processed.")
	}
	ticket.Status = status
	ticket.CompletedByID = &completedByID
	ticket.CompletedAt = &completedAt
	return nil
}

func (r memTickets) List(_ context.Context, filter repository.TicketFilter) ([]models.AccessTicket, error) {
	var out []models.AccessTicket
	for _, ticket := range r.s.tickets {
		if filter.UserID != 0 && ticket.UserID != filter.UserID {
			continue
		}
		if filter.ApplicationID != 0 && ticket.ApplicationID != filter.ApplicationID {
			continue
		}
		if filter.Status != "" && ticket.Status != filter.Status {
			continue
		}
		if filter.RequestType != "" && ticket.RequestType != filter.RequestType {
			continue
		}
		out = append(out, *ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (r memTickets) ListNewByApplications(_ context.Context, applicationIDs []uint) ([]models.AccessTicket, error) {
	allowed := make(map[uint]bool, len(applicationIDs))
	for _, id := range applicationIDs {
		allowed[id] = true
	}
	var out []models.AccessTicket
	for _, ticket := range r.s.tickets {
		if ticket.Status == models.TicketStatusNew && allowed[ticket.ApplicationID] {
			out = append(out, *ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

type memEntitlements struct{ s *memStore }

func (r memEntitlements) Create(_ context.Context, entitlement *models.ActiveEntitlement) error {
	r.s.nextEntitlementID++
	entitlement.ID = r.s.nextEntitlementID
	clone := *entitlement
	r.s.entitlements[entitlement.ID] = &clone
	return nil
}

func (r memEntitlements) GetByID(_ context.Context, id uint) (*models.ActiveEntitlement, error) {
	entitlement, ok := r.s.entitlements[id]
	if !ok {
		return nil, nil
	}
	clone := *entitlement
	return &clone, nil
}

func (r memEntitlements) ExistsByPair(_ context.Context, userID, applicationID uint) (bool, error) {
	for _, e := range r.s.entitlements {
		if e.UserID == userID && e.ApplicationID == applicationID {
			return true, nil
		}
	}
	return false, nil
}

func (r memEntitlements) SetPendingRevocation(_ context.Context, id uint, pending bool) error {
	entitlement, ok := r.s.entitlements[id]
	if !ok {
		return models.NewNotFoundError("Active entitlement", id)
	}
	entitlement.PendingRevocation = pending
	return nil
}

func (r memEntitlements) DeleteByPair(_ context.Context, userID, applicationID uint) error {
	for id, e := range r.s.entitlements {
		if e.UserID == userID && e.ApplicationID == applicationID {
			delete(r.s.entitlements, id)
		}
	}
	return nil
}

func (r memEntitlements) List(_ context.Context, filter repository.EntitlementFilter) ([]models.ActiveEntitlement, error) {
	var out []models.ActiveEntitlement
	for _, e := range r.s.entitlements {
		if filter.UserID != 0 && e.UserID != filter.UserID {
			continue
		}
		if filter.ApplicationID != 0 && e.ApplicationID != filter.ApplicationID {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r memEntitlements) Count(_ context.Context) (int64, error) {
	return int64(len(r.s.entitlements)), nil
}

// registryStub is an application registry keyed by application id, mapping to
// the admin user ids for that application.
type registryStub struct {
	admins map[uint][]uint
}

func (s *registryStub) GetByID(_ context.Context, id uint) (*models.SystemApplication, error) {
	if _, ok := s.admins[id]; !ok {
		return nil, models.NewNotFoundError("System application", id)
	}
	return &models.SystemApplication{ID: id, IsActive: true}, nil
}

func (s *registryStub) Exists(_ context.Context, id uint) (bool, error) {
	_, ok := s.admins[id]
	return ok, nil
}

func (s *registryStub) List(_ context.Context, _, _ int) ([]models.SystemApplication, error) {
	return nil, nil
}

func (s *registryStub) IsAdmin(_ context.Context, applicationID, userID uint) (bool, error) {
	for _, id := range s.admins[applicationID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *registryStub) AdminsOf(_ context.Context, applicationID uint) ([]uint, error) {
	return s.admins[applicationID], nil
}

func (s *registryStub) AddAdmin(_ context.Context, applicationID, userID uint) error {
	s.admins[applicationID] = append(s.admins[applicationID], userID)
	return nil
}

func (s *registryStub) RemoveAdmin(_ context.Context, applicationID, userID uint) error {
	var kept []uint
	for _, id := range s.admins[applicationID] {
		if id != userID {
			kept = append(kept, id)
		}
	}
	s.admins[applicationID] = kept
	return nil
}

func (s *registryStub) AdminApplicationIDs(_ context.Context, userID uint) ([]uint, error) {
	var out []uint
	for appID, adminIDs := range s.admins {
		for _, id := range adminIDs {
			if id == userID {
				out = append(out, appID)
			}
		}
	}
	return out, nil
}

func (s *registryStub) AllApplicationIDs(_ context.Context) ([]uint, error) {
	var out []uint
	for appID := range s.admins {
		out = append(out, appID)
	}
	return out, nil
}

type directoryStub struct {
	users map[uint]*models.User
}

func (s *directoryStub) Update(_ context.Context, _ *models.User) error { return nil }
func (s *directoryStub) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, nil
}
func (s *directoryStub) List(context.Context, int, int) ([]models.User, error) { return nil, nil }

func (s *directoryStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

func (s *directoryStub) ResolveIdentity(_ context.Context, id uint) (*models.Identity, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	return &models.Identity{ID: user.ID, IsActive: user.IsActive, IsSuperAdmin: user.IsSuperAdmin}, nil
}

type auditStub struct {
	entries []models.AuditEntry
}

func (s *auditStub) Record(_ context.Context, entry *models.AuditEntry) {
	s.entries = append(s.entries, *entry)
}

type engineFixture struct {
	svc      *AccessService
	store    *memStore
	registry *registryStub
	audit    *auditStub
}

func newEngineFixture() *engineFixture {
	store := newMemStore()
	registry := &registryStub{admins: map[uint][]uint{
		1: {100},
		2: {200},
	}}
	directory := &directoryStub{users: map[uint]*models.User{
		3:   {ID: 3, Username: "subject", IsActive: true},
		4:   {ID: 4, Username: "dormant", IsActive: false},
		100: {ID: 100, Username: "admin-one", IsActive: true},
	}}
	audit := &auditStub{}
	transact := func(ctx context.Context, fn func(repository.TicketRepository, repository.EntitlementRepository) error) error {
		return fn(memTickets{store}, memEntitlements{store})
	}
	svc := NewAccessServiceWithDeps(
		directory, registry,
		memTickets{store}, memEntitlements{store},
		audit, registry, transact,
	)
	return &engineFixture{svc: svc, store: store, registry: registry, audit: audit}
}

func requester() *models.Identity {
	return &models.Identity{ID: 50, IsActive: true, Capabilities: []string{models.CapAccessRequestsViewCreate}}
}

func adminOf(id uint) *models.Identity {
	return &models.Identity{ID: id, IsActive: true}
}

func superAdmin() *models.Identity {
	return &models.Identity{ID: 999, IsActive: true, IsSuperAdmin: true}
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != code {
		t.Fatalf("expected %s app error, got %#v", code, err)
	}
}

func TestCreateActivationTicketsFreshPair(t *testing.T) {
	f := newEngineFixture()

	result, err := f.svc.CreateActivationTickets(context.Background(), requester(), 3, []uint{1}, "needs it for onboarding")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created := result.Created()
	if len(created) != 1 {
		t.Fatalf("expected one created ticket, got %d", len(created))
	}
	ticket := created[0]
	if ticket.Status != models.TicketStatusNew || ticket.RequestType != models.RequestTypeActivate {
		t.Fatalf("unexpected ticket state: %+v", ticket)
	}
	if ticket.RequestedByID != 50 || ticket.UserID != 3 || ticket.ApplicationID != 1 {
		t.Fatalf("ticket attribution wrong: %+v", ticket)
	}
	if len(f.store.tickets) != 1 {
		t.Fatalf("expected one stored ticket, got %d", len(f.store.tickets))
	}
}

func TestCreateActivationTicketsPartitions(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	f.registry.admins[5] = []uint{100}

	// Open New ticket for (3, 1).
	_ = memTickets{f.store}.Create(ctx, &models.AccessTicket{
		UserID: 3, ApplicationID: 1,
		RequestType: models.RequestTypeActivate,
		Status:      models.TicketStatusNew,
		RequestedAt: time.Now(),
	})
	// Live entitlement for (3, 2).
	_ = memEntitlements{f.store}.Create(ctx, &models.ActiveEntitlement{
		UserID: 3, ApplicationID: 2, CompletedByID: 100, GrantedAt: time.Now(),
	})

	result, err := f.svc.CreateActivationTickets(ctx, requester(), 3, []uint{1, 2, 9, 5}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if refs := result.Refs(OutcomeAlreadyRequested); len(refs) != 1 || refs[0] != 1 {
		t.Fatalf("expected app 1 alreadyRequested, got %v", refs)
	}
	if refs := result.Refs(OutcomeAlreadyActive); len(refs) != 1 || refs[0] != 2 {
		t.Fatalf("expected app 2 alreadyActive, got %v", refs)
	}
	failures := result.Failures()
	if len(failures) != 1 || failures[0].Ref != 9 {
		t.Fatalf("expected app 9 to fail, got %v", failures)
	}
	created := result.Created()
	if len(created) != 1 || created[0].ApplicationID != 5 {
		t.Fatalf("expected app 5 created despite failing siblings, got %v", created)
	}
	if len(result.Items) != 4 {
		t.Fatalf("every submitted item must be classified, got %d outcomes", len(result.Items))
	}
}

func TestCreateActivationTicketsInactiveSubject(t *testing.T) {
	f := newEngineFixture()
	_, err := f.svc.CreateActivationTickets(context.Background(), requester(), 4, []uint{1}, "")
	assertAppError(t, err, models.CodeValidation)
}

func TestCreateActivationTicketsUnknownSubject(t *testing.T) {
	f := newEngineFixture()
	_, err := f.svc.CreateActivationTickets(context.Background(), requester(), 77, []uint{1}, "")
	assertAppError(t, err, models.CodeNotFound)
}

func TestActionTicketApproveCreatesEntitlement(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	result, err := f.svc.CreateActivationTickets(ctx, requester(), 3, []uint{1}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ticketID := result.Created()[0].ID

	ticket, err := f.svc.ActionTicket(ctx, adminOf(100), ticketID, models.TicketStatusApproved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Status != models.TicketStatusApproved {
		t.Fatalf("expected Approved, got %s", ticket.Status)
	}
	if ticket.CompletedByID == nil || *ticket.CompletedByID != 100 {
		t.Fatalf("completedBy not stamped: %+v", ticket)
	}

	if len(f.store.entitlements) != 1 {
		t.Fatalf("expected exactly one entitlement, got %d", len(f.store.entitlements))
	}
	for _, e := range f.store.entitlements {
		if e.UserID != 3 || e.ApplicationID != 1 {
			t.Fatalf("entitlement pair wrong: %+v", e)
		}
		if e.SourceTicketID == nil || *e.SourceTicketID != ticketID {
			t.Fatalf("sourceTicketId not linked: %+v", e)
		}
		if e.CompletedByID != 100 {
			t.Fatalf("entitlement approver wrong: %+v", e)
		}
	}
}

func TestActionTicketTerminalIsConflict(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	result, _ := f.svc.CreateActivationTickets(ctx, requester(), 3, []uint{1}, "")
	ticketID := result.Created()[0].ID

	if _, err := f.svc.ActionTicket(ctx, adminOf(100), ticketID, models.TicketStatusApproved); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}

	_, err := f.svc.ActionTicket(ctx, adminOf(100), ticketID, models.TicketStatusApproved)
	assertAppError(t, err, models.CodeConflict)

	// No state change: still one entitlement, ticket still Approved.
	if len(f.store.entitlements) != 1 {
		t.Fatalf("conflict must not mutate entitlements, got %d", len(f.store.entitlements))
	}
	if f.store.tickets[ticketID].Status != models.TicketStatusApproved {
		t.Fatalf("conflict must not mutate ticket, got %s", f.store.tickets[ticketID].Status)
	}
}

func TestActionTicketAuthorizationGate(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	result, _ := f.svc.CreateActivationTickets(ctx, requester(), 3, []uint{1}, "")
	ticketID := result.Created()[0].ID

	// User 200 administers app 2, not app 1.
	_, err := f.svc.ActionTicket(ctx, adminOf(200), ticketID, models.TicketStatusApproved)
	assertAppError(t, err, models.CodeForbidden)

	if f.store.tickets[ticketID].Status != models.TicketStatusNew {
		t.Fatal("denied action must leave the ticket New")
	}
	if len(f.store.entitlements) != 0 {
		t.Fatal("denied action must not grant anything")
	}

	// Super admin passes without registry membership.
	if _, err := f.svc.ActionTicket(ctx, superAdmin(), ticketID, models.TicketStatusApproved); err != nil {
		t.Fatalf("super admin approve failed: %v", err)
	}
}

func TestActionTicketAdminListReadFresh(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	result, _ := f.svc.CreateActivationTickets(ctx, requester(), 3, []uint{1}, "")
	ticketID := result.Created()[0].ID

	_, err := f.svc.ActionTicket(ctx, adminOf(200), ticketID, models.TicketStatusApproved)
	assertAppError(t, err, models.CodeForbidden)

	// Registry membership changes between calls; the next check must see it.
	f.registry.admins[1] = append(f.registry.admins[1], 200)
	if _, err := f.svc.ActionTicket(ctx, adminOf(200), ticketID, models.TicketStatusApproved); err != nil {
		t.Fatalf("newly added admin should be honored: %v", err)
	}
}

func TestActionTicketApproveDuplicateGrant(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	result, _ := f.svc.CreateActivationTickets(ctx, requester(), 3, []uint{1}, "")
	ticketID := result.Created()[0].ID

	// Entitlement appears between ticket creation and approval.
	_ = memEntitlements{f.store}.Create(ctx, &models.ActiveEntitlement{
		UserID: 3, ApplicationID: 1, CompletedByID: 100, GrantedAt: time.Now(),
	})

	_, err := f.svc.ActionTicket(ctx, adminOf(100), ticketID, models.TicketStatusApproved)
	assertAppError(t, err, models.CodeConflict)

	if f.store.tickets[ticketID].Status != models.TicketStatusNew {
		t.Fatal("failed approval must not mutate the ticket")
	}
	if len(f.store.entitlements) != 1 {
		t.Fatalf("expected the pre-existing entitlement only, got %d", len(f.store.entitlements))
	}
}

func TestActionTicketReject(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	result, _ := f.svc.CreateActivationTickets(ctx, requester(), 3, []uint{1}, "")
	ticketID := result.Created()[0].ID

	ticket, err := f.svc.ActionTicket(ctx, adminOf(100), ticketID, models.TicketStatusRejected)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Status != models.TicketStatusRejected {
		t.Fatalf("expected Rejected, got %s", ticket.Status)
	}
	if len(f.store.entitlements) != 0 {
		t.Fatal("rejection must not grant anything")
	}
}

func TestActionTicketRejectRevokeUnsupported(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	_ = memEntitlements{f.store}.Create(ctx, &models.ActiveEntitlement{
		UserID: 3, ApplicationID: 1, CompletedByID: 100, GrantedAt: time.Now(),
	})
	result, _ := f.svc.CreateRevocationTickets(ctx, adminOf(100), []int{1}, "")
	ticketID := result.Created()[0].ID

	_, err := f.svc.ActionTicket(ctx, adminOf(100), ticketID, models.TicketStatusRejected)
	assertAppError(t, err, models.CodeValidation)
}

func TestActionTicketApproveRevokeRemovesAccess(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	_ = memEntitlements{f.store}.Create(ctx, &models.ActiveEntitlement{
		UserID: 3, ApplicationID: 1, CompletedByID: 100, GrantedAt: time.Now(),
	})
	result, _ := f.svc.CreateRevocationTickets(ctx, adminOf(100), []int{1}, "")
	ticketID := result.Created()[0].ID

	ticket, err := f.svc.ActionTicket(ctx, adminOf(100), ticketID, models.TicketStatusApproved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The terminal state names the outcome, not the verb.
	if ticket.Status != models.TicketStatusRevoked {
		t.Fatalf("expected Revoked, got %s", ticket.Status)
	}
	if len(f.store.entitlements) != 0 {
		t.Fatalf("entitlement must be removed, got %d rows", len(f.store.entitlements))
	}
}

func TestCreateRevocationTicketsTwoPhase(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	_ = memEntitlements{f.store}.Create(ctx, &models.ActiveEntitlement{
		UserID: 3, ApplicationID: 1, CompletedByID: 100, GrantedAt: time.Now(),
	})

	result, err := f.svc.CreateRevocationTickets(ctx, adminOf(100), []int{1, 42, -5}, "contract ended")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created := result.Created()
	if len(created) != 1 || created[0].RequestType != models.RequestTypeRevoke || created[0].Status != models.TicketStatusNew {
		t.Fatalf("expected one New Revoke ticket, got %+v", created)
	}
	if refs := result.Refs(OutcomeNoAccess); len(refs) != 1 || refs[0] != 42 {
		t.Fatalf("expected entitlement 42 noAccess, got %v", refs)
	}
	if failures := result.Failures(); len(failures) != 1 {
		t.Fatalf("expected the malformed id to fail, got %v", failures)
	}

	// Phase 1 flags, it never deletes.
	if len(f.store.entitlements) != 1 {
		t.Fatal("entitlement must survive phase one")
	}
	if !f.store.entitlements[1].PendingRevocation {
		t.Fatal("entitlement must be flagged pendingRevocation")
	}
}

func TestCreateRevocationTicketsDuplicate(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	_ = memEntitlements{f.store}.Create(ctx, &models.ActiveEntitlement{
		UserID: 3, ApplicationID: 1, CompletedByID: 100, GrantedAt: time.Now(),
	})

	first, _ := f.svc.CreateRevocationTickets(ctx, adminOf(100), []int{1}, "")
	if len(first.Created()) != 1 {
		t.Fatalf("expected first request to create a ticket")
	}
	second, _ := f.svc.CreateRevocationTickets(ctx, adminOf(100), []int{1}, "")
	if refs := second.Refs(OutcomeAlreadyRequested); len(refs) != 1 {
		t.Fatalf("expected alreadyRequested, got %+v", second.Items)
	}
	if len(f.store.tickets) != 1 {
		t.Fatalf("duplicate request must not add a ticket, got %d", len(f.store.tickets))
	}
}

func TestConfirmRevocationDeletesAndTerminates(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	_ = memEntitlements{f.store}.Create(ctx, &models.ActiveEntitlement{
		UserID: 3, ApplicationID: 1, CompletedByID: 100, GrantedAt: time.Now(),
	})
	result, _ := f.svc.CreateRevocationTickets(ctx, adminOf(100), []int{1}, "")
	ticketID := result.Created()[0].ID

	ticket, err := f.svc.ConfirmRevocation(ctx, adminOf(100), ticketID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Status != models.TicketStatusRevoked {
		t.Fatalf("expected Revoked, got %s", ticket.Status)
	}
	if len(f.store.entitlements) != 0 {
		t.Fatal("confirmed revocation must delete the entitlement")
	}

	_, err = f.svc.ConfirmRevocation(ctx, adminOf(100), ticketID)
	assertAppError(t, err, models.CodeConflict)
}

func TestConfirmRevocationGuards(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	result, _ := f.svc.CreateActivationTickets(ctx, requester(), 3, []uint{1}, "")
	activateID := result.Created()[0].ID

	// Activate tickets are not confirmable.
	_, err := f.svc.ConfirmRevocation(ctx, adminOf(100), activateID)
	assertAppError(t, err, models.CodeValidation)

	_ = memEntitlements{f.store}.Create(ctx, &models.ActiveEntitlement{
		UserID: 6, ApplicationID: 2, CompletedByID: 200, GrantedAt: time.Now(),
	})
	revokeResult, _ := f.svc.CreateRevocationTickets(ctx, adminOf(200), []int{1}, "")
	revokeID := revokeResult.Created()[0].ID

	// User 100 administers app 1, not app 2.
	_, err = f.svc.ConfirmRevocation(ctx, adminOf(100), revokeID)
	assertAppError(t, err, models.CodeForbidden)
}

func TestListActionableTickets(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateActivationTickets(ctx, requester(), 3, []uint{1, 2}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = memEntitlements{f.store}.Create(ctx, &models.ActiveEntitlement{
		UserID: 6, ApplicationID: 1, CompletedByID: 100, GrantedAt: time.Now(),
	})
	if _, err := f.svc.CreateRevocationTickets(ctx, adminOf(100), []int{1}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Admin of app 1 sees its Activate and Revoke tickets only.
	view, err := f.svc.ListActionableTickets(ctx, adminOf(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Tickets) != 2 || view.ActivateCount != 1 || view.RevokeCount != 1 {
		t.Fatalf("unexpected worklist: %d tickets, activate=%d revoke=%d",
			len(view.Tickets), view.ActivateCount, view.RevokeCount)
	}
	for _, ticket := range view.Tickets {
		if ticket.ApplicationID != 1 {
			t.Fatalf("worklist leaked ticket for app %d", ticket.ApplicationID)
		}
	}

	// Super admin sees everything.
	all, err := f.svc.ListActionableTickets(ctx, superAdmin())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all.Tickets) != 3 {
		t.Fatalf("expected 3 tickets for super admin, got %d", len(all.Tickets))
	}
}

func TestListTicketsFilter(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateActivationTickets(ctx, requester(), 3, []uint{1, 2}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tickets, err := f.svc.ListTickets(ctx, repository.TicketFilter{ApplicationID: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tickets) != 1 || tickets[0].ApplicationID != 2 {
		t.Fatalf("filter not applied: %+v", tickets)
	}
}

func TestBatchSizeLimit(t *testing.T) {
	f := newEngineFixture()
	_, err := f.svc.CreateActivationTickets(context.Background(), requester(), 3, nil, "")
	assertAppError(t, err, models.CodeValidation)

	ids := make([]uint, 51)
	for i := range ids {
		ids[i] = uint(i + 1)
	}
	_, err = f.svc.CreateActivationTickets(context.Background(), requester(), 3, ids, "")
	assertAppError(t, err, models.CodeValidation)
}
