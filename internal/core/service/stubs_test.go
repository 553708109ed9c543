package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/moneyjar/jarledger/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories shared by the service tests
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type stubJarRepo struct {
	mu       sync.Mutex
	jars     map[string]*domain.Jar
	failErr  error // if set, every mutation returns this error
	countErr error
}

func newStubJarRepo() *stubJarRepo {
	return &stubJarRepo{jars: make(map[string]*domain.Jar)}
}

func (r *stubJarRepo) Create(_ context.Context, jar *domain.Jar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	clone := *jar
	r.jars[jar.ID] = &clone
	return nil
}

func (r *stubJarRepo) FindByID(_ context.Context, jarID string) (*domain.Jar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jars[jarID]
	if !ok {
		return nil, domain.ErrJarNotFound
	}
	clone := *j
	return &clone, nil
}

func (r *stubJarRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Jar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Jar
	for _, j := range r.jars {
		if j.OwnerID == ownerID {
			clone := *j
			out = append(out, &clone)
		}
	}
	// position ascending, mirroring the Mongo sort
	for i := 0; i < len(out); i++ {
		for k := i + 1; k < len(out); k++ {
			if out[k].Position < out[i].Position {
				out[i], out[k] = out[k], out[i]
			}
		}
	}
	return out, nil
}

func (r *stubJarRepo) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, j := range r.jars {
		if j.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

// ApplyBalanceDelta mirrors the atomic server-side update of the real repo:
// read-modify-write under one lock, clamped at zero when asked.
func (r *stubJarRepo) ApplyBalanceDelta(_ context.Context, jarID string, delta decimal.Decimal, clampZero bool) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return decimal.Zero, r.failErr
	}
	j, ok := r.jars[jarID]
	if !ok {
		return decimal.Zero, domain.ErrJarNotFound
	}
	b := j.Balance.Add(delta)
	if clampZero && b.IsNegative() {
		b = decimal.Zero
	}
	j.Balance = b
	return b, nil
}

func (r *stubJarRepo) SetShared(_ context.Context, jarID string, shared bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jars[jarID]
	if !ok {
		return domain.ErrJarNotFound
	}
	j.IsShared = shared
	return nil
}

func (r *stubJarRepo) Delete(_ context.Context, jarID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jars[jarID]; !ok {
		return domain.ErrJarNotFound
	}
	delete(r.jars, jarID)
	return nil
}

// ---------------------------------------------------------------------------

type stubTxRepo struct {
	mu        sync.Mutex
	entries   []*domain.Transaction
	insertErr error
}

func newStubTxRepo() *stubTxRepo {
	return &stubTxRepo{}
}

func (r *stubTxRepo) Insert(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	clone := *tx
	r.entries = append(r.entries, &clone)
	return nil
}

func (r *stubTxRepo) InsertPair(_ context.Context, out, in *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	outClone, inClone := *out, *in
	r.entries = append(r.entries, &outClone, &inClone)
	return nil
}

func (r *stubTxRepo) FindByIdempotencyKey(_ context.Context, key string) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Transaction
	for _, e := range r.entries {
		if e.IdempotencyKey == key {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubTxRepo) ListByJar(_ context.Context, jarID string, limit int64) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Transaction
	for i := len(r.entries) - 1; i >= 0; i-- { // newest first
		if r.entries[i].JarID != jarID {
			continue
		}
		clone := *r.entries[i]
		out = append(out, &clone)
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubTxRepo) ListByUser(_ context.Context, userID string, limit int64) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Transaction
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID != userID {
			continue
		}
		clone := *r.entries[i]
		out = append(out, &clone)
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubTxRepo) DeleteByJar(_ context.Context, jarID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.JarID != jarID {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

func (r *stubTxRepo) countByJar(jarID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.JarID == jarID {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------

type stubMemberRepo struct {
	mu      sync.Mutex
	members map[string]*domain.JarMember // keyed jarID+"/"+userID
}

func newStubMemberRepo() *stubMemberRepo {
	return &stubMemberRepo{members: make(map[string]*domain.JarMember)}
}

func memberKey(jarID, userID string) string { return jarID + "/" + userID }

func (r *stubMemberRepo) Create(_ context.Context, m *domain.JarMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memberKey(m.JarID, m.UserID)
	if _, ok := r.members[key]; ok {
		return domain.ErrMemberExists
	}
	clone := *m
	r.members[key] = &clone
	return nil
}

func (r *stubMemberRepo) FindByJarAndUser(_ context.Context, jarID, userID string) (*domain.JarMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberKey(jarID, userID)]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *stubMemberRepo) ListByJar(_ context.Context, jarID string) ([]*domain.JarMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.JarMember
	for _, m := range r.members {
		if m.JarID == jarID {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubMemberRepo) Accept(_ context.Context, jarID, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberKey(jarID, userID)]
	if !ok {
		return domain.ErrMemberNotFound
	}
	m.AcceptedAt = &at
	return nil
}

func (r *stubMemberRepo) DeleteByJar(_ context.Context, jarID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, m := range r.members {
		if m.JarID == jarID {
			delete(r.members, key)
		}
	}
	return nil
}

// seedMember adds an accepted membership directly.
func (r *stubMemberRepo) seedMember(jarID, userID, role string, accepted bool) {
	m := &domain.JarMember{
		ID:        "m_" + userID,
		JarID:     jarID,
		UserID:    userID,
		Role:      role,
		InvitedAt: time.Now().UTC(),
	}
	if accepted {
		at := time.Now().UTC()
		m.AcceptedAt = &at
	}
	r.mu.Lock()
	r.members[memberKey(jarID, userID)] = m
	r.mu.Unlock()
}

// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, domain.ErrUserExists
	}
	clone := *u
	if clone.ID == "" {
		clone.ID = "u_" + u.Email
	}
	r.byID[clone.ID] = &clone
	r.byEmail[clone.Email] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) UpdateName(_ context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Name = name
	return nil
}

func (r *stubUserRepo) SetPro(_ context.Context, id, billingRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsPro = true
	u.BillingRef = billingRef
	return nil
}

func (r *stubUserRepo) seedUser(id, email string, isPro bool) {
	u := &domain.User{ID: id, Email: email, IsPro: isPro, CreatedAt: time.Now().UTC()}
	r.mu.Lock()
	r.byID[id] = u
	r.byEmail[email] = u
	r.mu.Unlock()
}

// ---------------------------------------------------------------------------

// nopUOW runs fn directly; atomicity is the real runner's job.
type nopUOW struct{}

func (nopUOW) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// stubGuard records acquire/release calls for the idempotency fast-path.
type stubGuard struct {
	mu       sync.Mutex
	held     map[string]bool
	released []string
}

func newStubGuard() *stubGuard {
	return &stubGuard{held: make(map[string]bool)}
}

func (g *stubGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *stubGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
	g.released = append(g.released, key)
	return nil
}
