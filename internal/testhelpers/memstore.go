package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	domainAudit "movapp-backend/internal/domain/audit"
	domainDevice "movapp-backend/internal/domain/device"
	domainOrder "movapp-backend/internal/domain/order"
	domainUser "movapp-backend/internal/domain/user"

	"github.com/google/uuid"
)

// MemStore is an in-memory stand-in for the postgres repositories, used by
// service and handler tests. All repositories share one lock, and
// WithTransaction restores a snapshot when fn fails.
type MemStore struct {
	mu     sync.Mutex
	nextID uint64

	users    map[uint64]domainUser.User
	resets   map[uint64]domainUser.PasswordResetToken
	devices  map[uint64]domainDevice.Device
	tokens   map[uint64]domainDevice.RefreshToken
	audit    []domainAudit.Entry
	orders   map[uint64]domainOrder.Order
	payments map[uint64]domainOrder.PaymentRecord
	legacy   []domainOrder.LegacyPayment

	// AuditErr, when set, makes every audit append fail.
	AuditErr error
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:    map[uint64]domainUser.User{},
		resets:   map[uint64]domainUser.PasswordResetToken{},
		devices:  map[uint64]domainDevice.Device{},
		tokens:   map[uint64]domainDevice.RefreshToken{},
		orders:   map[uint64]domainOrder.Order{},
		payments: map[uint64]domainOrder.PaymentRecord{},
	}
}

func (s *MemStore) Users() *UserRepo                 { return &UserRepo{s} }
func (s *MemStore) Resets() *ResetRepo               { return &ResetRepo{s} }
func (s *MemStore) Devices() *DeviceRepo             { return &DeviceRepo{s} }
func (s *MemStore) RefreshTokens() *RefreshTokenRepo { return &RefreshTokenRepo{s} }
func (s *MemStore) Audit() *AuditRepo                { return &AuditRepo{s} }
func (s *MemStore) Orders() *OrderRepo               { return &OrderRepo{s} }
func (s *MemStore) Payments() *PaymentRepo           { return &PaymentRepo{s} }

var (
	_ domainUser.Repository               = (*UserRepo)(nil)
	_ domainUser.PasswordResetRepository  = (*ResetRepo)(nil)
	_ domainDevice.Repository             = (*DeviceRepo)(nil)
	_ domainDevice.RefreshTokenRepository = (*RefreshTokenRepo)(nil)
	_ domainAudit.Repository              = (*AuditRepo)(nil)
	_ domainOrder.Repository              = (*OrderRepo)(nil)
	_ domainOrder.PaymentRepository       = (*PaymentRepo)(nil)
)

func (s *MemStore) id() uint64 {
	s.nextID++
	return s.nextID
}

type snapshot struct {
	nextID   uint64
	users    map[uint64]domainUser.User
	resets   map[uint64]domainUser.PasswordResetToken
	devices  map[uint64]domainDevice.Device
	tokens   map[uint64]domainDevice.RefreshToken
	audit    []domainAudit.Entry
	orders   map[uint64]domainOrder.Order
	payments map[uint64]domainOrder.PaymentRecord
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// WithTransaction implements the session Transactor.
func (s *MemStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snap := snapshot{
		nextID:   s.nextID,
		users:    copyMap(s.users),
		resets:   copyMap(s.resets),
		devices:  copyMap(s.devices),
		tokens:   copyMap(s.tokens),
		audit:    append([]domainAudit.Entry(nil), s.audit...),
		orders:   copyMap(s.orders),
		payments: copyMap(s.payments),
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.nextID = snap.nextID
		s.users, s.resets, s.devices, s.tokens = snap.users, snap.resets, snap.devices, snap.tokens
		s.audit, s.orders, s.payments = snap.audit, snap.orders, snap.payments
		s.mu.Unlock()
		return err
	}
	return nil
}

// AddLegacyPayment seeds a MercadoPago row.
func (s *MemStore) AddLegacyPayment(p domainOrder.LegacyPayment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	s.legacy = append(s.legacy, p)
}

// ResetTokens returns every reset row of the user, used or not.
func (s *MemStore) ResetTokens(userID uint64) []domainUser.PasswordResetToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domainUser.PasswordResetToken
	for _, t := range s.resets {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// RefreshTokensOf returns every refresh token row of the user.
func (s *MemStore) RefreshTokensOf(userID uint64) []domainDevice.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domainDevice.RefreshToken
	for _, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// PaymentRecords returns every stored payment record.
func (s *MemStore) PaymentRecords() []domainOrder.PaymentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domainOrder.PaymentRecord, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	return out
}

type UserRepo struct{ s *MemStore }

func (r *UserRepo) Create(_ context.Context, u *domainUser.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Active && strings.EqualFold(existing.Email, u.Email) {
			return domainUser.ErrUserAlreadyExists
		}
	}
	now := time.Now()
	u.ID = r.s.id()
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	u.Active = true
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id uint64) (*domainUser.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domainUser.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetActiveByEmail(_ context.Context, email string) (*domainUser.User, error) {
	return r.find(func(u domainUser.User) bool { return u.Active && strings.EqualFold(u.Email, email) })
}

func (r *UserRepo) GetActiveByUUID(_ context.Context, userID uuid.UUID) (*domainUser.User, error) {
	return r.find(func(u domainUser.User) bool { return u.Active && u.UUID == userID })
}

func (r *UserRepo) GetLatestByEmail(_ context.Context, email string) (*domainUser.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var best *domainUser.User
	for _, u := range r.s.users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		u := u
		if best == nil ||
			(u.Active && !best.Active) ||
			(u.Active == best.Active && u.UpdatedAt.After(best.UpdatedAt)) {
			best = &u
		}
	}
	if best == nil {
		return nil, domainUser.ErrUserNotFound
	}
	return best, nil
}

func (r *UserRepo) Reactivate(_ context.Context, u *domainUser.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[u.ID]
	if !ok || stored.Active {
		return domainUser.ErrUserNotFound
	}
	for _, other := range r.s.users {
		if other.Active && strings.EqualFold(other.Email, stored.Email) {
			return domainUser.ErrUserAlreadyExists
		}
	}
	stored.Name, stored.Phone, stored.CountryID, stored.PostalCode = u.Name, u.Phone, u.CountryID, u.PostalCode
	stored.PasswordHash = u.PasswordHash
	stored.Active = true
	stored.UpdatedAt = time.Now()
	r.s.users[u.ID] = stored
	*u = stored
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id uint64, passwordHash string) error {
	return r.update(id, false, func(u *domainUser.User) { u.PasswordHash = passwordHash })
}

func (r *UserRepo) Deactivate(_ context.Context, id uint64) error {
	return r.update(id, true, func(u *domainUser.User) { u.Active = false })
}

func (r *UserRepo) update(id uint64, activeOnly bool, fn func(u *domainUser.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || (activeOnly && !u.Active) {
		return domainUser.ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

func (r *UserRepo) find(match func(domainUser.User) bool) (*domainUser.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, domainUser.ErrUserNotFound
}

type ResetRepo struct{ s *MemStore }

func (r *ResetRepo) Create(_ context.Context, t *domainUser.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.ID = r.s.id()
	r.s.resets[t.ID] = *t
	return nil
}

func (r *ResetRepo) FindRedeemable(_ context.Context, userID uint64, code string, now time.Time) (*domainUser.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.resets {
		if t.UserID == userID && t.Code == code && t.Redeemable(now) {
			t := t
			return &t, nil
		}
	}
	return nil, domainUser.ErrResetCodeNotFound
}

func (r *ResetRepo) MarkUsed(_ context.Context, userID uint64, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.resets {
		if t.UserID == userID && t.Code == code && !t.Used {
			t.Used = true
			r.s.resets[id] = t
		}
	}
	return nil
}

func (r *ResetRepo) CountOutstanding(_ context.Context, userID uint64, since, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.resets {
		if t.UserID == userID && !t.Used && t.ExpiresAt.After(now) && t.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (r *ResetRepo) DeleteAllForUser(_ context.Context, userID uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.resets {
		if t.UserID == userID {
			delete(r.s.resets, id)
		}
	}
	return nil
}

func (r *ResetRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.resets {
		if t.ExpiresAt.Before(before) {
			delete(r.s.resets, id)
			n++
		}
	}
	return n, nil
}

type DeviceRepo struct{ s *MemStore }

func (r *DeviceRepo) Upsert(_ context.Context, d *domainDevice.Device) (*domainDevice.Device, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for id, existing := range r.s.devices {
		if existing.DeviceID != d.DeviceID {
			continue
		}
		existing.Label, existing.Platform, existing.Model, existing.AppVersion = d.Label, d.Platform, d.Model, d.AppVersion
		existing.UserID = d.UserID
		if d.RefreshHash != nil {
			existing.RefreshHash = d.RefreshHash
		}
		existing.Revoked = false
		existing.LastSeenAt, existing.UpdatedAt = now, now
		r.s.devices[id] = existing
		return &existing, nil
	}

	created := *d
	created.ID = r.s.id()
	created.Revoked = false
	created.LastSeenAt, created.CreatedAt, created.UpdatedAt = now, now, now
	r.s.devices[created.ID] = created
	return &created, nil
}

func (r *DeviceRepo) GetByID(_ context.Context, id uint64) (*domainDevice.Device, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.devices[id]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	return &d, nil
}

func (r *DeviceRepo) GetByDeviceID(_ context.Context, deviceID string) (*domainDevice.Device, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.devices {
		if d.DeviceID == deviceID {
			d := d
			return &d, nil
		}
	}
	return nil, domainDevice.ErrDeviceNotFound
}

func (r *DeviceRepo) ListByUser(_ context.Context, userID uint64) ([]*domainDevice.Device, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domainDevice.Device
	for _, d := range r.s.devices {
		if d.UserID == userID {
			d := d
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *DeviceRepo) Revoke(_ context.Context, deviceID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, d := range r.s.devices {
		if d.DeviceID == deviceID {
			d.Revoked, d.PushEnabled = true, false
			r.s.devices[id] = d
			return true, nil
		}
	}
	return false, nil
}

func (r *DeviceRepo) RevokeAllForUser(_ context.Context, userID uint64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, d := range r.s.devices {
		if d.UserID == userID {
			d.Revoked, d.PushEnabled = true, false
			r.s.devices[id] = d
			n++
		}
	}
	return n, nil
}

func (r *DeviceRepo) SetPushToken(_ context.Context, deviceID string, token *string, enabled bool) (*domainDevice.Device, error) {
	return r.update(deviceID, func(d *domainDevice.Device) {
		d.PushToken = token
		d.PushEnabled = enabled
	})
}

func (r *DeviceRepo) SetPushEnabled(_ context.Context, deviceID string, enabled bool) (*domainDevice.Device, error) {
	return r.update(deviceID, func(d *domainDevice.Device) { d.PushEnabled = enabled })
}

func (r *DeviceRepo) update(deviceID string, fn func(d *domainDevice.Device)) (*domainDevice.Device, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, d := range r.s.devices {
		if d.DeviceID == deviceID {
			fn(&d)
			d.UpdatedAt = time.Now()
			r.s.devices[id] = d
			return &d, nil
		}
	}
	return nil, domainDevice.ErrDeviceNotFound
}

type RefreshTokenRepo struct{ s *MemStore }

func (r *RefreshTokenRepo) Create(_ context.Context, t *domainDevice.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.ID = r.s.id()
	r.s.tokens[t.ID] = *t
	return nil
}

func (r *RefreshTokenRepo) FindValid(_ context.Context, tokenHash string, deviceID *uint64, now time.Time) (*domainDevice.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.TokenHash != tokenHash || !t.ExpiresAt.After(now) {
			continue
		}
		if deviceID != nil && (t.DeviceID == nil || *t.DeviceID != *deviceID) {
			continue
		}
		t := t
		return &t, nil
	}
	return nil, domainDevice.ErrRefreshTokenNotFound
}

func (r *RefreshTokenRepo) DeleteAllForUser(_ context.Context, userID uint64) (int64, error) {
	return r.delete(func(t domainDevice.RefreshToken) bool { return t.UserID == userID })
}

func (r *RefreshTokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	return r.delete(func(t domainDevice.RefreshToken) bool { return t.ExpiresAt.Before(before) })
}

func (r *RefreshTokenRepo) delete(match func(domainDevice.RefreshToken) bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tokens {
		if match(t) {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}

type AuditRepo struct{ s *MemStore }

func (r *AuditRepo) Append(_ context.Context, e *domainAudit.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.AuditErr != nil {
		return r.s.AuditErr
	}
	e.ID = r.s.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	r.s.audit = append(r.s.audit, *e)
	return nil
}

func (r *AuditRepo) ListByUser(_ context.Context, userID uint64) ([]*domainAudit.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domainAudit.Entry
	for _, e := range r.s.audit {
		if e.UserID != nil && *e.UserID == userID {
			e := e
			out = append(out, &e)
		}
	}
	return out, nil
}

type OrderRepo struct{ s *MemStore }

func (r *OrderRepo) Create(_ context.Context, o *domainOrder.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	o.ID = r.s.id()
	o.OrderNumber = fmt.Sprintf("MOV-%s-%06d", now.Format("20060102"), o.ID)
	if o.PaymentStatus == "" {
		o.PaymentStatus = domainOrder.PaymentPending
	}
	o.CreatedAt, o.UpdatedAt = now, now
	items := make([]domainOrder.LineItem, len(o.Items))
	for i, it := range o.Items {
		it.ID = r.s.id()
		it.OrderID = o.ID
		items[i] = it
	}
	o.Items = items
	r.s.orders[o.ID] = *o
	return nil
}

func (r *OrderRepo) GetByID(_ context.Context, id uint64) (*domainOrder.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domainOrder.ErrOrderNotFound
	}
	return &o, nil
}

func (r *OrderRepo) GetByNumber(_ context.Context, orderNumber string) (*domainOrder.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.OrderNumber == orderNumber {
			o := o
			return &o, nil
		}
	}
	return nil, domainOrder.ErrOrderNotFound
}

func (r *OrderRepo) ListPaidByUser(_ context.Context, userID uuid.UUID) ([]*domainOrder.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var owner *uint64
	for _, u := range r.s.users {
		if u.UUID == userID {
			id := u.ID
			owner = &id
		}
	}
	var out []*domainOrder.Order
	if owner == nil {
		return out, nil
	}
	for _, o := range r.s.orders {
		if o.UserID != nil && *o.UserID == *owner && o.PaymentStatus == domainOrder.PaymentPaid {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *OrderRepo) SetPaymentReference(_ context.Context, id uint64, reference string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domainOrder.ErrOrderNotFound
	}
	o.PaymentReference = &reference
	r.s.orders[id] = o
	return nil
}

func (r *OrderRepo) ApplyPaymentStatus(_ context.Context, id uint64, status domainOrder.PaymentStatus, reference string) (domainOrder.Transition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return domainOrder.Transition{}, domainOrder.ErrOrderNotFound
	}

	transition := domainOrder.Transition{From: o.PaymentStatus, To: o.PaymentStatus}
	if !o.PaymentStatus.CanTransition(status) {
		return transition, nil
	}
	o.PaymentStatus = status
	if reference != "" {
		o.PaymentReference = &reference
	}
	o.UpdatedAt = time.Now()
	r.s.orders[id] = o
	transition.To = status
	return transition, nil
}

type PaymentRepo struct{ s *MemStore }

func (r *PaymentRepo) Create(_ context.Context, p *domainOrder.PaymentRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	p.ID = r.s.id()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.payments[p.ID] = *p
	return nil
}

func (r *PaymentRepo) GetByIntent(_ context.Context, intentID string) (*domainOrder.PaymentRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.IntentID == intentID {
			p := p
			return &p, nil
		}
	}
	return nil, domainOrder.ErrPaymentNotFound
}

func (r *PaymentRepo) UpdateStatusByIntent(_ context.Context, intentID, status, observations string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.payments {
		if p.IntentID != intentID {
			continue
		}
		if p.Status == "succeeded" && status != "succeeded" {
			return false, nil
		}
		p.Status = status
		obs := observations
		p.Observations = &obs
		p.UpdatedAt = time.Now()
		r.s.payments[id] = p
		return true, nil
	}
	return false, nil
}

func (r *PaymentRepo) ListLegacyByOrder(_ context.Context, orderID uint64) ([]*domainOrder.LegacyPayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domainOrder.LegacyPayment
	for _, p := range r.s.legacy {
		if p.OrderID != nil && *p.OrderID == orderID {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}
