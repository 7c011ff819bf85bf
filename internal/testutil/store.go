// Package testutil: хранилища записей и файлов в памяти для тестов сервисов
// и обработчиков.
package testutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"insurance-dms/internal/models"
	"insurance-dms/internal/validation"
)

// Store держит пользователей, заявки и аудит в памяти. Правила уникальности
// и блокировки те же, что у хранилища в базе.
type Store struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]models.User
	claims map[uint]models.Claim
	Audit  []models.AuditLog

	// Err, если задан, возвращается любой записью.
	Err error

	Writes int
}

func NewStore() *Store {
	return &Store{
		users:  map[uint]models.User{},
		claims: map[uint]models.Claim{},
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// ====== ПОЛЬЗОВАТЕЛИ ======

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if err := s.checkUnique(u); err != nil {
		return err
	}
	u.ID = s.id()
	s.users[u.ID] = *u
	s.Writes++
	return nil
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	old, ok := s.users[u.ID]
	if !ok {
		return models.ErrNotFound
	}
	if err := s.checkUnique(u); err != nil {
		return err
	}
	next := *u
	next.PasswordHash = old.PasswordHash
	next.DateJoined = old.DateJoined
	next.LastLogin = old.LastLogin
	s.users[u.ID] = next
	s.Writes++
	return nil
}

func (s *Store) checkUnique(u *models.User) error {
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return validation.DuplicateEmailError()
		}
		if other.Username == u.Username {
			return validation.DuplicateUsernameError()
		}
	}
	return nil
}

func (s *Store) UpdatePassword(_ context.Context, id uint, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	s.Writes++
	return nil
}

func (s *Store) TouchLastLogin(_ context.Context, id uint, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.LastLogin = &at
	s.users[id] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, q models.UserQuery) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if q.IsStaff != nil && u.IsStaff != *q.IsStaff {
			continue
		}
		if q.IsActive != nil && u.IsActive != *q.IsActive {
			continue
		}
		if q.Search != "" && !containsFold(q.Search, u.Email, u.Username, u.FullName) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteUser(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[id]; !ok {
		return models.ErrNotFound
	}
	for cid, c := range s.claims {
		if c.CreatedByID != nil && *c.CreatedByID == id {
			c.CreatedByID = nil
			s.claims[cid] = c
		}
	}
	delete(s.users, id)
	s.Writes++
	return nil
}

func (s *Store) CountSuperusers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.IsSuperuser {
			n++
		}
	}
	return n, nil
}

// ====== ЗАЯВКИ ======

func (s *Store) CreateClaim(_ context.Context, c *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	now := time.Now()
	c.ID = s.id()
	c.CreatedAt, c.UpdatedAt = now, now
	s.claims[c.ID] = *c
	s.Writes++
	return nil
}

func (s *Store) GetClaim(_ context.Context, id uint) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (s *Store) UpdateClaim(_ context.Context, c *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	old, ok := s.claims[c.ID]
	if !ok {
		return models.ErrNotFound
	}
	if old.Lock {
		return models.ErrRecordLocked
	}
	next := *c
	next.Lock = old.Lock
	next.CreatedAt = old.CreatedAt
	next.CreatedByID = old.CreatedByID
	next.UpdatedAt = time.Now()
	s.claims[c.ID] = next
	*c = next
	s.Writes++
	return nil
}

func (s *Store) LockClaim(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	c, ok := s.claims[id]
	if !ok {
		return models.ErrNotFound
	}
	if c.Lock {
		return models.ErrRecordLocked
	}
	c.Lock = true
	c.UpdatedAt = time.Now()
	s.claims[id] = c
	s.Writes++
	return nil
}

func (s *Store) DeleteClaim(_ context.Context, id uint, allowLocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	c, ok := s.claims[id]
	if !ok {
		return models.ErrNotFound
	}
	if c.Lock && !allowLocked {
		return models.ErrRecordLocked
	}
	delete(s.claims, id)
	s.Writes++
	return nil
}

func (s *Store) ListClaims(_ context.Context, q models.ClaimQuery) (models.ClaimPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.filterClaims(q)
	page := models.ClaimPage{Total: int64(len(matched)), Page: q.Page, PerPage: q.PerPage}
	if q.PerPage > 0 {
		if page.Page < 1 {
			page.Page = 1
		}
		start := (page.Page - 1) * q.PerPage
		if start > len(matched) {
			start = len(matched)
		}
		end := start + q.PerPage
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	page.Claims = matched
	return page, nil
}

func (s *Store) SummarizeClaims(_ context.Context, q models.ClaimQuery) (models.ClaimSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := models.ClaimSummary{TotalAmount: decimal.Zero}
	for _, c := range s.filterClaims(q) {
		sum.TotalClaims++
		sum.TotalAmount = sum.TotalAmount.Add(c.ClaimAmount)
	}
	return sum, nil
}

func (s *Store) filterClaims(q models.ClaimQuery) []models.Claim {
	var out []models.Claim
	for _, c := range s.claims {
		switch {
		case q.ClaimType != "" && c.ClaimType != q.ClaimType,
			q.PolicyType != "" && c.PolicyType != q.PolicyType,
			q.FiscalYear != "" && (c.FiscalYear == nil || *c.FiscalYear != q.FiscalYear),
			q.PaidFrom != nil && c.ClaimPaymentDate.Before(*q.PaidFrom),
			q.PaidTo != nil && c.ClaimPaymentDate.After(*q.PaidTo),
			q.CreatedFrom != nil && c.CreatedAt.Before(*q.CreatedFrom),
			q.CreatedTo != nil && c.CreatedAt.After(*q.CreatedTo),
			q.Search != "" && !containsFold(q.Search, c.PolicyNo, c.VoucherNo, c.ClaimName, c.ClaimPhone, c.ClaimEmail):
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ClaimPaymentDate.Equal(b.ClaimPaymentDate) {
			return a.ClaimPaymentDate.After(b.ClaimPaymentDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out
}

// ====== АУДИТ ======

func (s *Store) RecordAudit(_ context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.id()
	entry.CreatedAt = time.Now()
	s.Audit = append(s.Audit, *entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, entity string, entityID uint, limit int) ([]models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditLog
	for i := len(s.Audit) - 1; i >= 0; i-- {
		e := s.Audit[i]
		if entity != "" && (e.Entity != entity || e.EntityID != entityID) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func containsFold(needle string, haystack ...string) bool {
	needle = strings.ToLower(needle)
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// ====== ФАЙЛЫ ======

// Blobs: blob.Store в памяти.
type Blobs struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
	Deleted []string

	Err error
}

func NewBlobs() *Blobs {
	return &Blobs{Objects: map[string][]byte{}, Types: map[string]string{}}
}

func (b *Blobs) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if b.Err != nil {
		return b.Err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Objects[key] = buf.Bytes()
	b.Types[key] = contentType
	return nil
}

func (b *Blobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Objects, key)
	b.Deleted = append(b.Deleted, key)
	return nil
}

func (b *Blobs) URL(_ context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (b *Blobs) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Objects)
}
