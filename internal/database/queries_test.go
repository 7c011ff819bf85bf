package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"insurance-dms/internal/models"
)

// Запросы строятся в режиме DryRun: gorm собирает SQL, но ничего не
// выполняет, а sqlLog записывает каждый запрос с подставленными значениями.
// В DryRun RowsAffected всегда 0, поэтому условные записи уходят в ветку
// "ни одна строка не изменилась".

var errNoDatabase = errors.New("no database in dry run")

type sqlLog struct {
	mu    sync.Mutex
	stmts []string
}

func (l *sqlLog) LogMode(logger.LogLevel) logger.Interface { return l }

func (l *sqlLog) Info(context.Context, string, ...interface{}) {}

func (l *sqlLog) Warn(context.Context, string, ...interface{}) {}

func (l *sqlLog) Error(context.Context, string, ...interface{}) {}

func (l *sqlLog) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	stmt, _ := fc()
	l.mu.Lock()
	l.stmts = append(l.stmts, stmt)
	l.mu.Unlock()
}

// dryPool умеет только открывать транзакции; запросы в DryRun до него не доходят.
type dryPool struct {
	tx *dryTx
}

func (p *dryPool) PrepareContext(context.Context, string) (*sql.Stmt, error) {
	return nil, errNoDatabase
}

func (p *dryPool) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoDatabase
}

func (p *dryPool) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoDatabase
}

func (p *dryPool) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (p *dryPool) BeginTx(context.Context, *sql.TxOptions) (gorm.ConnPool, error) {
	p.tx = &dryTx{}
	return p.tx, nil
}

type dryTx struct {
	dryPool
	committed  bool
	rolledBack bool
}

func (t *dryTx) Commit() error {
	t.committed = true
	return nil
}

func (t *dryTx) Rollback() error {
	t.rolledBack = true
	return nil
}

func newDryStore(t *testing.T) (*Store, *sqlLog, *dryPool) {
	t.Helper()
	log := &sqlLog{}
	pool := &dryPool{}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: pool}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               log,
	})
	require.NoError(t, err)
	return NewStore(db), log, pool
}

func TestUpdateClaimOnlyWritesUnlockedRow(t *testing.T) {
	store, log, _ := newDryStore(t)

	c := &models.Claim{
		ID: 5,
		ClaimFields: models.ClaimFields{
			PolicyNo:         "P-1",
			ClaimType:        models.ClaimDeath,
			PolicyType:       models.PolicyTerm,
			ClaimName:        "Ram Bahadur",
			ClaimAmount:      decimal.RequireFromString("1500.50"),
			ClaimPaymentDate: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
			VoucherNo:        "V-1",
		},
	}
	err := store.UpdateClaim(context.Background(), c)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.Len(t, log.stmts, 2)
	upd := log.stmts[0]
	assert.True(t, strings.HasPrefix(upd, `UPDATE "insurance_claims" SET `), upd)
	assert.Contains(t, upd, `"policy_no"='P-1'`)
	assert.Contains(t, upd, `"lock" = false`)
	assert.Contains(t, upd, `"id" = 5`)
	// lock, автор и дата создания не входят в SET
	assert.NotContains(t, upd, `"lock"=`)
	assert.NotContains(t, upd, `"created_by_id"`)
	assert.NotContains(t, upd, `"created_at"`)

	assert.Contains(t, log.stmts[1], `count(*)`)
	assert.Contains(t, log.stmts[1], `WHERE id = 5`)
}

func TestLockClaimIsConditional(t *testing.T) {
	store, log, _ := newDryStore(t)

	err := store.LockClaim(context.Background(), 5)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.Len(t, log.stmts, 2)
	assert.Contains(t, log.stmts[0], `UPDATE "insurance_claims" SET "lock"=true`)
	assert.Contains(t, log.stmts[0], `WHERE id = 5 AND "lock" = false`)
	assert.Contains(t, log.stmts[1], `count(*)`)
}

func TestDeleteClaimRespectsLock(t *testing.T) {
	t.Run("staff", func(t *testing.T) {
		store, log, _ := newDryStore(t)

		err := store.DeleteClaim(context.Background(), 5, false)
		assert.ErrorIs(t, err, models.ErrNotFound)

		require.Len(t, log.stmts, 2)
		assert.Contains(t, log.stmts[0], `DELETE FROM "insurance_claims" WHERE id = 5 AND "lock" = false`)
		assert.Contains(t, log.stmts[1], `count(*)`)
	})

	t.Run("superuser", func(t *testing.T) {
		store, log, _ := newDryStore(t)

		err := store.DeleteClaim(context.Background(), 5, true)
		assert.ErrorIs(t, err, models.ErrNotFound)

		require.Len(t, log.stmts, 1)
		assert.Contains(t, log.stmts[0], `DELETE FROM "insurance_claims" WHERE id = 5`)
		assert.NotContains(t, log.stmts[0], `"lock"`)
	})
}

func TestDeleteUserClearsCreatorInTransaction(t *testing.T) {
	store, log, pool := newDryStore(t)

	err := store.DeleteUser(context.Background(), 7)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.Len(t, log.stmts, 2)
	assert.Contains(t, log.stmts[0], `UPDATE "insurance_claims" SET "created_by_id"=NULL`)
	assert.Contains(t, log.stmts[0], `WHERE created_by_id = 7`)
	assert.Contains(t, log.stmts[1], `DELETE FROM "users"`)
	assert.Contains(t, log.stmts[1], `"id" = 7`)

	// пользователь не найден: транзакция откатывается вместе с обнулением
	require.NotNil(t, pool.tx)
	assert.True(t, pool.tx.rolledBack)
	assert.False(t, pool.tx.committed)
}

func TestListClaimsFilters(t *testing.T) {
	store, log, _ := newDryStore(t)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q := models.ClaimQuery{
		ClaimType:  models.ClaimDeath,
		FiscalYear: models.FiscalYear("2080/81"),
		PaidFrom:   &from,
		Search:     " 100% ",
		Page:       2,
		PerPage:    50,
	}
	page, err := store.ListClaims(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, page.Claims)
	assert.Equal(t, 2, page.Page)

	require.Len(t, log.stmts, 2)
	for _, stmt := range log.stmts {
		assert.Contains(t, stmt, `claim_type = 'death'`)
		assert.Contains(t, stmt, `fiscal_year = '2080/81'`)
		assert.Contains(t, stmt, `claim_payment_date >= '2024-01-01`)
		assert.Contains(t, stmt, `policy_no ILIKE '%100\%%'`)
		assert.Contains(t, stmt, `claim_email ILIKE '%100\%%'`)
		assert.NotContains(t, stmt, `policy_type`)
	}
	assert.Contains(t, log.stmts[0], `count(*)`)
	assert.Contains(t, log.stmts[1], `ORDER BY claim_payment_date DESC, created_at DESC, id DESC`)
	assert.Contains(t, log.stmts[1], `LIMIT 50 OFFSET 50`)
}

func TestListClaimsWithoutPaging(t *testing.T) {
	store, log, _ := newDryStore(t)

	_, err := store.ListClaims(context.Background(), models.ClaimQuery{Page: 3})
	require.NoError(t, err)

	require.Len(t, log.stmts, 2)
	assert.NotContains(t, log.stmts[1], `LIMIT`)
	assert.NotContains(t, log.stmts[1], `WHERE`)
}
