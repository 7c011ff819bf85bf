package database

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"insurance-dms/internal/models"
)

// поля, которые можно менять у незаблокированной заявки
var claimUpdateColumns = []string{
	"policy_no", "claim_type", "policy_type", "claim_name", "claim_phone",
	"claim_email", "claim_amount", "claim_payment_date", "voucher_no",
	"remarks", "fiscal_year", "claim_document", "payment_voucher", "updated_at",
}

func (s *Store) CreateClaim(ctx context.Context, c *models.Claim) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *Store) GetClaim(ctx context.Context, id uint) (*models.Claim, error) {
	var c models.Claim
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// UpdateClaim пишет только пока lock = false; если заявку успели
// заблокировать, возвращает ErrRecordLocked.
func (s *Store) UpdateClaim(ctx context.Context, c *models.Claim) error {
	res := s.db.WithContext(ctx).
		Model(c).
		Where(`"lock" = ?`, false).
		Select(claimUpdateColumns).
		Updates(c)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return s.missingOrLocked(ctx, c.ID)
	}
	return nil
}

func (s *Store) LockClaim(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where(`id = ? AND "lock" = ?`, id, false).
		Update("lock", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return s.missingOrLocked(ctx, id)
	}
	return nil
}

func (s *Store) missingOrLocked(ctx context.Context, id uint) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Claim{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return models.ErrRecordLocked
}

// DeleteClaim удаляет заявку. Без allowLocked удаляется только
// незаблокированная; если заявку успели заблокировать, возвращает
// ErrRecordLocked.
func (s *Store) DeleteClaim(ctx context.Context, id uint, allowLocked bool) error {
	tx := s.db.WithContext(ctx).Where("id = ?", id)
	if !allowLocked {
		tx = tx.Where(`"lock" = ?`, false)
	}
	res := tx.Delete(&models.Claim{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if allowLocked {
			return models.ErrNotFound
		}
		return s.missingOrLocked(ctx, id)
	}
	return nil
}

func (s *Store) ListClaims(ctx context.Context, q models.ClaimQuery) (models.ClaimPage, error) {
	page := models.ClaimPage{Page: q.Page, PerPage: q.PerPage}

	if err := s.filterClaims(ctx, q).Count(&page.Total).Error; err != nil {
		return page, translate(err)
	}

	tx := s.filterClaims(ctx, q).Order("claim_payment_date DESC, created_at DESC, id DESC")
	if q.PerPage > 0 {
		if page.Page < 1 {
			page.Page = 1
		}
		tx = tx.Offset((page.Page - 1) * q.PerPage).Limit(q.PerPage)
	}
	if err := tx.Find(&page.Claims).Error; err != nil {
		return page, translate(err)
	}
	return page, nil
}

func (s *Store) SummarizeClaims(ctx context.Context, q models.ClaimQuery) (models.ClaimSummary, error) {
	var row struct {
		TotalClaims int64
		TotalAmount decimal.NullDecimal
	}
	err := s.filterClaims(ctx, q).
		Select("COUNT(*) AS total_claims, SUM(claim_amount) AS total_amount").
		Scan(&row).Error
	if err != nil {
		return models.ClaimSummary{}, translate(err)
	}

	sum := models.ClaimSummary{TotalClaims: row.TotalClaims, TotalAmount: decimal.Zero}
	if row.TotalAmount.Valid {
		sum.TotalAmount = row.TotalAmount.Decimal
	}
	return sum, nil
}

func (s *Store) filterClaims(ctx context.Context, q models.ClaimQuery) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.Claim{})
	if q.ClaimType != "" {
		tx = tx.Where("claim_type = ?", q.ClaimType)
	}
	if q.PolicyType != "" {
		tx = tx.Where("policy_type = ?", q.PolicyType)
	}
	if q.FiscalYear != "" {
		tx = tx.Where("fiscal_year = ?", q.FiscalYear)
	}
	if q.PaidFrom != nil {
		tx = tx.Where("claim_payment_date >= ?", *q.PaidFrom)
	}
	if q.PaidTo != nil {
		tx = tx.Where("claim_payment_date <= ?", *q.PaidTo)
	}
	if q.CreatedFrom != nil {
		tx = tx.Where("created_at >= ?", *q.CreatedFrom)
	}
	if q.CreatedTo != nil {
		tx = tx.Where("created_at <= ?", *q.CreatedTo)
	}
	if q.Search != "" {
		like := "%" + escapeLike(q.Search) + "%"
		tx = tx.Where(
			"policy_no ILIKE ? OR voucher_no ILIKE ? OR claim_name ILIKE ? OR claim_phone ILIKE ? OR claim_email ILIKE ?",
			like, like, like, like, like,
		)
	}
	return tx
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(strings.TrimSpace(s))
}
