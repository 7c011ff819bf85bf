// Package claims ведёт страховые заявки: создание и изменение с проверкой,
// необратимую блокировку, удаление с учётом блокировки и файлы в
// объектном хранилище.
package claims

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"insurance-dms/internal/blob"
	"insurance-dms/internal/metrics"
	"insurance-dms/internal/models"
	"insurance-dms/internal/validation"
)

type Store interface {
	CreateClaim(ctx context.Context, c *models.Claim) error
	GetClaim(ctx context.Context, id uint) (*models.Claim, error)
	// UpdateClaim пишет только в незаблокированную строку.
	UpdateClaim(ctx context.Context, c *models.Claim) error
	LockClaim(ctx context.Context, id uint) error
	// DeleteClaim не трогает заблокированную строку без allowLocked.
	DeleteClaim(ctx context.Context, id uint, allowLocked bool) error
	ListClaims(ctx context.Context, q models.ClaimQuery) (models.ClaimPage, error)
	SummarizeClaims(ctx context.Context, q models.ClaimQuery) (models.ClaimSummary, error)
	RecordAudit(ctx context.Context, entry *models.AuditLog) error
}

// Upload: файл, пришедший вместе с заявкой.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Input: данные заявки и её файлы. При обновлении nil оставляет
// сохранённый файл.
type Input struct {
	Form     validation.ClaimForm
	Document *Upload
	Voucher  *Upload
	// Rejected: ошибки присланных, но не принятых файлов (слишком большой,
	// не читается). Возвращаются вместе с ошибками полей.
	Rejected validation.Errors
}

// Виды файлов для DocumentURL.
const (
	KindDocument = "document"
	KindVoucher  = "voucher"
)

type Service struct {
	store   Store
	blobs   blob.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(store Store, blobs blob.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, blobs: blobs, logger: logger, metrics: m, now: time.Now}
}

// Create проверяет заявку (оба файла обязательны), загружает файлы и
// сохраняет запись. Автор всегда actor.
func (s *Service) Create(ctx context.Context, actor models.Actor, in Input) (*models.Claim, error) {
	if !actor.CanEdit() {
		return nil, models.ErrPermissionDenied
	}

	fields, err := s.clean(&in, true)
	if err != nil {
		return nil, err
	}

	docKey, err := s.upload(ctx, blob.DocumentsPrefix, in.Document)
	if err != nil {
		return nil, err
	}
	voucherKey, err := s.upload(ctx, blob.VouchersPrefix, in.Voucher)
	if err != nil {
		s.removeBlobs(ctx, docKey)
		return nil, err
	}

	creator := actor.UserID
	c := &models.Claim{
		ClaimFields:    fields,
		ClaimDocument:  docKey,
		PaymentVoucher: voucherKey,
		CreatedByID:    &creator,
	}
	if err := s.store.CreateClaim(ctx, c); err != nil {
		s.removeBlobs(ctx, docKey, voucherKey)
		return nil, s.storeFailed(ctx, "claim.create", err)
	}

	s.metrics.ClaimAction(models.ActionCreate)
	s.audit(ctx, actor, c.ID, models.ActionCreate, "Created claim "+c.String())
	s.logger.InfoContext(ctx, "claim created", "claim_id", c.ID, "policy_no", c.PolicyNo, "created_by", creator)
	return c, nil
}

// Update заменяет редактируемые поля незаблокированной заявки.
// Заблокированная отклоняется до проверки и загрузки файлов.
func (s *Service) Update(ctx context.Context, actor models.Actor, id uint, in Input) (*models.Claim, error) {
	if !actor.CanEdit() {
		return nil, models.ErrPermissionDenied
	}
	c, err := s.store.GetClaim(ctx, id)
	if err != nil {
		return nil, s.storeFailed(ctx, "claim.get", err)
	}
	if c.Lock {
		return nil, models.ErrRecordLocked
	}

	fields, err := s.clean(&in, false)
	if err != nil {
		return nil, err
	}

	docKey, err := s.upload(ctx, blob.DocumentsPrefix, in.Document)
	if err != nil {
		return nil, err
	}
	voucherKey, err := s.upload(ctx, blob.VouchersPrefix, in.Voucher)
	if err != nil {
		s.removeBlobs(ctx, docKey)
		return nil, err
	}

	var replaced []string
	c.ClaimFields = fields
	if docKey != "" {
		replaced = append(replaced, c.ClaimDocument)
		c.ClaimDocument = docKey
	}
	if voucherKey != "" {
		replaced = append(replaced, c.PaymentVoucher)
		c.PaymentVoucher = voucherKey
	}

	if err := s.store.UpdateClaim(ctx, c); err != nil {
		s.removeBlobs(ctx, docKey, voucherKey)
		return nil, s.storeFailed(ctx, "claim.update", err)
	}
	s.removeBlobs(ctx, replaced...)

	s.metrics.ClaimAction(models.ActionUpdate)
	s.audit(ctx, actor, c.ID, models.ActionUpdate, "Updated claim "+c.String())
	return c, nil
}

// Lock делает заявку только для чтения. Разблокировки нет.
func (s *Service) Lock(ctx context.Context, actor models.Actor, id uint) error {
	if !actor.CanEdit() {
		return models.ErrPermissionDenied
	}
	if err := s.store.LockClaim(ctx, id); err != nil {
		return s.storeFailed(ctx, "claim.lock", err)
	}
	s.metrics.ClaimAction(models.ActionLock)
	s.audit(ctx, actor, id, models.ActionLock, "Locked claim")
	s.logger.InfoContext(ctx, "claim locked", "claim_id", id, "user_id", actor.UserID)
	return nil
}

// Delete удаляет заявку, затем её файлы. Заблокированную может удалить
// только суперпользователь.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id uint) error {
	if !actor.CanEdit() {
		return models.ErrPermissionDenied
	}
	c, err := s.store.GetClaim(ctx, id)
	if err != nil {
		return s.storeFailed(ctx, "claim.get", err)
	}
	if c.Lock && !actor.IsSuperuser {
		return models.ErrRecordLocked
	}
	if err := s.store.DeleteClaim(ctx, id, actor.IsSuperuser); err != nil {
		return s.storeFailed(ctx, "claim.delete", err)
	}
	s.removeBlobs(ctx, c.ClaimDocument, c.PaymentVoucher)

	s.metrics.ClaimAction(models.ActionDelete)
	s.audit(ctx, actor, id, models.ActionDelete, "Deleted claim "+c.String())
	return nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Claim, error) {
	c, err := s.store.GetClaim(ctx, id)
	if err != nil {
		return nil, s.storeFailed(ctx, "claim.get", err)
	}
	return c, nil
}

// List возвращает страницу заявок, новые выплаты первыми.
func (s *Service) List(ctx context.Context, q models.ClaimQuery) (models.ClaimPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 0 {
		q.PerPage = models.DefaultPerPage
	}
	page, err := s.store.ListClaims(ctx, q)
	if err != nil {
		return models.ClaimPage{}, s.storeFailed(ctx, "claim.list", err)
	}
	return page, nil
}

// Summary считает количество и сумму заявок по q без учёта страниц.
func (s *Service) Summary(ctx context.Context, q models.ClaimQuery) (models.ClaimSummary, error) {
	sum, err := s.store.SummarizeClaims(ctx, q)
	if err != nil {
		return models.ClaimSummary{}, s.storeFailed(ctx, "claim.summary", err)
	}
	return sum, nil
}

// DocumentURL выдаёт временную ссылку на файл заявки.
func (s *Service) DocumentURL(ctx context.Context, id uint, kind string) (string, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	var key string
	switch kind {
	case KindDocument:
		key = c.ClaimDocument
	case KindVoucher:
		key = c.PaymentVoucher
	default:
		return "", models.ErrNotFound
	}
	if key == "" {
		return "", models.ErrNotFound
	}
	url, err := s.blobs.URL(ctx, key)
	if err != nil {
		return "", s.storeFailed(ctx, "blob.url", err)
	}
	return url, nil
}

// clean проверяет форму и добавляет в ту же ошибку отклонённые файлы.
// Ошибка файла заменяет то, что проверка формы сказала об этом поле.
func (s *Service) clean(in *Input, requireFiles bool) (models.ClaimFields, error) {
	in.Form.ClaimDocument = filename(in.Document)
	in.Form.PaymentVoucher = filename(in.Voucher)
	fields, err := in.Form.Clean(requireFiles)
	if err == nil && len(in.Rejected) == 0 {
		return fields, nil
	}

	errs := validation.Errors{}
	if err != nil {
		ve, ok := validation.As(err)
		if !ok {
			return models.ClaimFields{}, err
		}
		for f, issues := range ve.Fields {
			errs[f] = issues
		}
	}
	for f, issues := range in.Rejected {
		errs[f] = issues
	}
	err = errs.Err()
	s.rejected(err)
	return models.ClaimFields{}, err
}

func filename(u *Upload) string {
	if u == nil {
		return ""
	}
	return u.Filename
}

func (s *Service) upload(ctx context.Context, prefix string, u *Upload) (string, error) {
	if u == nil {
		return "", nil
	}
	key := blob.ObjectKey(prefix, s.now(), u.Filename)
	ct := u.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = blob.ContentType(u.Filename)
	}
	if err := s.blobs.Put(ctx, key, u.Body, u.Size, ct); err != nil {
		return "", s.storeFailed(ctx, "blob.put", fmt.Errorf("%s: %w", key, err))
	}
	return key, nil
}

// removeBlobs удаляет без гарантий: при ошибке объект остаётся и только
// пишется в лог.
func (s *Service) removeBlobs(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to remove blob", "key", key, "error", err)
		}
	}
}

func (s *Service) rejected(err error) {
	ve, ok := validation.As(err)
	if !ok {
		return
	}
	fields := make([]string, 0, len(ve.Fields))
	for f := range ve.Fields {
		fields = append(fields, f)
	}
	s.metrics.ValidationFailed(models.EntityClaim, fields)
}

func (s *Service) storeFailed(ctx context.Context, op string, err error) error {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrRecordLocked) {
		return err
	}
	s.metrics.StorageFailed(op)
	s.logger.ErrorContext(ctx, "store failure", "op", op, "error", err)
	if models.IsStorageError(err) {
		return err
	}
	return &models.StorageError{Op: op, Err: err}
}

func (s *Service) audit(ctx context.Context, actor models.Actor, claimID uint, action, details string) {
	entry := &models.AuditLog{
		Entity:   models.EntityClaim,
		EntityID: claimID,
		Action:   action,
		Details:  details,
	}
	if actor.UserID != 0 {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if err := s.store.RecordAudit(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to write audit log", "entity", entry.Entity, "entity_id", claimID, "error", err)
	}
}
