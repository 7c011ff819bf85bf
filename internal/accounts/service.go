// Package accounts создаёт, обновляет и аутентифицирует пользователей.
// Любая запись сначала проходит проверку; в хранилище попадают только
// нормализованные и корректные данные.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"insurance-dms/internal/auth"
	"insurance-dms/internal/metrics"
	"insurance-dms/internal/models"
	"insurance-dms/internal/validation"
)

type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, q models.UserQuery) ([]models.User, error)
	DeleteUser(ctx context.Context, id uint) error
	CountSuperusers(ctx context.Context) (int64, error)
	RecordAudit(ctx context.Context, entry *models.AuditLog) error
}

type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, metrics: m, now: time.Now}
}

// Flags: независимые флаги прав учётной записи.
type Flags struct {
	IsActive    bool `json:"is_active" form:"is_active"`
	IsStaff     bool `json:"is_staff" form:"is_staff"`
	IsSuperuser bool `json:"is_superuser" form:"is_superuser"`
	IsGlobal    bool `json:"is_global" form:"is_global"`
	IsITDept    bool `json:"is_it_dept" form:"is_it_dept"`
}

// суперпользователь без is_staff не допускается
func (f Flags) check() error {
	if f.IsSuperuser && !f.IsStaff {
		return models.ErrInvalidSuperuserFlags
	}
	return nil
}

type CreateUserInput struct {
	validation.UserForm
	Flags
	Password string `json:"password" form:"password"`
}

type UpdateUserInput struct {
	validation.UserForm
	Flags
}

// CreateUser проверяет данные, хеширует пароль и сохраняет пользователя.
// При любой ошибке проверки ничего не пишется.
func (s *Service) CreateUser(ctx context.Context, actor *models.Actor, in CreateUserInput) (*models.User, error) {
	if actor != nil && !actor.IsSuperuser {
		return nil, models.ErrPermissionDenied
	}
	return s.create(ctx, actor, in)
}

// CreateSuperuser требует одновременно IsStaff и IsSuperuser.
func (s *Service) CreateSuperuser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if !in.IsStaff || !in.IsSuperuser {
		return nil, models.ErrInvalidSuperuserFlags
	}
	in.IsActive = true
	return s.create(ctx, nil, in)
}

func (s *Service) create(ctx context.Context, actor *models.Actor, in CreateUserInput) (*models.User, error) {
	if err := in.Flags.check(); err != nil {
		return nil, err
	}
	errs := validation.Errors{}
	if err := in.UserForm.Clean(); err != nil {
		ve, _ := validation.As(err)
		for f, issues := range ve.Fields {
			errs[f] = issues
		}
	}
	if err := validation.CheckPassword(in.Password); err != nil {
		ve, _ := validation.As(err)
		for f, issues := range ve.Fields {
			errs[f] = issues
		}
	}
	if err := errs.Err(); err != nil {
		s.rejected(errs)
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Email:        in.Email,
		Username:     in.Username,
		FullName:     in.FullName,
		Mobile:       in.Mobile,
		PasswordHash: hash,
		IsActive:     in.IsActive,
		IsStaff:      in.IsStaff,
		IsSuperuser:  in.IsSuperuser,
		IsGlobal:     in.IsGlobal,
		IsITDept:     in.IsITDept,
		UserLevel:    in.Designation(),
		DateJoined:   s.now(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, s.storeFailed(ctx, "user.create", err)
	}

	s.metrics.UserAction(models.ActionCreate)
	s.audit(ctx, actor, u.ID, models.ActionCreate, "Created user "+u.Email)
	s.logger.InfoContext(ctx, "user created", "user_id", u.ID, "superuser", u.IsSuperuser)
	return u, nil
}

// UpdateUser заново прогоняет все проверки. DateJoined и пароль здесь не
// меняются.
func (s *Service) UpdateUser(ctx context.Context, actor models.Actor, id uint, in UpdateUserInput) (*models.User, error) {
	if !actor.IsSuperuser && actor.UserID != id {
		return nil, models.ErrPermissionDenied
	}
	if actor.IsSuperuser {
		if err := in.Flags.check(); err != nil {
			return nil, err
		}
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, s.storeFailed(ctx, "user.get", err)
	}

	if err := in.UserForm.Clean(); err != nil {
		ve, _ := validation.As(err)
		s.rejected(ve.Fields)
		return nil, err
	}

	u.Email = in.Email
	u.Username = in.Username
	u.FullName = in.FullName
	u.Mobile = in.Mobile
	u.UserLevel = in.Designation()
	// флаги меняет только суперпользователь
	if actor.IsSuperuser {
		u.IsActive = in.IsActive
		u.IsStaff = in.IsStaff
		u.IsSuperuser = in.IsSuperuser
		u.IsGlobal = in.IsGlobal
		u.IsITDept = in.IsITDept
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, s.storeFailed(ctx, "user.update", err)
	}
	s.metrics.UserAction(models.ActionUpdate)
	s.audit(ctx, &actor, u.ID, models.ActionUpdate, "Updated user "+u.Email)
	return u, nil
}

func (s *Service) SetPassword(ctx context.Context, actor models.Actor, id uint, password string) error {
	if !actor.IsSuperuser && actor.UserID != id {
		return models.ErrPermissionDenied
	}
	if err := validation.CheckPassword(password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePassword(ctx, id, hash); err != nil {
		return s.storeFailed(ctx, "user.password", err)
	}
	s.audit(ctx, &actor, id, models.ActionUpdate, "Changed password")
	return nil
}

// Authenticate ищет пользователя по нормализованному email и сверяет
// пароль. Неактивные войти не могут.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.store.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, s.storeFailed(ctx, "user.get", err)
	}
	if !u.IsActive || !auth.CheckPassword(password, u.PasswordHash) {
		return nil, models.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.store.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login", "user_id", u.ID, "error", err)
	} else {
		u.LastLogin = &now
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, s.storeFailed(ctx, "user.get", err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, q models.UserQuery) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx, q)
	if err != nil {
		return nil, s.storeFailed(ctx, "user.list", err)
	}
	return users, nil
}

// Delete удаляет пользователя. Его заявки остаются, автор у них обнуляется.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id uint) error {
	if !actor.IsSuperuser {
		return models.ErrPermissionDenied
	}
	if actor.UserID == id {
		return fmt.Errorf("%w: cannot delete your own account", models.ErrPermissionDenied)
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return s.storeFailed(ctx, "user.delete", err)
	}
	s.metrics.UserAction(models.ActionDelete)
	s.audit(ctx, &actor, id, models.ActionDelete, "Deleted user")
	return nil
}

// EnsureSuperuser создаёт первого суперпользователя, если его ещё нет.
func (s *Service) EnsureSuperuser(ctx context.Context, in CreateUserInput) (*models.User, bool, error) {
	n, err := s.store.CountSuperusers(ctx)
	if err != nil {
		return nil, false, s.storeFailed(ctx, "user.count", err)
	}
	if n > 0 {
		return nil, false, nil
	}
	in.IsStaff, in.IsSuperuser = true, true
	u, err := s.CreateSuperuser(ctx, in)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *Service) rejected(errs validation.Errors) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	s.metrics.ValidationFailed(models.EntityUser, fields)
}

// storeFailed пропускает доменные ошибки как есть, остальное заворачивает
// в StorageError.
func (s *Service) storeFailed(ctx context.Context, op string, err error) error {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrRecordLocked) {
		return err
	}
	if _, ok := validation.As(err); ok {
		return err
	}
	s.metrics.StorageFailed(op)
	s.logger.ErrorContext(ctx, "store failure", "op", op, "error", err)
	if models.IsStorageError(err) {
		return err
	}
	return &models.StorageError{Op: op, Err: err}
}

func (s *Service) audit(ctx context.Context, actor *models.Actor, userID uint, action, details string) {
	entry := &models.AuditLog{
		Entity:   models.EntityUser,
		EntityID: userID,
		Action:   action,
		Details:  details,
	}
	if actor != nil && actor.UserID != 0 {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if err := s.store.RecordAudit(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "failed to write audit log", "entity", entry.Entity, "entity_id", userID, "error", err)
	}
}
