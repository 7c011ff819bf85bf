package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"insurance-dms/internal/models"
	"insurance-dms/internal/validation"
)

const uniqueViolation = "23505"

// Store: хранилище пользователей, заявок и журнала аудита в Postgres.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// translate переводит ошибки драйвера в доменные. Незнакомые возвращаются
// без изменений.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "idx_users_email":
			return validation.DuplicateEmailError()
		case "idx_users_username":
			return validation.DuplicateUsernameError()
		}
	}
	return err
}
