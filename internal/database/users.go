package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"insurance-dms/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

// UpdateUser пишет профиль и флаги; пароль, date_joined и last_login не трогает.
func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	res := s.db.WithContext(ctx).
		Model(u).
		Select("email", "username", "full_name", "mobile", "user_level",
			"is_active", "is_staff", "is_superuser", "is_global", "is_it_dept").
		Updates(u)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return translate(s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login", at).Error)
}

func (s *Store) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, q models.UserQuery) ([]models.User, error) {
	tx := s.db.WithContext(ctx).Model(&models.User{})
	if q.IsStaff != nil {
		tx = tx.Where("is_staff = ?", *q.IsStaff)
	}
	if q.IsActive != nil {
		tx = tx.Where("is_active = ?", *q.IsActive)
	}
	if q.Search != "" {
		like := "%" + escapeLike(q.Search) + "%"
		tx = tx.Where("email ILIKE ? OR username ILIKE ? OR full_name ILIKE ?", like, like, like)
	}

	var users []models.User
	if err := tx.Order("id").Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}

// DeleteUser удаляет пользователя и в той же транзакции обнуляет
// created_by_id у его заявок.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Claim{}).
			Where("created_by_id = ?", id).
			Update("created_by_id", nil).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

func (s *Store) CountSuperusers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_superuser = ?", true).
		Count(&n).Error
	return n, translate(err)
}
