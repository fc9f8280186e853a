package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/codeWithMuze/Prompteon/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDirectory keeps users and their pending codes in Postgres.
type GormDirectory struct {
	db   *gorm.DB
	cost int
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db, cost: bcrypt.DefaultCost}
}

func (d *GormDirectory) CreateUser(ctx context.Context, u NewUser) (*models.User, error) {
	email := NormalizeEmail(u.Email)

	var count int64
	if err := d.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), d.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         u.Name,
		Plan:         models.PlanFree,
	}
	if err := d.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (d *GormDirectory) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := d.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (d *GormDirectory) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (d *GormDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (d *GormDirectory) UpdateUser(ctx context.Context, id uuid.UUID, ch Changes) (*models.User, error) {
	updates := make(map[string]interface{})
	if ch.Name != nil {
		updates["name"] = *ch.Name
	}
	if ch.Email != nil {
		updates["email"] = NormalizeEmail(*ch.Email)
	}
	if ch.Phone != nil {
		updates["phone"] = *ch.Phone
	}
	if ch.PhoneVerified != nil {
		updates["phone_verified"] = *ch.PhoneVerified
	}
	if ch.Preferences != nil {
		updates["preferences"] = datatypes.NewJSONType(*ch.Preferences)
	}
	if ch.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*ch.Password), d.cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}

	var user models.User
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if use := ch.Consume; use != nil {
			result := tx.Where("user_id = ? AND purpose = ? AND code = ? AND expires_at >= ?",
				id, string(use.Purpose), use.Code, use.At.UTC()).
				Delete(&models.OneTimeCode{})
			if result.Error != nil {
				return fmt.Errorf("failed to consume code: %w", result.Error)
			}
			if result.RowsAffected != 1 {
				return ErrNoPendingCode
			}
		}
		if len(updates) > 0 {
			result := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates)
			if result.Error != nil {
				if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
					return ErrEmailTaken
				}
				return fmt.Errorf("failed to update user: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrUserNotFound
			}
		}
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *GormDirectory) IncrementTokenVersion(ctx context.Context, id uuid.UUID) (int, error) {
	var version int
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).Where("id = ?", id).
			Update("token_version", gorm.Expr("token_version + 1"))
		if result.Error != nil {
			return fmt.Errorf("failed to bump token version: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Model(&models.User{}).Where("id = ?", id).Pluck("token_version", &version).Error
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (d *GormDirectory) PutCode(ctx context.Context, userID uuid.UUID, code PendingCode) error {
	row := models.OneTimeCode{
		UserID:    userID,
		Purpose:   string(code.Purpose),
		Code:      code.Code,
		Target:    code.Target,
		ExpiresAt: code.ExpiresAt.UTC(),
	}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "purpose"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "target", "expires_at", "created_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

func (d *GormDirectory) GetCode(ctx context.Context, userID uuid.UUID, purpose Purpose) (*PendingCode, error) {
	var row models.OneTimeCode
	err := d.db.WithContext(ctx).Where("user_id = ? AND purpose = ?", userID, string(purpose)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPendingCode
		}
		return nil, fmt.Errorf("failed to load code: %w", err)
	}
	return &PendingCode{
		Purpose:   Purpose(row.Purpose),
		Code:      row.Code,
		Target:    row.Target,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (d *GormDirectory) DeleteCode(ctx context.Context, userID uuid.UUID, purpose Purpose) error {
	return d.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, string(purpose)).
		Delete(&models.OneTimeCode{}).Error
}

func (d *GormDirectory) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.OneTimeCode{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.User{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
