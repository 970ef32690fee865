package repository

import (
	"context"
	"strings"

	"localguide/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GuideFilter narrows the public guide directory.
type GuideFilter struct {
	City     string
	Language string
	Limit    int
	Offset   int
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	tx := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	tx := r.db.WithContext(ctx).First(&u, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &u, nil
}

// UpdateColumns writes the named columns of u, zero values included.
func (r *UserRepository) UpdateColumns(ctx context.Context, u *domain.User, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	tx := r.db.WithContext(ctx).Model(u).Select(columns).Updates(u)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	var users []domain.User
	var total int64

	q := r.db.WithContext(ctx).Model(&domain.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	if strings.TrimSpace(f.Query) != "" {
		p := likePattern(f.Query)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", p, p)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(f.Limit, f.Offset)
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

// ListGuides returns active guides, optionally those running active tours in
// a city or speaking a language. Best rated first.
func (r *UserRepository) ListGuides(ctx context.Context, f GuideFilter) ([]domain.User, int64, error) {
	var guides []domain.User
	var total int64

	q := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("role = ? AND is_active = ?", domain.RoleGuide, true)
	if city := strings.TrimSpace(f.City); city != "" {
		q = q.Where("id IN (?)", r.db.Model(&domain.Tour{}).
			Select("guide_id").
			Where("LOWER(city) = ? AND is_active = ?", strings.ToLower(city), true))
	}
	if lang := strings.TrimSpace(f.Language); lang != "" {
		q = q.Where("LOWER(languages) LIKE ?", `%"`+strings.ToLower(lang)+`"%`)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(f.Limit, f.Offset)
	err := q.Order("rating DESC, id ASC").Limit(limit).Offset(offset).Find(&guides).Error
	return guides, total, err
}
