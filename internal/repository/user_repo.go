package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate 加行锁读取用户，需在事务中调用
func (r *UserRepository) GetByIDForUpdate(id int64) (*model.User, error) {
	var user model.User
	err := forUpdate(r.db).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

// IncrementTraffic 累加用户已用流量
func (r *UserRepository) IncrementTraffic(id int64, u, d int64) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"u": gorm.Expr("u + ?", u),
		"d": gorm.Expr("d + ?", d),
	}).Error
}

// CountActiveByPlan 统计套餐下仍在有效期内的用户数
func (r *UserRepository) CountActiveByPlan(planID int64, now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).
		Where("plan_id = ?", planID).
		Where("expired_at >= ? OR expired_at IS NULL", now).
		Count(&count).Error
	return count, err
}
