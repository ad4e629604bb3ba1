package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/internal/model"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(plan *model.Plan) error {
	return r.db.Create(plan).Error
}

func (r *PlanRepository) GetByID(id int64) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByIDForUpdate 下单时锁定套餐，防止并发超售
func (r *PlanRepository) GetByIDForUpdate(id int64) (*model.Plan, error) {
	var plan model.Plan
	err := forUpdate(r.db).Where("id = ?", id).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
