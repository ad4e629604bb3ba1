package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store 聚合所有仓储，便于在同一事务中使用
type Store struct {
	db      *gorm.DB
	Users   *UserRepository
	Plans   *PlanRepository
	Orders  *OrderRepository
	Coupons *CouponRepository
	Servers *ServerRepository
	Stats   *StatRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:      db,
		Users:   NewUserRepository(db),
		Plans:   NewPlanRepository(db),
		Orders:  NewOrderRepository(db),
		Coupons: NewCouponRepository(db),
		Servers: NewServerRepository(db),
		Stats:   NewStatRepository(db),
	}
}

// WithContext 返回绑定 ctx 的 Store
func (s *Store) WithContext(ctx context.Context) *Store {
	return NewStore(s.db.WithContext(ctx))
}

// Transaction 在事务中执行 fn，fn 返回错误时整体回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB 底层连接，仅供迁移等初始化使用
func (s *Store) DB() *gorm.DB {
	return s.db
}

// forUpdate 行级悲观锁（SQLite 驱动会忽略该子句）
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
