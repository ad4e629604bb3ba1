package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/internal/model"
)

type ServerRepository struct {
	db *gorm.DB
}

func NewServerRepository(db *gorm.DB) *ServerRepository {
	return &ServerRepository{db: db}
}

func (r *ServerRepository) Create(server *model.Server) error {
	return r.db.Create(server).Error
}

// GetByTypeAndID 按协议类型与 ID 查找节点
func (r *ServerRepository) GetByTypeAndID(serverType model.ServerType, id int64) (*model.Server, error) {
	var server model.Server
	err := r.db.Where("type = ? AND id = ?", serverType, id).First(&server).Error
	if err != nil {
		return nil, err
	}
	return &server, nil
}
