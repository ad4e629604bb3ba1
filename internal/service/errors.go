package service

import (
	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
)

// notFound 将 gorm 的记录不存在转换为业务错误，其余错误原样返回
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
