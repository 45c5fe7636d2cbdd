package testutil

import "gorm.io/gorm"

// DBHelper 断言用的计数查询
type DBHelper struct {
	DB *gorm.DB
}

func NewDBHelper(db *gorm.DB) *DBHelper {
	return &DBHelper{DB: db}
}

func (h *DBHelper) Count(tableName string) (int64, error) {
	var count int64
	err := h.DB.Table(tableName).Count(&count).Error
	return count, err
}

func (h *DBHelper) CountWhere(tableName string, where string, args ...any) (int64, error) {
	var count int64
	err := h.DB.Table(tableName).Where(where, args...).Count(&count).Error
	return count, err
}

func (h *DBHelper) Exists(tableName string, where string, args ...any) (bool, error) {
	count, err := h.CountWhere(tableName, where, args...)
	return count > 0, err
}

// UpdateColumn 直接改库，绕过仓储（例如把用户提升为管理员）
func (h *DBHelper) UpdateColumn(tableName string, id int64, column string, value any) error {
	return h.DB.Table(tableName).Where("id = ?", id).Update(column, value).Error
}
