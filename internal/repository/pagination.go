package repository

import "gorm.io/gorm"

const maxListPageSize = 100

// paginate 分页 scope；pageSize <= 0 时不分页，超出上限按上限截断
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		if pageSize > maxListPageSize {
			pageSize = maxListPageSize
		}
		if page < 1 {
			page = 1
		}
		return db.Limit(pageSize).Offset((page - 1) * pageSize)
	}
}
