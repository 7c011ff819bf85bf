package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID *uint `gorm:"index" json:"user_id"`

	Entity   string `gorm:"size:50;not null;index:idx_audit_entity,priority:1" json:"entity"` // "claim", "user"
	EntityID uint   `gorm:"index:idx_audit_entity,priority:2" json:"entity_id"`
	Action   string `gorm:"size:50;not null" json:"action"` // "create", "update", "lock", "delete"
	Details  string `gorm:"type:text" json:"details"`
}

const (
	EntityClaim = "claim"
	EntityUser  = "user"

	ActionCreate = "create"
	ActionUpdate = "update"
	ActionLock   = "lock"
	ActionDelete = "delete"
)
