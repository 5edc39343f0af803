package domain

import "time"

// Submission 表示一条通过公开表单提交的留言。
type Submission struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"type:varchar(50);not null"`
	Message   string    `json:"message" gorm:"type:varchar(500);not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
}

// TableName 指定留言表名
func (Submission) TableName() string {
	return "submissions"
}
