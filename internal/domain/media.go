package domain

import "time"

// MediaAsset 表示一张已接收的上传图片。
//
// 文件先写入内容目录再落库，因此记录存在时文件一定存在；反之不一定。
type MediaAsset struct {
	ID          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Filename    string    `json:"filename" gorm:"type:varchar(64);uniqueIndex;not null"` // <uuid>.<ext>
	ContentType string    `json:"contentType" gorm:"type:varchar(32)"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
}

// TableName 指定图片记录表名
func (MediaAsset) TableName() string {
	return "media_assets"
}
