package media

import (
	"context"
	"mime"
	"strings"

	"github.com/google/uuid"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/storage"
)

// FieldName 唯一被处理的 multipart 字段
const FieldName = "image"

// allowedTypes 允许的声明类型及其扩展名
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// canonicalTypes 扩展名对应的规范类型
var canonicalTypes = map[string]string{
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// Accepted 已写入内容存储的图片
type Accepted struct {
	Filename    string
	ContentType string
	Size        int64
}

// Acceptor 图片接收策略：字段、类型、大小检查，生成文件名并写入内容存储
type Acceptor struct {
	content  storage.ContentStore
	maxBytes int64
}

// NewAcceptor 创建图片接收器，maxBytes <= 0 时使用 5 MiB
func NewAcceptor(content storage.ContentStore, maxBytes int64) *Acceptor {
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxUploadBytes
	}
	return &Acceptor{content: content, maxBytes: maxBytes}
}

// MaxBytes 返回单个文件大小上限
func (a *Acceptor) MaxBytes() int64 {
	return a.maxBytes
}

// Accept 检查并保存一个 multipart 字段
//
// 检查顺序固定：字段名、类型、大小。类型和大小同时不合格时返回 ErrUnsupportedType。
// 写入失败返回 *domain.IOError，此时不会产生任何数据库记录。
func (a *Acceptor) Accept(ctx context.Context, fieldName, declaredType string, data []byte) (*Accepted, error) {
	if fieldName != FieldName {
		return nil, domain.ErrFieldIgnored
	}

	ext, ok := ExtensionFor(declaredType)
	if !ok {
		return nil, domain.ErrUnsupportedType
	}

	if int64(len(data)) > a.maxBytes {
		return nil, domain.ErrTooLarge
	}

	filename := uuid.New().String() + "." + ext
	contentType := canonicalTypes[ext]

	if err := a.content.Save(ctx, filename, contentType, data); err != nil {
		return nil, err
	}

	return &Accepted{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// ExtensionFor 返回声明类型对应的扩展名
//
// 类型先按 RFC 2045 解析，忽略参数并转为小写，无法解析时视为不支持。
func ExtensionFor(declaredType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(declaredType)
	if err != nil {
		return "", false
	}
	ext, ok := allowedTypes[strings.ToLower(mediaType)]
	return ext, ok
}
