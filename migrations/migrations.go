// Package migrations 内嵌各数据库的版本化迁移脚本，供 guestbookctl migrate 使用。
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed postgres/*.sql mysql/*.sql
var files embed.FS

// FS 返回指定方言的迁移目录（"postgres" 或 "mysql"）
func FS(dialect string) (fs.FS, error) {
	switch dialect {
	case "postgres", "mysql":
		return fs.Sub(files, dialect)
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}
}
