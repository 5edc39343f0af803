package filesystem

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// PlatformUtils 平台兼容性工具
type PlatformUtils struct{}

// NewPlatformUtils 创建平台工具实例
func NewPlatformUtils() *PlatformUtils {
	return &PlatformUtils{}
}

// getInvalidChars 获取当前平台不允许出现在文件名中的字符
func (p *PlatformUtils) getInvalidChars() []string {
	switch runtime.GOOS {
	case "darwin", "linux":
		return []string{"/", "\\", "\x00"}
	default:
		return []string{"<", ">", ":", "\"", "|", "?", "*", "\\", "/", "\x00"}
	}
}

// ValidatePath 验证根目录是否安全
func (p *PlatformUtils) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if len(path) > 2000 {
		return fmt.Errorf("path too long: %d characters", len(path))
	}
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return fmt.Errorf("path traversal detected: %s", path)
		}
	}
	return nil
}

// NormalizePath 转换为清理后的绝对路径
func (p *PlatformUtils) NormalizePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(absPath)
}

// IsValidFilename 检查内容文件名是否可以直接拼接在根目录下
//
// 不允许路径分隔符、控制字符、以点开头的名字（隐藏文件和写入中的临时文件）。
func (p *PlatformUtils) IsValidFilename(filename string) bool {
	if filename == "" || len(filename) > 255 {
		return false
	}
	if strings.HasPrefix(filename, ".") {
		return false
	}
	for _, char := range p.getInvalidChars() {
		if strings.Contains(filename, char) {
			return false
		}
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
