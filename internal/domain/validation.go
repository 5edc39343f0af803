package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// 验证常量
const (
	MinNameLength    = 3
	MaxNameLength    = 50
	MinMessageLength = 10
	MaxMessageLength = 500
)

// deniedChars 需要从文本字段中剔除的单个字符
var deniedChars = []string{"<", ">", `"`, "'", ";"}

// deniedSequence SQL 注释序列，在单字符之后处理
const deniedSequence = "--"

// extraNameLetters 姓名中允许的重音字母
const extraNameLetters = "áéíóúñÁÉÍÓÚÑ"

// Sanitize 去除文本中的危险字符
//
// 先移除单字符，再移除 "--"：反过来处理时 "-<-" 会在第二步拼出新的 "--"。
// ReplaceAll 按从左到右不重叠的方式替换，连续的 k 个 "-" 最终剩下 k%2 个，
// 因此结果中不会再出现 "--"，Sanitize 是幂等的。
func Sanitize(text string) string {
	for _, c := range deniedChars {
		text = strings.ReplaceAll(text, c, "")
	}
	return strings.ReplaceAll(text, deniedSequence, "")
}

// ValidateName 验证留言者姓名
//
// 去除首尾空白后长度为 3-50 个字符，只允许拉丁字母（含 á é í ó ú ñ 及其大写）和空白。
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	if n < MinNameLength || n > MaxNameLength {
		return ErrInvalidName
	}
	for _, r := range trimmed {
		if !isNameRune(r) {
			return ErrInvalidName
		}
	}
	return nil
}

// ValidateMessage 验证留言内容长度（去除首尾空白后 10-500 个字符）
func ValidateMessage(message string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(message))
	if n < MinMessageLength || n > MaxMessageLength {
		return ErrInvalidMessage
	}
	return nil
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case unicode.IsSpace(r):
		return true
	}
	return strings.ContainsRune(extraNameLetters, r)
}
