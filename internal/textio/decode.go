// Package textio 读取输入文档并统一转换为 UTF-8
package textio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// AutoDetect 自动检测编码
const AutoDetect = "auto"

// ErrUnknownEncoding 不认识的编码名称
var ErrUnknownEncoding = errors.New("unknown text encoding")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// 自动检测时依次尝试的编码
var candidates = []encoding.Encoding{
	simplifiedchinese.GBK,
	simplifiedchinese.GB18030,
	traditionalchinese.Big5,
	japanese.ShiftJIS,
	japanese.EUCJP,
	korean.EUCKR,
	charmap.Windows1252,
}

// Decode 把 data 转为 UTF-8 字符串
//
// name 为空或 "auto" 时自动检测；否则按 WHATWG 编码名称（如 gbk、shift_jis）解码。
func Decode(data []byte, name string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" && name != AutoDetect {
		enc, err := htmlindex.Get(name)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
		}
		return decodeWith(enc, data)
	}
	return detect(data), nil
}

// ReadFile 读取文件并解码
func ReadFile(path, name string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, err := Decode(data, name)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return text, nil
}

// ReadAll 读取 r 的全部内容并解码
func ReadAll(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return Decode(data, name)
}

func decodeWith(enc encoding.Encoding, data []byte) (string, error) {
	res, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(res), nil
}

func detect(data []byte) string {
	if len(data) == 0 || utf8.Valid(data) {
		return string(data)
	}

	if len(data) >= 2 {
		switch {
		case data[0] == 0xFF && data[1] == 0xFE:
			if res, err := decodeWith(xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM), data[2:]); err == nil && utf8.ValidString(res) {
				return res
			}
		case data[0] == 0xFE && data[1] == 0xFF:
			if res, err := decodeWith(xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM), data[2:]); err == nil && utf8.ValidString(res) {
				return res
			}
		}
	}

	for _, enc := range candidates {
		res, err := decodeWith(enc, data)
		if err == nil && utf8.ValidString(res) && isReasonableText(res) {
			return res
		}
	}
	return string(data)
}

// isReasonableText 可打印字符超过 90% 才认为解码成功
func isReasonableText(text string) bool {
	if text == "" {
		return false
	}
	printable, total := 0, 0
	for _, r := range text {
		total++
		if r != utf8.RuneError && (unicode.IsPrint(r) || unicode.IsSpace(r)) {
			printable++
		}
	}
	return float64(printable)/float64(total) > 0.9
}
