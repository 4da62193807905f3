package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// DetectEncoding 启发式探测编码：BOM 优先，其次 0xC0–0xFF 高位字节判为 Windows-1251，默认 UTF-8
//
// 无 BOM 的 UTF-8 多字节序列同样落在 0xC0–0xFF，会被误判为 Windows-1251（与旧版行为保持一致）。
func DetectEncoding(prefix []byte) Encoding {
	sample := head(prefix, encodingSampleSize)
	if enc, ok := detectBOM(sample); ok {
		return enc
	}
	for _, b := range sample {
		if b >= 0xC0 {
			return EncodingWindows1251
		}
	}
	return EncodingUTF8
}

func detectBOM(sample []byte) (Encoding, bool) {
	switch {
	case bytes.HasPrefix(sample, bomUTF16LE):
		return EncodingUTF16LE, true
	case bytes.HasPrefix(sample, bomUTF16BE):
		return EncodingUTF16BE, true
	case bytes.HasPrefix(sample, bomUTF8):
		return EncodingUTF8, true
	}
	return "", false
}

// EncodingDetector 可配置的编码探测器
type EncodingDetector struct {
	mode DetectorMode
}

// NewEncodingDetector 创建探测器，未知模式按启发式处理
func NewEncodingDetector(mode DetectorMode) *EncodingDetector {
	if mode != DetectorStatistical {
		mode = DetectorHeuristic
	}
	return &EncodingDetector{mode: mode}
}

// Mode 当前探测方式
func (d *EncodingDetector) Mode() DetectorMode {
	return d.mode
}

// Detect 探测编码，从不失败
func (d *EncodingDetector) Detect(data []byte) Encoding {
	if d == nil || d.mode != DetectorStatistical {
		return DetectEncoding(data)
	}
	if enc, ok := detectBOM(head(data, encodingSampleSize)); ok {
		return enc
	}
	return detectStatistical(head(data, statisticalSampleSize))
}

// detectStatistical 使用 chardet 探测，并归入封闭集合
func detectStatistical(sample []byte) Encoding {
	if len(sample) == 0 {
		return EncodingUTF8
	}
	res, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || res == nil {
		return EncodingUTF8
	}
	cs := strings.ToLower(res.Charset)
	switch {
	case cs == "utf-16le":
		return EncodingUTF16LE
	case cs == "utf-16be":
		return EncodingUTF16BE
	case strings.Contains(cs, "1251"), cs == "koi8-r", cs == "iso-8859-5", cs == "ibm866":
		return EncodingWindows1251
	}
	return EncodingUTF8
}

// LookupEncoding 将用户指定的编码标签（如 cp1251、utf-16le）解析到封闭集合
func LookupEncoding(label string) (Encoding, error) {
	e, name := charset.Lookup(label)
	if e == nil {
		return "", fmt.Errorf("unknown encoding label: %q", label)
	}
	switch name {
	case "utf-8":
		return EncodingUTF8, nil
	case "utf-16le":
		return EncodingUTF16LE, nil
	case "utf-16be":
		return EncodingUTF16BE, nil
	case "windows-1251":
		return EncodingWindows1251, nil
	}
	return "", fmt.Errorf("unsupported encoding: %s", name)
}

func decoderFor(enc Encoding) (encoding.Encoding, error) {
	switch enc {
	case EncodingUTF8, "":
		return unicode.UTF8BOM, nil
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case EncodingWindows1251:
		return charmap.Windows1251, nil
	}
	return nil, fmt.Errorf("unsupported encoding: %s", enc)
}

// Decode 按指定编码解码为 UTF-8 文本，并去掉开头的 BOM
func Decode(data []byte, enc Encoding) (string, error) {
	e, err := decoderFor(enc)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(e.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return strings.TrimPrefix(string(out), "\ufeff"), nil
}

func head(data []byte, n int) []byte {
	if len(data) > n {
		return data[:n]
	}
	return data
}
