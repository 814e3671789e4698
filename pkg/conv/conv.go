// Package conv 提供类型转换与数值清洗工具，用于简化各模块中的重复逻辑。
//
// 上游目录数据的计数/价格字段经常是带货币符号、千分位或单位的文本
// （例如 "₹1,299"、"1,021 ratings"、空串、"None"）。所有这类字段的
// 解析都集中在本包：解析失败一律返回 0，绝不向上传播错误。
package conv

import "unicode"

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32；bool 视为 1.0/0.0。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

// ToString 将 any 转为 string。
// 仅支持 string 类型，否则返回 ("", false)。
func ToString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// CleanCount 从可能带货币/本地化格式的文本中提取计数值。
//
// 规则：
//   - 跳过前导的非数字字符（货币符号、空白等）
//   - 取第一段连续数字（中间允许千分位逗号，跳过不中断）
//   - 遇到小数点或其他字符即停止
//   - 空值 / 无数字 / 溢出一律返回 0
//
// 示例："₹1,299" → 1299；"1,021 ratings" → 1021；"None" → 0。
func CleanCount(s string) int64 {
	var n int64
	started := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			started = true
			d := int64(r - '0')
			if n > (1<<62)/10 {
				return 0 // 不可信的超长数字，按缺失处理
			}
			n = n*10 + d
		case r == ',' && started:
			// 千分位分隔符，继续
		case !started:
			// 前导噪声，继续扫描
		default:
			return n
		}
	}
	return n
}

// ConfigGet 从 map[string]any（如 YAML/JSON 解析结果）按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt 从 config 取 int。YAML/JSON 常得到 int 或 float64，此处兼容并统一为 int。
func ConfigGetInt(m map[string]any, key string, defaultVal int) int {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case float32:
		return int(val)
	default:
		return defaultVal
	}
}

// ConfigGetFloat 从 config 取 float64，兼容 int。
func ConfigGetFloat(m map[string]any, key string, defaultVal float64) float64 {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	f, ok := ToFloat64(v)
	if !ok {
		return defaultVal
	}
	return f
}
