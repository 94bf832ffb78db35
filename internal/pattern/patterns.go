// Package pattern extracts structured fields from financial text using a
// library of named regular expressions.
package pattern

import (
	"regexp"
	"sort"
)

// UseBuiltin is the sentinel pattern value that selects a predefined
// expression for the field's key.
const UseBuiltin = "*自定义*"

// builtinPatterns maps field keys to their predefined expressions. Keys are
// the labels that appear in Chinese bond prospectuses and announcements.
var builtinPatterns = map[string]string{
	// Security codes
	"标的证券": `股票代码[：:]\s*([A-Z0-9]{6}\.[A-Z]{2})`,
	"股票代码": `股票代码[：:]\s*([A-Z0-9]{6}\.[A-Z]{2})`,
	"基金代码": `基金代码[：:]\s*([A-Z0-9]{6})`,
	"债券代码": `债券代码[：:]\s*([A-Z0-9]{6,})`,

	// Dates
	"换股期限": `(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日`,
	"发行日期": `发行日期[：:]\s*(\d{4})年(\d{1,2})月(\d{1,2})日`,
	"起息日":  `起息日[：:]\s*(\d{4})[年/-](\d{1,2})[月/-](\d{1,2})日?`,
	"到期日":  `到期日[：:]\s*(\d{4})[年/-](\d{1,2})[月/-](\d{1,2})日?`,
	"日期":   `(\d{4})[年/-](\d{1,2})[月/-](\d{1,2})日?`,

	// Amounts and figures
	"金额": `金额[：:]\s*([\d,]+\.?\d*)\s*[万元亿]?`,
	"利率": `利率[：:]\s*([\d.]+)\s*%`,
	"数量": `数量[：:]\s*(\d+)`,
	"规模": `规模[：:]\s*([\d,]+\.?\d*)\s*[万元亿]?`,

	// Labeled text
	"联系人": `联系人[：:]\s*([^\n]+)`,
	"电话":  `电话[：:]\s*([\d\-()\s]+)`,
	"邮箱":  `邮箱[：:]\s*([\w.-]+@[\w.-]+)`,
	"地址":  `地址[：:]\s*([^\n]+)`,
}

// dateKeys have their captured (year, month, day) groups normalized to
// zero-padded YYYY-MM-DD strings.
var dateKeys = map[string]bool{
	"换股期限": true,
	"发行日期": true,
	"起息日":  true,
	"到期日":  true,
	"日期":   true,
}

// shortLabelKeys capture up to the next clause boundary instead of the next
// newline, since names and abbreviations appear mid-sentence.
var shortLabelKeys = map[string]bool{
	"名称": true,
	"简称": true,
}

// builtinFor resolves the predefined expression for a key. Keys without a
// dedicated pattern fall back to a generic "label: value" capture.
func builtinFor(key string) string {
	if p, ok := builtinPatterns[key]; ok {
		return p
	}
	if shortLabelKeys[key] {
		return regexp.QuoteMeta(key) + `[：:]\s*([^\n，。]+)`
	}
	return regexp.QuoteMeta(key) + `[：:]\s*([^\n]+)`
}

// BuiltinKeys returns the keys with dedicated predefined patterns, sorted.
func BuiltinKeys() []string {
	keys := make([]string, 0, len(builtinPatterns))
	for k := range builtinPatterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
