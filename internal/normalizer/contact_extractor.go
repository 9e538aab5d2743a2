package normalizer

import (
	"regexp"
	"strings"
)

var (
	nameExcludedKeywords = []string{
		"北京", "上海", "广州", "深圳", "省", "市", "区", "县", "镇", "街道", "路", "街", "道", "巷",
		"小区", "公寓", "家园", "花园", "广场", "大厦", "大街", "号院",
	}
	commonSurnames = []string{
		"王", "李", "张", "刘", "陈", "杨", "黄", "赵", "吴", "周", "徐", "孙",
		"马", "朱", "胡", "郭", "何", "高", "林", "郑", "尹", "钱", "梁",
	}
)

// ContactExtractor pulls a mobile number and a person's name out of free text.
type ContactExtractor struct {
	phonePattern *regexp.Regexp
	namePattern  *regexp.Regexp
}

// NewContactExtractor creates an extractor with its patterns compiled.
func NewContactExtractor() *ContactExtractor {
	return &ContactExtractor{
		phonePattern: regexp.MustCompile(`1[3-9]\d{9}`),
		namePattern: regexp.MustCompile(
			`((?:[\x{4e00}-\x{9fa5}]{2,3}(?:先生|女士|小姐)?|[\x{4e00}-\x{9fa5}](?:先生|女士|小姐)))` +
				`(?:\s|$|[，,。.]|1[3-9]\d{9})`),
	}
}

// Extract returns the first mobile number and a plausible name, either of
// which may be empty. Only the first name candidate is considered; it is
// dropped when it reads like a place or lacks a common surname.
func (ce *ContactExtractor) Extract(text string) (name, phone string) {
	phone = ce.phonePattern.FindString(text)
	rest := text
	if phone != "" {
		rest = strings.ReplaceAll(rest, phone, " ")
	}

	m := ce.namePattern.FindStringSubmatch(rest)
	if m == nil {
		return "", phone
	}
	candidate := strings.TrimSpace(m[1])
	if !plausibleName(candidate) {
		return "", phone
	}
	return candidate, phone
}

func plausibleName(candidate string) bool {
	if candidate == "" {
		return false
	}
	for _, kw := range nameExcludedKeywords {
		if strings.Contains(candidate, kw) {
			return false
		}
	}
	for _, surname := range commonSurnames {
		if strings.HasPrefix(candidate, surname) {
			return true
		}
	}
	return false
}
