package synthesis

import (
	"regexp"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/inference"
)

// ExtensionGroup matches any supported image extension, case-insensitively.
var ExtensionGroup = `(?i:` + strings.Join(inference.ImageExtensions(), "|") + `)`

// ExtensionAlternation matches a dot followed by any supported image extension.
var ExtensionAlternation = `\.` + ExtensionGroup

// trailingExtension finds literal extension fragments at the end of a pattern or of an
// alternative, after either \. or the delimiter class: jpg, (?i)jpg, (?i:jpg),
// (jpg|png), (?:jpg), [jJ][pP][gG]. Submatch 2 is the extension body.
var trailingExtension = regexp.MustCompile(
	`(\\\.|` + regexp.QuoteMeta(delimiterFragment) + `)` +
		`(\(\?i\)[A-Za-z0-9]+|\(\?i:[A-Za-z0-9|]+\)|\((?:\?:)?[A-Za-z0-9|]+\)|(?:\[[A-Za-z0-9]+\])+|[A-Za-z][A-Za-z0-9]{1,4})` +
		`((?:` + regexp.QuoteMeta(edgeFragment) + `)?\$?)(\)|\||$)`)

var bracketClass = regexp.MustCompile(`\[([A-Za-z0-9]+)\]`)

// ApplyFlexibleExtension replaces trailing literal image extensions with ExtensionGroup.
// Fragments naming anything other than image extensions are left alone. The result
// never gains capturing groups and applying it twice changes nothing.
func ApplyFlexibleExtension(pattern string) string {
	if pattern == "" {
		return pattern
	}

	var b strings.Builder
	last := 0
	for _, m := range trailingExtension.FindAllStringSubmatchIndex(pattern, -1) {
		if !namesImageExtensions(pattern[m[4]:m[5]]) {
			continue
		}
		b.WriteString(pattern[last:m[4]])
		b.WriteString(ExtensionGroup)
		last = m[5]
	}
	if last == 0 {
		return pattern
	}
	b.WriteString(pattern[last:])
	return b.String()
}

// namesImageExtensions reports whether every literal an extension body can match is
// a supported image extension.
func namesImageExtensions(body string) bool {
	if strings.HasPrefix(body, "[") {
		var ext strings.Builder
		for _, m := range bracketClass.FindAllStringSubmatch(body, -1) {
			chars := strings.ToLower(m[1])
			for _, c := range chars {
				if byte(c) != chars[0] {
					return false
				}
			}
			ext.WriteByte(chars[0])
		}
		return inference.IsImageExtension(ext.String())
	}

	for _, prefix := range []string{"(?i)", "(?i:", "(?:", "("} {
		if strings.HasPrefix(body, prefix) {
			body = strings.TrimSuffix(strings.TrimPrefix(body, prefix), ")")
			break
		}
	}
	for _, alt := range strings.Split(body, "|") {
		if !inference.IsImageExtension(alt) {
			return false
		}
	}
	return true
}
