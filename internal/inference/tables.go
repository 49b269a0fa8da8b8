package inference

import (
	"regexp"
	"slices"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/model"
)

// imageExtensions lists the supported image file extensions, lowercase.
var imageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"bmp":  {},
	"gif":  {},
	"tif":  {},
	"tiff": {},
	"webp": {},
	"heic": {},
	"heif": {},
}

// cameraSynonyms maps lowercase side indicators to the role they denote.
var cameraSynonyms = map[string]model.ImageRole{
	"overview": model.RoleOverview,
	"ov":       model.RoleOverview,
	"ovr":      model.RoleOverview,
	"ovw":      model.RoleOverview,
	"scene":    model.RoleOverview,
	"full":     model.RoleOverview,
	"front":    model.RoleFront,
	"f":        model.RoleFront,
	"fr":       model.RoleFront,
	"forward":  model.RoleFront,
	"rear":     model.RoleRear,
	"r":        model.RoleRear,
	"rr":       model.RoleRear,
	"back":     model.RoleRear,
	"behind":   model.RoleRear,
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),                                // YYYY-MM-DD
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),                                // MM-DD-YYYY
	regexp.MustCompile(`^\d{4}(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])$`),        // YYYYMMDD
	regexp.MustCompile(`^(19|20)\d{6}$`),                                     // YYYYMMDD, loose
	regexp.MustCompile(`^(0[1-9]|1[0-2])(0[1-9]|[12]\d|3[01])(19|20)\d{2}$`), // MMDDYYYY
}

var indexPattern = regexp.MustCompile(`^\d{1,6}$`)

// IsImageExtension reports whether s names a supported image extension.
func IsImageExtension(s string) bool {
	_, ok := imageExtensions[strings.ToLower(s)]
	return ok
}

// ImageExtensions returns the supported extensions in a stable order.
func ImageExtensions() []string {
	return []string{"jpg", "jpeg", "png", "bmp", "gif", "tif", "tiff", "webp", "heic", "heif"}
}

// CameraRole returns the role a side indicator denotes.
func CameraRole(s string) (model.ImageRole, bool) {
	role, ok := cameraSynonyms[strings.ToLower(s)]
	return role, ok
}

// synonymsOf returns the side indicators of a role, sorted.
func synonymsOf(role model.ImageRole) []string {
	var out []string
	for word, r := range cameraSynonyms {
		if r == role {
			out = append(out, word)
		}
	}
	slices.Sort(out)
	return out
}

// IsDate reports whether s matches one of the known date layouts.
func IsDate(s string) bool {
	for _, re := range datePatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// IsIndex reports whether s is a short run of digits.
func IsIndex(s string) bool {
	return indexPattern.MatchString(s)
}
