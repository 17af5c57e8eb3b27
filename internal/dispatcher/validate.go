package dispatcher

import "strings"

const maxUsernameLen = 63
const maxFilenameLen = 255

var reservedFilenames = map[string]struct{}{
	".":   {},
	"..":  {},
	"CON": {},
	"PRN": {},
	"AUX": {},
	"NUL": {},
}

const filenameForbiddenChars = `<>:"|?*`

func validUsername(u string) bool {
	if u == "" || len(u) > maxUsernameLen {
		return false
	}
	for _, r := range u {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

func validFilename(f string) bool {
	if f == "" || len(f) > maxFilenameLen {
		return false
	}
	if _, reserved := reservedFilenames[strings.ToUpper(f)]; reserved {
		return false
	}
	return !strings.ContainsAny(f, filenameForbiddenChars)
}
