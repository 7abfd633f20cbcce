// Package extract pulls structured fields out of free-form model output
// with best-effort regex parsers. A failed parse is never an error; the
// caller gets ok=false and carries on.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	scoreRe      = regexp.MustCompile(`\[SCORE:\s*(\d+)/10\]`)
	scoreStripRe = regexp.MustCompile(`\s*\[SCORE:\s*\d+/10\]`)

	nameRe = regexp.MustCompile(`NAME:\s*([^\n]+)`)
	roleRe = regexp.MustCompile(`CURRENT_ROLE:\s*([^\n]+)`)
)

// Score extracts the trailing score annotation from a model reply.
// display is the reply with the marker stripped, suitable for showing to
// the candidate; the raw reply stays in history so the model sees its
// own annotations in later context.
func Score(reply string) (score int, display string, ok bool) {
	m := scoreRe.FindStringSubmatch(reply)
	if m == nil {
		return 0, reply, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, reply, false
	}
	display = strings.TrimSpace(scoreStripRe.ReplaceAllString(reply, ""))
	return n, display, true
}

// ResumeName extracts the candidate name from parsed resume text
// ("NAME: ..." line).
func ResumeName(resume string) (string, bool) {
	m := nameRe.FindStringSubmatch(resume)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	return name, name != ""
}

// ResumeRole extracts the current role from parsed resume text
// ("CURRENT_ROLE: ..." line).
func ResumeRole(resume string) (string, bool) {
	m := roleRe.FindStringSubmatch(resume)
	if m == nil {
		return "", false
	}
	role := strings.TrimSpace(m[1])
	return role, role != ""
}
