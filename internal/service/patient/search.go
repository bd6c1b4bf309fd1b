package patient

import (
	"strings"
	"unicode"

	"github.com/jwalitptl/visit-logger/internal/model"
)

// digits strips everything but 0-9 so "077-123 4567" matches "0771234567".
func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Matches applies every non-empty criterion. Birthday must match exactly.
func Matches(p *model.Patient, c model.SearchCriteria) bool {
	if c.Name != "" && !containsFold(p.Name, c.Name) {
		return false
	}
	if c.NIC != "" && !containsFold(value(p.NIC), c.NIC) {
		return false
	}
	if c.PhoneNumber != "" {
		if p.PhoneNumber == nil || !strings.Contains(digits(*p.PhoneNumber), digits(c.PhoneNumber)) {
			return false
		}
	}
	if c.Birthday != "" && value(p.Birthday) != c.Birthday {
		return false
	}
	return true
}

func Filter(patients []*model.Patient, c model.SearchCriteria) []*model.Patient {
	var out []*model.Patient
	for _, p := range patients {
		if Matches(p, c) {
			out = append(out, p)
		}
	}
	return out
}

// DedupKey returns the identity a search result collapses on, trying
// national id, phone digits, name with birthday, then name. The first field
// present decides: a phone number without digits yields no key at all.
func DedupKey(p *model.Patient) (string, bool) {
	if nic := strings.ToLower(strings.TrimSpace(value(p.NIC))); nic != "" {
		return "nic:" + nic, true
	}
	if strings.TrimSpace(value(p.PhoneNumber)) != "" {
		phone := digits(*p.PhoneNumber)
		if phone == "" {
			return "", false
		}
		return "phone:" + phone, true
	}
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		return "", false
	}
	if birthday := value(p.Birthday); strings.TrimSpace(birthday) != "" {
		return "name_birthday:" + name + "_" + birthday, true
	}
	return "name:" + name, true
}

// Deduplicate keeps the first patient seen for each key, in input order.
func Deduplicate(patients []*model.Patient) []*model.Patient {
	seen := make(map[string]struct{}, len(patients))
	out := make([]*model.Patient, 0, len(patients))
	for _, p := range patients {
		key, ok := DedupKey(p)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
