package model

import "time"

const dateLayout = "2006-01-02"

// CalculateAge returns completed years between an ISO birthdate and now.
// ok is false when the birthdate is empty or unparsable.
func CalculateAge(birthday string, now time.Time) (age int, ok bool) {
	if len(birthday) > len(dateLayout) {
		birthday = birthday[:len(dateLayout)]
	}
	b, err := time.Parse(dateLayout, birthday)
	if err != nil {
		return 0, false
	}

	age = now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// AgePtr is CalculateAge for storage fields, nil when no age can be derived.
func AgePtr(birthday *string, now time.Time) *int {
	if birthday == nil {
		return nil
	}
	if age, ok := CalculateAge(*birthday, now); ok {
		return IntPtr(age)
	}
	return nil
}
