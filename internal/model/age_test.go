package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateAge(t *testing.T) {
	tests := []struct {
		name     string
		birthday string
		now      time.Time
		want     int
		ok       bool
	}{
		{"day before birthday", "2000-06-15", time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC), 23, true},
		{"on birthday", "2000-06-15", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), 24, true},
		{"earlier month", "2000-06-15", time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC), 23, true},
		{"timestamp suffix", "1990-01-01T00:00:00.000Z", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 34, true},
		{"leap day before feb 29", "2004-02-29", time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), 18, true},
		{"empty", "", time.Now(), 0, false},
		{"garbage", "not-a-date", time.Now(), 0, false},
		{"future", "2999-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CalculateAge(tt.birthday, tt.now)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatientViewDerivesAge(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	p := &Patient{PatientID: "p1", Name: "Jane", Birthday: StringPtr("2000-06-15")}

	v := p.View(now)
	if assert.NotNil(t, v.Age) {
		assert.Equal(t, 24, *v.Age)
	}
	assert.Equal(t, "", v.PhoneNumber)

	p.Age = IntPtr(30)
	assert.Equal(t, 30, *p.View(now).Age)
}
