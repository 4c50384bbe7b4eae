// Package domain contains core domain types for the blood-pressure bot.
package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Language is a catalog language tag, e.g. "English".
type Language string

// PatientLink ties a chat to a clinical patient identifier.
type PatientLink struct {
	PatientID string   `json:"patient_id"`
	ChatID    int64    `json:"telegram_user_id"`
	Username  string   `json:"telegram_username"`
	Language  Language `json:"language"`
}

// Reading is one persisted blood-pressure observation.
type Reading struct {
	PatientID  string    `json:"patient_id"`
	Systolic   float64   `json:"systolic_bp"`
	Diastolic  float64   `json:"diastolic_bp"`
	Pulse      float64   `json:"pulse"`
	RecordedAt time.Time `json:"recorded_at"`
}

// MAP returns the mean arterial pressure estimate for the reading.
func (r Reading) MAP() int {
	return MeanArterialPressure(r.Systolic, r.Diastolic)
}

// MeanArterialPressure approximates MAP as dia + (sys-dia)/3, rounded half
// away from zero.
func MeanArterialPressure(systolic, diastolic float64) int {
	return int(math.Round(diastolic + (systolic-diastolic)/3))
}

// Measurements outside (0, maxMeasurement) are rejected as typos.
const maxMeasurement = 1000

// ParseMeasurement parses a positive decimal number typed by the user.
// Hex floats, NaN, infinities and values of 1000 or more are rejected.
func ParseMeasurement(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	digits := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v > 0 && v < maxMeasurement) {
		return 0, false
	}
	return v, true
}
