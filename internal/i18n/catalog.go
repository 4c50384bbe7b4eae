// Package i18n holds the localized message templates shown to patients.
package i18n

import (
	"strconv"
	"strings"

	"github.com/carelink/bpbot/internal/domain"
)

// Supported languages, in the order they are offered on the keyboard.
const (
	English   domain.Language = "English"
	Ukrainian domain.Language = "Ukrainian"
)

// Default is used when a chat has no stored preference.
const Default = English

// Key names a message template.
type Key string

// Message template keys.
const (
	Welcome         Key = "welcome"
	WelcomeBack     Key = "welcome_back"
	AskPatientID    Key = "ask_patient_id"
	Linked          Key = "linked"
	Systolic        Key = "systolic"
	Diastolic       Key = "diastolic"
	Pulse           Key = "pulse"
	Summary         Key = "summary"
	Thanks          Key = "thanks"
	DBError         Key = "db_error"
	MainMenu        Key = "main_menu"
	EnterBPButton   Key = "enter_bp_button"
	InvalidNumber   Key = "invalid_number"
	InvalidLanguage Key = "invalid_language"
	StartHint       Key = "start_hint"
)

var languages = []domain.Language{English, Ukrainian}

var catalog = map[domain.Language]map[Key]string{
	English: {
		Welcome:         "👋 Welcome! Please choose your *preferred language*:",
		WelcomeBack:     "👋 Welcome back!",
		AskPatientID:    "Please enter your *patient ID*:",
		Linked:          "✅ You're linked! We'll ask for your blood pressure daily.",
		Systolic:        "📊 Enter your *systolic* blood pressure (mmHg):",
		Diastolic:       "Now enter your *diastolic* blood pressure (mmHg):",
		Pulse:           "❤️ Finally, enter your *pulse* (bpm):",
		Summary:         "🩺 Here are your readings:\nSystolic: {sys} mmHg\nDiastolic: {dia} mmHg\nPulse: {pulse} bpm\nMAP: {map} mmHg",
		Thanks:          "✅ Thank you! Your data is saved.",
		DBError:         "❌ Error saving your data. Please try again later.",
		MainMenu:        "Please choose:",
		EnterBPButton:   "📤 Enter BP",
		InvalidNumber:   "⚠️ Please enter a valid number",
		InvalidLanguage: "⚠️ Please choose one of the languages on the keyboard.",
		StartHint:       "Please type /start to begin.",
	},
	Ukrainian: {
		Welcome:         "👋 Ласкаво просимо! Будь ласка, оберіть *бажану мову*:",
		WelcomeBack:     "👋 Ласкаво просимо знову!",
		AskPatientID:    "Введіть ваш *ID пацієнта*:",
		Linked:          "✅ Ви підключені! Ми щодня будемо питати вас про тиск.",
		Systolic:        "📊 Введіть ваш *систолічний* тиск (мм рт. ст.):",
		Diastolic:       "Тепер введіть ваш *діастолічний* тиск (мм рт. ст.):",
		Pulse:           "❤️ Нарешті, введіть ваш *пульс* (уд/хв):",
		Summary:         "🩺 Ваші показники:\nСистолічний: {sys} мм рт. ст.\nДіастолічний: {dia} мм рт. ст.\nПульс: {pulse} уд/хв\nMAP: {map} мм рт. ст.",
		Thanks:          "✅ Дякуємо! Ваші дані збережено.",
		DBError:         "❌ Помилка збереження даних. Спробуйте ще раз пізніше.",
		MainMenu:        "Будь ласка, оберіть:",
		EnterBPButton:   "📤 Ввести тиск",
		InvalidNumber:   "⚠️ Будь ласка, введіть коректне число",
		InvalidLanguage: "⚠️ Будь ласка, оберіть мову на клавіатурі.",
		StartHint:       "Будь ласка, надішліть /start, щоб почати.",
	},
}

// Supported returns the catalog languages in keyboard order.
func Supported() []domain.Language {
	out := make([]domain.Language, len(languages))
	copy(out, languages)
	return out
}

// IsSupported reports whether lang is a catalog key.
func IsSupported(lang domain.Language) bool {
	_, ok := catalog[lang]
	return ok
}

// Text returns the template for key in lang, falling back to Default.
func Text(lang domain.Language, key Key) string {
	if msgs, ok := catalog[lang]; ok {
		if s, ok := msgs[key]; ok {
			return s
		}
	}
	return catalog[Default][key]
}

// FormatSummary renders the reading summary in lang.
func FormatSummary(lang domain.Language, r domain.Reading) string {
	return strings.NewReplacer(
		"{sys}", formatNumber(r.Systolic),
		"{dia}", formatNumber(r.Diastolic),
		"{pulse}", formatNumber(r.Pulse),
		"{map}", strconv.Itoa(r.MAP()),
	).Replace(Text(lang, Summary))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
