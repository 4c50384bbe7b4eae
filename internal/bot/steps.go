package bot

import (
	"context"
	"strings"

	"github.com/carelink/bpbot/internal/domain"
	"github.com/carelink/bpbot/internal/i18n"
)

func (e *Engine) start(ctx context.Context, chatID int64, sess domain.Session, active bool) []Reply {
	lang := i18n.Default
	if active && sess.Language != "" {
		lang = sess.Language
	}

	linked, err := e.links.IsLinked(ctx, chatID)
	if err != nil {
		return e.persistenceFailed(ctx, chatID, lang, err)
	}

	if linked {
		// Returning patients never re-link from /start; any half-entered
		// reading is dropped.
		e.sessions.Remove(chatID)
		lang = e.language(ctx, chatID)
		greeting := textReply(chatID, i18n.Text(lang, i18n.WelcomeBack))
		greeting.RemoveKeyboard = true
		return []Reply{greeting, mainMenu(chatID, lang)}
	}

	e.sessions.Put(domain.NewOnboardingSession(chatID))
	e.log(ctx).Info("Onboarding started")
	return []Reply{languagePrompt(chatID, i18n.Text(i18n.Default, i18n.Welcome))}
}

func (e *Engine) idle(ctx context.Context, chatID int64, text string) []Reply {
	linked, err := e.links.IsLinked(ctx, chatID)
	if err != nil {
		return e.persistenceFailed(ctx, chatID, i18n.Default, err)
	}
	if !linked {
		return []Reply{textReply(chatID, i18n.Text(i18n.Default, i18n.StartHint))}
	}

	lang := e.language(ctx, chatID)
	if e.command(text) == CommandEnter || text == i18n.Text(lang, i18n.EnterBPButton) {
		return e.beginReading(ctx, chatID, lang)
	}
	return []Reply{mainMenu(chatID, lang)}
}

func (e *Engine) beginReading(ctx context.Context, chatID int64, lang domain.Language) []Reply {
	patientID, ok, err := e.links.PatientID(ctx, chatID)
	if err != nil {
		return e.persistenceFailed(ctx, chatID, lang, err)
	}
	if !ok {
		e.log(ctx).Warn("Linked chat has no patient id")
		return []Reply{textReply(chatID, i18n.Text(lang, i18n.DBError))}
	}

	e.sessions.Put(domain.NewReadingSession(chatID, lang, patientID))
	return []Reply{markdownReply(chatID, i18n.Text(lang, i18n.Systolic))}
}

func (e *Engine) chooseLanguage(sess domain.Session, text string) []Reply {
	lang := domain.Language(text)
	if !i18n.IsSupported(lang) {
		return []Reply{languagePrompt(sess.ChatID, i18n.Text(i18n.Default, i18n.InvalidLanguage))}
	}

	sess.Language = lang
	sess.State = domain.StateAwaitingPatientID
	e.sessions.Put(sess)
	return []Reply{markdownReply(sess.ChatID, i18n.Text(lang, i18n.AskPatientID))}
}

func (e *Engine) linkPatient(ctx context.Context, sess domain.Session, username, text string) []Reply {
	patientID := strings.TrimSpace(text)
	if patientID == "" {
		return []Reply{markdownReply(sess.ChatID, i18n.Text(sess.Language, i18n.AskPatientID))}
	}

	err := e.links.UpsertLink(ctx, domain.PatientLink{
		PatientID: patientID,
		ChatID:    sess.ChatID,
		Username:  username,
		Language:  sess.Language,
	})
	if err != nil {
		return e.persistenceFailed(ctx, sess.ChatID, sess.Language, err)
	}

	sess.PatientID = patientID
	sess.State = domain.StateAwaitingSystolic
	e.sessions.Put(sess)
	e.log(ctx).Info("Patient linked", "patient_id", patientID)
	return []Reply{
		textReply(sess.ChatID, i18n.Text(sess.Language, i18n.Linked)),
		markdownReply(sess.ChatID, i18n.Text(sess.Language, i18n.Systolic)),
	}
}

func (e *Engine) recordSystolic(sess domain.Session, text string) []Reply {
	v, ok := domain.ParseMeasurement(text)
	if !ok {
		return []Reply{invalidNumber(sess)}
	}
	sess.Systolic = v
	sess.State = domain.StateAwaitingDiastolic
	e.sessions.Put(sess)
	return []Reply{markdownReply(sess.ChatID, i18n.Text(sess.Language, i18n.Diastolic))}
}

func (e *Engine) recordDiastolic(sess domain.Session, text string) []Reply {
	v, ok := domain.ParseMeasurement(text)
	if !ok {
		return []Reply{invalidNumber(sess)}
	}
	sess.Diastolic = v
	sess.State = domain.StateAwaitingPulse
	e.sessions.Put(sess)
	return []Reply{markdownReply(sess.ChatID, i18n.Text(sess.Language, i18n.Pulse))}
}

func (e *Engine) recordPulse(ctx context.Context, sess domain.Session, text string) []Reply {
	pulse, ok := domain.ParseMeasurement(text)
	if !ok {
		return []Reply{invalidNumber(sess)}
	}

	reading := domain.Reading{
		PatientID: sess.PatientID,
		Systolic:  sess.Systolic,
		Diastolic: sess.Diastolic,
		Pulse:     pulse,
	}
	summary := textReply(sess.ChatID, i18n.FormatSummary(sess.Language, reading))

	if err := e.readings.InsertReading(ctx, reading); err != nil {
		// The session stays at the pulse step so the user can resend it.
		return append([]Reply{summary}, e.persistenceFailed(ctx, sess.ChatID, sess.Language, err)...)
	}

	e.sessions.Remove(sess.ChatID)
	e.log(ctx).Info("Reading stored", "patient_id", sess.PatientID, "map", reading.MAP())
	return []Reply{
		summary,
		textReply(sess.ChatID, i18n.Text(sess.Language, i18n.Thanks)),
		mainMenu(sess.ChatID, sess.Language),
	}
}

func textReply(chatID int64, text string) Reply {
	return Reply{ChatID: chatID, Text: text}
}

func markdownReply(chatID int64, text string) Reply {
	return Reply{ChatID: chatID, Text: text, Markdown: true}
}

func invalidNumber(sess domain.Session) Reply {
	return textReply(sess.ChatID, i18n.Text(sess.Language, i18n.InvalidNumber))
}

func languagePrompt(chatID int64, text string) Reply {
	langs := i18n.Supported()
	buttons := make([]string, len(langs))
	for i, l := range langs {
		buttons[i] = string(l)
	}
	r := markdownReply(chatID, text)
	r.Keyboard = &Keyboard{Buttons: buttons, OneTime: true}
	return r
}

func mainMenu(chatID int64, lang domain.Language) Reply {
	return Reply{
		ChatID:   chatID,
		Text:     i18n.Text(lang, i18n.MainMenu),
		Keyboard: &Keyboard{Buttons: []string{i18n.Text(lang, i18n.EnterBPButton)}},
	}
}
