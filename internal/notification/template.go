package notification

import (
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode"
	"unicode/utf8"

	"pretor/internal/movimentation"
)

// MessageData carries the values interpolated into a message template.
type MessageData struct {
	FirstName string
	CNJ       string
	When      string // dd/MM/yyyy HH:mm, portal convention
	Link      string // remote variants only
	Weeks     int    // reminder variants only
}

const (
	hearingText = `Olá, {{.FirstName}}!

Uma audiência do seu processo {{.CNJ}} foi marcada para {{.When}}.

Por favor, compareça ao local com 15 minutos de antecedência portando um documento com foto.

Qualquer dúvida, é só responder por aqui.`

	examinationText = `Olá, {{.FirstName}}!

Uma perícia do seu processo {{.CNJ}} foi marcada para {{.When}}.

Por favor, compareça ao local com 15 minutos de antecedência portando um documento com foto e seus exames.

Qualquer dúvida, é só responder por aqui.`

	remoteHearingText = `Olá, {{.FirstName}}!

Uma audiência virtual do seu processo {{.CNJ}} foi marcada para {{.When}}.

Acesse no horário pelo link: {{.Link}}

Entre na sala com alguns minutos de antecedência e verifique sua conexão. Qualquer dúvida, é só responder por aqui.`

	remoteExaminationText = `Olá, {{.FirstName}}!

Uma perícia virtual do seu processo {{.CNJ}} foi marcada para {{.When}}.

Acesse no horário pelo link: {{.Link}}

Entre na sala com alguns minutos de antecedência e tenha seus exames em mãos. Qualquer dúvida, é só responder por aqui.`

	hearingReminderText = `Olá, {{.FirstName}}!

Lembrete: a audiência do seu processo {{.CNJ}} acontece em {{.Weeks}} semanas, no dia {{.When}}.

Qualquer dúvida, é só responder por aqui.`

	examinationReminderText = `Olá, {{.FirstName}}!

Lembrete: a perícia do seu processo {{.CNJ}} acontece em {{.Weeks}} semanas, no dia {{.When}}.

Qualquer dúvida, é só responder por aqui.`
)

// Renderer renders notification messages from the pre-parsed template set.
type Renderer struct {
	hearing             *template.Template
	examination         *template.Template
	remoteHearing       *template.Template
	remoteExamination   *template.Template
	hearingReminder     *template.Template
	examinationReminder *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		hearing:             template.Must(template.New("hearing").Parse(hearingText)),
		examination:         template.Must(template.New("examination").Parse(examinationText)),
		remoteHearing:       template.Must(template.New("remote_hearing").Parse(remoteHearingText)),
		remoteExamination:   template.Must(template.New("remote_examination").Parse(remoteExaminationText)),
		hearingReminder:     template.Must(template.New("hearing_reminder").Parse(hearingReminderText)),
		examinationReminder: template.Must(template.New("examination_reminder").Parse(examinationReminderText)),
	}
}

// Initial renders the immediate notification, selecting the template by kind
// and by whether the event has a remote attendance link.
func (r *Renderer) Initial(kind movimentation.Kind, hasLink bool, data MessageData) (string, error) {
	tmpl := r.hearing
	switch {
	case kind == movimentation.KindHearing && hasLink:
		tmpl = r.remoteHearing
	case kind == movimentation.KindExamination && hasLink:
		tmpl = r.remoteExamination
	case kind == movimentation.KindExamination:
		tmpl = r.examination
	}
	return render(tmpl, data)
}

// Reminder renders the pre-event reminder for the given kind.
func (r *Renderer) Reminder(kind movimentation.Kind, data MessageData) (string, error) {
	tmpl := r.hearingReminder
	if kind == movimentation.KindExamination {
		tmpl = r.examinationReminder
	}
	return render(tmpl, data)
}

func render(tmpl *template.Template, data MessageData) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}

// FirstName extracts the first name from a full registry name and normalizes
// its casing: "JOHN DOE" becomes "John".
func FirstName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	first := strings.ToLower(fields[0])
	r, size := utf8.DecodeRuneInString(first)
	if r == utf8.RuneError {
		return first
	}
	return string(unicode.ToUpper(r)) + first[size:]
}

// FormatWhen renders an event timestamp the way the portal displays dates.
func FormatWhen(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}
