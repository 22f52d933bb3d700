package mailer

import (
	"fmt"
	"strings"
	"time"

	"github.com/linguaflow/reminder-engine/internal/domain"
)

const reminderTimeLayout = "Mon Jan 2, 3:04 PM"

// RenderLessonReminder builds the reminder email for an upcoming lesson.
func RenderLessonReminder(event domain.CalendarEvent, tutor domain.Tutor) Message {
	summary := strings.TrimSpace(event.Summary)
	if summary == "" {
		summary = "Your lesson"
	}

	name := strings.TrimSpace(tutor.Name)
	if name == "" {
		name = "there"
	}

	when := event.StartTime.Format(reminderTimeLayout)

	text := fmt.Sprintf("Hello %s, %s starts at %s.", name, summary, when)
	html := fmt.Sprintf("<p>Hello %s,</p><p><strong>%s</strong> starts at %s.</p>", name, summary, when)
	if location := strings.TrimSpace(event.Location); location != "" {
		text += fmt.Sprintf(" Location: %s.", location)
		html += fmt.Sprintf("<p>Location: %s</p>", location)
	}

	return Message{
		To:      tutor.Email,
		Subject: fmt.Sprintf("Reminder: %s at %s", summary, event.StartTime.Format(time.Kitchen)),
		HTML:    html,
		Text:    text,
	}
}
