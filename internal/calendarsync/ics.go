// Package calendarsync exports appointments as iCalendar events so patients
// can pull bookings into Google, Outlook, or Apple calendars.
package calendarsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/medibook/medibook-platform/internal/appointments"
)

const (
	prodID     = "-//MediBook//Appointments//EN"
	timeLayout = "20060102T150405Z"
)

// Event is the calendar-facing view of an appointment.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	CreatedAt   time.Time
}

// FromAppointment builds the calendar event for an appointment. The doctor
// name goes into the summary so the entry is readable without opening it.
func FromAppointment(appt *appointments.Appointment, doctorName string) Event {
	start := appt.StartsAt()
	end := appt.Date.Add(time.Duration(appt.Slot.End) * time.Minute)

	summary := "Medical appointment"
	if doctorName != "" {
		summary = fmt.Sprintf("Appointment with %s", doctorName)
	}

	var desc []string
	if appt.Reason != "" {
		desc = append(desc, "Reason: "+appt.Reason)
	}
	desc = append(desc, "Type: "+string(appt.Type), "Status: "+string(appt.Status))
	if appt.MeetingLink != "" {
		desc = append(desc, "Join: "+appt.MeetingLink)
	}

	return Event{
		UID:         appt.ID + "@medibook",
		Summary:     summary,
		Description: strings.Join(desc, "\n"),
		Location:    appt.Location,
		Start:       start,
		End:         end,
		CreatedAt:   appt.CreatedAt,
	}
}

// Render serializes the event as an iCalendar (RFC 5545) document.
func Render(ev Event) []byte {
	var b strings.Builder
	writeLine := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}

	writeLine("BEGIN:VCALENDAR")
	writeLine("VERSION:2.0")
	writeLine("PRODID:" + prodID)
	writeLine("CALSCALE:GREGORIAN")
	writeLine("METHOD:PUBLISH")
	writeLine("BEGIN:VEVENT")
	writeLine("UID:" + escape(ev.UID))
	writeLine("DTSTAMP:" + ev.CreatedAt.UTC().Format(timeLayout))
	writeLine("DTSTART:" + ev.Start.UTC().Format(timeLayout))
	writeLine("DTEND:" + ev.End.UTC().Format(timeLayout))
	writeLine("SUMMARY:" + escape(ev.Summary))
	if ev.Description != "" {
		writeLine("DESCRIPTION:" + escape(ev.Description))
	}
	if ev.Location != "" {
		writeLine("LOCATION:" + escape(ev.Location))
	}
	writeLine("STATUS:CONFIRMED")
	writeLine("END:VEVENT")
	writeLine("END:VCALENDAR")

	return []byte(b.String())
}

// escape quotes the characters RFC 5545 treats as structural in text values.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
