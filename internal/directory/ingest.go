package directory

import (
	"strings"
	"time"

	"checkin/internal/checkin"
	"checkin/internal/identity"
)

// registrantDoc is the upstream member shape. The source system grew
// several optional alias fields for the same identifying number;
// ingestion collapses them into one canonical primary id plus a set of
// secondaries, so matching downstream stays free of field-name
// special-casing.
type registrantDoc struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Locality   string   `json:"locality"`
	OSCAID     string   `json:"oscaId"`
	OSCANumber string   `json:"oscaNumber"`
	IDNumber   string   `json:"idNumber"`
	OtherIDs   []string `json:"otherIds"`
}

func (d registrantDoc) toRegistrant() checkin.Registrant {
	aliases := []string{d.OSCAID, d.OSCANumber, d.IDNumber}
	aliases = append(aliases, d.OtherIDs...)

	var primary string
	var secondaries []string
	seen := map[string]bool{}
	for _, id := range aliases {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		norm := identity.Normalize(id)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		if primary == "" {
			primary = id
			continue
		}
		secondaries = append(secondaries, id)
	}

	return checkin.Registrant{
		Key:          d.Key,
		PrimaryID:    primary,
		SecondaryIDs: secondaries,
		DisplayName:  d.Name,
		GroupTag:     d.Locality,
	}
}

// eventDoc is the upstream event shape: a calendar date plus optional
// free-text time.
type eventDoc struct {
	ID         string               `json:"id"`
	Title      string               `json:"title"`
	Date       string               `json:"date"`
	Time       string               `json:"time"`
	Location   string               `json:"location"`
	Attendance map[string]recordDoc `json:"attendance"`
}

type recordDoc struct {
	DisplayName      string    `json:"displayName"`
	PrimaryID        string    `json:"primaryId"`
	FirstCheckedInAt time.Time `json:"firstCheckedInAt"`
	LastCheckedInAt  time.Time `json:"lastCheckedInAt"`
	RecordedBy       string    `json:"recordedBy"`
	Method           string    `json:"method"`
}

func (d eventDoc) toEvent() checkin.Event {
	ev := checkin.Event{
		ID:          d.ID,
		Title:       d.Title,
		ScheduledAt: scheduleAt(d.Date, d.Time),
		Location:    d.Location,
	}
	if len(d.Attendance) > 0 {
		ev.AttendanceLog = make(map[string]checkin.Record, len(d.Attendance))
		for key, r := range d.Attendance {
			ev.AttendanceLog[key] = checkin.Record{
				RegistrantKey:    key,
				DisplayName:      r.DisplayName,
				PrimaryID:        r.PrimaryID,
				FirstCheckedInAt: r.FirstCheckedInAt,
				LastCheckedInAt:  r.LastCheckedInAt,
				RecordedBy:       r.RecordedBy,
				Method:           checkin.Method(r.Method),
			}
		}
	}
	return ev
}

var timeLayouts = []string{"15:04", "3:04 PM", "3:04PM", "3 PM", "3PM"}

// scheduleAt combines a calendar date with an optional free-text time.
// An unparseable or missing time leaves the event at midnight.
func scheduleAt(date, timeText string) time.Time {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return time.Time{}
	}
	timeText = strings.TrimSpace(timeText)
	if timeText == "" {
		return day
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(timeText)); err == nil {
			return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
		}
	}
	return day
}
