package checkin

import "time"

// Method tells how a check-in entered the system.
type Method string

const (
	MethodScan   Method = "scan"
	MethodManual Method = "manual"
)

// Registrant is a read-only identity record owned by the external
// directory. The engine only ever holds snapshots of these.
type Registrant struct {
	Key          string   `json:"key"`
	PrimaryID    string   `json:"primary_id"`
	SecondaryIDs []string `json:"secondary_ids,omitempty"`
	DisplayName  string   `json:"display_name"`
	GroupTag     string   `json:"group_tag,omitempty"`
}

// Event is a schedulable activity. AttendanceLog mirrors the nested
// record map delivered by the event feed; the repository remains the
// authoritative store.
type Event struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	ScheduledAt   time.Time         `json:"scheduled_at"`
	Location      string            `json:"location,omitempty"`
	AttendanceLog map[string]Record `json:"attendance_log,omitempty"`
}

// Record is one attendance entry per (event, registrant) pair.
// DisplayName and PrimaryID are copies taken at write time; later edits
// to the directory do not rewrite history. FirstCheckedInAt is immutable
// once set.
type Record struct {
	RegistrantKey    string    `json:"registrant_key"`
	DisplayName      string    `json:"display_name"`
	PrimaryID        string    `json:"primary_id"`
	FirstCheckedInAt time.Time `json:"first_checked_in_at"`
	LastCheckedInAt  time.Time `json:"last_checked_in_at"`
	RecordedBy       string    `json:"recorded_by"`
	Method           Method    `json:"method"`
}
