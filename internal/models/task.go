package models

import "time"

type TaskStatus string

const (
	TaskStatusOpen   TaskStatus = "OPEN"
	TaskStatusFixed  TaskStatus = "FIXED"
	TaskStatusClosed TaskStatus = "CLOSED"
)

// TaskStatuses lists statuses in the order select lists show them.
var TaskStatuses = []TaskStatus{TaskStatusOpen, TaskStatusFixed, TaskStatusClosed}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Criticality string

const (
	CriticalityLow      Criticality = "LOW"
	CriticalityMedium   Criticality = "MEDIUM"
	CriticalityHigh     Criticality = "HIGH"
	CriticalityCritical Criticality = "CRITICAL"
)

// Criticalities lists severity levels from lowest to highest.
var Criticalities = []Criticality{CriticalityLow, CriticalityMedium, CriticalityHigh, CriticalityCritical}

// Valid reports whether c is one of the known levels.
func (c Criticality) Valid() bool {
	for _, known := range Criticalities {
		if c == known {
			return true
		}
	}
	return false
}

// Task is the backend's view of an issue. The UI only ever holds copies.
type Task struct {
	ID                   uint64      `json:"id"`
	CreatorName          string      `json:"creator_name"`
	AssignerName         string      `json:"assigner_name"`
	Subject              string      `json:"subject"`
	Criticality          Criticality `json:"criticality"`
	Status               TaskStatus  `json:"status"`
	ThreadID             string      `json:"thread_id"`
	HTMLFile             string      `json:"html_file"`
	CreatedTime          *time.Time  `json:"created_time,omitempty"`
	LastReminderSentTime *time.Time  `json:"last_reminder_sent_time,omitempty"`
}

// TaskPage is one page of a filtered task listing.
type TaskPage struct {
	Items []Task `json:"items"`
	Total int    `json:"total"`
}
