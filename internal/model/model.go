// Package model holds the data shapes shared across the daemon's
// components: window context snapshots, transcription results, and history
// records.
package model

import "time"

// WindowSnapshot is captured atomically with the Idle->Recording
// transition and never mutated for the rest of that session turn.
type WindowSnapshot struct {
	AppID      string
	WindowClass string
	Title      string
	PID        int
	Agent      string
	WorkingDir string
	Context    string
}

// NonTrivial reports whether the snapshot carries any identifying
// information at all.
func (w WindowSnapshot) NonTrivial() bool {
	return w.AppID != "" || w.WindowClass != "" || w.Title != "" || w.PID > 0
}

// App returns the application identifier to classify and display: the
// app_id when present, else the window class.
func (w WindowSnapshot) App() string {
	if w.AppID != "" {
		return w.AppID
	}
	return w.WindowClass
}

// TranscriptResult is the outcome of one transcription worker run.
type TranscriptResult struct {
	Text                     string
	InputDurationSeconds     float64
	ProcessingDurationSeconds float64
	ErrorKind                string
	Message                  string
}

// OK reports whether the transcription succeeded.
func (r TranscriptResult) OK() bool { return r.ErrorKind == "" }

// HistoryRecord is one persisted transcription, keyed by an auto-generated
// id and timestamp.
type HistoryRecord struct {
	ID                string
	Timestamp         time.Time
	Text              string
	AudioDuration     float64
	ProcessingTime    float64
	AppContext        string
	AppID             string
	WindowClass       string
	WindowTitle       string
	Agent             string
	WorkingDir        string
	Backend           string
}
