package block

// SourceKind names where a calendar entry comes from.
type SourceKind string

const (
	// SourceBlock marks a user-owned time block.
	SourceBlock SourceKind = "block"
	// SourceGoal marks a goal overlay.
	SourceGoal SourceKind = "goal"
	// SourceMeeting marks a meeting overlay.
	SourceMeeting SourceKind = "meeting"
	// SourceTask marks a project task overlay.
	SourceTask SourceKind = "task"
	// SourceTimeline marks a timeline item overlay.
	SourceTimeline SourceKind = "timeline"
	// SourcePost marks a content post overlay.
	SourcePost SourceKind = "post"
)

// IsOverlay reports whether entries of this kind are read-only overlays.
func (k SourceKind) IsOverlay() bool {
	switch k {
	case SourceGoal, SourceMeeting, SourceTask, SourceTimeline, SourcePost:
		return true
	}
	return false
}

// Overlay is an externally sourced, already normalized occurrence that is
// laid out next to blocks but never edited through the calendar.
type Overlay struct {
	ID    string
	Date  Date
	Start Clock
	End   Clock
	Title string
	Kind  SourceKind
}
