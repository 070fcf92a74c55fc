package preview

// State is the lifecycle of one preset's preview entry.
type State int

const (
	StatePending State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Entry is the pipeline-owned record for one preset.
type Entry struct {
	State  State
	Handle *Handle
}

func (e *Entry) settled() bool {
	return e.State == StateReady || e.State == StateFailed
}

// EntryView is the read-only projection of an Entry handed to the
// presentation layer.
type EntryView struct {
	Name    string `json:"name"`
	Creator string `json:"creator,omitempty"`
	Status  string `json:"status"`
	DataURL string `json:"data_url,omitempty"`
}

// SnapshotView is the full preview state pushed to the browser screen.
type SnapshotView struct {
	Entries    map[string]EntryView `json:"entries"`
	AllSettled bool                 `json:"all_settled"`
}
