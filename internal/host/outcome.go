package host

// Outcome is the result of a best-effort artifact removal.
type Outcome int

const (
	// Removed means every artifact existed and was removed.
	Removed Outcome = iota
	// Absent means there was nothing to remove.
	Absent
	// Failed means removal was attempted but did not complete.
	Failed
)

// String returns the outcome name used in logs and reports.
func (o Outcome) String() string {
	switch o {
	case Removed:
		return "removed"
	case Absent:
		return "absent"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// OK reports whether the removal fully succeeded.
func (o Outcome) OK() bool {
	return o == Removed
}
