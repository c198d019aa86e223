package domain

// AdjustmentMode governs which of a TimePeriod's three fields (start,
// duration, end) a setter on the other two is allowed to move.
type AdjustmentMode int

const (
	AdjNone AdjustmentMode = iota
	AdjFixedStart
	AdjFixedDuration
	AdjFixedEnd
	AdjInferStart
	AdjInferDuration
	AdjInferEnd
	AdjLocked
)

func (m AdjustmentMode) String() string {
	switch m {
	case AdjNone:
		return "None"
	case AdjFixedStart:
		return "FixedStart"
	case AdjFixedDuration:
		return "FixedDuration"
	case AdjFixedEnd:
		return "FixedEnd"
	case AdjInferStart:
		return "InferStart"
	case AdjInferDuration:
		return "InferDuration"
	case AdjInferEnd:
		return "InferEnd"
	case AdjLocked:
		return "Locked"
	default:
		return "Unknown"
	}
}

// TimePeriod is a start/duration/end triad backed by two milestones and
// an adjustment-mode policy (Component Design §4.4). The network package
// owns the logic that enforces the per-mode setter table; this struct is
// the record it operates on.
type TimePeriod struct {
	Start        MilestoneID
	End          MilestoneID
	HasDuration  bool
	Adj          AdjustmentMode
	AdjStack     []AdjustmentMode
	InternalRels []RelationshipID
}
