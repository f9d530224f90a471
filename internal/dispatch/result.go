package dispatch

// Status is the outcome of one rule evaluation.
type Status byte

const (
	// StatusObserved: the occurrence was counted, the rule is not ready yet.
	StatusObserved Status = iota
	// StatusGateMiss: the probability gate said no.
	StatusGateMiss
	// StatusPending: a city scan was submitted; the firing completes on a later Tick.
	StatusPending
	// StatusSpawned: the item was materialized and the rule marked fired.
	StatusSpawned
	// StatusAbandoned: the firing failed after the gate; trigger state is unchanged.
	StatusAbandoned
)

func (s Status) String() string {
	switch s {
	case StatusObserved:
		return "observed"
	case StatusGateMiss:
		return "gate_miss"
	case StatusPending:
		return "pending"
	case StatusSpawned:
		return "spawned"
	case StatusAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// Result reports what happened to one rule.
type Result struct {
	Rule     string
	Event    string
	Status   Status
	ObjectID uint32
	// Reason is set for StatusAbandoned, one of the observe.Reason* values.
	Reason string
	Err    error
}
