package session

// State is the offline progress of a session.
type State int

const (
	StateUninitialized State = iota
	StateParametrized
	StateDatabasePacked
	StateHinted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateParametrized:
		return "parametrized"
	case StateDatabasePacked:
		return "database_packed"
	case StateHinted:
		return "hinted"
	default:
		return "unknown"
	}
}

// QueryState is the progress of one query.
type QueryState int

const (
	QueryStateQueried QueryState = iota
	QueryStateAnswered
)

// String returns the query state name.
func (s QueryState) String() string {
	if s == QueryStateAnswered {
		return "answered"
	}
	return "queried"
}
