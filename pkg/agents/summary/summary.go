package summary

// ActionType enumerates what a reconcile pass did to one child.
type ActionType string

// Action types emitted by the reconciler for observability.
const (
	ActionCreated   ActionType = "created"
	ActionUpdated   ActionType = "updated"
	ActionUnchanged ActionType = "unchanged"
	ActionDeleted   ActionType = "deleted"
)

// ChildAction captures a single action taken on a child during reconciliation.
type ChildAction struct {
	Kind   string
	Name   string
	Action ActionType
}

// Summary aggregates reconciliation outcomes for metrics, status, and events.
type Summary struct {
	Actions []ChildAction
}

// Record appends an action.
func (s *Summary) Record(kind, name string, action ActionType) {
	s.Actions = append(s.Actions, ChildAction{Kind: kind, Name: name, Action: action})
}

// Count returns the number of actions for the provided type.
func (s *Summary) Count(t ActionType) int {
	if s == nil {
		return 0
	}
	count := 0
	for _, a := range s.Actions {
		if a.Action == t {
			count++
		}
	}
	return count
}

// Changed reports whether the pass wrote anything.
func (s *Summary) Changed() bool {
	if s == nil {
		return false
	}
	return len(s.Actions) != s.Count(ActionUnchanged)
}
