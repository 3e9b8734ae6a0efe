package state

import "fmt"

// GoalStatus 研究目标状态
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
)

// validGoalTransitions 定义合法的目标状态转换; completed 和 cancelled 都是终态
var validGoalTransitions = map[GoalStatus][]GoalStatus{
	GoalActive: {GoalCompleted, GoalCancelled},
}

// CanTransition 检查目标状态转换是否合法
func CanTransition(from, to GoalStatus) bool {
	for _, s := range validGoalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ParseGoalStatus validates a status string.
func ParseGoalStatus(s string) (GoalStatus, error) {
	switch GoalStatus(s) {
	case GoalActive, GoalCompleted, GoalCancelled:
		return GoalStatus(s), nil
	default:
		return "", fmt.Errorf("unknown goal status %q", s)
	}
}

// ErrInvalidTransition 非法状态转换错误
type ErrInvalidTransition struct {
	Index int
	From  GoalStatus
	To    GoalStatus
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("goal %d: invalid status transition: %s -> %s", e.Index, e.From, e.To)
}

// Goal is one research goal.
type Goal struct {
	Index       int        `json:"goal_index"`
	Description string     `json:"description"`
	Status      GoalStatus `json:"status"`
	Priority    string     `json:"priority,omitempty"`
}
