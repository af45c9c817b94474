// Package tasktree implements the operations on a thought's nested subtask
// tree: progress, breakdown eligibility, time estimates and in-place updates.
//
// Trees are bounded: input deeper than MaxTreeDepth is rejected by Validate,
// so the recursive walks below never exceed that depth.
package tasktree

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"showerlog/internal/models"
)

const (
	// MaxDepth is the deepest level at which a node can still be broken down.
	MaxDepth = 4
	// NestedMaxDepth is the recursion cap sent to the AI collaborator.
	NestedMaxDepth = 5
	// MaxTreeDepth bounds stored trees (root level is 1).
	MaxTreeDepth = MaxDepth + 2
)

var (
	ErrTooDeep       = errors.New("subtask tree is too deep")
	ErrNotEligible   = errors.New("subtask cannot be broken down")
	ErrHasChildren   = errors.New("subtask is already broken down")
	ErrDepthExceeded = errors.New("maximum breakdown depth reached")
	ErrDuplicateID   = errors.New("duplicate subtask id")
)

var (
	firstNumber   = regexp.MustCompile(`\d+`)
	leadingNumber = regexp.MustCompile(`^\s*[+-]?\d+`)
)

// Validate rejects forests deeper than MaxTreeDepth levels.
func Validate(list []models.Subtask) error {
	if forestDepth(list, 1) > MaxTreeDepth {
		return ErrTooDeep
	}

	return nil
}

// UniqueIDs rejects forests in which two nodes share an id. Call it after
// Validate so the walk is bounded.
func UniqueIDs(list []models.Subtask) error {
	seen := make(map[int64]struct{})

	return collectIDs(list, seen)
}

func collectIDs(list []models.Subtask, seen map[int64]struct{}) error {
	for i := range list {
		if _, ok := seen[list[i].ID]; ok {
			return ErrDuplicateID
		}
		seen[list[i].ID] = struct{}{}

		if err := collectIDs(list[i].Subtasks, seen); err != nil {
			return err
		}
	}

	return nil
}

// forestDepth stops descending one level past the limit.
func forestDepth(list []models.Subtask, level int) int {
	if len(list) == 0 {
		return level - 1
	}
	if level > MaxTreeDepth {
		return level
	}

	deepest := level
	for i := range list {
		if d := forestDepth(list[i].Subtasks, level+1); d > deepest {
			deepest = d
		}
	}

	return deepest
}

// Depth is the number of levels below task; a leaf has depth 0.
func Depth(task models.Subtask) int {
	if len(task.Subtasks) == 0 {
		return 0
	}

	deepest := 0
	for _, child := range task.Subtasks {
		if d := Depth(child); d > deepest {
			deepest = d
		}
	}

	return deepest + 1
}

// Progress is 0 or 100 for a leaf, and the rounded percentage of fully
// complete children otherwise.
func Progress(task models.Subtask) int {
	if len(task.Subtasks) == 0 {
		if task.Completed {
			return 100
		}
		return 0
	}

	done := 0
	for _, child := range task.Subtasks {
		if Progress(child) == 100 {
			done++
		}
	}

	return int(math.Round(float64(done) / float64(len(task.Subtasks)) * 100))
}

// ListProgress treats the top-level list as the children of a virtual root.
func ListProgress(list []models.Subtask) int {
	if len(list) == 0 {
		return 0
	}

	return Progress(models.Subtask{Subtasks: list})
}

// CanBreakdown reports whether the AI may decompose task found at depth.
func CanBreakdown(task models.Subtask, depth int) bool {
	if depth >= MaxDepth || task.Difficulty == models.DifficultyEasy {
		return false
	}

	label := strings.ToLower(task.EstimatedTime)

	switch {
	case strings.Contains(label, "hour"):
		return leadingInt(label) > 1
	case strings.Contains(label, "day"), strings.Contains(label, "week"):
		return true
	}

	return false
}

func leadingInt(s string) int {
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0
	}

	n, err := strconv.Atoi(strings.TrimSpace(m))
	if err != nil {
		return 0
	}

	return n
}

// EstimatedHours converts a label like "2-3 days" into hours, using the first
// number in the label (1 when absent). Working days are 8h, weeks 40h, months 160h.
func EstimatedHours(label string) float64 {
	label = strings.ToLower(label)

	value := 1.0
	if m := firstNumber.FindString(label); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			value = float64(n)
		}
	}

	switch {
	case strings.Contains(label, "minute"):
		return value / 60
	case strings.Contains(label, "hour"):
		return value
	case strings.Contains(label, "day"):
		return value * 8
	case strings.Contains(label, "week"):
		return value * 40
	case strings.Contains(label, "month"):
		return value * 160
	}

	return value
}

// TotalEstimatedHours sums, per node, the larger of its own estimate and the
// total of its children.
func TotalEstimatedHours(list []models.Subtask) float64 {
	total := 0.0

	for _, task := range list {
		own := EstimatedHours(task.EstimatedTime)
		children := 0.0
		if len(task.Subtasks) > 0 {
			children = TotalEstimatedHours(task.Subtasks)
		}

		total += math.Max(own, children)
	}

	return total
}

// SetCompleted sets the completion flag of the node with id anywhere in list.
func SetCompleted(list []models.Subtask, id int64, completed bool) bool {
	node, _, _ := Locate(list, id)
	if node == nil {
		return false
	}

	node.Completed = completed

	return true
}

// Locate finds the node with id. It returns a pointer into list, the node's
// depth (0 for top level) and the titles of its ancestors, root first.
func Locate(list []models.Subtask, id int64) (*models.Subtask, int, []string) {
	return locate(list, id, 0, nil)
}

func locate(list []models.Subtask, id int64, depth int, path []string) (*models.Subtask, int, []string) {
	for i := range list {
		if list[i].ID == id {
			return &list[i], depth, path
		}
	}

	for i := range list {
		if len(list[i].Subtasks) == 0 {
			continue
		}

		trail := append(append([]string(nil), path...), list[i].Title)
		if node, d, p := locate(list[i].Subtasks, id, depth+1, trail); node != nil {
			return node, d, p
		}
	}

	return nil, 0, nil
}

// MaxID returns the largest id in the forest.
func MaxID(list []models.Subtask) int64 {
	var max int64

	for _, task := range list {
		if task.ID > max {
			max = task.ID
		}
		if child := MaxID(task.Subtasks); child > max {
			max = child
		}
	}

	return max
}

// Breadcrumb renders the context string sent with a nested breakdown request.
func Breadcrumb(ancestors []string, title string) string {
	return strings.Join(append(append([]string(nil), ancestors...), title), " > ")
}

// Attach makes children the subtasks of node, which sits at depth. Children
// get ids starting at nextID and are reset to incomplete.
func Attach(node *models.Subtask, depth int, children []models.Subtask, nextID int64) error {
	if len(node.Subtasks) > 0 {
		return ErrHasChildren
	}
	if depth >= MaxDepth {
		return ErrDepthExceeded
	}

	parentID := node.ID
	attached := make([]models.Subtask, 0, len(children))

	for i, child := range children {
		child.ID = nextID + int64(i)
		child.ParentID = &parentID
		child.Depth = depth + 1
		child.Completed = false
		child.Expanded = false
		child.Subtasks = nil

		attached = append(attached, child)
	}

	node.Subtasks = attached
	node.Expanded = true

	return nil
}
