package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const (
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset     = "password_reset"
)

type User struct {
	ID                uuid.UUID
	Email             string
	Name              *string
	PassHash          []byte
	EmailVerified     bool
	VerificationToken *string
	ResetToken        *string
	ResetExpires      *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Summary is the public view of a user returned by the API.
type Summary struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          *string   `json:"name"`
	EmailVerified bool      `json:"emailVerified"`
}

func (u User) Summary() Summary {
	return Summary{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
	}
}

// Subtask is a node of a thought's task tree. Children live in Subtasks.
type Subtask struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	EstimatedTime string    `json:"estimated_time"`
	Difficulty    string    `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Completed     bool      `json:"completed"`
	Expanded      bool      `json:"expanded,omitempty"`
	ParentID      *int64    `json:"parentId,omitempty"`
	Depth         int       `json:"depth,omitempty"`
	Subtasks      []Subtask `json:"subtasks,omitempty" validate:"omitempty,dive"`
}

type AIData struct {
	MainGoal string    `json:"main_goal"`
	Category string    `json:"category"`
	Priority string    `json:"priority" validate:"required,oneof=high medium low"`
	Subtasks []Subtask `json:"subtasks" validate:"dive"`
}

type Thought struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"-"`
	Content   string     `json:"content"`
	Subtasks  []Subtask  `json:"subtasks"`
	AIData    *AIData    `json:"ai_data"`
	IsSaved   bool       `json:"is_saved"`
	Progress  int        `json:"progress"`
	CreatedAt time.Time  `json:"created_at"`
	SavedAt   *time.Time `json:"saved_at,omitempty"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Message is an email job published to the mail queue.
type Message struct {
	Email   string `json:"to"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}
