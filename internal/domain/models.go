// Package domain defines the persistence models for interview feedback and
// portal users. These types are mapped with GORM and form the core data layer
// of the feedback backend.
package domain

import "time"

// FeedbackRecord is a single structured piece of interview feedback submitted
// by (or on behalf of) a candidate. Records are immutable after creation: the
// only lifecycle transitions are create and delete.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), assigned by the store.
//   - CandidateName / CandidateEmail / Position / InterviewerName: free-text
//     attributes of the interview, length-capped at the schema level.
//   - InterviewDate: calendar date of the interview (time component unused).
//   - Overall/Communication/Technical/Process: integer ratings in [1,5].
//   - Comments: 10–1000 characters, required.
//   - Recommend: whether the candidate would recommend the company.
//   - Suggestions: optional, up to 500 characters.
//   - SubmittedAt: store-assigned UTC timestamp; immutable; drives the
//     deterministic listing order (SubmittedAt desc, ID desc).
//   - OwnerUserID: optional reference to the submitting account. Nullable so
//     HR can enter feedback for candidates without an account. The FK rule is
//     SET NULL: deleting a user never deletes their records.
type FeedbackRecord struct {
	ID              string    `json:"id"               gorm:"type:char(36);primaryKey"`
	CandidateName   string    `json:"candidate_name"   gorm:"type:varchar(100);not null"`
	CandidateEmail  string    `json:"candidate_email"  gorm:"type:varchar(100);not null"`
	Position        string    `json:"position"         gorm:"type:varchar(100);not null;index"`
	InterviewDate   time.Time `json:"interview_date"   gorm:"not null"`
	InterviewerName string    `json:"interviewer_name" gorm:"type:varchar(100);not null"`
	Overall         int       `json:"overall_rating"       gorm:"not null;check:overall >= 1 AND overall <= 5"`
	Communication   int       `json:"communication_rating" gorm:"not null;check:communication >= 1 AND communication <= 5"`
	Technical       int       `json:"technical_rating"     gorm:"not null;check:technical >= 1 AND technical <= 5"`
	Process         int       `json:"process_rating"       gorm:"not null;check:process >= 1 AND process <= 5"`
	Comments        string    `json:"comments"         gorm:"type:varchar(1000);not null"`
	Recommend       bool      `json:"recommend"        gorm:"not null"`
	Suggestions     string    `json:"suggestions,omitempty" gorm:"type:varchar(500)"`
	SubmittedAt     time.Time `json:"submitted_at"     gorm:"not null;index"`
	OwnerUserID     *string   `json:"owner_user_id,omitempty" gorm:"type:char(36);index"`

	// Owner is the submitting account, when one exists. SET NULL decouples
	// record lifetime from account lifetime.
	Owner *User `json:"-" gorm:"foreignKey:OwnerUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for FeedbackRecord.
func (FeedbackRecord) TableName() string { return "interview_feedback" }

// AverageRating is the mean of the four ratings. For any persisted record it
// lies in [1.0, 5.0].
func (r FeedbackRecord) AverageRating() float64 {
	return float64(r.Overall+r.Communication+r.Technical+r.Process) / 4.0
}

// User is the external identity consumed (not owned) by this service. Session
// issuance and credential handling live in the upstream auth gateway; the
// backend only reads the id, email, and role set, and clears record ownership
// when an account is removed.
//
// Roles is a comma-separated, lowercase role list ("hr,admin"); parsing into
// a role set happens in the access package.
type User struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Email     string    `json:"email"      gorm:"type:varchar(100);not null;uniqueIndex"`
	Roles     string    `json:"roles"      gorm:"type:varchar(100);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
