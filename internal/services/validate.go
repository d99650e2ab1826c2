// Package services – input validation
//
// Submissions are validated with go-playground/validator against the field
// constraints of the data model. The validator reports every violated
// constraint (not just the first), which is translated into the complete
// field→reason map carried by ValidationError.
package services

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// SubmitFeedbackInput carries the caller-supplied fields of a new feedback
// record. The store-assigned id and submission timestamp are absent on
// purpose; they are never caller-controlled.
type SubmitFeedbackInput struct {
	CandidateName   string    `json:"candidate_name"   validate:"required,max=100"`
	CandidateEmail  string    `json:"candidate_email"  validate:"required,email,max=100"`
	Position        string    `json:"position"         validate:"required,max=100"`
	InterviewDate   time.Time `json:"interview_date"   validate:"required"`
	InterviewerName string    `json:"interviewer_name" validate:"required,max=100"`
	Overall         int       `json:"overall_rating"       validate:"min=1,max=5"`
	Communication   int       `json:"communication_rating" validate:"min=1,max=5"`
	Technical       int       `json:"technical_rating"     validate:"min=1,max=5"`
	Process         int       `json:"process_rating"       validate:"min=1,max=5"`
	Comments        string    `json:"comments"         validate:"required,min=10,max=1000"`
	Recommend       bool      `json:"recommend"`
	Suggestions     string    `json:"suggestions"      validate:"max=500"`
}

// validate is shared and safe for concurrent use. Field names in reported
// errors follow the json tags so they match the wire format.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateSubmission checks in against the model constraints and returns a
// *ValidationError listing every violation, or nil when the input is valid.
func ValidateSubmission(in SubmitFeedbackInput) *ValidationError {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Fields: map[string]string{"input": err.Error()}}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = reason(fe)
	}
	return &ValidationError{Fields: fields}
}

// reason renders one field error as a human-readable constraint description.
func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
