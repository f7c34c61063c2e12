package validator

import (
	"errors"
	"fmt"
	"moviecatalog/proj/internal/domain/models"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
)

type Field string

const (
	FieldTitle      Field = "title"
	FieldYear       Field = "year"
	FieldRating     Field = "rating"
	FieldLink       Field = "link"
	FieldAttachment Field = "attachment"
)

type Reason string

const (
	ReasonRequired      Reason = "Required"
	ReasonInvalidFormat Reason = "InvalidFormat"
	ReasonOutOfRange    Reason = "OutOfRange"
	ReasonInvalidURL    Reason = "InvalidURL"
)

var (
	yearRe = regexp.MustCompile(`^\d{4}$`)
	// 10 and 10.0 are accepted on top of the single leading digit form.
	ratingRe = regexp.MustCompile(`^(10(\.0)?|\d(\.\d)?)$`)
	// every prefix of a string matched by ratingRe
	ratingPrefixRe = regexp.MustCompile(`^(\d(\.\d?)?|10(\.0?)?)?$`)
	numeralRe      = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

const (
	MinRating = 0
	MaxRating = 10
)

type ValidationError struct {
	Field  Field
	Reason Reason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationErrors maps each failing draft field to the first rule it broke.
type ValidationErrors map[Field]Reason

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, ve := range e.List() {
		parts = append(parts, ve.Error())
	}
	return "invalid draft: " + strings.Join(parts, "; ")
}

// List returns the errors ordered by field name.
func (e ValidationErrors) List() []*ValidationError {
	list := make([]*ValidationError, 0, len(e))
	for field, reason := range e {
		list = append(list, &ValidationError{Field: field, Reason: reason})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Field < list[j].Field })
	return list
}

type Result struct {
	Errors ValidationErrors `json:"errors"`
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return r.Errors
}

var draftValidator = newDraftValidator()

func newDraftValidator() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "notblank", validateNotBlank)
	mustRegister(v, "year", validateYear)
	mustRegister(v, "rating_range", validateRatingRange)
	mustRegister(v, "rating_format", validateRatingFormat)
	return v
}

// New returns a validator instance with the draft rules registered, for
// validating structs that reuse them.
func New() *govalidator.Validate {
	return newDraftValidator()
}

func mustRegister(v *govalidator.Validate, tag string, fn govalidator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func validateNotBlank(fl govalidator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateYear(fl govalidator.FieldLevel) bool {
	return yearRe.MatchString(fl.Field().String())
}

// validateRatingRange only judges plain numerals; anything else is left to
// rating_format.
func validateRatingRange(fl govalidator.FieldLevel) bool {
	s := fl.Field().String()
	if !numeralRe.MatchString(s) {
		return true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return true
	}
	return v >= MinRating && v <= MaxRating
}

func validateRatingFormat(fl govalidator.FieldLevel) bool {
	return ratingRe.MatchString(fl.Field().String())
}

func reasonForTag(tag string) Reason {
	switch tag {
	case "required", "notblank":
		return ReasonRequired
	case "rating_range":
		return ReasonOutOfRange
	case "url":
		return ReasonInvalidURL
	default:
		return ReasonInvalidFormat
	}
}

// ValidateDraft checks every field of the draft. The attachment is required
// only when the draft creates a new record.
func ValidateDraft(draft *models.MovieDraft) Result {
	errs := ValidationErrors{}
	if draft == nil {
		errs[FieldTitle] = ReasonRequired
		errs[FieldYear] = ReasonRequired
		errs[FieldRating] = ReasonRequired
		errs[FieldLink] = ReasonRequired
		errs[FieldAttachment] = ReasonRequired
		return Result{Errors: errs}
	}
	if err := draftValidator.Struct(draft); err != nil {
		var fieldErrs govalidator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			panic(err)
		}
		for _, fe := range fieldErrs {
			errs[Field(fe.Field())] = reasonForTag(fe.Tag())
		}
	}
	if draft.IsCreate() && (draft.Attachment == nil || len(draft.Attachment.Data) == 0) {
		errs[FieldAttachment] = ReasonRequired
	}
	return Result{Errors: errs}
}

// AcceptRatingKeystroke reports whether candidate may replace the current
// rating while the user is typing. Empty is always allowed.
func AcceptRatingKeystroke(candidate string) bool {
	return ratingPrefixRe.MatchString(candidate)
}

// Message is the inline text shown next to a failing field.
func Message(field Field, reason Reason) string {
	switch reason {
	case ReasonRequired:
		if field == FieldAttachment {
			return "Please select an image."
		}
		return "This field is required"
	case ReasonOutOfRange:
		return "Please enter a valid rating between 0 and 10."
	case ReasonInvalidURL:
		return "Please enter a valid URL."
	case ReasonInvalidFormat:
		switch field {
		case FieldYear:
			return "Please enter a valid year (e.g., 2023)."
		case FieldRating:
			return "Please enter a valid rating between 0 and 10, with one decimal place."
		}
	}
	return "This field is invalid"
}
