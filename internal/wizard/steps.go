// internal/wizard/steps.go
package wizard

import (
	"fmt"
	"strings"
	"time"

	"daystar-admissions/internal/refdata"
)

// StepCount is the number of wizard steps in the canonical variant.
const StepCount = 5

const (
	StepPersonal  = 1
	StepProgramme = 2
	StepAcademic  = 3
	StepFamily    = 4
	StepPayment   = 5
)

var stepTitles = [StepCount]string{
	"Personal Information",
	"Programme Details",
	"Academic Background",
	"Family Information",
	"Application Fee",
}

// StepTitle returns the display title for a step, or "" when out of range.
func StepTitle(step int) string {
	if step < 1 || step > StepCount {
		return ""
	}
	return stepTitles[step-1]
}

// FieldKind drives how a field is rendered and validated.
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindEmail   FieldKind = "email"
	KindPhone   FieldKind = "phone"
	KindDate    FieldKind = "date"
	KindSelect  FieldKind = "select"
	KindBoolean FieldKind = "boolean"
)

// FieldSpec describes one visible field of a step: its name, whether leaving
// the step requires it, and the enum choices a select offers.
type FieldSpec struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

// ValidationError mirrors the field/code/message error shape used across the
// service.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StepView is the rendered form of one step.
type StepView struct {
	Step   int         `json:"step"`
	Title  string      `json:"title"`
	Fields []FieldSpec `json:"fields"`
}

// RenderStep is a pure mapping from (step, record) to the visible fields and
// their enum choices. Step boundaries are fixed; there is no skip logic.
func RenderStep(step int, rec *ApplicationRecord, now time.Time) (*StepView, error) {
	specs, err := stepFields(step, now)
	if err != nil {
		return nil, err
	}
	return &StepView{Step: step, Title: StepTitle(step), Fields: specs}, nil
}

func stepFields(step int, now time.Time) ([]FieldSpec, error) {
	switch step {
	case StepPersonal:
		return []FieldSpec{
			{Name: "firstName", Kind: KindText, Required: true},
			{Name: "middleName", Kind: KindText},
			{Name: "lastName", Kind: KindText, Required: true},
			{Name: "email", Kind: KindEmail, Required: true},
			{Name: "phoneNumber", Kind: KindPhone, Required: true},
			{Name: "dateOfBirth", Kind: KindDate, Required: true},
			{Name: "nationality", Kind: KindText, Required: true},
			{Name: "gender", Kind: KindSelect, Required: true, Options: refdata.Genders},
			{Name: "religion", Kind: KindText, Required: true},
			{Name: "hasDisability", Kind: KindBoolean, Options: []string{"yes", "no"}},
		}, nil
	case StepProgramme:
		return []FieldSpec{
			{Name: "programmeLevel", Kind: KindSelect, Required: true, Options: refdata.ProgrammeLevels},
			{Name: "programmeName", Kind: KindSelect, Required: true, Options: refdata.Programmes()},
			{Name: "campus", Kind: KindSelect, Required: true, Options: refdata.Campuses},
			{Name: "intake", Kind: KindSelect, Required: true, Options: refdata.Intakes},
			{Name: "modeOfStudy", Kind: KindSelect, Required: true, Options: refdata.StudyModes},
		}, nil
	case StepAcademic:
		return []FieldSpec{
			{Name: "highSchoolSystem", Kind: KindSelect, Required: true, Options: refdata.HighSchoolSystems},
			{Name: "examNumber", Kind: KindText, Required: true},
			{Name: "institutionName", Kind: KindText, Required: true},
			{Name: "fromYear", Kind: KindSelect, Required: true, Options: refdata.Years(now)},
			{Name: "toYear", Kind: KindSelect, Required: true, Options: refdata.Years(now)},
			{Name: "meanGrade", Kind: KindSelect, Required: true, Options: refdata.Grades},
		}, nil
	case StepFamily:
		return []FieldSpec{
			{Name: "fatherStatus", Kind: KindSelect, Required: true, Options: refdata.ParentStatuses},
			{Name: "fatherName", Kind: KindText, Required: true},
			{Name: "fatherPhone", Kind: KindPhone, Required: true},
			{Name: "motherStatus", Kind: KindSelect, Required: true, Options: refdata.ParentStatuses},
			{Name: "motherName", Kind: KindText, Required: true},
			{Name: "motherPhone", Kind: KindPhone, Required: true},
		}, nil
	case StepPayment:
		// Payment holds no record fields; the step offers payment actions.
		return []FieldSpec{}, nil
	default:
		return nil, fmt.Errorf("step %d out of range", step)
	}
}

// ValidateStep checks a step's required-field and enum-membership rules
// against the record. It replaces the browser-native required semantics with
// explicit, data-driven checks.
func ValidateStep(step int, rec *ApplicationRecord, now time.Time) []ValidationError {
	specs, err := stepFields(step, now)
	if err != nil {
		return []ValidationError{{Field: "step", Code: "INVALID_STEP", Message: err.Error()}}
	}

	var errs []ValidationError
	for _, spec := range specs {
		val := fieldValue(rec, spec.Name)
		if spec.Required && strings.TrimSpace(val) == "" {
			errs = append(errs, ValidationError{
				Field:   spec.Name,
				Code:    "REQUIRED_FIELD_MISSING",
				Message: "required field is empty",
			})
			continue
		}
		if val == "" {
			continue
		}
		switch spec.Kind {
		case KindEmail:
			if !strings.Contains(val, "@") {
				errs = append(errs, ValidationError{
					Field:   spec.Name,
					Code:    "INVALID_EMAIL",
					Message: "email must contain @",
				})
			}
		case KindSelect:
			if !contains(spec.Options, val) {
				errs = append(errs, ValidationError{
					Field:   spec.Name,
					Code:    "INVALID_ENUM_VALUE",
					Message: fmt.Sprintf("%q is not an allowed choice", val),
				})
			}
		}
	}

	if step == StepProgramme && rec.ProgrammeLevel != "" && rec.ProgrammeName != "" {
		if refdata.IsProgrammeLevel(rec.ProgrammeLevel) && refdata.IsProgramme(rec.ProgrammeName) &&
			!refdata.ProgrammeMatchesLevel(rec.ProgrammeLevel, rec.ProgrammeName) {
			errs = append(errs, ValidationError{
				Field:   "programmeName",
				Code:    "PROGRAMME_LEVEL_MISMATCH",
				Message: fmt.Sprintf("%q is not offered at level %q", rec.ProgrammeName, rec.ProgrammeLevel),
			})
		}
	}

	if step == StepAcademic {
		// Catalog-seeded grades are optional, but a set grade must be valid.
		for i, sg := range rec.SubjectGrades {
			if sg.Grade != "" && !refdata.IsGrade(sg.Grade) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("subjectGrades[%d]", i),
					Code:    "INVALID_ENUM_VALUE",
					Message: fmt.Sprintf("%q is not a grade", sg.Grade),
				})
			}
		}
	}

	return errs
}

func fieldValue(rec *ApplicationRecord, name string) string {
	switch name {
	case "firstName":
		return rec.FirstName
	case "middleName":
		return rec.MiddleName
	case "lastName":
		return rec.LastName
	case "email":
		return rec.Email
	case "phoneNumber":
		return rec.PhoneNumber
	case "dateOfBirth":
		return rec.DateOfBirth
	case "nationality":
		return rec.Nationality
	case "gender":
		return rec.Gender
	case "religion":
		return rec.Religion
	case "hasDisability":
		if rec.HasDisability {
			return "yes"
		}
		return "no"
	case "programmeLevel":
		return rec.ProgrammeLevel
	case "programmeName":
		return rec.ProgrammeName
	case "campus":
		return rec.Campus
	case "intake":
		return rec.Intake
	case "modeOfStudy":
		return rec.ModeOfStudy
	case "highSchoolSystem":
		return rec.HighSchoolSystem
	case "examNumber":
		return rec.ExamNumber
	case "institutionName":
		return rec.InstitutionName
	case "fromYear":
		return rec.FromYear
	case "toYear":
		return rec.ToYear
	case "meanGrade":
		return rec.MeanGrade
	case "fatherStatus":
		return rec.FatherStatus
	case "fatherName":
		return rec.FatherName
	case "fatherPhone":
		return rec.FatherPhone
	case "motherStatus":
		return rec.MotherStatus
	case "motherName":
		return rec.MotherName
	case "motherPhone":
		return rec.MotherPhone
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
