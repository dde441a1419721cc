// internal/wizard/record.go
package wizard

import (
	"fmt"

	"daystar-admissions/internal/refdata"
)

// SubjectGrade is one {subject, grade} pair. Catalog-seeded entries keep
// IsCustom false; user-appended entries carry IsCustom true.
type SubjectGrade struct {
	Subject  string `json:"subject"`
	Grade    string `json:"grade"`
	IsCustom bool   `json:"isCustom,omitempty"`
}

// ApplicationRecord is the single in-progress application entity. Only a
// reduced subset of it is ever durably stored (see the applicants package);
// the rest lives in the session and travels only in the payment payload.
type ApplicationRecord struct {
	// Personal Information
	FirstName     string `json:"firstName"`
	MiddleName    string `json:"middleName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	DateOfBirth   string `json:"dateOfBirth"`
	Nationality   string `json:"nationality"`
	Gender        string `json:"gender"`
	Religion      string `json:"religion"`
	PhoneNumber   string `json:"phoneNumber"`
	HasDisability bool   `json:"hasDisability"`

	// Programme Details
	ProgrammeLevel string `json:"programmeLevel"`
	ProgrammeName  string `json:"programmeName"`
	Campus         string `json:"campus"`
	Intake         string `json:"intake"`
	ModeOfStudy    string `json:"modeOfStudy"`

	// High School Details
	HighSchoolSystem string `json:"highSchoolSystem"`
	ExamNumber       string `json:"examNumber"`
	InstitutionName  string `json:"institutionName"`
	FromYear         string `json:"fromYear"`
	ToYear           string `json:"toYear"`
	MeanGrade        string `json:"meanGrade"`

	SubjectGrades  []SubjectGrade `json:"subjectGrades"`
	CustomSubjects []SubjectGrade `json:"customSubjects"`

	// Family Details
	FatherStatus string `json:"fatherStatus"`
	FatherName   string `json:"fatherName"`
	FatherPhone  string `json:"fatherPhone"`
	MotherStatus string `json:"motherStatus"`
	MotherName   string `json:"motherName"`
	MotherPhone  string `json:"motherPhone"`
}

// NewRecord creates an empty record with defaults: the subject-grade list is
// seeded from the fixed catalog in catalog order, and both parents default to
// Alive.
func NewRecord() *ApplicationRecord {
	grades := make([]SubjectGrade, 0, len(refdata.Subjects))
	for _, subject := range refdata.Subjects {
		grades = append(grades, SubjectGrade{Subject: subject})
	}
	return &ApplicationRecord{
		SubjectGrades:  grades,
		CustomSubjects: []SubjectGrade{},
		FatherStatus:   "Alive",
		MotherStatus:   "Alive",
	}
}

// SetField merges one field-level edit into the record. No validation happens
// at write time; validation is a step-leave concern.
func (r *ApplicationRecord) SetField(name string, value interface{}) error {
	if name == "hasDisability" {
		switch v := value.(type) {
		case bool:
			r.HasDisability = v
		case string:
			r.HasDisability = v == "yes" || v == "true"
		default:
			return fmt.Errorf("field hasDisability expects a boolean, got %T", value)
		}
		return nil
	}

	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %s expects a string, got %T", name, value)
	}

	switch name {
	case "firstName":
		r.FirstName = str
	case "middleName":
		r.MiddleName = str
	case "lastName":
		r.LastName = str
	case "email":
		r.Email = str
	case "dateOfBirth":
		r.DateOfBirth = str
	case "nationality":
		r.Nationality = str
	case "gender":
		r.Gender = str
	case "religion":
		r.Religion = str
	case "phoneNumber":
		r.PhoneNumber = str
	case "programmeLevel":
		r.ProgrammeLevel = str
	case "programmeName":
		r.ProgrammeName = str
	case "campus":
		r.Campus = str
	case "intake":
		r.Intake = str
	case "modeOfStudy":
		r.ModeOfStudy = str
	case "highSchoolSystem":
		r.HighSchoolSystem = str
	case "examNumber":
		r.ExamNumber = str
	case "institutionName":
		r.InstitutionName = str
	case "fromYear":
		r.FromYear = str
	case "toYear":
		r.ToYear = str
	case "meanGrade":
		r.MeanGrade = str
	case "fatherStatus":
		r.FatherStatus = str
	case "fatherName":
		r.FatherName = str
	case "fatherPhone":
		r.FatherPhone = str
	case "motherStatus":
		r.MotherStatus = str
	case "motherName":
		r.MotherName = str
	case "motherPhone":
		r.MotherPhone = str
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}
