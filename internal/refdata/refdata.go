// Package refdata holds the static enumerations the application wizard
// draws its selection constraints from.
package refdata

import (
	"strconv"
	"time"
)

var ProgrammeLevels = []string{
	"Certificate",
	"Diploma",
	"Undergraduate",
	"Postgraduate",
	"Masters",
	"PhD",
}

// ProgrammesByLevel maps each programme level to the programmes offered at it.
var ProgrammesByLevel = map[string][]string{
	"Certificate": {
		"Certificate in Community Development",
	},
	"Diploma": {
		"Diploma in Child Development",
	},
	"Undergraduate": {
		"Bachelor of Science in Computer Science",
		"Bachelor of Science in Nursing",
		"Bachelor of Arts in Psychology and Counselling",
	},
	"Postgraduate": {
		"Postgraduate Diploma in Child Development",
	},
	"Masters": {
		"Master of Arts in Counselling Psychology",
	},
	"PhD": {
		"PhD in Clinical Psychology",
		"PhD in Development Studies",
	},
}

var StudyModes = []string{
	"Full Time",
	"Part Time",
	"Evening",
	"Weekend",
	"Online",
}

var Campuses = []string{
	"Main Campus",
	"City Campus",
	"Westlands Campus",
}

var Intakes = []string{
	"January",
	"May",
	"September",
}

var HighSchoolSystems = []string{
	"KCSE",
	"IGCSE",
	"IB",
	"Other",
}

var Grades = []string{
	"A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "E",
}

var Genders = []string{
	"male", "female", "other",
}

var ParentStatuses = []string{
	"Alive", "Deceased",
}

// Subjects is the fixed catalog that seeds the subject-grade list. Order is
// significant: the wizard preserves it.
var Subjects = []string{
	"English",
	"Kiswahili",
	"Mathematics",
	"Biology",
	"Chemistry",
	"Physics",
	"History & Government",
	"Geography",
	"CRE",
	"Business Studies",
	"Agriculture",
	"Computer Studies",
}

// Programmes returns the flattened catalog across all levels, in level order.
func Programmes() []string {
	out := make([]string, 0, 16)
	for _, level := range ProgrammeLevels {
		out = append(out, ProgrammesByLevel[level]...)
	}
	return out
}

// Years returns the rolling lookback window of school years as strings,
// newest first, ending at the year of now.
func Years(now time.Time) []string {
	out := make([]string, 0, yearWindow)
	for i := 0; i < yearWindow; i++ {
		out = append(out, strconv.Itoa(now.Year()-i))
	}
	return out
}

const yearWindow = 10

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func IsProgrammeLevel(v string) bool   { return contains(ProgrammeLevels, v) }
func IsProgramme(v string) bool        { return contains(Programmes(), v) }
func IsStudyMode(v string) bool        { return contains(StudyModes, v) }
func IsCampus(v string) bool           { return contains(Campuses, v) }
func IsIntake(v string) bool           { return contains(Intakes, v) }
func IsHighSchoolSystem(v string) bool { return contains(HighSchoolSystems, v) }
func IsGrade(v string) bool            { return contains(Grades, v) }
func IsGender(v string) bool           { return contains(Genders, v) }
func IsParentStatus(v string) bool     { return contains(ParentStatuses, v) }

// IsYearInWindow reports whether v falls inside the lookback window at now.
func IsYearInWindow(v string, now time.Time) bool {
	return contains(Years(now), v)
}

// ProgrammeMatchesLevel reports whether the named programme is offered at the
// given level.
func ProgrammeMatchesLevel(level, name string) bool {
	return contains(ProgrammesByLevel[level], name)
}
