// internal/wizard/subjects.go
package wizard

import "fmt"

// UpdateSubjectGrade sets the grade of a catalog-seeded subject in place.
// Catalog order is preserved; only the grade changes.
func (s *Session) UpdateSubjectGrade(index int, grade string) error {
	if index < 0 || index >= len(s.Record.SubjectGrades) {
		return fmt.Errorf("subject index %d out of range", index)
	}
	s.Record.SubjectGrades[index].Grade = grade
	return nil
}

// SetCustomSubjectDraft stages a pending {subject, grade} pair.
func (s *Session) SetCustomSubjectDraft(subject, grade string) {
	s.Draft.Subject = subject
	s.Draft.Grade = grade
}

// AddCustomSubject appends the staged pair as a custom subject. When either
// part of the pair is empty the addition is rejected silently: the list is
// untouched, the draft is kept, and no event is emitted. On success the entry
// is appended with IsCustom set, the draft is cleared, and a success event is
// emitted. Returns whether an entry was added.
func (s *Session) AddCustomSubject() bool {
	if s.Draft.Subject == "" || s.Draft.Grade == "" {
		return false
	}
	s.Record.CustomSubjects = append(s.Record.CustomSubjects, SubjectGrade{
		Subject:  s.Draft.Subject,
		Grade:    s.Draft.Grade,
		IsCustom: true,
	})
	s.Draft = SubjectGrade{}
	s.Notifier.Success("Custom subject added successfully!")
	return true
}

// RemoveCustomSubject deletes one custom subject by index, keeping the
// remaining entries in relative order, and emits a confirmation event.
func (s *Session) RemoveCustomSubject(index int) error {
	if index < 0 || index >= len(s.Record.CustomSubjects) {
		return fmt.Errorf("custom subject index %d out of range", index)
	}
	s.Record.CustomSubjects = append(
		s.Record.CustomSubjects[:index],
		s.Record.CustomSubjects[index+1:]...,
	)
	s.Notifier.Success("Custom subject removed!")
	return nil
}
