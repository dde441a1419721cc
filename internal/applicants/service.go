// internal/applicants/service.go
package applicants

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"daystar-admissions/internal/common/errors"
	"daystar-admissions/internal/common/logger"
	"daystar-admissions/internal/notify"
	"daystar-admissions/internal/wizard"
)

// Applicant is the reduced record that is durably stored. Everything else on
// the application record stays in session state and is discarded after
// submission.
type Applicant struct {
	FirstName     string `json:"first_name"`
	MiddleName    string `json:"middle_name,omitempty"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	ProgrammeName string `json:"programme_name"`
}

// Reduce projects an application record down to the persisted subset.
func Reduce(rec *wizard.ApplicationRecord) Applicant {
	return Applicant{
		FirstName:     rec.FirstName,
		MiddleName:    rec.MiddleName,
		LastName:      rec.LastName,
		Email:         rec.Email,
		PhoneNumber:   rec.PhoneNumber,
		ProgrammeName: rec.ProgrammeName,
	}
}

// Indexer pushes an applicant document into the search index. Index writes
// are best-effort and never fail a submission.
type Indexer interface {
	IndexApplicant(ctx context.Context, id string, doc []byte) error
}

// Service persists applicants. It implements wizard.Submitter.
type Service struct {
	db      *sql.DB
	indexer Indexer
	sender  notify.Sender
	logger  logger.Logger
}

func NewService(db *sql.DB, indexer Indexer, sender notify.Sender, log logger.Logger) *Service {
	return &Service{
		db:      db,
		indexer: indexer,
		sender:  sender,
		logger:  log.WithFields(map[string]interface{}{"component": "applicants"}),
	}
}

// SubmitApplication inserts the reduced record into the applicants table.
// middle_name is stored as NULL when empty. After a successful insert the
// same document is indexed for the admissions team; index errors are logged
// and swallowed.
func (s *Service) SubmitApplication(ctx context.Context, rec *wizard.ApplicationRecord) error {
	applicant := Reduce(rec)

	middle := sql.NullString{String: applicant.MiddleName, Valid: applicant.MiddleName != ""}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applicants (
			first_name, middle_name, last_name, email, phone_number, programme_name
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		applicant.FirstName,
		middle,
		applicant.LastName,
		applicant.Email,
		applicant.PhoneNumber,
		applicant.ProgrammeName,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("applicant persisted", map[string]interface{}{
		"email":     applicant.Email,
		"programme": applicant.ProgrammeName,
	})

	s.indexApplicant(ctx, applicant)

	if s.sender != nil {
		s.sender.SendConfirmation(ctx, notify.Confirmation{
			FirstName:     applicant.FirstName,
			Email:         applicant.Email,
			PhoneNumber:   applicant.PhoneNumber,
			ProgrammeName: applicant.ProgrammeName,
		})
	}
	return nil
}

func (s *Service) indexApplicant(ctx context.Context, applicant Applicant) {
	if s.indexer == nil {
		return
	}

	doc, err := json.Marshal(map[string]interface{}{
		"first_name":     applicant.FirstName,
		"middle_name":    applicant.MiddleName,
		"last_name":      applicant.LastName,
		"email":          applicant.Email,
		"phone_number":   applicant.PhoneNumber,
		"programme_name": applicant.ProgrammeName,
		"submitted_at":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Warn("failed to marshal applicant document", map[string]interface{}{
			"error": err,
		})
		return
	}

	if err := s.indexer.IndexApplicant(ctx, uuid.New().String(), doc); err != nil {
		s.logger.Warn("applicant index write failed", map[string]interface{}{
			"error": errors.NewIndexWriteFailedError(err),
			"email": applicant.Email,
		})
	}
}

// ESIndexer indexes applicant documents into Elasticsearch.
type ESIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewESIndexer(client *elasticsearch.Client, index string) *ESIndexer {
	return &ESIndexer{client: client, index: index}
}

func (e *ESIndexer) IndexApplicant(ctx context.Context, id string, doc []byte) error {
	res, err := e.client.Index(
		e.index,
		bytes.NewReader(doc),
		e.client.Index.WithDocumentID(id),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index write error: %s", res.Status())
	}
	return nil
}
