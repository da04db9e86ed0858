// Package service is the transport-independent boundary: enrollment, check-in and
// attendance queries. HTTP handlers and CLI commands both call into it.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"SECUREATTEND/guard"
	"SECUREATTEND/helper"
	"SECUREATTEND/identity"
	"SECUREATTEND/ledger"
	"SECUREATTEND/logging"
	"SECUREATTEND/models"
	"SECUREATTEND/pipeline"
	"SECUREATTEND/roster"
)

type Service struct {
	guard    *guard.Controller
	pipeline *pipeline.Pipeline
	log      logging.Logger
	loc      *time.Location
	now      func() time.Time
}

type Option func(*Service)

// WithLocation sets the time zone that decides which date partition a check-in lands in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(g *guard.Controller, p *pipeline.Pipeline, log logging.Logger, opts ...Option) *Service {
	s := &Service{
		guard:    g,
		pipeline: p,
		log:      log,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the partition key for the current instant.
func (s *Service) Today() string {
	return helper.DateKey(s.now(), s.loc)
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("name is required: %w", models.ErrInvalidInput)
	}
	return name, nil
}

func requireImage(image []byte) error {
	if len(image) == 0 {
		return fmt.Errorf("image is required: %w", models.ErrInvalidInput)
	}
	return nil
}

// Enroll detects exactly one face in image and enrolls it under name.
func (s *Service) Enroll(ctx context.Context, name string, image []byte) error {
	name, err := requireName(name)
	if err != nil {
		return err
	}
	if err := requireImage(image); err != nil {
		return err
	}

	// the provider call can be slow, so it runs before any lock is taken
	emb, err := s.pipeline.DetectSingle(ctx, image)
	if err != nil {
		s.log.Warn(ctx, "enrollment detection failed", "name", name, "error", err)
		return err
	}
	return s.EnrollEmbedding(ctx, name, emb)
}

// EnrollEmbedding enrolls a precomputed embedding.
func (s *Service) EnrollEmbedding(ctx context.Context, name string, emb models.Embedding) error {
	name, err := requireName(name)
	if err != nil {
		return err
	}
	err = s.guard.WriteIdentities(ctx, func(ctx context.Context, st *identity.Store) error {
		return st.Enroll(ctx, name, emb)
	})
	if err != nil {
		s.log.Warn(ctx, "enrollment rejected", "name", name, "error", err)
		return err
	}
	s.log.Info(ctx, "identity enrolled", "name", name, "dimension", len(emb))
	return nil
}

// ReplaceEnrollment is the explicit re-enrollment of an existing identity.
func (s *Service) ReplaceEnrollment(ctx context.Context, name string, image []byte) error {
	name, err := requireName(name)
	if err != nil {
		return err
	}
	if err := requireImage(image); err != nil {
		return err
	}
	emb, err := s.pipeline.DetectSingle(ctx, image)
	if err != nil {
		return err
	}
	err = s.guard.WriteIdentities(ctx, func(ctx context.Context, st *identity.Store) error {
		return st.Replace(ctx, name, emb)
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "identity re-enrolled", "name", name)
	return nil
}

func (s *Service) RemoveIdentity(ctx context.Context, name string) error {
	name, err := requireName(name)
	if err != nil {
		return err
	}
	err = s.guard.WriteEnrollment(ctx, func(ctx context.Context, st *identity.Store, r *roster.Roster) error {
		if err := st.Remove(ctx, name); err != nil {
			return err
		}
		_, err := r.Remove(ctx, name)
		return err
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "identity removed", "name", name)
	return nil
}

// AddStudent enrolls the single face in image together with its roster record.
func (s *Service) AddStudent(ctx context.Context, st models.Student, image []byte) error {
	st, err := roster.Normalize(st)
	if err != nil {
		return err
	}
	if err := requireImage(image); err != nil {
		return err
	}
	emb, err := s.pipeline.DetectSingle(ctx, image)
	if err != nil {
		s.log.Warn(ctx, "student detection failed", "reg_no", st.RegNo, "error", err)
		return err
	}
	return s.EnrollStudent(ctx, st, emb)
}

// EnrollStudent enrolls a precomputed embedding under st.Name and stores st in the roster.
// Either both records are kept or neither is.
func (s *Service) EnrollStudent(ctx context.Context, st models.Student, emb models.Embedding) error {
	st, err := roster.Normalize(st)
	if err != nil {
		return err
	}
	err = s.guard.WriteEnrollment(ctx, func(ctx context.Context, ids *identity.Store, r *roster.Roster) error {
		if err := r.Check(st); err != nil {
			return err
		}
		if err := ids.Enroll(ctx, st.Name, emb); err != nil {
			return err
		}
		if err := r.Add(ctx, st); err != nil {
			if rbErr := ids.Remove(ctx, st.Name); rbErr != nil {
				s.log.Error(ctx, "roll back enrollment failed", "name", st.Name, "error", rbErr)
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.log.Warn(ctx, "student enrollment rejected", "reg_no", st.RegNo, "name", st.Name, "error", err)
		return err
	}
	s.log.Info(ctx, "student enrolled", "reg_no", st.RegNo, "name", st.Name, "course", st.Course)
	return nil
}

// Students lists the roster in the order students were added.
func (s *Service) Students(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	err := s.guard.ReadEnrollment(ctx, func(_ *identity.Store, r *roster.Roster) error {
		out = r.All()
		return nil
	})
	return out, err
}

// Courses lists the distinct courses of the roster.
func (s *Service) Courses(ctx context.Context) ([]string, error) {
	var out []string
	err := s.guard.ReadEnrollment(ctx, func(_ *identity.Store, r *roster.Roster) error {
		out = r.Courses()
		return nil
	})
	return out, err
}

// rosterIndex copies the roster into a name-keyed map.
func (s *Service) rosterIndex(ctx context.Context) (map[string]models.Student, error) {
	byName := make(map[string]models.Student)
	err := s.guard.ReadEnrollment(ctx, func(_ *identity.Store, r *roster.Roster) error {
		for _, st := range r.All() {
			byName[st.Name] = st
		}
		return nil
	})
	return byName, err
}

// IdentitySummary describes an enrolled identity without its embedding.
type IdentitySummary struct {
	Name       string    `json:"name" yaml:"name"`
	RegNo      string    `json:"reg_no,omitempty" yaml:"reg_no,omitempty"`
	Course     string    `json:"course,omitempty" yaml:"course,omitempty"`
	Dimension  int       `json:"dimension" yaml:"dimension"`
	EnrolledAt time.Time `json:"enrolled_at" yaml:"enrolled_at"`
}

// Identities lists enrolled identities in enrollment order.
func (s *Service) Identities(ctx context.Context) ([]IdentitySummary, error) {
	var out []IdentitySummary
	err := s.guard.ReadEnrollment(ctx, func(st *identity.Store, ros *roster.Roster) error {
		recs := st.LookupAll().Candidates()
		out = make([]IdentitySummary, 0, len(recs))
		for _, r := range recs {
			sum := IdentitySummary{Name: r.Name, Dimension: len(r.Embedding), EnrolledAt: r.EnrolledAt}
			if stu, ok := ros.ByName(r.Name); ok {
				sum.RegNo, sum.Course = stu.RegNo, stu.Course
			}
			out = append(out, sum)
		}
		return nil
	})
	return out, err
}

// Recognition is one identity recognized in a check-in frame.
type Recognition struct {
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
	Recorded   bool      `json:"recorded"`
	At         time.Time `json:"at"`
}

type CheckInResult struct {
	Date          string        `json:"date"`
	FacesDetected int           `json:"faces_detected"`
	Recognized    []Recognition `json:"recognized"`
	Warnings      []string      `json:"warnings,omitempty"`
}

// CheckIn recognizes every face in image and records the matched identities for today.
// The same identity seen twice in one frame is recorded once, with its best confidence.
func (s *Service) CheckIn(ctx context.Context, image []byte) (*CheckInResult, error) {
	if err := requireImage(image); err != nil {
		return nil, err
	}

	faces, err := s.pipeline.Detect(ctx, image)
	if err != nil {
		if !errors.Is(err, models.ErrInvalidInput) && !errors.Is(err, models.ErrEmbeddingFailed) &&
			!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", models.ErrEmbeddingFailed, err)
		}
		s.log.Warn(ctx, "check-in detection failed", "error", err)
		return nil, err
	}
	if len(faces) == 0 {
		return nil, models.ErrNoFaceDetected
	}
	usable := 0
	for _, f := range faces {
		if f.Err == nil {
			usable++
		}
	}
	if usable == 0 {
		return nil, fmt.Errorf("%d faces, none embedded: %w", len(faces), models.ErrEmbeddingFailed)
	}

	var result *CheckInResult
	err = s.guard.CheckIn(ctx, func(ctx context.Context, snap identity.Snapshot, l *ledger.Ledger) error {
		batch := s.pipeline.MatchAll(faces, snap)

		// taken inside the ledger critical section so appends stay in wall-clock order
		now := s.now()
		date := helper.DateKey(now, s.loc)

		var recognized []Recognition
		seen := make(map[string]int)
		for _, r := range batch.Results {
			if !r.Matched {
				continue
			}
			if i, ok := seen[r.Identity]; ok {
				if r.Confidence > recognized[i].Confidence {
					recognized[i].Confidence = r.Confidence
				}
				continue
			}
			seen[r.Identity] = len(recognized)
			recognized = append(recognized, Recognition{Name: r.Identity, Confidence: r.Confidence})
		}

		entries := make([]models.AttendanceEntry, len(recognized))
		for i, r := range recognized {
			// a wall clock stepped back must not push a sequence backwards
			ts := now.Round(0).UTC()
			if last, ok := l.Last(date, r.Name); ok && last.After(ts) {
				ts = last
			}
			recognized[i].At = ts
			entries[i] = models.AttendanceEntry{Name: r.Name, Timestamp: ts}
		}
		recorded, err := l.RecordBatch(ctx, date, entries)
		if err != nil {
			return err
		}
		for i := range recognized {
			recognized[i].Recorded = recorded[i]
		}

		if recognized == nil {
			recognized = []Recognition{}
		}
		result = &CheckInResult{
			Date:          date,
			FacesDetected: batch.FacesDetected,
			Recognized:    recognized,
			Warnings:      batch.Warnings,
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "check-in failed", "error", err)
		return nil, err
	}

	for _, w := range result.Warnings {
		s.log.Warn(ctx, "check-in face warning", "warning", w)
	}
	s.log.Info(ctx, "check-in processed",
		"date", result.Date, "faces", result.FacesDetected, "recognized", len(result.Recognized))
	return result, nil
}

// GetAttendance returns name -> ordered timestamps for a YYYY-MM-DD date.
func (s *Service) GetAttendance(ctx context.Context, date string) (map[string][]time.Time, error) {
	key, err := helper.ParseDateKey(date)
	if err != nil {
		return nil, err
	}
	var out map[string][]time.Time
	err = s.guard.ReadLedger(ctx, func(l *ledger.Ledger) error {
		var qerr error
		out, qerr = l.Query(key)
		return qerr
	})
	return out, err
}

// AttendanceRecord is one person's check-ins on a date joined with their roster record.
type AttendanceRecord struct {
	Name   string      `json:"name" yaml:"name"`
	RegNo  string      `json:"reg_no,omitempty" yaml:"reg_no,omitempty"`
	Course string      `json:"course,omitempty" yaml:"course,omitempty"`
	Times  []time.Time `json:"times" yaml:"times"`
}

// AttendanceReport lists who checked in on date, in order of first check-in, with their
// registration number and course when they are on the roster.
func (s *Service) AttendanceReport(ctx context.Context, date string) ([]AttendanceRecord, error) {
	key, err := helper.ParseDateKey(date)
	if err != nil {
		return nil, err
	}
	students, err := s.rosterIndex(ctx)
	if err != nil {
		return nil, err
	}

	out := []AttendanceRecord{}
	err = s.guard.ReadLedger(ctx, func(l *ledger.Ledger) error {
		names, err := l.Names(key)
		if err != nil {
			return err
		}
		byName, err := l.Query(key)
		if err != nil {
			return err
		}
		for _, name := range names {
			rec := AttendanceRecord{Name: name, Times: byName[name]}
			if st, ok := students[name]; ok {
				rec.RegNo, rec.Course = st.RegNo, st.Course
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) AttendanceDates(ctx context.Context) ([]string, error) {
	var out []string
	err := s.guard.ReadLedger(ctx, func(l *ledger.Ledger) error {
		out = l.Dates()
		return nil
	})
	return out, err
}

// Summary condenses one date partition.
type Summary struct {
	Date     string           `json:"date" yaml:"date"`
	Present  []string         `json:"present" yaml:"present"`
	Students []models.Student `json:"students" yaml:"students"`
	CheckIns int              `json:"check_ins" yaml:"check_ins"`
	Enrolled int              `json:"enrolled" yaml:"enrolled"`
}

// DailySummary reports who was present on date, in order of first check-in.
func (s *Service) DailySummary(ctx context.Context, date string) (*Summary, error) {
	key, err := helper.ParseDateKey(date)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Date: key, Students: []models.Student{}}
	students := make(map[string]models.Student)
	err = s.guard.ReadEnrollment(ctx, func(st *identity.Store, r *roster.Roster) error {
		sum.Enrolled = st.Len()
		for _, stu := range r.All() {
			students[stu.Name] = stu
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = s.guard.ReadLedger(ctx, func(l *ledger.Ledger) error {
		names, err := l.Names(key)
		if err != nil {
			return err
		}
		byName, err := l.Query(key)
		if err != nil {
			return err
		}
		sum.Present = names
		for _, name := range names {
			if stu, ok := students[name]; ok {
				sum.Students = append(sum.Students, stu)
			}
		}
		for _, ts := range byName {
			sum.CheckIns += len(ts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// BackupSnapshots copies both snapshots to dated backup keys and returns the keys written.
func (s *Service) BackupSnapshots(ctx context.Context) ([]string, error) {
	stamp := s.now().In(s.loc).Format("20060102")
	idKey := identity.SnapshotKey + "-backup-" + stamp
	rosterKey := roster.SnapshotKey + "-backup-" + stamp
	ledgerKey := ledger.SnapshotKey + "-backup-" + stamp

	err := s.guard.ReadEnrollment(ctx, func(st *identity.Store, r *roster.Roster) error {
		if err := st.Backup(ctx, idKey); err != nil {
			return err
		}
		return r.Backup(ctx, rosterKey)
	})
	if err != nil {
		return nil, err
	}
	err = s.guard.ReadLedger(ctx, func(l *ledger.Ledger) error {
		return l.Backup(ctx, ledgerKey)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "snapshots backed up", "identities", idKey, "students", rosterKey, "attendance", ledgerKey)
	return []string{idKey, rosterKey, ledgerKey}, nil
}
