// Package roster keeps the student records (registration number, course) of enrolled
// identities. Like identity.Store it is guarded by guard.Controller.
package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"SECUREATTEND/models"
	"SECUREATTEND/storage"
)

// SnapshotKey is the backend key of the persisted roster.
const SnapshotKey = "students"

type Roster struct {
	backend storage.Backend
	now     func() time.Time

	students []models.Student
	byName   map[string]int
	byRegNo  map[string]int
}

type Option func(*Roster)

func WithClock(now func() time.Time) Option {
	return func(r *Roster) { r.now = now }
}

func New(backend storage.Backend, opts ...Option) *Roster {
	r := &Roster{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	r.reset(nil)
	return r
}

type document struct {
	Students []models.Student `json:"students"`
}

func (r *Roster) reset(students []models.Student) {
	r.students = students
	r.byName = make(map[string]int, len(students))
	r.byRegNo = make(map[string]int, len(students))
	for i, s := range students {
		r.byName[s.Name] = i
		r.byRegNo[s.RegNo] = i
	}
}

// Load replaces the in-memory roster with the persisted snapshot.
func (r *Roster) Load(ctx context.Context) error {
	data, err := r.backend.Load(ctx, SnapshotKey)
	if errors.Is(err, storage.ErrNotFound) {
		r.reset(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode roster: %w", err)
	}
	names := make(map[string]struct{}, len(doc.Students))
	regNos := make(map[string]struct{}, len(doc.Students))
	for _, s := range doc.Students {
		if _, ok := names[s.Name]; ok {
			return fmt.Errorf("decode roster: %q: %w", s.Name, models.ErrDuplicateName)
		}
		if _, ok := regNos[s.RegNo]; ok {
			return fmt.Errorf("decode roster: %q: %w", s.RegNo, models.ErrDuplicateRegNo)
		}
		names[s.Name] = struct{}{}
		regNos[s.RegNo] = struct{}{}
	}
	r.reset(doc.Students)
	return nil
}

func encode(students []models.Student) ([]byte, error) {
	if students == nil {
		students = []models.Student{}
	}
	data, err := json.Marshal(document{Students: students})
	if err != nil {
		return nil, fmt.Errorf("encode roster: %w", err)
	}
	return data, nil
}

func (r *Roster) commit(ctx context.Context, students []models.Student) error {
	data, err := encode(students)
	if err != nil {
		return err
	}
	if err := r.backend.Replace(ctx, SnapshotKey, data); err != nil {
		return fmt.Errorf("persist roster: %w: %w", models.ErrPersistence, err)
	}
	r.reset(students)
	return nil
}

// Backup writes the current roster under a different key of the same backend.
func (r *Roster) Backup(ctx context.Context, key string) error {
	data, err := encode(r.students)
	if err != nil {
		return err
	}
	if err := r.backend.Replace(ctx, key, data); err != nil {
		return fmt.Errorf("backup roster: %w: %w", models.ErrPersistence, err)
	}
	return nil
}

// Normalize trims every field and requires all of them.
func Normalize(s models.Student) (models.Student, error) {
	s.RegNo = strings.TrimSpace(s.RegNo)
	s.Name = strings.TrimSpace(s.Name)
	s.Course = strings.TrimSpace(s.Course)
	if s.RegNo == "" || s.Name == "" || s.Course == "" {
		return s, fmt.Errorf("registration number, name and course are required: %w", models.ErrInvalidInput)
	}
	return s, nil
}

// Check reports whether Add would accept s, without changing anything.
func (r *Roster) Check(s models.Student) error {
	s, err := Normalize(s)
	if err != nil {
		return err
	}
	if _, ok := r.byName[s.Name]; ok {
		return fmt.Errorf("add student %q: %w", s.Name, models.ErrDuplicateName)
	}
	if _, ok := r.byRegNo[s.RegNo]; ok {
		return fmt.Errorf("add student %q: %w", s.RegNo, models.ErrDuplicateRegNo)
	}
	return nil
}

// Add appends a student. Names and registration numbers are unique.
func (r *Roster) Add(ctx context.Context, s models.Student) error {
	if err := r.Check(s); err != nil {
		return err
	}
	s, _ = Normalize(s)
	s.AddedAt = r.now().Round(0).UTC()

	next := make([]models.Student, len(r.students), len(r.students)+1)
	copy(next, r.students)
	next = append(next, s)
	return r.commit(ctx, next)
}

// Remove drops the student enrolled as name. It reports false when there was none.
func (r *Roster) Remove(ctx context.Context, name string) (bool, error) {
	i, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return false, nil
	}
	next := make([]models.Student, 0, len(r.students)-1)
	next = append(next, r.students[:i]...)
	next = append(next, r.students[i+1:]...)
	if err := r.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Roster) ByName(name string) (models.Student, bool) {
	i, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return models.Student{}, false
	}
	return r.students[i], true
}

// All lists students in the order they were added.
func (r *Roster) All() []models.Student {
	return append([]models.Student(nil), r.students...)
}

// Courses lists the distinct courses, sorted.
func (r *Roster) Courses() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, s := range r.students {
		if _, ok := seen[s.Course]; ok {
			continue
		}
		seen[s.Course] = struct{}{}
		out = append(out, s.Course)
	}
	sort.Strings(out)
	return out
}

func (r *Roster) Len() int {
	return len(r.students)
}
