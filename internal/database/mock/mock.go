// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/student"
)

// MockStudentStore is a mock implementation of database.StudentWriter
type MockStudentStore struct {
	mu       sync.RWMutex
	students map[string]*database.Student
	nextID   int64

	// Error injection
	GetError    error
	ListError   error
	InsertError error
	UpdateError error
	DeleteError error

	// Call tracking
	InsertCalls         []string
	UpdateEncodingCalls []string
	DeleteCalls         []string
}

// NewMockStudentStore creates a new mock student store
func NewMockStudentStore() *MockStudentStore {
	return &MockStudentStore{
		students: make(map[string]*database.Student),
		nextID:   1,
	}
}

// AddStudent seeds the mock store with a student
func (m *MockStudentStore) AddStudent(s database.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.nextID
		m.nextID++
	}
	m.students[s.StudentID] = &s
}

// Get retrieves a student by student id
func (m *MockStudentStore) Get(ctx context.Context, studentID string) (*database.Student, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[studentID]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

// Exists checks whether a student id is registered
func (m *MockStudentStore) Exists(ctx context.Context, studentID string) (bool, error) {
	if m.GetError != nil {
		return false, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.students[studentID]
	return ok, nil
}

// List returns all students ordered by name
func (m *MockStudentStore) List(ctx context.Context) ([]database.Student, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var students []database.Student
	for _, s := range m.students {
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}

// Search returns students matching the normalized term
func (m *MockStudentStore) Search(ctx context.Context, term string) ([]database.Student, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := student.NormalizeName(term)
	var students []database.Student
	for _, s := range m.students {
		if strings.Contains(strings.ToLower(s.StudentID), needle) ||
			strings.Contains(student.NormalizeName(s.Name), needle) ||
			strings.Contains(student.NormalizeName(s.Department), needle) {
			students = append(students, *s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}

// Departments returns the distinct non-empty department names
func (m *MockStudentStore) Departments(ctx context.Context) ([]string, error) {
	return m.distinct(func(s *database.Student) string { return s.Department })
}

// Batches returns the distinct non-empty batch names
func (m *MockStudentStore) Batches(ctx context.Context) ([]string, error) {
	return m.distinct(func(s *database.Student) string { return s.Batch })
}

func (m *MockStudentStore) distinct(field func(*database.Student) string) ([]string, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var values []string
	for _, s := range m.students {
		v := field(s)
		if v != "" && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values, nil
}

// Count returns the number of students
func (m *MockStudentStore) Count(ctx context.Context) (int, error) {
	if m.ListError != nil {
		return 0, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students), nil
}

// Insert registers a new student
func (m *MockStudentStore) Insert(ctx context.Context, s *database.Student) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls = append(m.InsertCalls, s.StudentID)
	if _, ok := m.students[s.StudentID]; ok {
		return database.ErrDuplicateStudent
	}
	s.ID = m.nextID
	m.nextID++
	copied := *s
	m.students[s.StudentID] = &copied
	return nil
}

// UpdateFields updates profile fields
func (m *MockStudentStore) UpdateFields(ctx context.Context, studentID, name, email, department, batch string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[studentID]
	if !ok {
		return database.ErrNotFound
	}
	s.Name = name
	s.Email = email
	s.Department = department
	s.Batch = batch
	return nil
}

// UpdateEncoding replaces the stored face encoding and photo path
func (m *MockStudentStore) UpdateEncoding(ctx context.Context, studentID string, encoding []float64, photoPath string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateEncodingCalls = append(m.UpdateEncodingCalls, studentID)
	s, ok := m.students[studentID]
	if !ok {
		return database.ErrNotFound
	}
	s.Encoding = append([]float64(nil), encoding...)
	s.PhotoPath = photoPath
	return nil
}

// Delete removes a student
func (m *MockStudentStore) Delete(ctx context.Context, studentID string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, studentID)
	if _, ok := m.students[studentID]; !ok {
		return database.ErrNotFound
	}
	delete(m.students, studentID)
	return nil
}

// MockAttendanceStore is a mock implementation of database.AttendanceWriter
type MockAttendanceStore struct {
	mu      sync.RWMutex
	records map[string]*database.AttendanceRecord // key: studentID|date
	order   []string                              // insertion order of keys
	nextID  int64

	// Students provides joined fields for listings when set
	Students *MockStudentStore

	// Error injection
	InsertError error
	QueryError  error
	UpdateError error

	// Call tracking
	InsertCalls [][3]string // studentID, date, status
}

// NewMockAttendanceStore creates a new mock attendance store
func NewMockAttendanceStore() *MockAttendanceStore {
	return &MockAttendanceStore{
		records: make(map[string]*database.AttendanceRecord),
		nextID:  1,
	}
}

func recordKey(studentID, date string) string {
	return studentID + "|" + date
}

// Insert attempts to add a record, idempotent per (student, date)
func (m *MockAttendanceStore) Insert(ctx context.Context, studentID, date, timeOfDay, status string) (bool, error) {
	if m.InsertError != nil {
		return false, m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls = append(m.InsertCalls, [3]string{studentID, date, status})
	key := recordKey(studentID, date)
	if _, ok := m.records[key]; ok {
		return false, nil
	}

	rec := &database.AttendanceRecord{
		ID:        m.nextID,
		StudentID: studentID,
		Date:      date,
		Time:      timeOfDay,
		Status:    status,
	}
	m.nextID++
	m.joinStudent(rec)
	m.records[key] = rec
	m.order = append(m.order, key)
	return true, nil
}

func (m *MockAttendanceStore) joinStudent(rec *database.AttendanceRecord) {
	if m.Students == nil {
		return
	}
	if s, err := m.Students.Get(context.Background(), rec.StudentID); err == nil {
		rec.Name = s.Name
		rec.Department = s.Department
		rec.Batch = s.Batch
	}
}

// IsMarked checks whether attendance exists for (student, date)
func (m *MockAttendanceStore) IsMarked(ctx context.Context, studentID, date string) (bool, error) {
	if m.QueryError != nil {
		return false, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[recordKey(studentID, date)]
	return ok, nil
}

func (m *MockAttendanceStore) filter(keep func(*database.AttendanceRecord) bool) []database.AttendanceRecord {
	var records []database.AttendanceRecord
	for _, key := range m.order {
		rec := m.records[key]
		if rec != nil && keep(rec) {
			records = append(records, *rec)
		}
	}
	return records
}

// ListByDate returns the records for one date
func (m *MockAttendanceStore) ListByDate(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(func(r *database.AttendanceRecord) bool { return r.Date == date }), nil
}

// History returns a student's records bounded by from/to
func (m *MockAttendanceStore) History(ctx context.Context, studentID, from, to string) ([]database.AttendanceRecord, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(func(r *database.AttendanceRecord) bool {
		if r.StudentID != studentID {
			return false
		}
		if from != "" && r.Date < from {
			return false
		}
		if to != "" && r.Date > to {
			return false
		}
		return true
	}), nil
}

// ListRange returns records within [from, to] with optional filters
func (m *MockAttendanceStore) ListRange(ctx context.Context, from, to, department, batch string) ([]database.AttendanceRecord, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter(func(r *database.AttendanceRecord) bool {
		if r.Date < from || r.Date > to {
			return false
		}
		if department != "" && r.Department != department {
			return false
		}
		if batch != "" && r.Batch != batch {
			return false
		}
		return true
	}), nil
}

// Recent returns the most recently inserted records up to limit
func (m *MockAttendanceStore) Recent(ctx context.Context, limit int) ([]database.AttendanceRecord, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []database.AttendanceRecord
	for i := len(m.order) - 1; i >= 0 && len(records) < limit; i-- {
		if rec := m.records[m.order[i]]; rec != nil {
			records = append(records, *rec)
		}
	}
	return records, nil
}

// PresentCount returns how many students were present on a date
func (m *MockAttendanceStore) PresentCount(ctx context.Context, date string) (int, error) {
	if m.QueryError != nil {
		return 0, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, rec := range m.records {
		if rec.Date == date && rec.Status == "Present" {
			count++
		}
	}
	return count, nil
}

// SessionDays returns the number of distinct dates with any record
func (m *MockAttendanceStore) SessionDays(ctx context.Context) (int, error) {
	if m.QueryError != nil {
		return 0, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	dates := make(map[string]bool)
	for _, rec := range m.records {
		dates[rec.Date] = true
	}
	return len(dates), nil
}

// PresentDays returns how many days a student has been present
func (m *MockAttendanceStore) PresentDays(ctx context.Context, studentID string) (int, error) {
	if m.QueryError != nil {
		return 0, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, rec := range m.records {
		if rec.StudentID == studentID && rec.Status == "Present" {
			count++
		}
	}
	return count, nil
}

// DailyCounts returns per-date present counts within [from, to]
func (m *MockAttendanceStore) DailyCounts(ctx context.Context, from, to string) ([]database.DayCount, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	byDate := make(map[string]int)
	for _, rec := range m.records {
		if rec.Date >= from && rec.Date <= to && rec.Status == "Present" {
			byDate[rec.Date]++
		}
	}

	var counts []database.DayCount
	for date, present := range byDate {
		counts = append(counts, database.DayCount{Date: date, Present: present})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Date < counts[j].Date })
	return counts, nil
}

// CountRecords returns the total number of records
func (m *MockAttendanceStore) CountRecords(ctx context.Context) (int, error) {
	if m.QueryError != nil {
		return 0, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// SetStatus overrides the status of an existing record
func (m *MockAttendanceStore) SetStatus(ctx context.Context, studentID, date, status string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[recordKey(studentID, date)]
	if !ok {
		return database.ErrNotFound
	}
	rec.Status = status
	return nil
}

// Delete removes a single record
func (m *MockAttendanceStore) Delete(ctx context.Context, studentID, date string) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(studentID, date)
	if _, ok := m.records[key]; !ok {
		return database.ErrNotFound
	}
	delete(m.records, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Interface compliance checks
var (
	_ database.StudentWriter    = (*MockStudentStore)(nil)
	_ database.AttendanceWriter = (*MockAttendanceStore)(nil)
)
