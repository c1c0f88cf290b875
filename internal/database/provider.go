package database

import (
	"fmt"
)

var (
	activeStudentReader    func() StudentReader
	activeStudentWriter    func() StudentWriter
	activeAttendanceReader func() AttendanceReader
	activeAttendanceWriter func() AttendanceWriter
	activeMaintenance      func() Maintenance
	activeBackendName      string
	backendInitialized     bool
)

// RegisterBackend registers the repository constructors of the active storage
// backend. Called by the sqlite or postgres package to avoid import cycles.
func RegisterBackend(
	name string,
	studentWriter func() StudentWriter,
	attendanceWriter func() AttendanceWriter,
	maintenance func() Maintenance,
) {
	activeBackendName = name
	activeStudentWriter = studentWriter
	activeStudentReader = func() StudentReader { return studentWriter() }
	activeAttendanceWriter = attendanceWriter
	activeAttendanceReader = func() AttendanceReader { return attendanceWriter() }
	activeMaintenance = maintenance
	backendInitialized = true
}

// IsInitialized returns whether a storage backend has been registered.
func IsInitialized() bool {
	return backendInitialized
}

// BackendName returns the name of the active backend ("sqlite" or "postgres").
func BackendName() string {
	return activeBackendName
}

// GetStudentReader returns a StudentReader from the active backend
func GetStudentReader() (StudentReader, error) {
	if !backendInitialized || activeStudentReader == nil {
		return nil, fmt.Errorf("storage backend not initialized")
	}
	return activeStudentReader(), nil
}

// GetStudentWriter returns a StudentWriter from the active backend
func GetStudentWriter() (StudentWriter, error) {
	if !backendInitialized || activeStudentWriter == nil {
		return nil, fmt.Errorf("storage backend not initialized")
	}
	return activeStudentWriter(), nil
}

// GetAttendanceReader returns an AttendanceReader from the active backend
func GetAttendanceReader() (AttendanceReader, error) {
	if !backendInitialized || activeAttendanceReader == nil {
		return nil, fmt.Errorf("storage backend not initialized")
	}
	return activeAttendanceReader(), nil
}

// GetAttendanceWriter returns an AttendanceWriter from the active backend
func GetAttendanceWriter() (AttendanceWriter, error) {
	if !backendInitialized || activeAttendanceWriter == nil {
		return nil, fmt.Errorf("storage backend not initialized")
	}
	return activeAttendanceWriter(), nil
}

// GetMaintenance returns the Maintenance interface of the active backend
func GetMaintenance() (Maintenance, error) {
	if !backendInitialized || activeMaintenance == nil {
		return nil, fmt.Errorf("storage backend not initialized")
	}
	return activeMaintenance(), nil
}
