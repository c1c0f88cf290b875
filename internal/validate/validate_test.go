package validate

import "testing"

func TestStudentID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"S001", true},
		{"student_42", true},
		{"a-b", true},
		{"ab", true},
		{"x", false},
		{"", false},
		{"has space", false},
		{"dots.not.allowed", false},
		{"ThisIdentifierIsWayTooLongToBeAcceptedBecauseItGoesOverFifty", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			err := StudentID(tt.id)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"Alice", true},
		{"Jan Novák", true},
		{"O'Brien", true},
		{"J. R. Smith-Jones", true},
		{"A", false},
		{"", false},
		{"Name42", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Name(tt.name)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestEmail(t *testing.T) {
	if err := Email(""); err != nil {
		t.Errorf("empty email should be allowed: %v", err)
	}
	if err := Email("alice@example.com"); err != nil {
		t.Errorf("expected valid email, got %v", err)
	}
	if err := Email("not-an-email"); err == nil {
		t.Error("expected an error for a malformed email")
	}
}

func TestStatus(t *testing.T) {
	for _, status := range []string{"Present", "Absent", "Late"} {
		if err := Status(status); err != nil {
			t.Errorf("expected %s to be valid: %v", status, err)
		}
	}
	for _, status := range []string{"present", "Holiday", ""} {
		if err := Status(status); err == nil {
			t.Errorf("expected %q to be rejected", status)
		}
	}
}

func TestDate(t *testing.T) {
	if err := Date("2024-01-10"); err != nil {
		t.Errorf("expected valid date, got %v", err)
	}
	for _, date := range []string{"2024-13-01", "2024-02-30", "10-01-2024", "yesterday", ""} {
		if err := Date(date); err == nil {
			t.Errorf("expected %q to be rejected", date)
		}
	}
}

func TestTolerance(t *testing.T) {
	for _, tol := range []float64{0.4, 0.6, 0.8} {
		if err := Tolerance(tol); err != nil {
			t.Errorf("expected %f to be valid: %v", tol, err)
		}
	}
	for _, tol := range []float64{0.39, 0.81, 0, -1} {
		if err := Tolerance(tol); err == nil {
			t.Errorf("expected %f to be rejected", tol)
		}
	}
}

func TestDepartmentAndBatch(t *testing.T) {
	if err := Department(""); err != nil {
		t.Errorf("empty department should be allowed: %v", err)
	}
	long := make([]byte, 101)
	for i := range long {
		long[i] = 'x'
	}
	if err := Department(string(long)); err == nil {
		t.Error("expected an error for a 101-char department")
	}
	if err := Batch(string(long[:51])); err == nil {
		t.Error("expected an error for a 51-char batch")
	}
}

func TestStruct(t *testing.T) {
	type dto struct {
		StudentID string `validate:"required,student_id"`
		Name      string `validate:"required,person_name"`
		Status    string `validate:"omitempty,attendance_status"`
		Date      string `validate:"omitempty,attendance_date"`
	}

	if err := Struct(dto{StudentID: "S001", Name: "Alice", Status: "Present", Date: "2024-01-10"}); err != nil {
		t.Errorf("expected valid struct, got %v", err)
	}
	if err := Struct(dto{StudentID: "!", Name: "Alice"}); err == nil {
		t.Error("expected an error for a bad student id")
	}
	if err := Struct(dto{StudentID: "S001", Name: "Alice", Status: "Sick"}); err == nil {
		t.Error("expected an error for a bad status")
	}
}
