package attempt

import (
	"errors"
	"testing"
)

func TestDecodeRaw_Valid(t *testing.T) {
	raw, err := DecodeRaw([]byte(`{"learner_id":"u1","item_id":"q1","topic":"Algebra","is_correct":false,"time_taken_seconds":8.5,"hesitation_count":1}`))
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	if raw.IsCorrect == nil || *raw.IsCorrect {
		t.Errorf("IsCorrect = %v, want false", raw.IsCorrect)
	}
	if raw.TimeTakenSeconds != 8.5 {
		t.Errorf("TimeTakenSeconds = %v, want 8.5", raw.TimeTakenSeconds)
	}
}

func TestDecodeRaw_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{`},
		{"negative time", `{"learner_id":"u","item_id":"i","topic":"t","is_correct":true,"time_taken_seconds":-3}`},
		{"missing correctness", `{"learner_id":"u","item_id":"i","topic":"t","time_taken_seconds":3}`},
		{"wrong type", `{"learner_id":"u","item_id":"i","topic":"t","is_correct":"yes","time_taken_seconds":3}`},
		{"empty learner", `{"learner_id":"","item_id":"i","topic":"t","is_correct":true,"time_taken_seconds":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRaw([]byte(tt.payload))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if len(verr.Problems) == 0 {
				t.Error("expected at least one problem")
			}
		})
	}
}

func TestDecodeRaw_SkippedWithoutCorrectness(t *testing.T) {
	if _, err := DecodeRaw([]byte(`{"learner_id":"u","item_id":"i","topic":"t","was_skipped":true,"time_taken_seconds":4}`)); err != nil {
		t.Errorf("skipped attempt rejected: %v", err)
	}
}

func TestDecodeBatch_Shapes(t *testing.T) {
	one := `{"learner_id":"u","item_id":"i","topic":"t","is_correct":true,"time_taken_seconds":1}`
	bad := `{"learner_id":"u","topic":"t","is_correct":true,"time_taken_seconds":1}`
	tests := []struct {
		name      string
		payload   string
		wantCount int
		wantBad   int
	}{
		{"single object", one, 1, 0},
		{"array", "[" + one + "," + bad + "]", 2, 1},
		{"envelope", `{"events":[` + one + `,` + one + `]}`, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raws, problems, err := DecodeBatch([]byte(tt.payload))
			if err != nil {
				t.Fatalf("DecodeBatch: %v", err)
			}
			if len(raws) != tt.wantCount {
				t.Errorf("got %d raws, want %d", len(raws), tt.wantCount)
			}
			if len(problems) != tt.wantBad {
				t.Errorf("got %d problems, want %d", len(problems), tt.wantBad)
			}
		})
	}
}
