package domain

import "testing"

func TestIdempotencyStatusValid(t *testing.T) {
	tests := []struct {
		name   string
		status IdempotencyStatus
		want   bool
	}{
		{name: "processing", status: IdempotencyStatusProcessing, want: true},
		{name: "done", status: IdempotencyStatusDone, want: true},
		{name: "failed", status: IdempotencyStatusFailed, want: true},
		{name: "invalid", status: IdempotencyStatus("broken"), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.status.Valid(); got != tc.want {
				t.Fatalf("status %q valid=%v, want %v", tc.status, got, tc.want)
			}
		})
	}
}

func TestIdempotencyRecordReplayable(t *testing.T) {
	done := IdempotencyRecord{Status: IdempotencyStatusDone, ResponseBody: []byte(`{"order_id":"LX1"}`)}
	if !done.Replayable() {
		t.Fatal("done record with body should be replayable")
	}
	if (IdempotencyRecord{Status: IdempotencyStatusProcessing}).Replayable() {
		t.Fatal("processing record should not be replayable")
	}
	if (IdempotencyRecord{Status: IdempotencyStatusFailed, ResponseBody: []byte("x")}).Replayable() {
		t.Fatal("failed record should not be replayable")
	}

	clone := done.Clone()
	clone.ResponseBody[0] = 'X'
	if done.ResponseBody[0] != '{' {
		t.Fatal("clone must not share response buffer")
	}
}
