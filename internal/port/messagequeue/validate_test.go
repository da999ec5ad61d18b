package messagequeue

import "testing"

func TestValidateKnownSubjects(t *testing.T) {
	tests := []struct {
		subject string
		data    string
		wantErr bool
	}{
		{SubjectTaskCreated, `{"task_id":"t-1","title":"x","priority":"high"}`, false},
		{SubjectTaskStatus, `{"task_id":"t-1","from_status":"pending","to_status":"approved"}`, false},
		{SubjectDecisionRecorded, `{"decision_id":"d-1","type":"tool_call","result":"deny"}`, false},
		{SubjectTaskCreated, `{"task_id":123}`, true}, // wrong field type
		{SubjectTaskCreated, `not json`, true},
	}

	for _, tt := range tests {
		err := Validate(tt.subject, []byte(tt.data))
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%s, %s): err = %v, wantErr %v", tt.subject, tt.data, err, tt.wantErr)
		}
	}
}

func TestValidateUnknownSubjectPasses(t *testing.T) {
	if err := Validate("tasks.archived", []byte(`{"whatever":true}`)); err != nil {
		t.Errorf("unknown subject should pass: %v", err)
	}
	if err := Validate("tasks.archived", []byte(`not json`)); err == nil {
		t.Error("invalid JSON should fail even on unknown subjects")
	}
}
