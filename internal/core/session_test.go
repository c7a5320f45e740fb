package core

import (
	"errors"
	"testing"
)

const verifyCSV = "name,email\nAnn,ann@example.com\nBob,bob@example.com\n"

func acceptedSession(t *testing.T, mode Mode, body string) Session {
	t.Helper()
	s, effects := Transition(Session{}, Accept{File: csvFile("list.csv", body), Mode: mode})
	if s.State != StateColumnConfirmable {
		t.Fatalf("Accept() state = %s, effects = %+v", s.State, effects)
	}
	return s
}

func notifications(effects []Effect) []UiEvent {
	var out []UiEvent
	for _, eff := range effects {
		if n, ok := eff.(Notify); ok {
			out = append(out, n.Event)
		}
	}
	return out
}

func TestTransition_AcceptPreselectsFirstCandidate(t *testing.T) {
	s, effects := Transition(Session{}, Accept{
		File: csvFile("list.csv", "name,email,alt\nAnn,ann@x.com,a@y.com\n"),
		Mode: ModeVerify,
	})

	if s.State != StateColumnConfirmable {
		t.Fatalf("state = %s, want column_confirmable", s.State)
	}
	if s.Selected != "email" {
		t.Errorf("Selected = %q, want %q", s.Selected, "email")
	}
	if len(effects) != 0 {
		t.Errorf("effects = %+v, want none", effects)
	}
	if s.File == nil || s.File.Name != "list.csv" {
		t.Error("accepted file should be kept on the session")
	}
}

func TestTransition_AcceptFailures(t *testing.T) {
	tests := []struct {
		name    string
		accept  Accept
		wantErr error
		code    string
	}{
		{
			name:    "no candidate column",
			accept:  Accept{File: csvFile("list.csv", "name,site\nAnn,ann.dev\n"), Mode: ModeExtract},
			wantErr: ErrNoCandidateFound,
			code:    "COL001",
		},
		{
			name:    "unsupported type",
			accept:  Accept{File: UploadFile{Name: "list.pdf", ContentType: "application/pdf", Data: []byte("x")}, Mode: ModeVerify},
			wantErr: ErrUnsupportedFileType,
			code:    "FILE001",
		},
		{
			name:    "malformed csv",
			accept:  Accept{File: csvFile("list.csv", "email,email\na@x.com,b@x.com\n"), Mode: ModeVerify},
			wantErr: ErrParse,
			code:    "FILE002",
		},
		{
			name:    "too large",
			accept:  Accept{File: csvFile("list.csv", verifyCSV), Mode: ModeVerify, MaxFileSize: 10},
			wantErr: ErrFileTooLarge,
			code:    "FILE003",
		},
		{
			name:    "bad mode",
			accept:  Accept{File: csvFile("list.csv", verifyCSV), Mode: Mode("scan")},
			wantErr: ErrInvalidMode,
			code:    "RES003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := acceptedSession(t, ModeVerify, verifyCSV)

			s, effects := Transition(prev, tt.accept)
			if s.State != StateIdle {
				t.Errorf("state = %s, want idle", s.State)
			}
			if s.File != nil || s.Selected != "" || len(s.Preview.Fields) != 0 {
				t.Error("a rejected file should clear the previous file and preview")
			}

			events := notifications(effects)
			if len(events) != 1 {
				t.Fatalf("got %d notifications, want 1", len(events))
			}
			if !errors.Is(events[0].Err, tt.wantErr) {
				t.Errorf("event error = %v, want %v", events[0].Err, tt.wantErr)
			}
			if events[0].Code != tt.code {
				t.Errorf("event code = %q, want %q", events[0].Code, tt.code)
			}
		})
	}
}

func TestTransition_SelectColumn(t *testing.T) {
	s := acceptedSession(t, ModeVerify, "a,b,c\nx@y.com,none,z@y.com\n")

	s, effects := Transition(s, SelectColumn{Name: "c"})
	if s.Selected != "c" || len(effects) != 0 {
		t.Fatalf("Selected = %q, effects = %+v; want c with no effects", s.Selected, effects)
	}

	s, effects = Transition(s, SelectColumn{Name: "b"})
	if s.Selected != "c" {
		t.Errorf("Selected = %q after a column without candidates, want c", s.Selected)
	}
	if s.State != StateColumnConfirmable {
		t.Errorf("state = %s, want column_confirmable", s.State)
	}
	events := notifications(effects)
	if len(events) != 1 || !errors.Is(events[0].Err, ErrColumnHasNoValidValues) {
		t.Fatalf("notifications = %+v, want one ErrColumnHasNoValidValues", events)
	}
	if events[0].Message != `Column "b" has no valid email address values` {
		t.Errorf("message = %q", events[0].Message)
	}
}

func TestTransition_SelectColumnOutsideConfirmable(t *testing.T) {
	s, effects := Transition(Session{}, SelectColumn{Name: "email"})
	if s.State != StateIdle {
		t.Errorf("state = %s, want idle", s.State)
	}
	if events := notifications(effects); len(events) != 1 || !errors.Is(events[0].Err, ErrInvalidState) {
		t.Errorf("notifications = %+v, want ErrInvalidState", events)
	}
}

func TestTransition_ConfirmStartsSubmit(t *testing.T) {
	s := acceptedSession(t, ModeVerify, verifyCSV)

	s, effects := Transition(s, Confirm{Background: true})
	if s.State != StateSubmitting {
		t.Fatalf("state = %s, want submitting", s.State)
	}
	if len(effects) != 1 {
		t.Fatalf("effects = %+v, want one StartSubmit", effects)
	}
	start, ok := effects[0].(StartSubmit)
	if !ok {
		t.Fatalf("effect = %T, want StartSubmit", effects[0])
	}
	if start.Attempt != s.Attempt || start.Attempt != 1 {
		t.Errorf("attempt = %d (session %d), want 1", start.Attempt, s.Attempt)
	}
	if start.Request.Column != "email" || !start.Request.Background || start.Request.Mode != ModeVerify {
		t.Errorf("request = %+v", start.Request)
	}

	_, effects = Transition(s, Confirm{})
	if events := notifications(effects); len(events) != 1 || !errors.Is(events[0].Err, ErrInvalidState) {
		t.Errorf("a second confirm should be refused, got %+v", events)
	}
}

func TestTransition_SubmitSucceeded(t *testing.T) {
	s := acceptedSession(t, ModeVerify, verifyCSV)
	s, _ = Transition(s, Confirm{})

	s, effects := Transition(s, SubmitSucceeded{
		Attempt:    s.Attempt,
		Submission: Submission{Mode: ModeVerify, JobID: "job-42"},
	})
	if s.State != StateSubmitted {
		t.Fatalf("state = %s, want submitted", s.State)
	}
	if s.Submission == nil || s.Submission.JobID != "job-42" {
		t.Errorf("submission = %+v", s.Submission)
	}

	var completed *Completed
	for _, eff := range effects {
		if c, ok := eff.(Completed); ok {
			completed = &c
		}
	}
	if completed == nil {
		t.Fatal("expected a Completed effect")
	}
	if completed.FileName != "list.csv" || completed.Column != "email" {
		t.Errorf("completed = %+v", completed)
	}
	if events := notifications(effects); len(events) != 1 || events[0].Kind != EventSuccess {
		t.Errorf("notifications = %+v, want one success", events)
	}
}

func TestTransition_EmptyJobIDKeepsSelection(t *testing.T) {
	s := acceptedSession(t, ModeVerify, verifyCSV)
	s, _ = Transition(s, Confirm{})

	s, effects := Transition(s, SubmitFailed{Attempt: s.Attempt, Err: ErrEmptyJobIDResponse})
	if s.State != StateColumnConfirmable {
		t.Errorf("state = %s, want column_confirmable", s.State)
	}
	if s.Selected != "email" || s.File == nil {
		t.Error("file and selection should survive a failed submission")
	}
	events := notifications(effects)
	if len(events) != 1 || events[0].Code != "JOB001" {
		t.Errorf("notifications = %+v, want JOB001", events)
	}
}

func TestTransition_StaleOutcomeIgnored(t *testing.T) {
	s := acceptedSession(t, ModeVerify, verifyCSV)
	s, _ = Transition(s, Confirm{})
	old := s.Attempt

	s, _ = Transition(s, Cancel{})
	s = func() Session {
		next, _ := Transition(s, Accept{File: csvFile("list.csv", verifyCSV), Mode: ModeVerify})
		next, _ = Transition(next, Confirm{})
		return next
	}()

	after, effects := Transition(s, SubmitSucceeded{Attempt: old, Submission: Submission{Mode: ModeVerify, JobID: "late"}})
	if after.State != StateSubmitting || len(effects) != 0 {
		t.Errorf("late outcome applied: state = %s, effects = %+v", after.State, effects)
	}

	after, effects = Transition(s, SubmitFailed{Attempt: old, Err: errItemFailed})
	if after.State != StateSubmitting || len(effects) != 0 {
		t.Errorf("late failure applied: state = %s, effects = %+v", after.State, effects)
	}
}

func TestTransition_AcceptDuringSubmitRefused(t *testing.T) {
	s := acceptedSession(t, ModeVerify, verifyCSV)
	s, _ = Transition(s, Confirm{})

	after, effects := Transition(s, Accept{File: csvFile("other.csv", verifyCSV), Mode: ModeVerify})
	if after.State != StateSubmitting || after.File.Name != "list.csv" {
		t.Errorf("session changed during submission: %s %s", after.State, after.File.Name)
	}
	if events := notifications(effects); len(events) != 1 || !errors.Is(events[0].Err, ErrSubmissionInFlight) {
		t.Errorf("notifications = %+v, want ErrSubmissionInFlight", events)
	}
}

func TestTransition_Cancel(t *testing.T) {
	s := acceptedSession(t, ModeVerify, verifyCSV)

	idle, effects := Transition(s, Cancel{})
	if idle.State != StateIdle || len(effects) != 0 {
		t.Errorf("cancel from confirmable: state = %s, effects = %+v", idle.State, effects)
	}

	s, _ = Transition(s, Confirm{})
	idle, effects = Transition(s, Cancel{})
	if idle.State != StateIdle {
		t.Errorf("state = %s, want idle", idle.State)
	}
	if idle.Attempt != s.Attempt {
		t.Errorf("attempt = %d, want %d kept across cancel", idle.Attempt, s.Attempt)
	}
	if len(effects) != 1 {
		t.Fatalf("effects = %+v, want AbortSubmit", effects)
	}
	if _, ok := effects[0].(AbortSubmit); !ok {
		t.Errorf("effect = %T, want AbortSubmit", effects[0])
	}
}

func TestSessionState_String(t *testing.T) {
	tests := map[SessionState]string{
		StateIdle:              "idle",
		StateFileLoaded:        "file_loaded",
		StateColumnConfirmable: "column_confirmable",
		StateSubmitting:        "submitting",
		StateSubmitted:         "submitted",
		SessionState(9):        "state(9)",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
