package core

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionSnapshot is the read-only view of a workspace's session.
type SessionSnapshot struct {
	State        SessionState  `json:"state"`
	Mode         Mode          `json:"mode,omitempty"`
	FileName     string        `json:"fileName,omitempty"`
	FileSize     int64         `json:"fileSize,omitempty"`
	Fields       FieldSet      `json:"fields"`
	Preview      []PreviewRow  `json:"preview"`
	PreviewCells [][]string    `json:"previewCells"` // Preview rows in header order
	Columns      []ColumnCount `json:"columns"`
	Selected     string        `json:"selectedColumn,omitempty"`
	Submission   *Submission   `json:"submission,omitempty"`
	AcceptsFiles bool          `json:"acceptsFiles"`
}

func snapshotOf(s Session) SessionSnapshot {
	snap := SessionSnapshot{
		State:        s.State,
		Mode:         s.Mode,
		Fields:       FieldSet{},
		Preview:      []PreviewRow{},
		PreviewCells: [][]string{},
		Columns:      []ColumnCount{},
		Selected:     s.Selected,
		Submission:   s.Submission,
		AcceptsFiles: s.State != StateSubmitting,
	}
	if s.File != nil {
		snap.FileName = s.File.Name
		snap.FileSize = s.File.Size()
	}
	if len(s.Preview.Fields) > 0 {
		snap.Fields = s.Preview.Fields
		snap.Preview = s.Preview.Rows
		snap.PreviewCells = make([][]string, len(s.Preview.Rows))
		for i, row := range s.Preview.Rows {
			snap.PreviewCells[i] = row.Cells()
		}
		snap.Columns = CandidateCounts(s.Mode, s.Preview)
	}
	return snap
}

// Workspace is one client's state: a single ingestion session, its event
// queue, the results page being viewed and recent local result sets.
// Safe for concurrent use.
type Workspace struct {
	id      string
	svc     *Service
	events  *EventQueue
	results *ResultsEngine
	local   *LocalStore

	mu       sync.Mutex
	session  Session
	abort    context.CancelFunc
	lastSeen time.Time
}

func newWorkspace(id string, svc *Service) *Workspace {
	return &Workspace{
		id:       id,
		svc:      svc,
		events:   NewEventQueue(DefaultEventQueueSize),
		results:  NewResultsEngine(svc.backend, svc.opts.PageSize),
		local:    NewLocalStore(DefaultMaxLocalSets),
		lastSeen: time.Now(),
	}
}

// ID returns the workspace id.
func (w *Workspace) ID() string {
	return w.id
}

// dispatch applies ev and handles the effects that need no I/O. The rest
// are returned. Caller holds w.mu.
func (w *Workspace) dispatch(ev Event) []Effect {
	next, effects := Transition(w.session, ev)
	w.session = next
	w.lastSeen = time.Now()

	var pending []Effect
	for _, eff := range effects {
		switch e := eff.(type) {
		case Notify:
			w.notify(e.Event)
		case AbortSubmit:
			if w.abort != nil {
				w.abort()
				w.abort = nil
			}
		default:
			pending = append(pending, eff)
		}
	}
	return pending
}

func (w *Workspace) notify(ev UiEvent) {
	if ev.Kind == EventError {
		slog.Info("session error", "workspace_id", w.id, "code", ev.Code, "error", ev.Err)
	}
	w.events.Push(ev)
}

// Accept offers a new file. Rejections leave the session Idle and queue an
// error event; a file offered during a submission is refused.
func (w *Workspace) Accept(file UploadFile, mode Mode) SessionSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.dispatch(Accept{
		File:        file,
		Mode:        mode,
		PreviewRows: w.svc.opts.PreviewRows,
		MaxFileSize: w.svc.opts.MaxFileSize,
	})
	return snapshotOf(w.session)
}

// SelectColumn changes the target column. A column without candidate
// values keeps the previous selection and queues an error event.
func (w *Workspace) SelectColumn(name string) SessionSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.dispatch(SelectColumn{Name: name})
	return snapshotOf(w.session)
}

// Confirm submits the session and waits for the job service. The workspace
// lock is not held during the request, so Cancel can abort it.
func (w *Workspace) Confirm(ctx context.Context) SessionSnapshot {
	w.mu.Lock()
	var start *StartSubmit
	for _, eff := range w.dispatch(Confirm{Background: w.svc.opts.Background}) {
		if s, ok := eff.(StartSubmit); ok {
			start = &s
		}
	}
	if start == nil {
		snap := snapshotOf(w.session)
		w.mu.Unlock()
		return snap
	}
	subCtx, cancel := context.WithCancel(ctx)
	w.abort = cancel
	w.mu.Unlock()

	sub, err := w.svc.submitter.Submit(subCtx, start.Request)
	cancel()
	if err == nil && sub.Mode == ModeExtract {
		sub.LocalHandle = w.local.Put(SourceBulk, sub.Extracted).Handle
	}

	w.mu.Lock()
	var pending []Effect
	if err != nil {
		pending = w.dispatch(SubmitFailed{Attempt: start.Attempt, Err: err})
	} else {
		pending = w.dispatch(SubmitSucceeded{Attempt: start.Attempt, Submission: sub})
	}
	if w.session.Attempt == start.Attempt {
		w.abort = nil
	}
	snap := snapshotOf(w.session)
	w.mu.Unlock()

	for _, eff := range pending {
		if c, ok := eff.(Completed); ok {
			w.svc.recordSubmission(ctx, c, start.Request.File.Data)
		}
	}
	return snap
}

// Cancel resets the session, aborting an in-flight submission.
func (w *Workspace) Cancel() SessionSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.dispatch(Cancel{})
	return snapshotOf(w.session)
}

// Snapshot returns the current session.
func (w *Workspace) Snapshot() SessionSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return snapshotOf(w.session)
}

// Events drains the queued UI events.
func (w *Workspace) Events() []UiEvent {
	return w.events.Drain()
}

// RunBatch runs pasted lines through the batch runner. Extract results are
// kept as a local result set, returned alongside.
func (w *Workspace) RunBatch(ctx context.Context, mode Mode, text string) (BatchResult, *LocalResultSet, error) {
	w.touch()

	res, err := w.svc.RunBatch(ctx, mode, text)
	if err != nil && len(res.Items) == 0 {
		w.notify(ErrorEvent(err))
		return res, nil, err
	}

	var set *LocalResultSet
	if mode == ModeExtract {
		set = w.local.Put(SourceSimple, res.ExtractedRows())
	}
	if err != nil {
		w.notify(ErrorEvent(err))
	}
	return res, set, err
}

// Results loads a page of jobID through the workspace's results engine.
func (w *Workspace) Results(ctx context.Context, jobID string, page int, f Filter) (ResultsView, error) {
	w.touch()
	return w.results.LoadView(ctx, jobID, page, f)
}

// LocalSet returns a local result set by handle.
func (w *Workspace) LocalSet(handle string) (*LocalResultSet, error) {
	w.touch()
	return w.local.Get(handle)
}

func (w *Workspace) touch() {
	w.mu.Lock()
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

// idleSince reports whether the workspace has been untouched since cutoff
// and has no submission in flight.
func (w *Workspace) idleSince(cutoff time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen.Before(cutoff) && w.session.State != StateSubmitting
}
