package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsched/scheduler/internal/domain"
	"github.com/labsched/scheduler/internal/dto"
	"github.com/labsched/scheduler/internal/extractor"
	"github.com/labsched/scheduler/internal/models"
	"github.com/labsched/scheduler/internal/search"
	"github.com/labsched/scheduler/pkg/jobs"
)

type runRepoStub struct {
	created []*models.Run
	updated []*models.Run
	listing []models.Run
	byID    map[string]*models.Run
	delErr  error
}

func (s *runRepoStub) Create(ctx context.Context, run *models.Run) error {
	run.ID = "run-1"
	s.created = append(s.created, run)
	return nil
}

func (s *runRepoStub) Update(ctx context.Context, run *models.Run) error {
	s.updated = append(s.updated, run)
	return nil
}

func (s *runRepoStub) List(ctx context.Context) ([]models.Run, error) {
	return s.listing, nil
}

func (s *runRepoStub) FindByID(ctx context.Context, id string) (*models.Run, error) {
	if run, ok := s.byID[id]; ok {
		return run, nil
	}
	return nil, errors.New("not found")
}

func (s *runRepoStub) Delete(ctx context.Context, id string) error {
	return s.delErr
}

type runSlotRepoStub struct {
	inserted []models.RunSlot
	byRun    map[string][]models.RunSlot
}

func (s *runSlotRepoStub) InsertBatch(ctx context.Context, slots []models.RunSlot) error {
	s.inserted = append(s.inserted, slots...)
	return nil
}

func (s *runSlotRepoStub) ListByRun(ctx context.Context, runID string) ([]models.RunSlot, error) {
	return s.byRun[runID], nil
}

func tinyRunInput() domain.Input {
	weekdays := []domain.Weekday{domain.Mon, domain.Tue, domain.Wed, domain.Thu, domain.Fri}
	allDays := map[domain.Weekday]bool{}
	for _, wd := range weekdays {
		allDays[wd] = true
	}
	return domain.Input{
		Schools: []domain.School{{ID: "sch-1"}},
		Classes: []domain.Class{{ID: "cls-a", SchoolID: "sch-1", Year: domain.Year4}},
		Trainers: []domain.Trainer{{
			ID: "trn-1", TotalHourBudget: 16,
			MorningAvailability: allDays, AfternoonAvailability: allDays,
		}},
		Workshops:   []domain.Workshop{{ID: "wks-1", DefaultMeetingCount: 1, HoursPerMeeting: 2}},
		Enrollments: []domain.Enrollment{{ClassID: "cls-a", WorkshopID: "wks-1"}},
		Policies: []domain.TimeSlotPolicy{
			{ClassID: "cls-a", PermittedBands: []domain.Band{domain.BandM1, domain.BandM2, domain.BandP}, PermittedWeekdays: weekdays, Mode: domain.PolicyHard},
		},
		Horizon: domain.Horizon{Weeks: 4},
	}
}

// newCapturingQueue builds a started queue whose handler forwards every
// job onto the returned channel instead of doing real work, so a test
// can assert on what Submit enqueued without actually solving anything.
func newCapturingQueue(t *testing.T) (*jobs.Queue, <-chan jobs.Job) {
	t.Helper()
	received := make(chan jobs.Job, 4)
	q := jobs.NewQueue("test-runs", func(ctx context.Context, job jobs.Job) error {
		received <- job
		return nil
	}, jobs.QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 1, RetryDelay: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	t.Cleanup(func() {
		cancel()
		q.Stop()
	})
	return q, received
}

func TestRunServiceSubmitPersistsQueuedRunAndEnqueues(t *testing.T) {
	runs := &runRepoStub{}
	queue, received := newCapturingQueue(t)
	svc := NewRunService(runs, &runSlotRepoStub{}, queue, nil)

	resp, err := svc.Submit(context.Background(), dto.SubmitRunRequest{Input: tinyRunInput()})
	require.NoError(t, err)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, string(models.RunStatusQueued), resp.Status)
	require.Len(t, runs.created, 1)
	assert.Equal(t, models.RunStatusQueued, runs.created[0].Status)

	select {
	case job := <-received:
		payload, ok := job.Payload.(runJobPayload)
		require.True(t, ok)
		assert.Equal(t, "run-1", payload.RunID)
	case <-time.After(time.Second):
		t.Fatal("job was never enqueued")
	}
}

func TestRunServiceSubmitRejectsUnknownWeightName(t *testing.T) {
	svc := NewRunService(&runRepoStub{}, &runSlotRepoStub{}, nil, nil)

	_, err := svc.Submit(context.Background(), dto.SubmitRunRequest{
		Input:          tinyRunInput(),
		WeightOverride: map[string]float64{"not-a-real-weight": 1},
	})
	require.Error(t, err)
}

func TestRunServiceStatusReportsQueuedWithoutFigures(t *testing.T) {
	runs := &runRepoStub{byID: map[string]*models.Run{
		"run-1": {ID: "run-1", Status: models.RunStatusQueued},
	}}
	svc := NewRunService(runs, &runSlotRepoStub{}, nil, nil)

	resp, err := svc.Status(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "QUEUED", resp.Status)
	assert.Zero(t, resp.Objective)
}

func TestRunServiceStatusReportsFailureMessage(t *testing.T) {
	runs := &runRepoStub{byID: map[string]*models.Run{
		"run-1": {ID: "run-1", Status: models.RunStatusFailed, Error: "boom"},
	}}
	svc := NewRunService(runs, &runSlotRepoStub{}, nil, nil)

	resp, err := svc.Status(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "FAILED", resp.Status)
	assert.Equal(t, "boom", resp.Error)
}

func TestRunServiceStatusDecodesTerminalReport(t *testing.T) {
	report := extractor.Report{
		Status:            search.StatusOptimal,
		Objective:         4.5,
		WallSeconds:       1.2,
		RealizedGroupings: 2,
		PerTrainerHours:   map[string]extractor.TrainerHours{"trn-1": {Used: 4, Remaining: 12}},
		Completions:       []extractor.Completion{{ClassID: "cls-a", WorkshopID: "wks-1", RequiredCount: 1, EmittedCount: 1}},
	}
	reportBytes, err := json.Marshal(report)
	require.NoError(t, err)

	runs := &runRepoStub{byID: map[string]*models.Run{
		"run-1": {ID: "run-1", Status: models.RunStatusOptimal, Objective: 4.5, WallSeconds: 1.2, Report: reportBytes},
	}}
	svc := NewRunService(runs, &runSlotRepoStub{}, nil, nil)

	resp, err := svc.Status(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "OPTIMAL", resp.Status)
	assert.Equal(t, 4.5, resp.Objective)
	assert.Equal(t, 2, resp.RealizedGroupings)
	require.Len(t, resp.Completions, 1)
	require.Len(t, resp.TrainerHours, 1)
}

func TestRunServiceListReturnsSummaries(t *testing.T) {
	runs := &runRepoStub{listing: []models.Run{
		{ID: "run-1", Status: models.RunStatusOptimal, Objective: 4.5},
	}}
	svc := NewRunService(runs, &runSlotRepoStub{}, nil, nil)

	out, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "run-1", out[0].ID)
	assert.Equal(t, "OPTIMAL", out[0].Status)
}

func TestRunServiceExportRendersCSVByDefault(t *testing.T) {
	coTaughtWith := "cls-b"
	runs := &runRepoStub{byID: map[string]*models.Run{"run-1": {ID: "run-1"}}}
	slots := &runSlotRepoStub{byRun: map[string][]models.RunSlot{
		"run-1": {{ClassID: "cls-a", WorkshopID: "wks-1", TrainerID: "trn-1", Week: 2, Weekday: "Mon", Band: "m1", CoTaughtWith: &coTaughtWith}},
	}}
	svc := NewRunService(runs, slots, nil, nil)

	body, contentType, err := svc.Export(context.Background(), "run-1", "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(body), "cls-a")
	assert.Contains(t, string(body), "cls-b")
}

func TestRunServiceExportRendersPDFWhenRequested(t *testing.T) {
	runs := &runRepoStub{byID: map[string]*models.Run{"run-1": {ID: "run-1"}}}
	slots := &runSlotRepoStub{byRun: map[string][]models.RunSlot{
		"run-1": {{ClassID: "cls-a", WorkshopID: "wks-1", TrainerID: "trn-1", Week: 2, Weekday: "Mon", Band: "m1"}},
	}}
	svc := NewRunService(runs, slots, nil, nil)

	body, contentType, err := svc.Export(context.Background(), "run-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.NotEmpty(t, body)
}

func TestRunServiceExportMissingRunReturnsNotFound(t *testing.T) {
	svc := NewRunService(&runRepoStub{byID: map[string]*models.Run{}}, &runSlotRepoStub{}, nil, nil)

	_, _, err := svc.Export(context.Background(), "missing", "csv")
	require.Error(t, err)
}

func TestRunServiceSlotsMissingRunReturnsNotFound(t *testing.T) {
	svc := NewRunService(&runRepoStub{byID: map[string]*models.Run{}}, &runSlotRepoStub{}, nil, nil)

	_, err := svc.Slots(context.Background(), "missing")
	require.Error(t, err)
}

func TestRunServiceDeletePropagatesNotFound(t *testing.T) {
	svc := NewRunService(&runRepoStub{delErr: errors.New("no rows")}, &runSlotRepoStub{}, nil, nil)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
}
