package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"clubsphere/internal/models"
	"clubsphere/internal/services"
	"clubsphere/internal/testutil"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]bool
}

func (m *fakeMailer) SendEmail(to []string, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[to[0]] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to[0], subject: subject, body: body})
	return nil
}

type fakeFulfiller struct {
	report *services.FulfillReport
	err    error
	calls  int
}

func (f *fakeFulfiller) FulfillPending(context.Context) (*services.FulfillReport, error) {
	f.calls++
	return f.report, f.err
}

func newRunner(t *testing.T, db *gorm.DB, registry *Registry) *Runner {
	t.Helper()
	r := NewRunner(db, registry)
	r.now = func() time.Time { return testNow }
	return r
}

func createTask(t *testing.T, db *gorm.DB, name string, due time.Time, taskType models.ScheduledTaskType, rule *string, maxAttempt int) *models.ScheduledTask {
	t.Helper()
	task, err := models.BuildScheduledTask(name, map[string]interface{}{"message": "hello"}, due, rule, taskType, maxAttempt)
	require.NoError(t, err)
	require.NoError(t, db.Create(task).Error)
	return task
}

func reload(t *testing.T, db *gorm.DB, id uint) models.ScheduledTask {
	t.Helper()
	var task models.ScheduledTask
	require.NoError(t, db.First(&task, id).Error)
	return task
}

func histories(t *testing.T, db *gorm.DB, id uint) []models.ScheduledTaskHistory {
	t.Helper()
	var rows []models.ScheduledTaskHistory
	require.NoError(t, db.Where("scheduled_task_id = ?", id).Order("id asc").Find(&rows).Error)
	return rows
}

func TestRunnerOneTimeTask(t *testing.T) {
	db := testutil.NewDB(t)
	registry := NewRegistry()
	registry.Register(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)
	runner := newRunner(t, db, registry)

	due := createTask(t, db, "log_info", testNow.Add(-time.Minute), models.ScheduledTaskTypeOneTime, nil, 3)
	later := createTask(t, db, "log_info", testNow.Add(time.Hour), models.ScheduledTaskTypeOneTime, nil, 3)

	ran, err := runner.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ran)

	done := reload(t, db, due.ID)
	assert.Equal(t, models.ScheduledTaskStatusDone, done.Status)
	require.NotNil(t, done.LastRun)

	rows := histories(t, db, due.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, "success", rows[0].Status)
	assert.Equal(t, 1, rows[0].AttemptNumber)
	assert.Equal(t, "hello", rows[0].Result["message"])

	assert.Equal(t, models.ScheduledTaskStatusActive, reload(t, db, later.ID).Status)
	assert.Empty(t, histories(t, db, later.ID))

	ran, err = runner.RunDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ran)
}

func TestRunnerRetriesUntilMaxAttempt(t *testing.T) {
	db := testutil.NewDB(t)
	registry := NewRegistry()
	registry.Register("flaky", func(context.Context, models.ScheduledTask) (map[string]interface{}, error) {
		return nil, errors.New("upstream down")
	})
	runner := newRunner(t, db, registry)

	task := createTask(t, db, "flaky", testNow.Add(-time.Minute), models.ScheduledTaskTypeOneTime, nil, 2)

	_, err := runner.RunDue(context.Background())
	require.NoError(t, err)
	first := reload(t, db, task.ID)
	assert.Equal(t, models.ScheduledTaskStatusActive, first.Status)
	assert.Equal(t, 1, first.Attempts)

	_, err = runner.RunDue(context.Background())
	require.NoError(t, err)
	second := reload(t, db, task.ID)
	assert.Equal(t, models.ScheduledTaskStatusFailure, second.Status)
	assert.Equal(t, 2, second.Attempts)

	rows := histories(t, db, task.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, "failure", rows[1].Status)
	assert.Equal(t, 2, rows[1].AttemptNumber)
	assert.Equal(t, "upstream down", rows[1].Result["error"])
}

func TestRunnerPermanentFailure(t *testing.T) {
	db := testutil.NewDB(t)
	registry := NewRegistry()
	registry.Register("broken", func(context.Context, models.ScheduledTask) (map[string]interface{}, error) {
		return nil, fmt.Errorf("%w: bad arguments", ErrPermanent)
	})
	runner := newRunner(t, db, registry)

	task := createTask(t, db, "broken", testNow.Add(-time.Minute), models.ScheduledTaskTypeOneTime, nil, 5)
	unknown := createTask(t, db, "nobody_handles_this", testNow.Add(-time.Minute), models.ScheduledTaskTypeOneTime, nil, 5)

	ran, err := runner.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ran)

	assert.Equal(t, models.ScheduledTaskStatusFailure, reload(t, db, task.ID).Status)
	assert.Equal(t, models.ScheduledTaskStatusFailure, reload(t, db, unknown.ID).Status)

	rows := histories(t, db, unknown.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, "handler_not_found", rows[0].Status)
}

func TestRunnerRecurringTask(t *testing.T) {
	db := testutil.NewDB(t)
	registry := NewRegistry()
	registry.Register(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)
	runner := newRunner(t, db, registry)

	hourly := "FREQ=HOURLY"
	task := createTask(t, db, "log_info", testNow.Add(-10*time.Minute), models.ScheduledTaskTypeRecurring, &hourly, 3)

	_, err := runner.RunDue(context.Background())
	require.NoError(t, err)

	after := reload(t, db, task.ID)
	assert.Equal(t, models.ScheduledTaskStatusActive, after.Status)
	assert.True(t, after.Due.Equal(testNow.Add(50*time.Minute)), "due moved to %s", after.Due)

	once := "FREQ=HOURLY;COUNT=1"
	last := createTask(t, db, "log_info", testNow.Add(-10*time.Minute), models.ScheduledTaskTypeRecurring, &once, 3)
	_, err = runner.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ScheduledTaskStatusDone, reload(t, db, last.ID).Status)
}

func TestSendNotificationTask(t *testing.T) {
	db := testutil.NewDB(t)
	mailer := &fakeMailer{failFor: map[string]bool{"bounce@example.com": true}}
	handler := NewSendNotificationTask(db, mailer)
	handler.now = func() time.Time { return testNow }

	args := services.NotificationArgs{
		Recipients: []services.NotificationRecipient{
			{Email: "ada@example.com", Name: "Ada"},
			{Email: "bounce@example.com", Name: "Bo"},
			{Email: "noname@example.com"},
		},
		Subject:  "Your club has been reviewed",
		Template: "Hi $name ($email), $club_name is $status. $event_title",
		ClubName: "Chess",
		Status:   "approved",
	}
	task, err := models.BuildScheduledTask(handler.TaskID(), args, testNow, nil, models.ScheduledTaskTypeOneTime, 3)
	require.NoError(t, err)
	require.NoError(t, db.Create(task).Error)

	result, err := handler.HandleExecution(context.Background(), *task)
	require.NoError(t, err)
	assert.Equal(t, 2, result["success"])
	assert.Equal(t, 1, result["failure"])

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "Hi Ada (ada@example.com), Chess is approved. ", mailer.sent[0].body)
	assert.Equal(t, "Your club has been reviewed", mailer.sent[0].subject)
	assert.True(t, strings.HasPrefix(mailer.sent[1].body, "Hi noname@example.com "))

	var retry models.ScheduledTask
	require.NoError(t, db.Where("id <> ?", task.ID).First(&retry).Error)
	assert.True(t, retry.Due.Equal(testNow.Add(notificationRetryDelay)))
	assert.Equal(t, 3, retry.MaxAttempt)

	var retryArgs services.NotificationArgs
	require.NoError(t, retry.DecodeArguments(&retryArgs))
	assert.Equal(t, 1, retryArgs.AttemptCount)
	require.Len(t, retryArgs.Recipients, 1)
	assert.Equal(t, "bounce@example.com", retryArgs.Recipients[0].Email)

	t.Run("gives up on the last attempt", func(t *testing.T) {
		retryArgs.AttemptCount = 2
		last, err := models.BuildScheduledTask(handler.TaskID(), retryArgs, testNow, nil, models.ScheduledTaskTypeOneTime, 3)
		require.NoError(t, err)

		_, err = handler.HandleExecution(context.Background(), *last)
		assert.ErrorIs(t, err, ErrPermanent)

		var count int64
		require.NoError(t, db.Model(&models.ScheduledTask{}).Count(&count).Error)
		assert.EqualValues(t, 2, count)
	})

	t.Run("rejects a task without template", func(t *testing.T) {
		empty, err := models.BuildScheduledTask(handler.TaskID(), services.NotificationArgs{}, testNow, nil, models.ScheduledTaskTypeOneTime, 3)
		require.NoError(t, err)
		_, err = handler.HandleExecution(context.Background(), *empty)
		assert.ErrorIs(t, err, ErrPermanent)
	})
}

func TestNotificationOutboxIsDelivered(t *testing.T) {
	db := testutil.NewDB(t)
	mailer := &fakeMailer{}
	registry := NewRegistry()
	DefineTasks(registry, Dependencies{DB: db, Mailer: mailer})

	notifier := services.NewNotifier(db)
	require.NoError(t, notifier.Enqueue(context.Background(), services.NotificationArgs{
		Recipients: []services.NotificationRecipient{{Email: "ada@example.com", Name: "Ada"}},
		Subject:    "Welcome to Chess",
		Template:   "Hi $name, you are now a member of $club_name.",
		ClubName:   "Chess",
	}))

	runner := NewRunner(db, registry)
	ran, err := runner.RunDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ran)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Hi Ada, you are now a member of Chess.", mailer.sent[0].body)

	var task models.ScheduledTask
	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, models.ScheduledTaskStatusDone, task.Status)
}

func TestFulfillPaymentsTask(t *testing.T) {
	fulfiller := &fakeFulfiller{report: &services.FulfillReport{Pending: 3, Fulfilled: 2, Failed: 1, Errors: []string{"pi_1: Event is full"}}}
	handler := NewFulfillPaymentsTask(fulfiller)

	result, err := handler.HandleExecution(context.Background(), models.ScheduledTask{TaskName: FulfillPaymentsTaskName})
	require.NoError(t, err)
	assert.Equal(t, 1, fulfiller.calls)
	assert.Equal(t, 3, result["pending"])
	assert.Equal(t, 2, result["fulfilled"])
	assert.Equal(t, 1, result["failed"])
	assert.Equal(t, []string{"pi_1: Event is full"}, result["errors"])

	fulfiller.err = errors.New("database is gone")
	_, err = handler.HandleExecution(context.Background(), models.ScheduledTask{TaskName: FulfillPaymentsTaskName})
	assert.EqualError(t, err, "database is gone")
}

func TestEnsureFulfillPaymentsTask(t *testing.T) {
	db := testutil.NewDB(t)

	first, err := EnsureFulfillPaymentsTask(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduledTaskTypeRecurring, first.TaskType)
	require.NotNil(t, first.RecurringInterval)
	assert.Equal(t, fulfillPaymentsRule, *first.RecurringInterval)

	second, err := EnsureFulfillPaymentsTask(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.ScheduledTask{}).Where("task_name = ?", FulfillPaymentsTaskName).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
