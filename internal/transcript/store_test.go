package transcript

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiveshSarthi/RealNex-sub001/internal/conversation"
	"github.com/NiveshSarthi/RealNex-sub001/internal/messaging"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestEnsureConversationReturnsExisting(t *testing.T) {
	store, mock := newMockStore(t)
	existing := uuid.New()

	mock.ExpectQuery(`SELECT id FROM conversations WHERE contact_id`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing))

	id, err := store.EnsureConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, existing, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureConversationCreatesOnFirstTouch(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id FROM conversations WHERE contact_id`).
		WithArgs("c1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO conversations`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.EnsureConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendInsertsAndBumpsCounters(t *testing.T) {
	store, mock := newMockStore(t)
	existing := uuid.New()

	mock.ExpectQuery(`SELECT id FROM conversations WHERE contact_id`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing))
	mock.ExpectExec(`INSERT INTO conversation_messages`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE conversations SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Append(context.Background(), Message{
		ContactID: "c1",
		Direction: DirectionInbound,
		Kind:      "text",
		Body:      "hi",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendDuplicateSkipsCounters(t *testing.T) {
	store, mock := newMockStore(t)
	existing := uuid.New()

	mock.ExpectQuery(`SELECT id FROM conversations WHERE contact_id`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing))
	// ON CONFLICT DO NOTHING: zero rows affected, no counter update follows.
	mock.ExpectExec(`INSERT INTO conversation_messages`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Append(context.Background(), Message{
		ContactID: "c1",
		ID:        uuid.New(),
		Direction: DirectionOutbound,
		Body:      "welcome",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilStoreIsNoOp(t *testing.T) {
	var store *Store

	id, err := store.EnsureConversation(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)

	require.NoError(t, store.Append(context.Background(), Message{ContactID: "c1"}))
	require.NoError(t, store.End(context.Background(), "c1"))
}

func TestRecordingMessengerCapturesSuccessfulSends(t *testing.T) {
	store, mock := newMockStore(t)
	existing := uuid.New()

	mock.ExpectQuery(`SELECT id FROM conversations WHERE contact_id`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing))
	mock.ExpectExec(`INSERT INTO conversation_messages`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE conversations SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := &messaging.Recorder{}
	m := RecordOutbound(rec, store, nil)

	require.NoError(t, m.SendText(context.Background(), "c1", "hello"))
	assert.Len(t, rec.Sent, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordingMessengerSkipsFailedSends(t *testing.T) {
	store, mock := newMockStore(t)

	rec := &messaging.Recorder{FailNext: assert.AnError}
	m := RecordOutbound(rec, store, nil)

	require.Error(t, m.SendText(context.Background(), "c1", "hello"))
	// No DB expectations were set; a failed send must not be recorded.
	assert.NoError(t, mock.ExpectationsWereMet())
}

type countingProcessor struct{ calls int }

func (p *countingProcessor) ProcessInbound(context.Context, conversation.InboundMessage) error {
	p.calls++
	return nil
}

func TestRecordingProcessorDelegatesDespiteStoreError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id FROM conversations WHERE contact_id`).
		WillReturnError(assert.AnError)

	next := &countingProcessor{}
	p := RecordInbound(next, store, nil)

	err := p.ProcessInbound(context.Background(), conversation.InboundMessage{ContactID: "c1", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls)
}
