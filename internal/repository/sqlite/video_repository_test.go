package sqlite

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_repost_youtube/internal/domain"
)

func newMockRepo(t *testing.T) (*VideoRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewVideoRepository(db), mock
}

func videoRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "source_channel_id", "video_id", "title", "description", "tags",
		"thumbnail_url", "duration_seconds", "view_count", "like_count", "comment_count",
		"status", "scheduled_at", "posted_at", "destination_channel_id", "destination_video_id",
		"error_message", "claimed_at", "created_at", "updated_at",
	})
}

func TestGetDueForUserScansRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	due := now.Add(-time.Hour)
	rows := videoRows().
		AddRow("v1", "u1", "c1", "yt1", "First", "desc", "a,b", "thumb", 120, 10, 2, 1,
			"scheduled", due, nil, "", "", "", nil, now, now).
		AddRow("v2", "u1", "c1", "yt2", "Second", "", "", "", 60, 0, 0, 0,
			"scheduled", now, nil, "", "", "", nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM videos")).
		WithArgs("u1", string(domain.VideoStatusScheduled), sqlmock.AnyArg(), 2).
		WillReturnRows(rows)

	videos, err := repo.GetDueForUser("u1", now, 2)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "v1", videos[0].ID)
	assert.Equal(t, []string{"a", "b"}, videos[0].Tags)
	assert.Equal(t, domain.VideoStatusScheduled, videos[0].Status)
	require.NotNil(t, videos[0].ScheduledAt)
	assert.Nil(t, videos[1].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountPostedSince(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM videos")).
		WithArgs("u1", string(domain.VideoStatusPosted), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountPostedSince("u1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimWinsOnlyWhenRowEligible(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET claimed_at")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	claimed, err := repo.Claim("v1", now, 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Second claim hits the lease guard and affects no rows
	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET claimed_at")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	claimed, err = repo.Claim("v1", now, 15*time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPostedIsConditional(t *testing.T) {
	repo, mock := newMockRepo(t)
	postedAt := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.MarkPosted("v1", postedAt, "UCdest", "newid")
	require.NoError(t, err)
	assert.True(t, ok)

	// Already posted: the conditional update is a no-op
	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.MarkPosted("v1", postedAt, "UCdest", "newid")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetToPendingRequiresFailedStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE videos SET status")).
		WithArgs(string(domain.VideoStatusPending), sqlmock.AnyArg(), "v1", string(domain.VideoStatusFailed)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ResetToPending("v1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM videos")).
		WithArgs("missing").
		WillReturnRows(videoRows())

	video, err := repo.GetByID("missing")
	require.NoError(t, err)
	assert.Nil(t, video)
	assert.NoError(t, mock.ExpectationsWereMet())
}
