package review

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReviewRepo struct {
	stored    List
	appendErr error
}

func (m *mockReviewRepo) List(_ context.Context) (List, error) {
	return m.stored, nil
}

func (m *mockReviewRepo) Append(_ context.Context, r Review) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.stored = append(m.stored, r)
	return nil
}

func newTestService(repo *mockReviewRepo) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "rev-1" }
	return svc
}

func TestService_Submit(t *testing.T) {
	repo := &mockReviewRepo{}
	svc := newTestService(repo)

	r, err := svc.Submit(context.Background(), Draft{
		ProductID: "1",
		Author:    "  Julian ",
		Rating:    5,
		Comment:   "Superb stitching.",
		Verified:  true,
	})

	require.NoError(t, err)
	assert.Equal(t, "rev-1", r.ID)
	assert.Equal(t, "Julian", r.Author)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC), r.Date)
	require.Len(t, repo.stored, 1)
}

func TestService_SubmitInvalid(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
	}{
		{"missing product", Draft{Author: "A", Rating: 4}},
		{"blank author", Draft{ProductID: "1", Author: "   ", Rating: 4}},
		{"rating too low", Draft{ProductID: "1", Author: "A", Rating: 0}},
		{"rating too high", Draft{ProductID: "1", Author: "A", Rating: 6}},
		{"unknown status", Draft{ProductID: "1", Author: "A", Rating: 3, Status: "hidden"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockReviewRepo{}
			_, err := newTestService(repo).Submit(context.Background(), tt.draft)
			require.Error(t, err)
			assert.Empty(t, repo.stored)
		})
	}
}

func TestService_SubmitStoreError(t *testing.T) {
	repo := &mockReviewRepo{appendErr: errors.New("disk full")}
	_, err := newTestService(repo).Submit(context.Background(), Draft{ProductID: "1", Author: "A", Rating: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store review")
}

func TestService_PublishedOnly(t *testing.T) {
	repo := &mockReviewRepo{stored: List{
		{ID: "a", ProductID: "1", Status: StatusPublished, Rating: 5},
		{ID: "b", ProductID: "1", Status: StatusPending, Rating: 1},
		{ID: "c", ProductID: "2", Status: StatusPublished, Rating: 4},
		{ID: "d", ProductID: "1", Status: StatusPublished, Rating: 4},
	}}

	got, err := newTestService(repo).Published(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "d", got[1].ID)

	none, err := newTestService(repo).Published(context.Background(), "9")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAverageRating(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(AverageRating(nil)))
	assert.True(t, decimal.RequireFromString("4.5").Equal(AverageRating(List{{Rating: 5}, {Rating: 4}})))
	assert.True(t, decimal.RequireFromString("3.7").Equal(AverageRating(List{{Rating: 5}, {Rating: 4}, {Rating: 2}})))
}

func TestList_Validate(t *testing.T) {
	ok := Review{ID: "a", ProductID: "1", Author: "A", Rating: 3, Status: StatusPublished}
	require.NoError(t, List{ok}.Validate())

	bad := ok
	bad.Rating = 9
	require.Error(t, List{ok, bad}.Validate())
}
