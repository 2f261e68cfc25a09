package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"diskforge/internal/job"
)

func TestJobRepoSaveGetUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepo(db)

	rec := &JobRecord{
		ID:          "job-1",
		Name:        "wipe",
		Description: "wipe /dev/sdb",
		Priority:    job.JobPriorityNormal,
		Status:      job.JobStatusPending,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Save(rec))

	got, err := repo.Get("job-1")
	require.NoError(t, err)
	require.Equal(t, "wipe", got.Name)
	require.Equal(t, job.JobStatusPending, got.Status)

	now := time.Now()
	rec.Status = job.JobStatusCompleted
	rec.CompletedAt = &now
	rec.Result = map[string]any{"bytes": float64(1024)}
	require.NoError(t, repo.Update(rec))

	got, err = repo.Get("job-1")
	require.NoError(t, err)
	require.Equal(t, job.JobStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestJobRepoListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepo(db)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(&JobRecord{
			ID:        id,
			Name:      "job-" + id,
			Priority:  job.JobPriorityNormal,
			Status:    job.JobStatusCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := repo.List(10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "c", list[0].ID)
	require.Equal(t, "a", list[2].ID)
}
