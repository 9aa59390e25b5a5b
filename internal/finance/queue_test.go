package finance

import (
	"context"
	"testing"
	"time"

	"github.com/Victorkib/kisheka-construction-sub014/internal/database"
	"github.com/Victorkib/kisheka-construction-sub014/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_ProcessesEnqueuedRecalc(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t)
	seedAllocation(t, project.ID, 120000)

	w := NewWorker(8)
	w.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, w.Stop(ctx))
	}()

	w.Enqueue(project.ID)

	require.Eventually(t, func() bool {
		var f models.ProjectFinances
		if err := database.DB.First(&f, "project_id = ?", project.ID).Error; err != nil {
			return false
		}
		return f.CapitalBalance == 120000
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_EnqueueNeverBlocksWhenFull(t *testing.T) {
	w := NewWorker(1)
	// Not started: the queue fills and further triggers are dropped.
	done := make(chan struct{})
	go func() {
		w.Enqueue(1)
		w.Enqueue(2)
		w.Enqueue(3)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestEnqueueRecalc_SynchronousFallback(t *testing.T) {
	database.OpenTest(t)
	project := seedProject(t)
	seedAllocation(t, project.ID, 64000)

	SetWorker(nil)
	EnqueueRecalc(project.ID)

	var f models.ProjectFinances
	require.NoError(t, database.DB.First(&f, "project_id = ?", project.ID).Error)
	assert.InDelta(t, 64000, f.CapitalBalance, 0.001)
}
