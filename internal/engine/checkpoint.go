package engine

import (
	"fmt"

	"github.com/roach88/graphreplay/internal/ir"
)

// Checkpoint statuses.
const (
	CheckpointHealthy = "healthy"
	CheckpointFailed  = "failed"
)

// SoakHealthCheckpoint is a synthetic per-cycle telemetry sample.
//
// Every numeric field is derived from the checkpoint hash, so two passes over
// the same scenario and seed produce identical samples.
type SoakHealthCheckpoint struct {
	CycleIndex   int    `json:"cycle_index"`
	CheckpointID string `json:"checkpoint_id"`
	ElapsedMS    int64  `json:"elapsed_ms"`
	RSSKB        int64  `json:"rss_kb"`
	HeapObjects  int64  `json:"heap_objects"`
	OpenFDs      int64  `json:"open_fds"`
	Status       string `json:"status"`
}

// NewCheckpoint derives the checkpoint for one attempted cycle.
func NewCheckpoint(scenarioID string, seed, intervalMS int64, cycleIndex int, passed bool) SoakHealthCheckpoint {
	h := ir.CheckpointHash(scenarioID, seed, intervalMS, cycleIndex)
	status := CheckpointHealthy
	if !passed {
		status = CheckpointFailed
	}
	return SoakHealthCheckpoint{
		CycleIndex:   cycleIndex,
		CheckpointID: fmt.Sprintf("ckpt-%016x", h),
		ElapsedMS:    intervalMS * int64(cycleIndex),
		RSSKB:        int64(65536 + h%16384),
		HeapObjects:  int64(100000 + (h>>16)%50000),
		OpenFDs:      int64(16 + (h>>32)%48),
		Status:       status,
	}
}
