package agent

import (
	"context"
	"strconv"

	"github.com/k3rs/k3rs/pkg/log"
	"github.com/k3rs/k3rs/pkg/types"
)

// Recover runs the one-time boot-path discovery prefix of §4.7: it
// adopts running containers whose Pod is desired and stops and cleans
// up the rest. It creates nothing; desired Pods without a container are
// left to the next PodSync tick's normal create path. It is idempotent:
// running it against an already-converged agent is a no-op.
func Recover(ctx context.Context, sync *PodSync) error {
	running, err := sync.backend.List(ctx)
	if err != nil {
		return err
	}

	desired, err := sync.desiredPods()
	if err != nil {
		return err
	}

	desiredByID := make(map[string]types.Pod, len(desired))
	for _, pod := range desired {
		desiredByID[pod.ID] = pod
	}

	for _, ref := range running {
		pod, isDesired := desiredByID[ref.PodID]
		if isDesired {
			// Running ∧ Desired: adopt.
			log.Info("recover: adopting desired container " + ref.ID)
			sync.remember(pod.ID, ref.ID)
			continue
		}
		// Running ∧ ¬Desired: stop + cleanup.
		if err := sync.backend.StopContainer(ctx, ref.ID, stopGrace); err != nil {
			log.Error("recover: stop orphaned container " + ref.ID + ": " + err.Error())
			continue
		}
		if err := sync.backend.Cleanup(ctx, ref.ID); err != nil {
			log.Error("recover: cleanup orphaned container " + ref.ID + ": " + err.Error())
		}
	}

	// ¬Running ∧ Desired pods are left alone: the next PodSync tick's
	// normal create path picks them up.

	log.Info("recover: adopted " + strconv.Itoa(len(sync.View())) + " running container(s)")
	return nil
}
