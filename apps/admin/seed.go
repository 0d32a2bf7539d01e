package main

import (
	"context"

	"github.com/aranzadi/pictotea/core/achievement"
	"github.com/aranzadi/pictotea/core/patient"
)

// seed loads the phase and reserved achievement fixtures. Both repositories
// upsert on explicit IDs so reruns are harmless.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	for _, ph := range patient.PhaseFixtures {
		if _, err := cli.patRepo.CreatePhase(ctx, ph); err != nil {
			return err
		}
	}
	for _, ach := range achievement.ReservedFixtures {
		if _, err := cli.achvRepo.CreateAchievement(ctx, ach); err != nil {
			return err
		}
	}

	logger.Printf("seeded %d phases and %d reserved achievements\n",
		len(patient.PhaseFixtures), len(achievement.ReservedFixtures))
	return nil
}
