package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/aranzadi/pictotea/core"
	"github.com/aranzadi/pictotea/core/achievement"
)

type achievementRepository struct {
	db *DB
}

var (
	_ achievement.Repository        = (*achievementRepository)(nil) // interface compliance check
	_ achievement.PatientRepository = (*patientRepository)(nil)     // interface compliance check
	_ achievement.UserRepository    = (*userRepository)(nil)        // interface compliance check
)

func NewAchievementRepository(db *DB) *achievementRepository {
	return &achievementRepository{db: db}
}

func (repo *achievementRepository) CreateAchievement(ctx context.Context, ach achievement.Achievement, exec ...core.DBExecutor) (achievement.Achievement, error) {
	defer repo.db.lock(exec)()

	now := time.Now().UTC()
	if ach.ID == 0 {
		// generated ids start after the reserved fixture block
		ach.ID = achievement.ReservedMaxID + repo.db.nextPK("achievement")
	}
	ach.CreatedAt = now
	ach.UpdatedAt = now
	repo.db.achievements[ach.ID] = &ach
	return ach, nil
}

func (repo *achievementRepository) GetAchievementByID(ctx context.Context, id int, exec ...core.DBExecutor) (achievement.Achievement, error) {
	defer repo.db.rlock(exec)()

	if ach, ok := repo.db.achievements[id]; ok {
		return *ach, nil
	}
	return achievement.Achievement{}, achievement.ErrNotFound
}

func (repo *achievementRepository) GetGrant(ctx context.Context, achievementID, healthRecordID int, exec ...core.DBExecutor) (achievement.Grant, error) {
	defer repo.db.rlock(exec)()

	for _, grant := range repo.db.grants {
		if grant.AchievementID == achievementID && grant.HealthRecordID == healthRecordID {
			return *grant, nil
		}
	}
	return achievement.Grant{}, achievement.ErrGrantNotFound
}

func (repo *achievementRepository) CreateGrant(ctx context.Context, grant achievement.Grant, exec ...core.DBExecutor) (achievement.Grant, error) {
	defer repo.db.lock(exec)()

	grant.ID = repo.db.nextPK("achievement_health_record")
	repo.db.grants[grant.ID] = &grant
	return grant, nil
}

func (repo *achievementRepository) QueryGrantsByHealthRecord(ctx context.Context, healthRecordID int) ([]achievement.Grant, error) {
	defer repo.db.rlock(nil)()

	grants := make([]achievement.Grant, 0)
	for _, grant := range repo.db.grants {
		if grant.HealthRecordID == healthRecordID {
			grants = append(grants, *grant)
		}
	}
	sort.Slice(grants, func(i, j int) bool { return grants[i].ID < grants[j].ID })
	return grants, nil
}
