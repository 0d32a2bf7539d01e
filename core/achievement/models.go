package achievement

import "time"

// ReservedMaxID bounds the reserved, phase-linked badge identifiers (1..6).
// Reserved achievements exist only as fixtures: they are never manually
// created, deleted or granted through the patient-facing gate.
const ReservedMaxID = 6

func IsReserved(id int) bool {
	return id >= 1 && id <= ReservedMaxID
}

// Achievement is a badge grantable to a patient's health record.
type Achievement struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Grant joins an Achievement to a HealthRecord; at most one row per pair.
type Grant struct {
	ID             int       `json:"id"`
	AchievementID  int       `json:"achievement_id"`
	HealthRecordID int       `json:"health_record_id"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// ReservedFixtures are the six phase-linked badges seeded at install time.
var ReservedFixtures = []Achievement{
	{ID: 1, Name: "Primera fase", ImageURL: "/static/achievements/phase-1.png", IsActive: true},
	{ID: 2, Name: "Segunda fase", ImageURL: "/static/achievements/phase-2.png", IsActive: true},
	{ID: 3, Name: "Tercera fase", ImageURL: "/static/achievements/phase-3.png", IsActive: true},
	{ID: 4, Name: "Cuarta fase", ImageURL: "/static/achievements/phase-4.png", IsActive: true},
	{ID: 5, Name: "Quinta fase", ImageURL: "/static/achievements/phase-5.png", IsActive: true},
	{ID: 6, Name: "Sexta fase", ImageURL: "/static/achievements/phase-6.png", IsActive: true},
}
