package patient

import (
	"time"

	"github.com/shopspring/decimal"
)

// Patient is the therapy subject. The account shell (login, verification)
// lives on the linked User; therapist scoping is resolved through TherapistIDs.
type Patient struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	TherapistIDs []int     `json:"therapist_ids"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// AssignedToTherapist reports whether the therapist's user account is one of
// the patient's assigned therapists.
func (p Patient) AssignedToTherapist(userID int) bool {
	for _, id := range p.TherapistIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Phase is an ordered stage of treatment; ordering is implicit in ID ascending
// order. Phases are seed data, read-only at runtime.
type Phase struct {
	ID                    int    `json:"id"`
	Name                  string `json:"name"`
	Description           string `json:"description"`
	ScoreActivitiesTarget int    `json:"score_activities_target"`
}

// PhaseFixtures are the six treatment phases seeded at install time.
var PhaseFixtures = []Phase{
	{ID: 1, Name: "Fase 1", Description: "Intercambio de un solo pictograma", ScoreActivitiesTarget: 10},
	{ID: 2, Name: "Fase 2", Description: "Aumento de la distancia y la espontaneidad", ScoreActivitiesTarget: 10},
	{ID: 3, Name: "Fase 3", Description: "Discriminación entre pictogramas", ScoreActivitiesTarget: 15},
	{ID: 4, Name: "Fase 4", Description: "Construcción de frases simples", ScoreActivitiesTarget: 15},
	{ID: 5, Name: "Fase 5", Description: "Respuesta a preguntas directas", ScoreActivitiesTarget: 20},
	{ID: 6, Name: "Fase 6", Description: "Comentarios y frases complejas", ScoreActivitiesTarget: 20},
}

// HealthRecord is the clinical aggregate holding a patient's current phase,
// TEA degree and observations. Granted achievements hang off it.
type HealthRecord struct {
	ID             int       `json:"id"`
	PatientID      int       `json:"patient_id"`
	CurrentPhaseID int       `json:"current_phase_id"`
	TEADegreeID    int       `json:"tea_degree_id"`
	Observations   string    `json:"observations"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// Progress carries the two derived percentages; both are computed on read and
// never persisted.
type Progress struct {
	GeneralProgress decimal.Decimal `json:"general_progress"`
	PhaseProgress   decimal.Decimal `json:"phase_progress"`
}
