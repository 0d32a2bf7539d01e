package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/aranzadi/pictotea/core/activity"
	"github.com/aranzadi/pictotea/core/user"
	testutil "github.com/aranzadi/pictotea/tests"
)

func Test_activityApi_create(t *testing.T) {
	ther := testutil.CreateUser(t, usrRepo, "Crea Dora", "creadora", "crea@test.es", "s3cr3t", []string{user.RoleTherapist}, true)
	patUsr := testutil.CreateUser(t, usrRepo, "Pa Ciente", "pacientea", "pac@test.es", "s3cr3t", []string{user.RolePatient}, true)

	body := marchallObj(t, activity.NewActivity{
		Name:                     "Vestirse",
		Description:              "Secuencia para vestirse",
		SatisfactoryPointsTarget: 2,
		SolutionSequence:         []int{11, 12, 13},
		PhaseID:                  1,
	})

	tests := []httpTest{
		{name: "auth required", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "therapist required", body: body, token: getToken(t, patUsr), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden)},
		{name: "create", body: body, token: getToken(t, ther), wantCode: http.StatusCreated},
		{name: "duplicate", body: body, token: getToken(t, ther), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/activities", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusCreated {
				var act activity.Activity
				if err := json.Unmarshal(rec.Body.Bytes(), &act); err != nil {
					t.Fatalf("unmarshalling activity: %v", err)
				}
				if act.ID == 0 || !act.IsActive {
					t.Errorf("created activity = %+v, want an active row with an id", act)
				}
			} else if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func Test_activityApi_retrieveAndDestroy(t *testing.T) {
	ther := testutil.CreateUser(t, usrRepo, "Bo Rradora", "borradora", "borra@test.es", "s3cr3t", []string{user.RoleTherapist}, true)
	act := testutil.CreateActivity(t, actRepo, "Lavarse", "Secuencia para lavarse", []int{21, 22}, 1, 2, true)
	token := getToken(t, ther)
	path := fmt.Sprintf("/v1/activities/%d", act.ID)

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})

	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
		}
	})

	t.Run("soft-deleted rows read as missing", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: activity.ErrNotFound.Error()})}, rec)
	})

	t.Run("invalid id", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/activities/lol", token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})
}
