package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aranzadi/pictotea/core/user"
	testutil "github.com/aranzadi/pictotea/tests"
)

func Test_userApi_login(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Tera Pista", "terapista", "tera@test.es", "s3cr3t", []string{user.RoleTherapist}, true)
	testutil.CreateUser(t, usrRepo, "Aus Ente", "ausente", "aus@test.es", "s3cr3t", []string{user.RoleTherapist}, false)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, map[string]string{"username": uname, "password": pwd})
	}

	tests := []httpTest{
		{name: "empty body", body: login("", ""), wantCode: http.StatusBadRequest},
		{name: "unknown user", body: login("nadie", "s3cr3t"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "wrong password", body: login(usr.Username, "lol"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"})},
		{name: "deactivated account", body: login("ausente", "s3cr3t"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "login with username", body: login(usr.Username, "s3cr3t"), wantCode: http.StatusOK},
		{name: "login with email", body: login(usr.Email, "s3cr3t"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				var resp map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling login response: %v", err)
				}
				if resp["token"] == "" {
					t.Error("login response carries no token")
				}
			} else if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Refre Scada", "refrescada", "refre@test.es", "s3cr3t", []string{user.RoleTherapist}, true)

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/token-refresh")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("refresh", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling refresh response: %v", err)
		}
		if resp["token"] == "" {
			t.Error("refresh response carries no token")
		}
	})
}

func Test_userApi_queryRoles(t *testing.T) {
	admin := testutil.CreateUser(t, usrRepo, "Ad Min", "adminuser", "admin@test.es", "s3cr3t", []string{user.RoleAdminSuper}, true)
	ther := testutil.CreateUser(t, usrRepo, "Tera Dos", "teradosa", "tera2@test.es", "s3cr3t", []string{user.RoleTherapist}, true)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "admin required", token: getToken(t, ther), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "roles for admin", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users/roles", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
