package ui

import (
	"path/filepath"
	"testing"

	"github.com/returnloop/kiosk/internal/session"
	"github.com/returnloop/kiosk/internal/state"
)

func newRoutingTestModel(t *testing.T) Model {
	t.Helper()
	return New(Options{
		Store:     &state.Store{},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
}

func TestSessionCheckRoutesByRole(t *testing.T) {
	tests := []struct {
		name  string
		staff bool
		want  Screen
	}{
		{"staff account lands on the admin dashboard", true, ScreenAdmin},
		{"regular account lands on the user dashboard", false, ScreenUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newRoutingTestModel(t)
			updated, _ := m.Update(sessionCheckMsg{
				signedIn: true,
				claims:   session.Claims{Username: "maria", IsStaff: tt.staff},
			})
			got := updated.(Model)
			if got.screen != tt.want {
				t.Errorf("screen = %d, want %d", got.screen, tt.want)
			}
			if !got.signedIn {
				t.Error("signedIn = false, want true")
			}
		})
	}
}

func TestSessionCheckWithoutCredentialsStaysOnLogin(t *testing.T) {
	m := newRoutingTestModel(t)
	updated, _ := m.Update(sessionCheckMsg{})
	if got := updated.(Model).screen; got != ScreenLogin {
		t.Errorf("screen = %d, want ScreenLogin", got)
	}
}

func TestAuthSuccessRoutesByRole(t *testing.T) {
	tests := []struct {
		name  string
		staff bool
		want  Screen
	}{
		{"staff claims open the admin dashboard", true, ScreenAdmin},
		{"non-staff claims open the user dashboard", false, ScreenUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newRoutingTestModel(t)
			updated, _ := m.Update(authMsg{claims: session.Claims{Username: "maria", IsStaff: tt.staff}})
			got := updated.(Model)
			if got.screen != tt.want {
				t.Errorf("screen = %d, want %d", got.screen, tt.want)
			}
			if got.lastUsername != "maria" {
				t.Errorf("lastUsername = %q, want %q", got.lastUsername, "maria")
			}
		})
	}
}

func TestDashboardScreenByRole(t *testing.T) {
	m := Model{claims: session.Claims{IsStaff: true}}
	if got := m.dashboardScreen(); got != ScreenAdmin {
		t.Errorf("dashboardScreen() = %d, want ScreenAdmin", got)
	}
	m.claims.IsStaff = false
	if got := m.dashboardScreen(); got != ScreenUser {
		t.Errorf("dashboardScreen() = %d, want ScreenUser", got)
	}
}
