package handlers_test

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"award-review/internal/config"
	"award-review/internal/handlers"
	"award-review/internal/hierarchy"
	"award-review/internal/middleware"
	"award-review/internal/models"
	"award-review/internal/query"
	"award-review/internal/service"
	"award-review/internal/testutil"
)

type testServer struct {
	handler http.Handler
	auth    *testutil.AuthHelper
}

func newTestServer(t *testing.T, db *sql.DB) *testServer {
	t.Helper()

	store := service.NewStore(db)
	audit := service.NewAuditService(store)
	applications := service.NewApplicationService(store, audit)
	queries := service.NewQueryService(store, config.WorkflowConfig{DefaultPageLimit: 10, MaxPageLimit: 100, LiveNegativeFlags: true})
	appHandler := handlers.NewApplicationHandler(service.NewSubmissionService(store, audit), applications, queries, query.DefaultLimits)
	auditHandler := handlers.NewAuditHandler(applications)

	helper := testutil.NewAuthHelper()
	authMw := middleware.NewAuthMiddleware(helper.Service)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/applications/{type}", authMw.Authenticate(http.HandlerFunc(appHandler.CreateApplication)))
	mux.Handle("GET /api/v1/applications/{type}/{id}", authMw.Authenticate(http.HandlerFunc(appHandler.GetApplication)))
	mux.Handle("PATCH /api/v1/applications/{type}/{id}/status", authMw.Authenticate(http.HandlerFunc(appHandler.UpdateStatus)))
	mux.Handle("GET /api/v1/applications/{type}/{id}/audit", authMw.Authenticate(http.HandlerFunc(auditHandler.ListApplicationAudit)))
	mux.Handle("POST /api/v1/applications/marks", authMw.Authenticate(http.HandlerFunc(appHandler.ApproveMarks)))
	mux.Handle("GET /api/v1/applications/subordinates", authMw.Authenticate(http.HandlerFunc(appHandler.ListSubordinates)))

	return &testServer{handler: mux, auth: helper}
}

func (s *testServer) do(t *testing.T, method, url string, caller models.Caller, body interface{}) *testutil.TestResponse {
	t.Helper()
	w := testutil.NewTestResponse()
	s.handler.ServeHTTP(w, s.auth.CreateAuthenticatedRequest(t, method, url, caller, body))
	return w
}

type appSummary struct {
	ID     int64         `json:"id"`
	Status models.Status `json:"status_flag"`
}

// TestCitationReviewedUpTheChain submits a citation and walks it through brigade review.
func TestCitationReviewedUpTheChain(t *testing.T) {
	tdb, fixtures := testutil.SetupTestEnvironment(t)
	srv := newTestServer(t, tdb.DB)
	brigade := fixtures.Reviewers[hierarchy.RoleBrigade]
	division := fixtures.Reviewers[hierarchy.RoleDivision]

	// Unit submits
	resp := srv.do(t, http.MethodPost, "/api/v1/applications/citation", fixtures.UnitUser, map[string]interface{}{
		"fds": map[string]interface{}{
			"award_type":   "citation",
			"cycle_period": "Cycle 2024",
			"parameters": []map[string]interface{}{
				{"name": "Enemy Kills", "count": 7},
				{"name": "Fratricide", "count": 1},
			},
		},
	})
	resp.AssertStatus(t, http.StatusCreated)
	var created appSummary
	resp.Decode(t, &created)
	if created.ID == 0 || created.Status != models.StatusInReview {
		t.Fatalf("unexpected application: %+v", created)
	}
	appURL := fmt.Sprintf("/api/v1/applications/citation/%d", created.ID)

	// Brigade sees it in its review queue
	resp = srv.do(t, http.MethodGet, "/api/v1/applications/subordinates", brigade, nil)
	resp.AssertStatus(t, http.StatusOK)
	var queue []appSummary
	resp.Decode(t, &queue)
	if len(queue) != 1 || queue[0].ID != created.ID {
		t.Fatalf("brigade queue = %+v", queue)
	}

	// A sibling unit cannot read it
	sibling := models.Caller{UserID: 2, Role: hierarchy.RoleUnit, UnitID: fixtures.Sibling.ID}
	srv.do(t, http.MethodGet, appURL, sibling, nil).AssertStatus(t, http.StatusForbidden)

	// Neither the sibling nor the owning unit can approve it
	for _, caller := range []models.Caller{sibling, fixtures.UnitUser} {
		srv.do(t, http.MethodPatch, appURL+"/status", caller, map[string]interface{}{
			"status": "approved",
		}).AssertStatus(t, http.StatusForbidden)
	}

	// Brigade approves marks and both roster members sign off
	srv.do(t, http.MethodPost, "/api/v1/applications/marks", brigade, map[string]interface{}{
		"type":                "citation",
		"application_id":      created.ID,
		"parameters":          []map[string]interface{}{{"name": "Enemy Kills", "approved_marks": 8}},
		"applicationPriority": 1,
	}).AssertStatus(t, http.StatusOK)

	var status appSummary
	for i, m := range fixtures.Members[fixtures.Brigade.ID] {
		resp = srv.do(t, http.MethodPatch, appURL+"/status", brigade, map[string]interface{}{
			"member": map[string]interface{}{"member_id": m.ID, "is_signature_added": true},
		})
		resp.AssertStatus(t, http.StatusOK)
		resp.Decode(t, &status)
		if i == 0 && status.Status != models.StatusInReview {
			t.Fatalf("status moved before quorum: %s", status.Status)
		}
	}
	if status.Status != models.StatusShortlistedApproved {
		t.Fatalf("expected shortlisted_approved, got %s", status.Status)
	}

	// Division sees it on the brigade shortlist
	resp = srv.do(t, http.MethodGet, "/api/v1/applications/subordinates?isShortlisted=true", division, nil)
	resp.AssertStatus(t, http.StatusOK)
	queue = nil
	resp.Decode(t, &queue)
	if len(queue) != 1 || queue[0].ID != created.ID {
		t.Fatalf("division shortlist = %+v", queue)
	}

	// Every step is on the audit trail
	resp = srv.do(t, http.MethodGet, appURL+"/audit", division, nil)
	resp.AssertStatus(t, http.StatusOK)
	var trail []models.AuditLog
	resp.Decode(t, &trail)
	if len(trail) < 4 {
		t.Errorf("expected create, marks and two signatures on the trail, got %d rows", len(trail))
	}
	if trail[0].Action != models.AuditActionCreated {
		t.Errorf("first audit action = %s", trail[0].Action)
	}
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	srv := newTestServer(t, nil)
	w := testutil.NewTestResponse()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/applications/subordinates", nil)
	srv.handler.ServeHTTP(w, req)
	w.AssertStatus(t, http.StatusUnauthorized)
}
