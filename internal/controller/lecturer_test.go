package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"edu_dashboard_client/internal/model"
	"edu_dashboard_client/internal/store"
	"edu_dashboard_client/internal/util"

	"go.uber.org/zap"
)

func lecturerIdentity() *model.User {
	return &model.User{ID: "l1", Name: "Dr. Chen", Role: model.Lecturer}
}

func newLecturer(t *testing.T, env *testEnv) *LecturerController {
	t.Helper()
	return NewLecturerController(env.session, env.courses, env.assignments, env.notifier, zap.NewNop())
}

func TestLecturerMount_AutoSelectsFirstCourse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/course":
			json.NewEncoder(w).Encode(model.CourseListResponse{Courses: []model.Course{
				{ID: "c1", Name: "Go"}, {ID: "c2", Name: "Rust"},
			}})
		case "/assignment/c1":
			json.NewEncoder(w).Encode([]model.Assignment{{ID: "a1", Title: "Lab 1"}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	env := newTestEnv(t, srv, lecturerIdentity())
	c := newLecturer(t, env)

	c.Mount(context.Background())
	c.Wait()

	view := c.Snapshot()
	if view.SelectedCourseID != "c1" {
		t.Errorf("selectedCourseId = %q, want first course", view.SelectedCourseID)
	}
	if len(view.SelectedAssignments) != 1 || view.SelectedAssignments[0].ID != "a1" {
		t.Errorf("selectedAssignments = %+v", view.SelectedAssignments)
	}
	if view.AssignmentsLoading {
		t.Error("assignmentsLoading = true after settle")
	}
	if view.LecturerName != "Dr. Chen" {
		t.Errorf("lecturerName = %q", view.LecturerName)
	}
}

func TestLecturerMount_WithoutCredentialSkipsFetch(t *testing.T) {
	hits := &serverHit{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.record(r)
	}))
	defer srv.Close()

	env := newTestEnv(t, srv, nil)
	env.session.DispatchSync(func(st store.SessionState) store.SessionState {
		st.Credential = ""
		return st
	})
	c := newLecturer(t, env)

	c.Mount(context.Background())
	c.Wait()

	if hits.count() != 0 {
		t.Errorf("server hits = %d, want 0 without credential", hits.count())
	}
}

func TestLecturerAddCourse_Validation(t *testing.T) {
	hits := &serverHit{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.record(r)
	}))
	defer srv.Close()

	env := newTestEnv(t, srv, lecturerIdentity())
	c := newLecturer(t, env)

	tests := []struct {
		name, courseName, description string
	}{
		{"empty name", "", "desc"},
		{"empty description", "Go", ""},
		{"whitespace only", "   ", "desc"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := c.AddCourse(context.Background(), tc.courseName, tc.description); err != util.ErrMissingFields {
				t.Errorf("AddCourse() error = %v, want ErrMissingFields", err)
			}
		})
	}

	if hits.count() != 0 {
		t.Errorf("server hits = %d, want 0 on validation failure", hits.count())
	}
	if env.notifier.lastError() != util.ErrMissingFields.Error() {
		t.Errorf("last error notice = %q", env.notifier.lastError())
	}
}

func TestLecturerAddCourse_SuccessClosesModalAndRefetches(t *testing.T) {
	hits := &serverHit{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.record(r)
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(model.Course{ID: "c9", Name: "Go"})
			return
		}
		json.NewEncoder(w).Encode(model.CourseListResponse{Courses: []model.Course{{ID: "c9", Name: "Go"}}})
	}))
	defer srv.Close()

	env := newTestEnv(t, srv, lecturerIdentity())
	c := newLecturer(t, env)
	c.OpenCourseModal()

	if err := c.AddCourse(context.Background(), "Go", "intro"); err != nil {
		t.Fatalf("AddCourse() error = %v", err)
	}
	c.Wait()

	view := c.Snapshot()
	if view.CourseModalOpen {
		t.Error("courseModalOpen = true after success")
	}
	if env.notifier.lastSuccess() != "Course added successfully!" {
		t.Errorf("success notice = %q", env.notifier.lastSuccess())
	}
	// POST /course 之后有一次列表重拉
	if hits.count() != 2 {
		t.Errorf("server hits = %d, want create + refetch", hits.count())
	}
}

func TestLecturerAddCourse_FailureNotifies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	env := newTestEnv(t, srv, lecturerIdentity())
	c := newLecturer(t, env)
	c.OpenCourseModal()

	if err := c.AddCourse(context.Background(), "Go", "intro"); err == nil {
		t.Fatal("AddCourse() error = nil, want error")
	}
	if env.notifier.lastError() != "Failed to add course." {
		t.Errorf("error notice = %q", env.notifier.lastError())
	}
	if !c.Snapshot().CourseModalOpen {
		t.Error("courseModalOpen = false, modal must stay open on failure")
	}
}

func TestLecturerAddAssignment_MissingCourse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	env := newTestEnv(t, srv, lecturerIdentity())
	c := newLecturer(t, env)

	err := c.AddAssignment(context.Background(), "Lab 1", "desc", "2026-09-15", "")
	if err != util.ErrMissingCourse {
		t.Errorf("AddAssignment() error = %v, want ErrMissingCourse", err)
	}
}

// 选中课程连续切换：前一门的拉取慢到离谱也不许把新一门的loading
// 状态清回来之后再弄脏视图。
func TestLecturerSelectCourse_GenerationGuard(t *testing.T) {
	var (
		mu      sync.Mutex
		calls   int
		first   = make(chan struct{})
		release = make(chan struct{})
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/assignment/") {
			t.Errorf("unexpected path %s", r.URL.Path)
			return
		}
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(first)
			<-release
		}
		json.NewEncoder(w).Encode([]model.Assignment{{ID: "a-" + r.URL.Path[len("/assignment/"):]}})
	}))
	defer srv.Close()

	env := newTestEnv(t, srv, lecturerIdentity())
	c := newLecturer(t, env)

	c.SelectCourse(context.Background(), "c1")
	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatal("first select never reached the server")
	}

	c.SelectCourse(context.Background(), "c2")

	// 等第二代settle
	deadline := time.After(5 * time.Second)
	for c.Snapshot().AssignmentsLoading {
		select {
		case <-deadline:
			t.Fatal("second select never settled")
		case <-time.After(10 * time.Millisecond):
		}
	}

	close(release)
	c.Wait()

	view := c.Snapshot()
	if view.SelectedCourseID != "c2" {
		t.Errorf("selectedCourseId = %q, want c2", view.SelectedCourseID)
	}
	if view.AssignmentsLoading {
		t.Error("stale settle re-dirtied assignmentsLoading")
	}
}

func TestLecturerSnapshot_DerivedCounters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/course":
			json.NewEncoder(w).Encode(model.CourseListResponse{Courses: []model.Course{
				{ID: "c1", Students: []string{"s1", "s2"}},
				{ID: "c2", Students: []string{"s3"}},
			}})
		case "/assignment/c1":
			json.NewEncoder(w).Encode([]model.Assignment{
				{ID: "a1", Title: "Lab 1"},
				{ID: "a2", Title: "Lab 2"},
			})
		case "/messages":
			json.NewEncoder(w).Encode(model.MessageListResponse{Messages: []model.Message{
				{AssignmentInstructions: "Lab 1", Scores: &model.Scores{Total: 80}},
			}})
		}
	}))
	defer srv.Close()

	env := newTestEnv(t, srv, lecturerIdentity())
	c := newLecturer(t, env)

	c.Mount(context.Background())
	c.Wait()
	if err := env.assignments.FetchMessages(context.Background()); err != nil {
		t.Fatalf("fetch messages: %v", err)
	}

	view := c.Snapshot()
	if view.TotalStudents != 3 {
		t.Errorf("totalStudents = %d, want 3", view.TotalStudents)
	}
	// Lab 1 已有成绩记录，Lab 2 待批阅
	if view.PendingReviews != 1 {
		t.Errorf("pendingReviews = %d, want 1", view.PendingReviews)
	}
}
