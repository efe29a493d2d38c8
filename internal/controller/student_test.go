package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"edu_dashboard_client/internal/model"
	"edu_dashboard_client/internal/util"

	"go.uber.org/zap"
)

func studentIdentity() *model.User {
	return &model.User{ID: "s1", Name: "Bob", Role: model.Student}
}

func newStudent(t *testing.T, env *testEnv) *StudentController {
	t.Helper()
	return NewStudentController(env.session, env.courses, env.assignments, env.notifier, zap.NewNop())
}

func studentServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/student/course":
			json.NewEncoder(w).Encode(model.CourseListResponse{Courses: []model.Course{
				{ID: "c1", Name: "Go", Students: []string{"s1"}},
			}})
		case "/assignment/c1":
			json.NewEncoder(w).Encode([]model.Assignment{{ID: "a1", Title: "Lab 1"}})
		case "/messages":
			// 无总分或缺作业引用的记录不算成绩
			json.NewEncoder(w).Encode(model.MessageListResponse{Messages: []model.Message{
				{AssignmentInstructions: "Lab 1", Scores: &model.Scores{Total: 92}},
				{AssignmentInstructions: "Lab 0", Scores: &model.Scores{Total: 0}},
				{Content: "ungraded feedback", Scores: &model.Scores{Total: 50}},
			}})
		case "/select/course/c2":
			json.NewEncoder(w).Encode(model.Course{ID: "c2", Students: []string{"s1"}})
		case "/chat":
			json.NewEncoder(w).Encode(model.GradeResponse{Result: &model.GradeResult{
				Scores: &model.Scores{Total: 88},
			}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestStudentMount_PopulatesDashboard(t *testing.T) {
	srv := studentServer(t)
	defer srv.Close()

	env := newTestEnv(t, srv, studentIdentity())
	c := newStudent(t, env)

	c.Mount(context.Background())
	c.Wait()

	view := c.Snapshot()
	if view.StudentName != "Bob" {
		t.Errorf("studentName = %q", view.StudentName)
	}
	if len(view.Courses) != 1 || view.Courses[0].ID != "c1" {
		t.Errorf("courses = %+v", view.Courses)
	}
	if got := view.Assignments["c1"]; len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("assignments[c1] = %+v", got)
	}
}

func TestStudentGrades_DerivedFromMessages(t *testing.T) {
	srv := studentServer(t)
	defer srv.Close()

	env := newTestEnv(t, srv, studentIdentity())
	c := newStudent(t, env)

	if err := env.assignments.FetchMessages(context.Background()); err != nil {
		t.Fatalf("fetch messages: %v", err)
	}

	grades := c.Grades()
	if len(grades) != 1 {
		t.Fatalf("grades = %v, want exactly the fully graded record", grades)
	}
	if grades["Lab 1"] != 92 {
		t.Errorf("grades[Lab 1] = %v, want 92", grades["Lab 1"])
	}
}

func TestStudentSubmit_WithoutSelectedFile(t *testing.T) {
	hits := &serverHit{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.record(r)
	}))
	defer srv.Close()

	env := newTestEnv(t, srv, studentIdentity())
	c := newStudent(t, env)

	if err := c.Submit(context.Background(), "a1"); err != util.ErrNoFileSelected {
		t.Errorf("Submit() error = %v, want ErrNoFileSelected", err)
	}
	if hits.count() != 0 {
		t.Errorf("server hits = %d, want 0", hits.count())
	}
	if env.notifier.lastError() != util.ErrNoFileSelected.Error() {
		t.Errorf("error notice = %q", env.notifier.lastError())
	}
}

func TestStudentSubmit_UploadsAndRefreshesMessages(t *testing.T) {
	srv := studentServer(t)
	defer srv.Close()

	env := newTestEnv(t, srv, studentIdentity())
	c := newStudent(t, env)

	path := filepath.Join(t.TempDir(), "solution.txt")
	if err := os.WriteFile(path, []byte("my solution text"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	c.SelectFile("a1", path)

	if err := c.Submit(context.Background(), "a1"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if env.notifier.lastSuccess() != "Assignment graded successfully" {
		t.Errorf("success notice = %q", env.notifier.lastSuccess())
	}

	state := env.assignments.State()
	if state.LastGrade == nil || state.LastGrade.Scores.Total != 88 {
		t.Errorf("lastGrade = %+v", state.LastGrade)
	}
	// 提交成功后批改记录已刷新
	if len(state.Messages) == 0 {
		t.Error("messages not refreshed after submit")
	}

	// 成功后清掉已选文件，重复提交要求重新选择
	if err := c.Submit(context.Background(), "a1"); err != util.ErrNoFileSelected {
		t.Errorf("second Submit() error = %v, want ErrNoFileSelected", err)
	}
}

func TestStudentSubmit_RejectsDisallowedFileType(t *testing.T) {
	hits := &serverHit{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.record(r)
	}))
	defer srv.Close()

	env := newTestEnv(t, srv, studentIdentity())
	c := newStudent(t, env)

	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("<html><body>not homework</body></html>"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	c.SelectFile("a1", path)

	if err := c.Submit(context.Background(), "a1"); err == nil {
		t.Fatal("Submit() error = nil, want type rejection")
	}
	if hits.count() != 0 {
		t.Errorf("server hits = %d, rejected file must not be uploaded", hits.count())
	}
}

func TestStudentEnroll_RefetchesCourses(t *testing.T) {
	hits := &serverHit{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.record(r)
		switch r.URL.Path {
		case "/select/course/c2":
			json.NewEncoder(w).Encode(model.Course{ID: "c2", Students: []string{"s1"}})
		case "/student/course":
			json.NewEncoder(w).Encode(model.CourseListResponse{Courses: []model.Course{
				{ID: "c1"}, {ID: "c2", Students: []string{"s1"}},
			}})
		}
	}))
	defer srv.Close()

	env := newTestEnv(t, srv, studentIdentity())
	c := newStudent(t, env)

	c.Enroll(context.Background(), "c2")
	c.Wait()

	if env.notifier.lastSuccess() != "Successfully enrolled in the course" {
		t.Errorf("success notice = %q", env.notifier.lastSuccess())
	}
	// 选课后重拉列表，缓存里才看得到新课程
	if got := len(env.courses.State().Courses); got != 2 {
		t.Errorf("courses = %d, want refetched list", got)
	}
	if c.Snapshot().Enrolling != "" {
		t.Error("enrolling marker not cleared")
	}
}

func TestStudentToggleCourse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	env := newTestEnv(t, srv, studentIdentity())
	c := newStudent(t, env)

	c.ToggleCourse("c1")
	if !c.Snapshot().Collapsed["c1"] {
		t.Error("c1 not collapsed after toggle")
	}
	c.ToggleCourse("c1")
	if c.Snapshot().Collapsed["c1"] {
		t.Error("c1 still collapsed after second toggle")
	}
}
