package controller

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"edu_dashboard_client/internal/api"
	"edu_dashboard_client/internal/config"
	"edu_dashboard_client/internal/credential"
	"edu_dashboard_client/internal/model"
	"edu_dashboard_client/internal/store"

	"go.uber.org/zap"
)

// recordNotifier 收集提示文本供断言
type recordNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordNotifier) lastError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.errors) == 0 {
		return ""
	}
	return n.errors[len(n.errors)-1]
}

func (n *recordNotifier) lastSuccess() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.successes) == 0 {
		return ""
	}
	return n.successes[len(n.successes)-1]
}

type testEnv struct {
	session     *store.SessionStore
	courses     *store.CourseStore
	assignments *store.AssignmentStore
	notifier    *recordNotifier
}

// newTestEnv 组装一套已登录的store三件套
func newTestEnv(t *testing.T, srv *httptest.Server, identity *model.User) *testEnv {
	t.Helper()
	log := zap.NewNop()

	session := store.NewSessionStore(credential.NewFileStore(t.TempDir()), 16, log)
	client := api.NewClient(config.APIConfig{BaseURL: srv.URL}, session)
	session.Bind(client)
	session.DispatchSync(func(st store.SessionState) store.SessionState {
		st.Identity = identity
		st.Credential = "test-token"
		return st
	})

	courses := store.NewCourseStore(client, 16, false, log)
	assignments := store.NewAssignmentStore(client, 16, log)

	t.Cleanup(func() {
		session.Close()
		courses.Close()
		assignments.Close()
	})

	return &testEnv{
		session:     session,
		courses:     courses,
		assignments: assignments,
		notifier:    &recordNotifier{},
	}
}

// serverHit 线程安全的请求计数
type serverHit struct {
	mu    sync.Mutex
	paths []string
}

func (h *serverHit) record(r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paths = append(h.paths, r.Method+" "+r.URL.Path)
}

func (h *serverHit) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.paths)
}
