package controller

import (
	"context"
	"sync"

	"edu_dashboard_client/internal/model"
	"edu_dashboard_client/internal/store"

	"go.uber.org/zap"
)

// AdminController 管理员仪表盘：平台总览。管理端接口远端尚未提供，
// 视图从课程/作业缓存推导用量统计，其余区块渲染静态占位。
type AdminController struct {
	session     *store.SessionStore
	courses     *store.CourseStore
	assignments *store.AssignmentStore
	log         *zap.Logger

	wg sync.WaitGroup
}

func NewAdminController(session *store.SessionStore, courses *store.CourseStore, assignments *store.AssignmentStore, log *zap.Logger) *AdminController {
	return &AdminController{
		session:     session,
		courses:     courses,
		assignments: assignments,
		log:         log,
	}
}

func (c *AdminController) Mount(ctx context.Context) {
	if c.session.Token() == "" {
		c.log.Debug("admin mount without credential, skip fetches")
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.courses.FetchAll(ctx)
	}()
}

func (c *AdminController) Wait() {
	c.wg.Wait()
}

// AdminView 渲染用的推导快照
type AdminView struct {
	AdminName        string
	Courses          []model.Course
	ActiveUsers      int
	TotalSubmissions int
	ErrorMessage     string
}

func (c *AdminController) Snapshot() AdminView {
	courseState := c.courses.State()
	assignmentState := c.assignments.State()
	sessionState := c.session.State()

	name := ""
	if sessionState.Identity != nil {
		name = sessionState.Identity.Name
	}

	activeUsers := 0
	for _, course := range courseState.Courses {
		activeUsers += len(course.Students)
	}

	return AdminView{
		AdminName:        name,
		Courses:          courseState.Courses,
		ActiveUsers:      activeUsers,
		TotalSubmissions: len(assignmentState.Messages),
		ErrorMessage:     courseState.ErrorMessage,
	}
}
