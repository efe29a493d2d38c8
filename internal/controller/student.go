package controller

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"edu_dashboard_client/internal/model"
	"edu_dashboard_client/internal/notify"
	"edu_dashboard_client/internal/store"
	"edu_dashboard_client/internal/util"

	"go.uber.org/zap"
)

// StudentController 学生仪表盘。视图状态完全由store快照、会话身份和
// 本地瞬态（折叠状态、待提交文件、选课进行中标记）推导，store为空或
// 出错时照常渲染空态/错误态。
type StudentController struct {
	session     *store.SessionStore
	courses     *store.CourseStore
	assignments *store.AssignmentStore
	notifier    notify.Notifier
	log         *zap.Logger

	mu            sync.Mutex
	collapsed     map[string]bool   // courseID → 折叠
	selectedFiles map[string]string // assignmentID → 本地文件路径
	enrolling     string            // 进行中的选课courseID
	submitting    bool
	currentView   string

	wg sync.WaitGroup
}

func NewStudentController(session *store.SessionStore, courses *store.CourseStore, assignments *store.AssignmentStore, notifier notify.Notifier, log *zap.Logger) *StudentController {
	return &StudentController{
		session:       session,
		courses:       courses,
		assignments:   assignments,
		notifier:      notifier,
		log:           log,
		collapsed:     make(map[string]bool),
		selectedFiles: make(map[string]string),
		currentView:   "dashboard",
	}
}

// Mount 进入视图时触发初始拉取：学生课程、批改记录，课程到位后逐门
// 拉作业。全部异步，调用方不被阻塞。
func (c *StudentController) Mount(ctx context.Context) {
	if c.session.Token() == "" {
		c.log.Debug("student mount without credential, skip fetches")
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.courses.FetchForStudent(ctx); err != nil {
			return
		}
		for _, course := range c.courses.State().Courses {
			cid := course.ID
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				c.assignments.FetchByCourse(ctx, cid)
			}()
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.assignments.FetchMessages(ctx)
	}()
}

// Wait 等待已触发的异步拉取settle，测试与优雅退出用
func (c *StudentController) Wait() {
	c.wg.Wait()
}

// Grades 从批改记录推导成绩表：作业引用 → 总分
func (c *StudentController) Grades() map[string]float64 {
	grades := make(map[string]float64)
	for _, m := range c.assignments.State().Messages {
		if m.HasGrade() {
			grades[m.AssignmentInstructions] = m.Scores.Total
		}
	}
	return grades
}

// Enroll 选课。期间记录进行中的courseID供渲染，成功后重新拉取课程
// 列表以观察选课结果（缓存不做乐观更新时列表不会自己变）。
func (c *StudentController) Enroll(ctx context.Context, courseID string) {
	c.mu.Lock()
	c.enrolling = courseID
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			c.enrolling = ""
			c.mu.Unlock()
		}()

		if _, err := c.courses.Enroll(ctx, courseID); err != nil {
			c.notifier.Error(err.Error())
			return
		}
		c.notifier.Success("Successfully enrolled in the course")
		c.courses.FetchForStudent(ctx)
	}()
}

// SelectFile 记下某作业待提交的本地文件
func (c *StudentController) SelectFile(assignmentID, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedFiles[assignmentID] = path
}

// Submit 提交作业。未选文件直接提示；文件先过本地类型校验再上传，
// 成功后刷新批改记录。
func (c *StudentController) Submit(ctx context.Context, assignmentID string) error {
	c.mu.Lock()
	path := c.selectedFiles[assignmentID]
	c.mu.Unlock()

	if path == "" {
		c.notifier.Error(util.ErrNoFileSelected.Error())
		return util.ErrNoFileSelected
	}

	file, err := os.Open(path)
	if err != nil {
		c.notifier.Error("Failed to grade the assignment.")
		return err
	}
	defer file.Close()

	if _, err := util.SniffMimeType(file, util.AllowedSubmissionTypes); err != nil {
		c.notifier.Error(err.Error())
		return err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	c.mu.Lock()
	c.submitting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	result, err := c.assignments.Submit(ctx, assignmentID, filepath.Base(path), file)
	if err != nil {
		c.notifier.Error(err.Error())
		return err
	}

	c.notifier.Success("Assignment graded successfully")
	if result != nil {
		c.log.Info("assignment graded", zap.String("assignmentId", assignmentID))
	}

	c.mu.Lock()
	delete(c.selectedFiles, assignmentID)
	c.mu.Unlock()

	// 成绩表由消息推导，提交成功后刷新一次
	c.assignments.FetchMessages(ctx)
	return nil
}

// ToggleCourse 折叠/展开一门课程的作业列表
func (c *StudentController) ToggleCourse(courseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collapsed[courseID] = !c.collapsed[courseID]
}

func (c *StudentController) SetView(view string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentView = view
}

// StudentView 渲染用的推导快照
type StudentView struct {
	StudentName        string
	Courses            []model.Course
	Assignments        map[string][]model.Assignment
	Grades             map[string]float64
	Collapsed          map[string]bool
	Enrolling          string
	Submitting         bool
	CurrentView        string
	LoadingCourses     bool
	LoadingAssignments bool
	ErrorMessage       string
}

// Snapshot 汇总各store快照与本地瞬态，store处于错误/空态时照样可渲染
func (c *StudentController) Snapshot() StudentView {
	courseState := c.courses.State()
	assignmentState := c.assignments.State()
	sessionState := c.session.State()

	name := ""
	if sessionState.Identity != nil {
		name = sessionState.Identity.Name
	}

	c.mu.Lock()
	collapsed := make(map[string]bool, len(c.collapsed))
	for k, v := range c.collapsed {
		collapsed[k] = v
	}
	enrolling := c.enrolling
	submitting := c.submitting
	view := c.currentView
	c.mu.Unlock()

	errMsg := courseState.ErrorMessage
	if errMsg == "" {
		errMsg = assignmentState.ErrorMessage
	}

	return StudentView{
		StudentName:        name,
		Courses:            courseState.Courses,
		Assignments:        assignmentState.ByCourse,
		Grades:             c.Grades(),
		Collapsed:          collapsed,
		Enrolling:          enrolling,
		Submitting:         submitting,
		CurrentView:        view,
		LoadingCourses:     courseState.Loading,
		LoadingAssignments: assignmentState.Loading,
		ErrorMessage:       errMsg,
	}
}
