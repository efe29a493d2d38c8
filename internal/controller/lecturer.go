package controller

import (
	"context"
	"strings"
	"sync"

	"edu_dashboard_client/internal/model"
	"edu_dashboard_client/internal/notify"
	"edu_dashboard_client/internal/store"
	"edu_dashboard_client/internal/util"

	"go.uber.org/zap"
)

// LecturerController 讲师仪表盘：课程管理与作业发布。
// 切换选中课程会换代（generation），换代前发出的拉取不取消，settle时
// 代数不匹配则不再碰视图局部状态，scope桶本身由store的序号守卫保护。
type LecturerController struct {
	session     *store.SessionStore
	courses     *store.CourseStore
	assignments *store.AssignmentStore
	notifier    notify.Notifier
	log         *zap.Logger

	mu                  sync.Mutex
	selectedCourseID    string
	generation          uint64
	assignmentsLoading  bool
	courseModalOpen     bool
	assignmentModalOpen bool

	wg sync.WaitGroup
}

func NewLecturerController(session *store.SessionStore, courses *store.CourseStore, assignments *store.AssignmentStore, notifier notify.Notifier, log *zap.Logger) *LecturerController {
	return &LecturerController{
		session:     session,
		courses:     courses,
		assignments: assignments,
		notifier:    notifier,
		log:         log,
	}
}

// Mount 拉取全量课程，到位后若尚无选中课程则自动选中第一门
func (c *LecturerController) Mount(ctx context.Context) {
	if c.session.Token() == "" {
		c.log.Debug("lecturer mount without credential, skip fetches")
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.courses.FetchAll(ctx); err != nil {
			return
		}

		courses := c.courses.State().Courses
		c.mu.Lock()
		needSelect := c.selectedCourseID == "" && len(courses) > 0
		c.mu.Unlock()
		if needSelect {
			c.SelectCourse(ctx, courses[0].ID)
		}
	}()
}

func (c *LecturerController) Wait() {
	c.wg.Wait()
}

// SelectCourse 切换选中课程并触发该课程的作业拉取。换代后旧拉取的
// settle不再影响loading等局部状态。
func (c *LecturerController) SelectCourse(ctx context.Context, courseID string) {
	c.mu.Lock()
	c.selectedCourseID = courseID
	c.generation++
	gen := c.generation
	c.assignmentsLoading = true
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.assignments.FetchByCourse(ctx, courseID)

		c.mu.Lock()
		if c.generation == gen {
			c.assignmentsLoading = false
		}
		c.mu.Unlock()

		if err != nil && c.isCurrent(gen) {
			c.log.Warn("fetch assignments failed", zap.String("courseId", courseID), zap.Error(err))
		}
	}()
}

func (c *LecturerController) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen
}

// AddCourse 校验后新建课程，成功时关弹窗、重拉课程列表并提示
func (c *LecturerController) AddCourse(ctx context.Context, name, description string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(description) == "" {
		c.notifier.Error(util.ErrMissingFields.Error())
		return util.ErrMissingFields
	}

	req := model.CreateCourseRequest{Name: name, Description: description}
	if _, err := c.courses.Create(ctx, req); err != nil {
		c.notifier.Error("Failed to add course.")
		return err
	}

	c.mu.Lock()
	c.courseModalOpen = false
	c.mu.Unlock()

	c.notifier.Success("Course added successfully!")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.courses.FetchAll(ctx)
	}()
	return nil
}

// AddAssignment 校验后发布作业，store会把副本挂进归属课程的桶
func (c *LecturerController) AddAssignment(ctx context.Context, title, description, dueDate, courseID string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" || strings.TrimSpace(dueDate) == "" {
		c.notifier.Error(util.ErrMissingFields.Error())
		return util.ErrMissingFields
	}
	if courseID == "" {
		c.notifier.Error(util.ErrMissingCourse.Error())
		return util.ErrMissingCourse
	}

	req := model.CreateAssignmentRequest{
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		CourseID:    courseID,
	}
	if _, err := c.assignments.Create(ctx, req); err != nil {
		c.notifier.Error("Failed to add assignment.")
		return err
	}

	c.mu.Lock()
	c.assignmentModalOpen = false
	c.mu.Unlock()

	c.notifier.Success("Assignment added successfully!")
	return nil
}

func (c *LecturerController) OpenCourseModal()      { c.setModal(&c.courseModalOpen, true) }
func (c *LecturerController) CloseCourseModal()     { c.setModal(&c.courseModalOpen, false) }
func (c *LecturerController) OpenAssignmentModal()  { c.setModal(&c.assignmentModalOpen, true) }
func (c *LecturerController) CloseAssignmentModal() { c.setModal(&c.assignmentModalOpen, false) }

func (c *LecturerController) setModal(flag *bool, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*flag = v
}

// LecturerView 渲染用的推导快照
type LecturerView struct {
	LecturerName        string
	Courses             []model.Course
	SelectedCourseID    string
	SelectedAssignments []model.Assignment
	TotalStudents       int
	PendingReviews      int
	Loading             bool
	AssignmentsLoading  bool
	CourseModalOpen     bool
	AssignmentModalOpen bool
	ErrorMessage        string
}

// Snapshot 汇总快照。统计数字从缓存推导：学生总数为各课程选课人数
// 之和，待批阅数为选中课程里尚无成绩记录的作业数。
func (c *LecturerController) Snapshot() LecturerView {
	courseState := c.courses.State()
	assignmentState := c.assignments.State()
	sessionState := c.session.State()

	name := ""
	if sessionState.Identity != nil {
		name = sessionState.Identity.Name
	}

	c.mu.Lock()
	selected := c.selectedCourseID
	loading := c.assignmentsLoading
	courseModal := c.courseModalOpen
	assignmentModal := c.assignmentModalOpen
	c.mu.Unlock()

	totalStudents := 0
	for _, course := range courseState.Courses {
		totalStudents += len(course.Students)
	}

	graded := make(map[string]bool)
	for _, m := range assignmentState.Messages {
		if m.HasGrade() {
			graded[m.AssignmentInstructions] = true
		}
	}
	selectedAssignments := assignmentState.Bucket(selected)
	pending := 0
	for _, a := range selectedAssignments {
		// 批改记录以作业标题回指作业
		if !graded[a.Title] {
			pending++
		}
	}

	errMsg := courseState.ErrorMessage
	if errMsg == "" {
		errMsg = assignmentState.ErrorMessage
	}

	return LecturerView{
		LecturerName:        name,
		Courses:             courseState.Courses,
		SelectedCourseID:    selected,
		SelectedAssignments: selectedAssignments,
		TotalStudents:       totalStudents,
		PendingReviews:      pending,
		Loading:             courseState.Loading,
		AssignmentsLoading:  loading,
		CourseModalOpen:     courseModal,
		AssignmentModalOpen: assignmentModal,
		ErrorMessage:        errMsg,
	}
}
