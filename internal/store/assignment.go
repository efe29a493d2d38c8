package store

import (
	"context"
	"io"

	"edu_dashboard_client/internal/api"
	"edu_dashboard_client/internal/model"
	"edu_dashboard_client/pkg/monitoring"

	"go.uber.org/zap"
)

const messagesScope = "messages"

// AssignmentState 作业与提交缓存快照。ByCourse按课程分桶，桶内保持
// 服务端顺序；Messages每次成功拉取整表替换。
type AssignmentState struct {
	ByCourse       map[string][]model.Assignment
	Messages       []model.Message
	LastGrade      *model.GradeResult
	Loading        bool
	ErrorMessage   string
	SuccessMessage string
}

// Bucket 取某课程的作业桶快照，缺桶返回nil
func (s AssignmentState) Bucket(courseID string) []model.Assignment {
	return s.ByCourse[courseID]
}

type AssignmentStore struct {
	*Store[AssignmentState]
	client *api.Client
	guard  *scopeGuard
	log    *zap.Logger
}

func NewAssignmentStore(client *api.Client, queueSize int, log *zap.Logger) *AssignmentStore {
	return &AssignmentStore{
		Store:  New[AssignmentState]("assignment", AssignmentState{}, queueSize),
		client: client,
		guard:  newScopeGuard(),
		log:    log,
	}
}

func (s *AssignmentStore) begin() {
	s.DispatchSync(func(st AssignmentState) AssignmentState {
		st.Loading = true
		st.ErrorMessage = ""
		st.SuccessMessage = ""
		return st
	})
}

func (s *AssignmentStore) fail(err error) {
	s.DispatchSync(func(st AssignmentState) AssignmentState {
		st.Loading = false
		st.ErrorMessage = err.Error()
		return st
	})
}

// cloneBuckets map写前拷贝，已发布的快照不再变动
func cloneBuckets(m map[string][]model.Assignment) map[string][]model.Assignment {
	out := make(map[string][]model.Assignment, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// FetchByCourse 按课程拉取作业。同一课程的并发触发不去重，每次领取
// 递增序号，settle时非最新序号的响应整体丢弃，桶要么不动要么被最新
// 结果原子替换。
func (s *AssignmentStore) FetchByCourse(ctx context.Context, courseID string) error {
	seq := s.guard.Next(courseID)
	s.begin()

	assignments, err := s.client.FetchAssignments(ctx, courseID)

	if !s.guard.Latest(courseID, seq) {
		monitoring.StaleDiscardCounter.WithLabelValues(s.Name()).Inc()
		s.log.Debug("stale assignment response discarded", zap.String("courseId", courseID))
		return err
	}

	if err != nil {
		s.fail(err)
		return err
	}

	// 缓存里的归属课程以桶键为准，嵌套/缺失的courseId一律归一
	bucket := make([]model.Assignment, len(assignments))
	for i, a := range assignments {
		a.CourseID = courseID
		bucket[i] = a
	}

	s.DispatchSync(func(st AssignmentState) AssignmentState {
		st.Loading = false
		buckets := cloneBuckets(st.ByCourse)
		buckets[courseID] = bucket
		st.ByCourse = buckets
		return st
	})
	return nil
}

// Create 新建作业，追加到归属课程的桶尾
func (s *AssignmentStore) Create(ctx context.Context, req model.CreateAssignmentRequest) (*model.Assignment, error) {
	s.begin()

	assignment, err := s.client.CreateAssignment(ctx, req)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	owner := assignment.OwnerCourseID()
	if owner == "" {
		owner = req.CourseID
	}
	created := *assignment
	created.CourseID = owner

	s.DispatchSync(func(st AssignmentState) AssignmentState {
		st.Loading = false
		st.SuccessMessage = "Assignment added successfully"
		buckets := cloneBuckets(st.ByCourse)
		old := buckets[owner]
		bucket := make([]model.Assignment, len(old), len(old)+1)
		copy(bucket, old)
		buckets[owner] = append(bucket, created)
		st.ByCourse = buckets
		return st
	})
	return &created, nil
}

// Submit 提交作业文件触发AI批改，成功时记下最近一次批改结果
func (s *AssignmentStore) Submit(ctx context.Context, assignmentID, filename string, file io.Reader) (*model.GradeResult, error) {
	s.begin()

	result, err := s.client.SubmitAssignment(ctx, assignmentID, filename, file)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.DispatchSync(func(st AssignmentState) AssignmentState {
		st.Loading = false
		st.SuccessMessage = "Assignment graded successfully"
		st.LastGrade = result
		return st
	})
	return result, nil
}

// FetchMessages 拉取当前学生的批改记录，成功时整表替换
func (s *AssignmentStore) FetchMessages(ctx context.Context) error {
	seq := s.guard.Next(messagesScope)
	s.begin()

	messages, err := s.client.FetchMessages(ctx)

	if !s.guard.Latest(messagesScope, seq) {
		monitoring.StaleDiscardCounter.WithLabelValues(s.Name()).Inc()
		s.log.Debug("stale messages response discarded")
		return err
	}

	if err != nil {
		s.fail(err)
		return err
	}

	s.DispatchSync(func(st AssignmentState) AssignmentState {
		st.Loading = false
		st.Messages = messages
		st.SuccessMessage = "Messages fetched successfully"
		return st
	})
	return nil
}

// Reset 清空提示、批改结果与消息缓存，作业桶保留
func (s *AssignmentStore) Reset() {
	s.DispatchSync(func(st AssignmentState) AssignmentState {
		st.ErrorMessage = ""
		st.SuccessMessage = ""
		st.LastGrade = nil
		st.Messages = nil
		return st
	})
}
