package store

import (
	"context"

	"edu_dashboard_client/internal/api"
	"edu_dashboard_client/internal/model"
	"edu_dashboard_client/pkg/monitoring"

	"go.uber.org/zap"
)

const courseListScope = "courses"

// CourseState 课程缓存快照。Courses保持服务端返回顺序，
// Loading/ErrorMessage只反映最近一次发起的操作。
type CourseState struct {
	Courses        []model.Course
	Current        *model.Course
	Loading        bool
	ErrorMessage   string
	SuccessMessage string
}

// Find 按ID查找缓存的课程副本
func (s CourseState) Find(id string) *model.Course {
	for i := range s.Courses {
		if s.Courses[i].ID == id {
			c := s.Courses[i]
			return &c
		}
	}
	return nil
}

type CourseStore struct {
	*Store[CourseState]
	client *api.Client
	guard  *scopeGuard
	// 选课成功后是否用响应载荷更新课程列表缓存
	optimisticEnroll bool
	log              *zap.Logger
}

func NewCourseStore(client *api.Client, queueSize int, optimisticEnroll bool, log *zap.Logger) *CourseStore {
	return &CourseStore{
		Store:            New[CourseState]("course", CourseState{}, queueSize),
		client:           client,
		guard:            newScopeGuard(),
		optimisticEnroll: optimisticEnroll,
		log:              log,
	}
}

func (s *CourseStore) begin() {
	s.DispatchSync(func(st CourseState) CourseState {
		st.Loading = true
		st.ErrorMessage = ""
		st.SuccessMessage = ""
		return st
	})
}

func (s *CourseStore) fail(err error) {
	s.DispatchSync(func(st CourseState) CourseState {
		st.Loading = false
		st.ErrorMessage = err.Error()
		return st
	})
}

// FetchAll 拉取全量课程（讲师/管理员视角），成功时整表替换
func (s *CourseStore) FetchAll(ctx context.Context) error {
	return s.fetchList(ctx, s.client.FetchCourses)
}

// FetchForStudent 拉取学生可见课程，与FetchAll共用同一个列表scope
func (s *CourseStore) FetchForStudent(ctx context.Context) error {
	return s.fetchList(ctx, s.client.FetchStudentCourses)
}

func (s *CourseStore) fetchList(ctx context.Context, fetch func(context.Context) ([]model.Course, error)) error {
	seq := s.guard.Next(courseListScope)
	s.begin()

	courses, err := fetch(ctx)

	if !s.guard.Latest(courseListScope, seq) {
		// 已有更新的fetch发出，本次结果整体丢弃
		monitoring.StaleDiscardCounter.WithLabelValues(s.Name()).Inc()
		s.log.Debug("stale course list response discarded")
		return err
	}

	if err != nil {
		s.fail(err)
		return err
	}

	s.DispatchSync(func(st CourseState) CourseState {
		st.Loading = false
		st.Courses = courses
		return st
	})
	return nil
}

// FetchByID 拉取单个课程详情，写入Current
func (s *CourseStore) FetchByID(ctx context.Context, id string) error {
	s.begin()

	course, err := s.client.FetchCourseByID(ctx, id)
	if err != nil {
		s.fail(err)
		return err
	}

	s.DispatchSync(func(st CourseState) CourseState {
		st.Loading = false
		st.Current = course
		return st
	})
	return nil
}

// Create 新建课程。成功时把服务端返回的副本追加到列表末尾；
// 失败时已缓存列表原样保留。
func (s *CourseStore) Create(ctx context.Context, req model.CreateCourseRequest) (*model.Course, error) {
	s.begin()

	course, err := s.client.CreateCourse(ctx, req)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	s.DispatchSync(func(st CourseState) CourseState {
		st.Loading = false
		st.SuccessMessage = "Course created successfully"
		courses := make([]model.Course, len(st.Courses), len(st.Courses)+1)
		copy(courses, st.Courses)
		st.Courses = append(courses, *course)
		return st
	})
	return course, nil
}

// Delete 删除课程并从缓存列表剔除
func (s *CourseStore) Delete(ctx context.Context, id string) error {
	s.begin()

	if err := s.client.DeleteCourse(ctx, id); err != nil {
		s.fail(err)
		return err
	}

	s.DispatchSync(func(st CourseState) CourseState {
		st.Loading = false
		st.SuccessMessage = "Course deleted successfully"
		courses := make([]model.Course, 0, len(st.Courses))
		for _, c := range st.Courses {
			if c.ID != id {
				courses = append(courses, c)
			}
		}
		st.Courses = courses
		return st
	})
	return nil
}

// Enroll 选课。默认只把响应写入Current，列表缓存不动，调用方重新
// 拉取才能看到选课状态；optimisticEnroll开启时就地替换列表里的对应
// 课程副本。
func (s *CourseStore) Enroll(ctx context.Context, courseID string) (*model.Course, error) {
	s.begin()

	course, err := s.client.Enroll(ctx, courseID)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	optimistic := s.optimisticEnroll
	s.DispatchSync(func(st CourseState) CourseState {
		st.Loading = false
		st.SuccessMessage = "Successfully enrolled in the course"
		st.Current = course
		if optimistic && course != nil {
			courses := make([]model.Course, len(st.Courses))
			copy(courses, st.Courses)
			for i := range courses {
				if courses[i].ID == course.ID {
					courses[i] = *course
					break
				}
			}
			st.Courses = courses
		}
		return st
	})
	return course, nil
}

// Reset 清空提示信息与Current，缓存列表保留
func (s *CourseStore) Reset() {
	s.DispatchSync(func(st CourseState) CourseState {
		st.ErrorMessage = ""
		st.SuccessMessage = ""
		st.Current = nil
		return st
	})
}
