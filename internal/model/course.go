package model

// Course 服务端创建，客户端只缓存fetch/create返回的副本
type Course struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Students    []string `json:"students,omitempty"` // 已选课学生ID列表
}

type CreateCourseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CourseListResponse GET /course 与 GET /student/course 的响应包装
type CourseListResponse struct {
	Courses []Course `json:"courses"`
}
