package model

// Assignment 作业，按课程分桶缓存
type Assignment struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	CourseID    string `json:"courseId,omitempty"`
	// POST /assignment 的响应把课程以嵌套对象返回
	Course *CourseRef `json:"course,omitempty"`
}

type CourseRef struct {
	ID string `json:"_id"`
}

// OwnerCourseID 统一取作业归属课程ID，嵌套形式优先
func (a *Assignment) OwnerCourseID() string {
	if a.Course != nil && a.Course.ID != "" {
		return a.Course.ID
	}
	return a.CourseID
}

type CreateAssignmentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	CourseID    string `json:"courseId"`
}
