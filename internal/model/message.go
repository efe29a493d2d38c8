package model

// Scores AI评分结果，除总分外各维度字段由服务端决定
type Scores struct {
	Total   float64            `json:"total"`
	Details map[string]float64 `json:"details,omitempty"`
}

// Message 已批改的提交记录，内容可能是Markdown文本
type Message struct {
	ID                     string  `json:"_id,omitempty"`
	Content                string  `json:"content,omitempty"`
	AIFeedback             string  `json:"aiFeedback,omitempty"`
	Scores                 *Scores `json:"scores,omitempty"`
	AssignmentInstructions string  `json:"assignmentInstructions,omitempty"`
}

// HasGrade 评分与作业引用齐全时才计入成绩表
func (m *Message) HasGrade() bool {
	return m.Scores != nil && m.Scores.Total != 0 && m.AssignmentInstructions != ""
}

type MessageListResponse struct {
	Messages []Message `json:"messages"`
}

// GradeResult POST /chat 返回的 {result} 载荷
type GradeResult struct {
	Student    string  `json:"student,omitempty"`
	AIFeedback string  `json:"aiFeedback,omitempty"`
	Feedback   string  `json:"feedback,omitempty"`
	Scores     *Scores `json:"scores,omitempty"`
}

type GradeResponse struct {
	Result *GradeResult `json:"result"`
}
