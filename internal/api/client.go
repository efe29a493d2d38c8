package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"edu_dashboard_client/internal/config"
	"edu_dashboard_client/internal/model"
	"edu_dashboard_client/pkg/monitoring"
	"edu_dashboard_client/pkg/tracing"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// TokenSource 提供当前会话凭证，空串表示未登录
type TokenSource interface {
	Token() string
}

// Error 远端调用的统一失败形态。任何传输错误、非2xx响应或缺失凭证
// 都折叠成一条可展示的消息，绝不在此层之外抛出。
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// errBody 服务端错误载荷。大部分接口用 message，/chat 用 error
type errBody struct {
	Message string `json:"message"`
	Err     string `json:"error"`
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	// 出站限速，nil表示不限
	limiter *rate.Limiter
}

func NewClient(cfg config.APIConfig, tokens TokenSource) *Client {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)/60), cfg.RateLimit)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		limiter: limiter,
	}
}

// call 发送一次请求并把结果解码到out。endpoint 是打点用的模板路径，
// path 是实际路径。单次尝试，不重试。
func (c *Client) call(ctx context.Context, method, endpoint, path string, body io.Reader, contentType string, auth bool, fallback string, out interface{}) error {
	start := time.Now()

	ctx, span := tracing.StartRequest(ctx, method, endpoint)
	defer span.End()

	fail := func(status int, msg string) *Error {
		span.SetStatus(codes.Error, msg)
		monitoring.ObserveRequest(method, endpoint, status, start)
		return &Error{Status: status, Message: msg}
	}

	if auth {
		if c.tokens == nil || c.tokens.Token() == "" {
			return fail(http.StatusUnauthorized, fallback)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(0, fallback)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fail(0, fallback)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.tokens.Token())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fail(0, fallback)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, fallback)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fallback
		var eb errBody
		if json.Unmarshal(data, &eb) == nil {
			if eb.Message != "" {
				msg = eb.Message
			} else if eb.Err != "" {
				msg = eb.Err
			}
		}
		return fail(resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fail(resp.StatusCode, fallback)
		}
	}

	monitoring.ObserveRequest(method, endpoint, resp.StatusCode, start)
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, payload interface{}, auth bool, fallback string, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return &Error{Message: fallback}
	}
	return c.call(ctx, http.MethodPost, endpoint, path, bytes.NewReader(data), "application/json", auth, fallback, out)
}

// Login POST /login，成功时返回身份与签发的token
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	var resp model.LoginResponse
	req := model.LoginRequest{Email: email, Password: password}
	if err := c.postJSON(ctx, "/login", "/login", req, false, "Login failed", &resp); err != nil {
		return nil, "", err
	}
	if resp.ID == "" || resp.Token == "" {
		return nil, "", &Error{Status: http.StatusOK, Message: "Invalid credentials or missing data"}
	}
	return resp.User(), resp.Token, nil
}

// Register POST /register/{role}，角色决定注册端点，期望201
func (c *Client) Register(ctx context.Context, name, email, password string, role model.UserRole) error {
	req := model.RegisterRequest{Name: name, Email: email, Password: password}
	path := fmt.Sprintf("/register/%s", model.ParseRole(string(role)))
	return c.postJSON(ctx, "/register/:role", path, req, false, "Registration failed", nil)
}

// FetchCourses GET /course，讲师/管理员视角的全量课程
func (c *Client) FetchCourses(ctx context.Context) ([]model.Course, error) {
	var resp model.CourseListResponse
	if err := c.call(ctx, http.MethodGet, "/course", "/course", nil, "", true, "Failed to fetch courses", &resp); err != nil {
		return nil, err
	}
	return resp.Courses, nil
}

// FetchStudentCourses GET /student/course，学生可见课程
func (c *Client) FetchStudentCourses(ctx context.Context) ([]model.Course, error) {
	var resp model.CourseListResponse
	if err := c.call(ctx, http.MethodGet, "/student/course", "/student/course", nil, "", true, "Failed to fetch courses", &resp); err != nil {
		return nil, err
	}
	return resp.Courses, nil
}

func (c *Client) CreateCourse(ctx context.Context, req model.CreateCourseRequest) (*model.Course, error) {
	var course model.Course
	if err := c.postJSON(ctx, "/course", "/course", req, true, "Failed to create course", &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Enroll POST /select/course/:id，返回选课后的课程镜像
func (c *Client) Enroll(ctx context.Context, courseID string) (*model.Course, error) {
	var course model.Course
	path := "/select/course/" + courseID
	if err := c.call(ctx, http.MethodPost, "/select/course/:id", path, nil, "application/json", true, "Failed to enroll in course", &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// FetchCourseByID GET /courses/:id → {course}
func (c *Client) FetchCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	var resp struct {
		Course *model.Course `json:"course"`
	}
	path := "/courses/" + courseID
	if err := c.call(ctx, http.MethodGet, "/courses/:id", path, nil, "", true, "Failed to fetch course", &resp); err != nil {
		return nil, err
	}
	return resp.Course, nil
}

func (c *Client) DeleteCourse(ctx context.Context, courseID string) error {
	path := "/courses/" + courseID
	return c.call(ctx, http.MethodDelete, "/courses/:id", path, nil, "", true, "Failed to delete course", nil)
}

func (c *Client) FetchAssignments(ctx context.Context, courseID string) ([]model.Assignment, error) {
	var assignments []model.Assignment
	path := "/assignment/" + courseID
	if err := c.call(ctx, http.MethodGet, "/assignment/:courseId", path, nil, "", true, "Failed to fetch assignments", &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (c *Client) CreateAssignment(ctx context.Context, req model.CreateAssignmentRequest) (*model.Assignment, error) {
	var assignment model.Assignment
	if err := c.postJSON(ctx, "/assignment", "/assignment", req, true, "Failed to create assignment", &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// SubmitAssignment POST /chat，multipart提交作业文件并触发AI批改
func (c *Client) SubmitAssignment(ctx context.Context, assignmentID, filename string, file io.Reader) (*model.GradeResult, error) {
	const fallback = "Failed to grade the assignment."

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("assignmentId", assignmentID); err != nil {
		return nil, &Error{Message: fallback}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, &Error{Message: fallback}
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, &Error{Message: fallback}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Message: fallback}
	}

	var resp model.GradeResponse
	if err := c.call(ctx, http.MethodPost, "/chat", "/chat", &buf, w.FormDataContentType(), true, fallback, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

func (c *Client) FetchMessages(ctx context.Context) ([]model.Message, error) {
	var resp model.MessageListResponse
	if err := c.call(ctx, http.MethodGet, "/messages", "/messages", nil, "", true, "Failed to fetch messages", &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}
