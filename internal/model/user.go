package model

type UserRole string

const (
	Student  UserRole = "student"
	Lecturer UserRole = "lecturer"
	Admin    UserRole = "admin"
)

// ParseRole 将任意字符串归一化为合法角色，未知值按学生处理
func ParseRole(s string) UserRole {
	switch UserRole(s) {
	case Student, Lecturer, Admin:
		return UserRole(s)
	default:
		return Student
	}
}

// User 登录接口返回的身份信息，字段名与远端API保持一致
type User struct {
	ID    string   `json:"_id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse 远端登录响应，token与身份字段平铺在同一层
type LoginResponse struct {
	ID    string   `json:"_id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
	Token string   `json:"token"`
}

func (r *LoginResponse) User() *User {
	return &User{ID: r.ID, Name: r.Name, Email: r.Email, Role: r.Role}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
