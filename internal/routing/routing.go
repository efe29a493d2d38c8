package routing

import "edu_dashboard_client/internal/model"

type View string

const (
	ViewHome      View = "home"
	ViewLogin     View = "login"
	ViewRegister  View = "register"
	ViewDashboard View = "dashboard"
	ViewStudent   View = "student"
	ViewLecturer  View = "lecturer"
	ViewAdmin     View = "admin"
)

// publicViews 未登录也可访问的视图
var publicViews = []View{ViewHome, ViewLogin, ViewRegister}

// AllowedViews 角色可访问的视图全集。权限判定集中在路由边界做一次，
// 视图内部不再各自检查角色。
func AllowedViews(role model.UserRole) []View {
	views := make([]View, 0, len(publicViews)+2)
	views = append(views, publicViews...)
	views = append(views, ViewDashboard)
	switch role {
	case model.Lecturer:
		views = append(views, ViewLecturer)
	case model.Admin:
		views = append(views, ViewAdmin)
	default:
		views = append(views, ViewStudent)
	}
	return views
}

func CanAccess(role model.UserRole, view View) bool {
	for _, v := range AllowedViews(role) {
		if v == view {
			return true
		}
	}
	return false
}

// DashboardFor 登录成功后的跳转目标
func DashboardFor(role model.UserRole) View {
	switch role {
	case model.Lecturer:
		return ViewLecturer
	case model.Admin:
		return ViewAdmin
	default:
		return ViewStudent
	}
}

// CanAccessAnonymous 无会话时只放行公共视图
func CanAccessAnonymous(view View) bool {
	for _, v := range publicViews {
		if v == view {
			return true
		}
	}
	return false
}
