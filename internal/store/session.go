package store

import (
	"context"
	"time"

	"edu_dashboard_client/internal/api"
	"edu_dashboard_client/internal/credential"
	"edu_dashboard_client/internal/model"
	"edu_dashboard_client/internal/util"

	"go.uber.org/zap"
)

// SessionState 会话快照。
// 不变量：Identity非空时Credential必定非空。
type SessionState struct {
	Identity   *model.User
	Credential string
	Pending    bool
	LastError  string
}

// SessionStore 持有登录态，凭证落盘由credential.FileStore负责。
// 登录调用不做去重：并发登录最后settle的一方生效。
type SessionStore struct {
	*Store[SessionState]
	client *api.Client
	creds  *credential.FileStore
	log    *zap.Logger
}

func NewSessionStore(creds *credential.FileStore, queueSize int, log *zap.Logger) *SessionStore {
	return &SessionStore{
		Store: New[SessionState]("session", SessionState{}, queueSize),
		creds: creds,
		log:   log,
	}
}

// Bind 注入远端客户端。客户端又以本store为TokenSource，
// 二者相互引用，构造完成后绑定一次。
func (s *SessionStore) Bind(client *api.Client) {
	s.client = client
}

// Token 实现api.TokenSource
func (s *SessionStore) Token() string {
	return s.State().Credential
}

// Login 请求签发凭证。成功时写入身份与token、凭证落盘，并把身份
// 返回给调用方做跳转；失败时只记LastError，不动已有登录态。
func (s *SessionStore) Login(ctx context.Context, email, password string) (*model.User, error) {
	s.DispatchSync(func(st SessionState) SessionState {
		st.Pending = true
		st.LastError = ""
		return st
	})

	user, token, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.DispatchSync(func(st SessionState) SessionState {
			st.Pending = false
			st.LastError = err.Error()
			return st
		})
		return nil, err
	}

	s.DispatchSync(func(st SessionState) SessionState {
		st.Pending = false
		st.Identity = user
		st.Credential = token
		return st
	})

	if err := s.creds.Save(credential.Record{Token: token, User: user}); err != nil {
		s.log.Warn("persist credential failed", zap.Error(err))
	}

	s.log.Info("login succeeded", zap.String("role", string(user.Role)))
	return user, nil
}

// Register 走角色专属注册端点，201后用同一组凭证自动登录
func (s *SessionStore) Register(ctx context.Context, name, email, password string, role model.UserRole) (*model.User, error) {
	s.DispatchSync(func(st SessionState) SessionState {
		st.Pending = true
		st.LastError = ""
		return st
	})

	if err := s.client.Register(ctx, name, email, password, role); err != nil {
		s.DispatchSync(func(st SessionState) SessionState {
			st.Pending = false
			st.LastError = err.Error()
			return st
		})
		return nil, err
	}

	s.DispatchSync(func(st SessionState) SessionState {
		st.Pending = false
		return st
	})

	return s.Login(ctx, email, password)
}

// Restore 启动时采用落盘凭证，不向服务端校验，失效与否交给下一次
// 带凭证的请求。身份优先取落盘记录，缺失时从token声明里尽力恢复。
func (s *SessionStore) Restore() bool {
	rec, err := s.creds.Load()
	if err != nil {
		s.log.Warn("load persisted credential failed", zap.Error(err))
		return false
	}
	if rec == nil {
		return false
	}

	identity := rec.User
	if identity == nil {
		if claims, err := util.DecodeClaims(rec.Token); err == nil {
			if util.Expired(claims, time.Now()) {
				s.log.Debug("persisted token looks expired, adopting anyway")
			}
			identity = util.ClaimsUser(claims)
		}
	}

	s.DispatchSync(func(st SessionState) SessionState {
		st.Credential = rec.Token
		st.Identity = identity
		return st
	})

	s.log.Info("session restored from disk")
	return true
}

// Logout 清除登录态与落盘凭证。域store内容保留，下次导航自然刷新。
func (s *SessionStore) Logout() {
	s.DispatchSync(func(st SessionState) SessionState {
		return SessionState{}
	})
	if err := s.creds.Clear(); err != nil {
		s.log.Warn("clear persisted credential failed", zap.Error(err))
	}
}
